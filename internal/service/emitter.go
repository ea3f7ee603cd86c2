package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from their front end
// ─────────────────────────────────────────────────────────────

// Events emitted by the services.
const (
	EventNotice           = "editor:notice"
	EventSaved            = "editor:saved"
	EventPublished        = "editor:published"
	EventMenuSaved        = "menu:saved"
	EventMenuLinksChanged = "menu:links-changed"
	EventCatalogReloaded  = "catalog:reloaded"
)

// EventEmitter delivers service events to whatever drives the editor
// (the MCP server, the CLI, tests).
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a zap logger.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogEmitter{logger: logger.Named("events")}
}

func (e *LogEmitter) Emit(_ context.Context, event string, data any) {
	e.logger.Info(event, zap.Any("data", data))
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions of one event, in order.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func emitterOrNop(e EventEmitter) EventEmitter {
	if e == nil {
		return NewLogEmitter(nil)
	}
	return e
}
