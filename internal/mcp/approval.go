package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// Events emitted by the approval queue.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// DefaultApprovalTimeout is how long a destructive call waits for a
// decision before it is rejected.
const DefaultApprovalTimeout = 120 * time.Second

// ErrRejected is returned when a user rejects or ignores an action.
var ErrRejected = errors.New("action rejected")

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. block IDs)
}

// ApprovalStore persists pending actions so another process can decide
// them. *storage.ApprovalStore implements it.
type ApprovalStore interface {
	Create(a *storage.Approval) error
	Status(id string) (string, error)
	Delete(id string) error
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool calls.
// It supports two modes:
//   - In-process: pending actions are emitted as events and decided with
//     Approve/Reject
//   - Store-backed (stdio MCP): pending actions are written to SQLite and
//     polled until `pagebuilder approvals approve|reject` decides them
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	emitter service.EventEmitter
	timeout time.Duration
	poll    time.Duration
	store   ApprovalStore
}

func NewApprovalQueue(emitter service.EventEmitter, timeout time.Duration) *ApprovalQueue {
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}
	if emitter == nil {
		emitter = service.NewLogEmitter(nil)
	}
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		emitter: emitter,
		timeout: timeout,
		poll:    500 * time.Millisecond,
	}
}

// SetStore enables store-backed mode.
func (q *ApprovalQueue) SetStore(store ApprovalStore) {
	q.store = store
}

// Request blocks until the action is approved, rejected, times out or ctx
// ends. Anything but an approval returns an error wrapping ErrRejected or
// the context error.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, metadata ...string) error {
	id := uuid.NewString()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}
	if q.store != nil {
		return q.requestViaStore(ctx, id, tool, description, meta)
	}
	return q.requestViaChannel(ctx, id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(ctx context.Context, id, tool, description, metadata string) error {
	if err := q.store.Create(&storage.Approval{ID: id, Tool: tool, Description: description, Metadata: metadata}); err != nil {
		return err
	}
	defer q.store.Delete(id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.Status(id)
			if err != nil {
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("%w by user: %s", ErrRejected, tool)
			}
		case <-deadline.C:
			return fmt.Errorf("%w: timed out after %s: %s", ErrRejected, q.timeout, tool)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(ctx context.Context, id, tool, description, metadata string) error {
	ch := make(chan bool, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("%w by user: %s", ErrRejected, tool)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("%w: timed out after %s: %s", ErrRejected, q.timeout, tool)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Approve marks a pending action as approved (in-process mode).
func (q *ApprovalQueue) Approve(actionID string) bool {
	return q.decide(actionID, true)
}

// Reject marks a pending action as rejected (in-process mode).
func (q *ApprovalQueue) Reject(actionID string) bool {
	return q.decide(actionID, false)
}

func (q *ApprovalQueue) decide(actionID string, approved bool) bool {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- approved:
		return true
	default:
		return false
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
