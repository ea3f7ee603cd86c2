package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// PendingLister lists approvals a standalone MCP process is waiting on.
// *storage.ApprovalStore implements it.
type PendingLister interface {
	ListPending() ([]storage.Approval, error)
}

// approvalWatcher polls the approvals table so a long-running process can
// announce actions an MCP process in another terminal is blocked on.
type approvalWatcher struct {
	store    PendingLister
	emitter  service.EventEmitter
	logger   *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	emitted map[string]bool
}

func newApprovalWatcher(store PendingLister, emitter service.EventEmitter, logger *zap.Logger) *approvalWatcher {
	return &approvalWatcher{
		store:    store,
		emitter:  emitter,
		logger:   logger.Named("approvals"),
		interval: 2 * time.Second,
		emitted:  map[string]bool{},
	}
}

// Run polls until ctx ends.
func (w *approvalWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *approvalWatcher) check(ctx context.Context) {
	pending, err := w.store.ListPending()
	if err != nil {
		w.logger.Debug("list pending approvals", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	seen := make(map[string]bool, len(pending))
	for _, a := range pending {
		seen[a.ID] = true
		if w.emitted[a.ID] {
			continue
		}
		w.emitted[a.ID] = true
		w.emitter.Emit(ctx, mcpserver.EventApprovalRequired, mcpserver.PendingAction{
			ID:          a.ID,
			Tool:        a.Tool,
			Description: a.Description,
			CreatedAt:   a.CreatedAt.Format(time.RFC3339),
			Metadata:    a.Metadata,
		})
	}
	// Forget approvals that were resolved or deleted by the MCP process.
	for id := range w.emitted {
		if !seen[id] {
			delete(w.emitted, id)
		}
	}
}
