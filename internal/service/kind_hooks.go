package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Kind hooks — per-kind lifecycle callbacks for editor blocks
// ─────────────────────────────────────────────────────────────

// KindHook reacts to blocks of one kind entering or leaving a page.
type KindHook interface {
	// Kind returns the block kind handled (e.g. "Countdown").
	Kind() string
	// OnCreate runs after a block is inserted. The returned props are
	// merged into the block; nil leaves it untouched.
	OnCreate(ctx context.Context, b domain.Block) (map[string]any, error)
	// OnRemove runs after a block is removed from the page.
	OnRemove(ctx context.Context, b domain.Block) error
}

// KindHooks dispatches lifecycle events to the registered hooks.
type KindHooks struct {
	mu    sync.RWMutex
	hooks map[string]KindHook
}

func NewKindHooks(hooks ...KindHook) *KindHooks {
	r := &KindHooks{hooks: make(map[string]KindHook)}
	for _, h := range hooks {
		r.Register(h)
	}
	return r
}

// Register adds a hook. Panics on duplicate registration.
func (r *KindHooks) Register(h KindHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := h.Kind()
	if _, exists := r.hooks[k]; exists {
		panic(fmt.Sprintf("kind hooks: duplicate registration for kind %q", k))
	}
	r.hooks[k] = h
}

// Kinds lists the kinds with a hook, sorted.
func (r *KindHooks) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.hooks))
	for k := range r.hooks {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// OnCreate dispatches to the hook for b's kind, if any.
func (r *KindHooks) OnCreate(ctx context.Context, b domain.Block) (map[string]any, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	h, ok := r.hooks[b.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return h.OnCreate(ctx, b)
}

// OnRemove dispatches to the hook for b's kind, if any.
func (r *KindHooks) OnRemove(ctx context.Context, b domain.Block) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	h, ok := r.hooks[b.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return h.OnRemove(ctx, b)
}
