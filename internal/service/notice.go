package service

import (
	"context"
	"sync"
	"time"
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 1750 * time.Millisecond

// Notice is a transient message shown to the editor user.
type Notice struct {
	Level   string    `json:"level"` // info | error
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier holds at most one notice and clears it after its TTL. A newer
// notice replaces the current one and restarts the timer.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	emitter EventEmitter
	current *Notice
	gen     uint64
	timer   *time.Timer
}

func NewNotifier(ttl time.Duration, emitter EventEmitter) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notifier{ttl: ttl, emitter: emitterOrNop(emitter)}
}

// Info shows an informational notice.
func (n *Notifier) Info(ctx context.Context, msg string) { n.show(ctx, "info", msg) }

// Error shows an error notice.
func (n *Notifier) Error(ctx context.Context, msg string) { n.show(ctx, "error", msg) }

func (n *Notifier) show(ctx context.Context, level, msg string) {
	n.mu.Lock()
	notice := Notice{Level: level, Message: msg, At: time.Now()}
	n.current = &notice
	n.gen++
	gen := n.gen
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(gen) })
	n.mu.Unlock()

	n.emitter.Emit(ctx, EventNotice, notice)
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen == gen {
		n.current = nil
	}
}

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}
