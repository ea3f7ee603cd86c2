package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pagebuilder/internal/config"
)

// ─────────────────────────────────────────────────────────────
// Scheduler — timed publishing and scheduled-link refresh
// ─────────────────────────────────────────────────────────────

// Scheduler job names.
const (
	JobPublishDue = "publish-due"
	JobMenuLinks  = "menu-links"
)

// ErrJobRunning is returned when a job is triggered while a previous run
// is still in flight.
var ErrJobRunning = errors.New("job already running")

// DuePublisher publishes pages whose publishAt has passed.
// *adminapi.Server implements it.
type DuePublisher interface {
	PublishDue(now time.Time) ([]string, error)
}

// LinkRefresher re-resolves scheduled menu links. *MenuService
// implements it.
type LinkRefresher interface {
	RefreshLinks(ctx context.Context, now time.Time) bool
}

// Scheduler runs the periodic jobs on cron specs.
type Scheduler struct {
	cfg       config.SchedulerConfig
	publisher DuePublisher
	links     LinkRefresher
	emitter   EventEmitter
	logger    *zap.Logger
	now       func() time.Time

	guard jobGuard
	mu    sync.Mutex
	cron  *cron.Cron
}

// SchedulerDeps bundles the collaborators of a Scheduler. A nil Publisher
// or Links disables the matching job.
type SchedulerDeps struct {
	Publisher DuePublisher
	Links     LinkRefresher
	Emitter   EventEmitter
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewScheduler(cfg config.SchedulerConfig, d SchedulerDeps) *Scheduler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		cfg:       cfg,
		publisher: d.Publisher,
		links:     d.Links,
		emitter:   emitterOrNop(d.Emitter),
		logger:    logger.Named("scheduler"),
		now:       now,
	}
}

// Start registers the enabled jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	add := func(spec, name string) error {
		if spec == "" {
			return nil
		}
		_, err := c.AddFunc(spec, func() {
			if err := s.Run(ctx, name); err != nil && !errors.Is(err, ErrJobRunning) {
				s.logger.Warn("job failed", zap.String("job", name), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		return nil
	}
	if s.publisher != nil {
		if err := add(s.cfg.Publish, JobPublishDue); err != nil {
			return err
		}
	}
	if s.links != nil {
		if err := add(s.cfg.MenuLinks, JobMenuLinks); err != nil {
			return err
		}
	}
	c.Start()
	s.cron = c
	s.logger.Info("scheduler started", zap.Int("jobs", len(c.Entries())))
	return nil
}

// Run executes one job now. Overlapping runs of the same job are refused
// with ErrJobRunning.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	if !s.guard.TryLock(name) {
		s.logger.Debug("skipping overlapping run", zap.String("job", name))
		return ErrJobRunning
	}
	defer s.guard.Unlock(name)

	switch name {
	case JobPublishDue:
		return s.publishDue(ctx)
	case JobMenuLinks:
		return s.refreshLinks(ctx)
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}

func (s *Scheduler) publishDue(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	ids, err := s.publisher.PublishDue(s.now())
	for _, id := range ids {
		s.emitter.Emit(ctx, EventPublished, map[string]string{"pageId": id})
	}
	if len(ids) > 0 {
		s.logger.Info("scheduled pages published", zap.Strings("page_ids", ids))
	}
	return err
}

func (s *Scheduler) refreshLinks(ctx context.Context) error {
	if s.links == nil {
		return nil
	}
	s.links.RefreshLinks(ctx, s.now())
	return nil
}

// Stop halts the cron loop and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	s.guard.WaitAll(ctx)
}
