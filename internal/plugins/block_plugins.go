// Package plugins holds the kind hooks shipped with the editor.
package plugins

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Countdown
// ─────────────────────────────────────────────────────────────

// DefaultCountdownDays is how far ahead a new Countdown ends.
const DefaultCountdownDays = 7

type countdownHook struct {
	days int
	now  func() time.Time
}

// NewCountdownHook fills endsAt on new Countdown blocks with now + days.
func NewCountdownHook(days int, now func() time.Time) service.KindHook {
	if days <= 0 {
		days = DefaultCountdownDays
	}
	if now == nil {
		now = time.Now
	}
	return &countdownHook{days: days, now: now}
}

func (h *countdownHook) Kind() string { return "Countdown" }

func (h *countdownHook) OnCreate(_ context.Context, b domain.Block) (map[string]any, error) {
	if s, _ := b.Props["endsAt"].(string); s != "" {
		return nil, nil
	}
	endsAt := h.now().UTC().AddDate(0, 0, h.days).Truncate(time.Minute)
	return map[string]any{"endsAt": endsAt.Format(time.RFC3339)}, nil
}

func (h *countdownHook) OnRemove(context.Context, domain.Block) error { return nil }

// ─────────────────────────────────────────────────────────────
// ProductRail
// ─────────────────────────────────────────────────────────────

// SourceLookup resolves a data source by name or id.
// *service.DataSourceService implements it.
type SourceLookup interface {
	Get(ref string) (*domain.DataSource, error)
}

type productRailHook struct {
	defaultSource string
	sources       SourceLookup
	logger        *zap.Logger
}

// NewProductRailHook binds new ProductRail blocks without a source to
// defaultSource. When sources is set the default must resolve.
func NewProductRailHook(defaultSource string, sources SourceLookup, logger *zap.Logger) service.KindHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productRailHook{defaultSource: defaultSource, sources: sources, logger: logger.Named("productrail")}
}

func (h *productRailHook) Kind() string { return "ProductRail" }

func (h *productRailHook) OnCreate(_ context.Context, b domain.Block) (map[string]any, error) {
	if s, _ := b.Props["source"].(string); s != "" || h.defaultSource == "" {
		return nil, nil
	}
	if h.sources != nil {
		if _, err := h.sources.Get(h.defaultSource); err != nil {
			return nil, fmt.Errorf("default source %q: %w", h.defaultSource, err)
		}
	}
	return map[string]any{"source": h.defaultSource}, nil
}

func (h *productRailHook) OnRemove(_ context.Context, b domain.Block) error {
	h.logger.Debug("product rail removed", zap.String("block_id", b.ID))
	return nil
}
