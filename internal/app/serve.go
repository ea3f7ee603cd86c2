package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/service"
)

// Serve runs the admin API together with the scheduler, the catalog
// watcher and the approval watcher until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	srv := a.AdminServer()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.ListenAndServe(gctx, a.cfg.Server.Addr, a.cfg.GetReadTimeout(), a.cfg.GetWriteTimeout())
	})

	if a.cfg.Scheduler.Enabled {
		sched := service.NewScheduler(a.cfg.Scheduler, service.SchedulerDeps{
			Publisher: srv,
			Links:     a.menus,
			Emitter:   a.emitter,
			Logger:    a.logger,
			Now:       a.now,
		})
		if err := sched.Start(gctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
		g.Go(func() error {
			a.loadLastMenus(gctx)
			return nil
		})
	}

	if a.cfg.Catalog.Dir != "" && a.cfg.Catalog.Watch {
		w := catalog.NewWatcher(a.loader, a.cfg.Catalog.Dir, a.cfg.GetCatalogDebounce(), func(res catalog.Result, err error) {
			if err != nil {
				a.logger.Warn("catalog reload failed", zap.Error(err))
				return
			}
			a.emitter.Emit(gctx, service.EventCatalogReloaded, res)
		})
		if err := w.Start(gctx); err != nil {
			a.logger.Warn("catalog watch disabled", zap.String("dir", a.cfg.Catalog.Dir), zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	watcher := newApprovalWatcher(a.approvals, a.emitter, a.logger)
	g.Go(func() error {
		watcher.Run(gctx)
		return nil
	})

	return g.Wait()
}

// loadLastMenus opens the menus of the last used site once the admin API
// answers, so the link job has something to refresh.
func (a *App) loadLastMenus(ctx context.Context) {
	siteID := a.session.LastSiteID()
	if siteID == "" {
		return
	}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for attempt := 0; attempt < 20; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		site, err := a.Site(ctx, siteID)
		if err != nil {
			continue
		}
		if err := a.menus.Load(ctx, site, ""); err != nil {
			a.logger.Warn("load menus", zap.String("site_id", siteID), zap.Error(err))
			return
		}
		a.menus.RefreshLinks(ctx, a.now())
		a.logger.Info("menus loaded", zap.String("site", site.Name))
		return
	}
}
