package service

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pagebuilder/internal/adminapi"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/menu"
)

// ─────────────────────────────────────────────────────────────
// Menu Service — navigation menus of one site and locale
// ─────────────────────────────────────────────────────────────

// MenuService edits the home and secondary menus of one site and locale.
// Edits are kept as a session draft until Save posts them.
type MenuService struct {
	mu      sync.Mutex
	api     AdminAPI
	session *SessionService
	emitter EventEmitter
	logger  *zap.Logger

	site     *domain.Site
	locale   string
	set      domain.MenuSet
	gen      uint64 // bumped whenever set changes
	resolved map[string]string
}

func NewMenuService(api AdminAPI, session *SessionService, emitter EventEmitter, logger *zap.Logger) *MenuService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{
		api:     api,
		session: session,
		emitter: emitterOrNop(emitter),
		logger:  logger.Named("menu"),
	}
}

// Load opens the menus of site in locale ("" for the site's default). A
// stored draft wins over the server copy.
func (s *MenuService) Load(ctx context.Context, site domain.Site, locale string) error {
	if locale == "" {
		locale = site.DefaultLocale()
	}
	set, ok, err := s.session.MenuDraft(site.ID, locale)
	if err != nil {
		return err
	}
	if !ok {
		set, err = s.fetch(ctx, site, locale)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.site = &site
	s.locale = locale
	s.set = set
	s.gen++
	s.resolved = nil
	s.logger.Info("menus loaded",
		zap.String("site_id", site.ID),
		zap.String("locale", locale),
		zap.Bool("draft", ok))
	return nil
}

// Discard drops the draft and reloads the menus from the server.
func (s *MenuService) Discard(ctx context.Context) error {
	site, locale, err := s.current()
	if err != nil {
		return err
	}
	if err := s.session.ClearMenuDraft(site.ID, locale); err != nil {
		return err
	}
	return s.Load(ctx, site, locale)
}

func (s *MenuService) fetch(ctx context.Context, site domain.Site, locale string) (domain.MenuSet, error) {
	var set domain.MenuSet
	trees := make([][]*domain.MenuItem, len(domain.MenuNames))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range domain.MenuNames {
		g.Go(func() error {
			rows, err := s.api.MenuItems(gctx, site.ID, name, locale)
			if err != nil {
				return fmt.Errorf("load %s menu: %w", name, err)
			}
			trees[i] = menu.Build(rows, site.Kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return set, err
	}
	for i, name := range domain.MenuNames {
		set.SetTree(name, trees[i])
	}
	return set, nil
}

func (s *MenuService) current() (domain.Site, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site == nil {
		return domain.Site{}, "", ErrNoSite
	}
	return *s.site, s.locale, nil
}

// Loaded returns the site and locale whose menus are open.
func (s *MenuService) Loaded() (domain.Site, string, bool) {
	site, locale, err := s.current()
	return site, locale, err == nil
}

// Tree returns the named menu.
func (s *MenuService) Tree(name domain.MenuName) []*domain.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Tree(name)
}

// Set returns both menus.
func (s *MenuService) Set() domain.MenuSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// edit applies fn to the named menu and stores the result as the draft.
func (s *MenuService) edit(name domain.MenuName, fn func([]*domain.MenuItem) ([]*domain.MenuItem, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site == nil {
		return ErrNoSite
	}
	next, err := fn(s.set.Tree(name))
	if err != nil {
		return err
	}
	set := s.set
	set.SetTree(name, next)
	if err := s.session.SetMenuDraft(s.site.ID, s.locale, set); err != nil {
		return err
	}
	s.set = set
	s.gen++
	return nil
}

// Add appends a new item with label at the top level, or as the last
// child of parentID.
func (s *MenuService) Add(name domain.MenuName, label, parentID string) (*domain.MenuItem, error) {
	item := menu.NewItem(label)
	err := s.edit(name, func(tree []*domain.MenuItem) ([]*domain.MenuItem, error) {
		next := menu.AddRoot(tree, item)
		if parentID == "" {
			return next, nil
		}
		return menu.MoveToChildren(next, item.ID, parentID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update replaces the fields of one item.
func (s *MenuService) Update(name domain.MenuName, id string, fn func(domain.MenuItem) domain.MenuItem) error {
	return s.edit(name, func(tree []*domain.MenuItem) ([]*domain.MenuItem, error) {
		return menu.Update(tree, id, fn)
	})
}

// Remove deletes an item and its children.
func (s *MenuService) Remove(name domain.MenuName, id string) error {
	return s.edit(name, func(tree []*domain.MenuItem) ([]*domain.MenuItem, error) {
		removed, next := menu.Remove(tree, id)
		if removed == nil {
			return nil, menu.ErrNotFound
		}
		return next, nil
	})
}

// MoveToRoot moves an item to the end of the top level.
func (s *MenuService) MoveToRoot(name domain.MenuName, id string) error {
	return s.edit(name, func(tree []*domain.MenuItem) ([]*domain.MenuItem, error) {
		return menu.MoveToRoot(tree, id)
	})
}

// MoveToChildren moves an item to the end of parentID's children.
func (s *MenuService) MoveToChildren(name domain.MenuName, id, parentID string) error {
	return s.edit(name, func(tree []*domain.MenuItem) ([]*domain.MenuItem, error) {
		return menu.MoveToChildren(tree, id, parentID)
	})
}

// Save posts both menus and clears the draft.
func (s *MenuService) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.site == nil {
		s.mu.Unlock()
		return ErrNoSite
	}
	site, locale, set, gen := *s.site, s.locale, s.set, s.gen
	s.mu.Unlock()

	for _, name := range domain.MenuNames {
		req := adminapi.SaveTreeRequest{
			SiteID: site.ID,
			Menu:   name,
			Locale: locale,
			Items:  menu.Flatten(set.Tree(name), site.ID, name, locale),
		}
		if err := s.api.SaveMenuTree(ctx, req); err != nil {
			return fmt.Errorf("save %s menu: %w", name, err)
		}
	}
	s.mu.Lock()
	edited := s.gen != gen
	s.mu.Unlock()
	if edited {
		s.logger.Info("menus edited during save, keeping draft",
			zap.String("site_id", site.ID), zap.String("locale", locale))
	} else if err := s.session.ClearMenuDraft(site.ID, locale); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventMenuSaved, map[string]string{"siteId": site.ID, "locale": locale})
	s.logger.Info("menus saved", zap.String("site_id", site.ID), zap.String("locale", locale))
	return nil
}

// Resolve returns the href of every item of both menus at now, keyed by
// item id.
func (s *MenuService) Resolve(now time.Time) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(now)
}

func (s *MenuService) resolveLocked(now time.Time) map[string]string {
	out := menu.ResolveAll(s.set.Home, now)
	maps.Copy(out, menu.ResolveAll(s.set.Secondary, now))
	return out
}

// RefreshLinks re-resolves scheduled links and emits EventMenuLinksChanged
// when any href differs from the previous refresh. It reports whether
// anything changed.
func (s *MenuService) RefreshLinks(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	if s.site == nil {
		s.mu.Unlock()
		return false
	}
	next := s.resolveLocked(now)
	changed := s.resolved != nil && !maps.Equal(s.resolved, next)
	s.resolved = next
	s.mu.Unlock()

	if changed {
		s.emitter.Emit(ctx, EventMenuLinksChanged, next)
		s.logger.Info("scheduled links changed", zap.Int("items", len(next)))
	}
	return changed
}
