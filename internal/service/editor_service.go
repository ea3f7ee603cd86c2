package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pagebuilder/internal/adminapi"
	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Editor Service — the page editor plus its I/O
// ─────────────────────────────────────────────────────────────

var (
	// ErrNotSaved is returned when publishing a page that has no id yet.
	ErrNotSaved = errors.New("page has not been saved")
	// ErrNoSite is returned when an operation needs an open site.
	ErrNoSite = errors.New("no site selected")
	// ErrUnknownSite is returned when opening a site the API does not list.
	ErrUnknownSite = errors.New("unknown site")
)

// AdminAPI is the part of the admin REST API the services use.
// *adminapi.Client implements it.
type AdminAPI interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	GetPage(ctx context.Context, id string) (*domain.Page, error)
	SavePage(ctx context.Context, in adminapi.SavePageRequest) (string, error)
	PublishPage(ctx context.Context, id string) (string, error)
	MenuItems(ctx context.Context, siteID string, menu domain.MenuName, locale string) ([]domain.MenuRow, error)
	SaveMenuTree(ctx context.Context, in adminapi.SaveTreeRequest) error
}

// PageMeta is the editable page metadata outside the block tree.
type PageMeta struct {
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Path      string     `json:"path"`
	SEO       domain.SEO `json:"seo"`
	PublishAt *time.Time `json:"publishAt,omitempty"`
}

// EditorService guards a builder.Editor with a mutex and adds loading,
// saving and publishing against the admin API.
type EditorService struct {
	mu      sync.Mutex
	editor  *builder.Editor
	api     AdminAPI
	hooks   *KindHooks
	notices *Notifier
	emitter EventEmitter
	logger  *zap.Logger

	site  *domain.Site
	page  domain.Page // metadata; blocks live in editor
	dirty bool
}

// EditorDeps bundles the collaborators of an EditorService.
type EditorDeps struct {
	API     AdminAPI
	Hooks   *KindHooks
	Notices *Notifier
	Emitter EventEmitter
	Logger  *zap.Logger
}

func NewEditorService(editor *builder.Editor, d EditorDeps) *EditorService {
	emitter := emitterOrNop(d.Emitter)
	notices := d.Notices
	if notices == nil {
		notices = NewNotifier(DefaultNoticeTTL, emitter)
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		editor:  editor,
		api:     d.API,
		hooks:   d.Hooks,
		notices: notices,
		emitter: emitter,
		logger:  logger.Named("editor"),
	}
}

// Notices returns the notifier used for transient messages.
func (s *EditorService) Notices() *Notifier { return s.notices }

// ── Loading ────────────────────────────────────────────────

// Open loads a site and, when pageID is set, one of its pages. An empty
// pageID starts a new unsaved page. When siteID is empty the page's site
// is used.
func (s *EditorService) Open(ctx context.Context, siteID, pageID string) error {
	var (
		sites []domain.Site
		page  *domain.Page
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sites, err = s.api.ListSites(gctx)
		return err
	})
	if pageID != "" {
		g.Go(func() error {
			var err error
			page, err = s.api.GetPage(gctx, pageID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.notices.Error(ctx, "Could not load page: "+err.Error())
		return fmt.Errorf("open: %w", err)
	}

	if siteID == "" && page != nil {
		siteID = page.SiteID
	}
	var site *domain.Site
	for i := range sites {
		if sites[i].ID == siteID {
			site = &sites[i]
			break
		}
	}
	if site == nil {
		return fmt.Errorf("site %q: %w", siteID, ErrUnknownSite)
	}
	if page == nil {
		page = &domain.Page{SiteID: site.ID, Title: "Untitled", Status: domain.PageStatusDraft}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.site = site
	s.page = *page
	s.page.Blocks = nil
	s.editor.Load(page.Blocks)
	s.dirty = false
	s.logger.Info("page opened",
		zap.String("site_id", site.ID),
		zap.String("page_id", page.ID),
		zap.Int("blocks", len(page.Blocks)))
	return nil
}

// Site returns the open site.
func (s *EditorService) Site() (domain.Site, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site == nil {
		return domain.Site{}, false
	}
	return *s.site, true
}

// Page returns the open page with its current blocks.
func (s *EditorService) Page() domain.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.page
	p.Blocks = s.editor.Blocks()
	return p
}

// Dirty reports whether the page changed since it was opened or saved.
func (s *EditorService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// SetMeta replaces the page metadata.
func (s *EditorService) SetMeta(m PageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page.Title = m.Title
	s.page.Slug = m.Slug
	s.page.Path = m.Path
	s.page.SEO = m.SEO
	s.page.PublishAt = m.PublishAt
	s.dirty = true
}

// ── Block operations ───────────────────────────────────────

// Blocks returns the block list in array order.
func (s *EditorService) Blocks() []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Blocks()
}

// ActiveID returns the selected block id.
func (s *EditorService) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.ActiveID()
}

// Select makes id the active block.
func (s *EditorService) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Select(id)
}

// ToggleMode switches between design and preview.
func (s *EditorService) ToggleMode() builder.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.ToggleMode()
}

// Mode returns the current view mode.
func (s *EditorService) Mode() builder.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Mode()
}

// Drop inserts a kind or template and runs the create hooks of every
// inserted block. It returns the inserted blocks as stored.
func (s *EditorService) Drop(ctx context.Context, req builder.DropRequest) []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := s.editor.Drop(req)
	if len(inserted) == 0 {
		return nil
	}
	s.dirty = true
	for i, b := range inserted {
		props, err := s.hooks.OnCreate(ctx, b)
		if err != nil {
			s.logger.Warn("create hook failed", zap.String("kind", b.Kind), zap.String("block_id", b.ID), zap.Error(err))
			continue
		}
		if len(props) == 0 {
			continue
		}
		if updated, ok := s.editor.Update(b.ID, builder.Patch{Props: props}); ok {
			inserted[i] = updated
		}
	}
	return inserted
}

// Move shifts the active block one step in array order.
func (s *EditorService) Move(dir int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := s.editor.Move(dir)
	s.dirty = s.dirty || moved
	return moved
}

// Remove deletes the active block per the editor's removal policy and runs
// the remove hooks of every deleted block.
func (s *EditorService) Remove(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := make(map[string]domain.Block)
	for _, b := range s.editor.Blocks() {
		before[b.ID] = b
	}
	removed := s.editor.Remove()
	if len(removed) == 0 {
		return nil
	}
	s.dirty = true
	for _, id := range removed {
		b := before[id]
		if err := s.hooks.OnRemove(ctx, b); err != nil {
			s.logger.Warn("remove hook failed", zap.String("kind", b.Kind), zap.String("block_id", id), zap.Error(err))
		}
	}
	return removed
}

// UpdateActive applies an inspector edit to the active block.
func (s *EditorService) UpdateActive(p builder.Patch) (domain.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.editor.UpdateActive(p)
	s.dirty = s.dirty || ok
	return b, ok
}

// Duplicate copies the active block and its subtree.
func (s *EditorService) Duplicate() []domain.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	copies := s.editor.Duplicate()
	s.dirty = s.dirty || len(copies) > 0
	return copies
}

// ── Save / publish ─────────────────────────────────────────

// Save posts the page and its blocks. On success the page id returned by
// the API is kept for later saves and publishing.
func (s *EditorService) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site == nil {
		s.notices.Error(ctx, "Open a site before saving")
		return "", ErrNoSite
	}
	slug, path := s.page.Slug, s.page.Path
	if slug == "" {
		slug = adminapi.Slugify(s.page.Title)
	}
	if path == "" {
		path = "/" + slug
	}
	req := adminapi.SavePageRequest{
		ID:        s.page.ID,
		SiteID:    s.site.ID,
		Title:     s.page.Title,
		Slug:      slug,
		Path:      path,
		Blocks:    adminapi.EncodeBlocks(s.editor.Blocks()),
		SEO:       s.page.SEO,
		PublishAt: s.page.PublishAt,
	}
	id, err := s.api.SavePage(ctx, req)
	if err != nil {
		s.notices.Error(ctx, "Save failed: "+err.Error())
		s.logger.Warn("save failed", zap.String("page_id", s.page.ID), zap.Error(err))
		return "", fmt.Errorf("save page: %w", err)
	}
	s.page.ID = id
	s.page.Slug, s.page.Path = slug, path
	s.dirty = false
	s.notices.Info(ctx, "Saved")
	s.emitter.Emit(ctx, EventSaved, map[string]string{"pageId": id})
	s.logger.Info("page saved", zap.String("page_id", id), zap.Int("blocks", len(req.Blocks)))
	return id, nil
}

// Publish publishes the saved page and returns its public URL.
func (s *EditorService) Publish(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page.ID == "" {
		s.notices.Error(ctx, "Save the page before publishing")
		return "", ErrNotSaved
	}
	remoteURL, err := s.api.PublishPage(ctx, s.page.ID)
	if err != nil {
		s.notices.Error(ctx, "Publish failed: "+err.Error())
		s.logger.Warn("publish failed", zap.String("page_id", s.page.ID), zap.Error(err))
		return "", fmt.Errorf("publish page: %w", err)
	}

	url := remoteURL
	if url == "" && s.site != nil {
		url = s.site.PublicURL(s.page.Path)
	}
	now := time.Now().UTC()
	s.page.Status = domain.PageStatusPublished
	s.page.PublishedAt = &now
	s.notices.Info(ctx, "Published")
	s.emitter.Emit(ctx, EventPublished, map[string]string{"pageId": s.page.ID, "url": url})
	s.logger.Info("page published", zap.String("page_id", s.page.ID), zap.String("url", url))
	return url, nil
}
