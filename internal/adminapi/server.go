package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/menu"
	"pagebuilder/internal/storage"
)

// RevisionLog records page snapshots on save and publish.
type RevisionLog interface {
	Push(pageID, label string, blocks []domain.Block) (*storage.Revision, error)
	List(pageID string) ([]storage.Revision, error)
}

// Server serves the admin REST contract from local stores.
type Server struct {
	sites     domain.SiteStore
	pages     domain.PageStore
	menus     domain.MenuStore
	revisions RevisionLog
	token     string
	logger    *zap.Logger
	now       func() time.Time
}

// ServerDeps bundles the stores a Server reads and writes.
type ServerDeps struct {
	Sites     domain.SiteStore
	Pages     domain.PageStore
	Menus     domain.MenuStore
	Revisions RevisionLog
	// Token, when set, is required as a bearer token on every /api route.
	Token  string
	Logger *zap.Logger
	Now    func() time.Time
}

func NewServer(d ServerDeps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		sites:     d.Sites,
		pages:     d.Pages,
		menus:     d.Menus,
		revisions: d.Revisions,
		token:     d.Token,
		logger:    logger.Named("adminapi"),
		now:       now,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/admin/sites", s.auth(s.handleListSites))
	mux.HandleFunc("POST /api/admin/sites", s.auth(s.handleCreateSite))
	mux.HandleFunc("GET /api/admin/pages", s.auth(s.handleListPages))
	mux.HandleFunc("GET /api/admin/pages/{id}", s.auth(s.handleGetPage))
	mux.HandleFunc("GET /api/admin/pages/{id}/revisions", s.auth(s.handleListRevisions))
	mux.HandleFunc("POST /api/admin/pages/save", s.auth(s.handleSavePage))
	mux.HandleFunc("POST /api/admin/pages/publish", s.auth(s.handlePublish))
	mux.HandleFunc("GET /api/admin/menu-items", s.auth(s.handleMenuItems))
	mux.HandleFunc("POST /api/admin/menu-items/save-tree", s.auth(s.handleSaveTree))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || got != s.token {
			writeJSON(w, http.StatusUnauthorized, OKResponse{Error: "unauthorized"})
			return
		}
		next(w, r)
	}
}

// ─── Handlers ───────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.sites.ListSites()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ItemsResponse[domain.Site]{Items: sites})
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, SiteResponse{Error: "name is required"})
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.SiteKindShop
	}
	site := &domain.Site{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Kind:    kind,
		Domain:  req.Domain,
		Locales: req.Locales,
	}
	if err := s.sites.CreateSite(site); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("site created", zap.String("site_id", site.ID), zap.String("kind", string(kind)))
	writeJSON(w, http.StatusOK, SiteResponse{OK: true, Site: site})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	siteID := r.URL.Query().Get("siteId")
	if siteID == "" {
		writeJSON(w, http.StatusBadRequest, OKResponse{Error: "siteId is required"})
		return
	}
	pages, err := s.pages.ListPages(siteID)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	items := make([]WirePage, len(pages))
	for i := range pages {
		items[i] = PageToWire(&pages[i])
	}
	writeJSON(w, http.StatusOK, ItemsResponse[WirePage]{Items: items})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.pages.GetPage(r.PathValue("id"))
	if err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	wire := PageToWire(page)
	writeJSON(w, http.StatusOK, PageResponse{Page: &wire})
}

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	pageID := r.PathValue("id")
	if _, err := s.pages.GetPage(pageID); err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	revs, err := s.revisions.List(pageID)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	items := make([]RevisionInfo, len(revs))
	for i, rev := range revs {
		items[i] = RevisionInfo{ID: rev.ID, Label: rev.Label, CreatedAt: rev.CreatedAt}
	}
	writeJSON(w, http.StatusOK, ItemsResponse[RevisionInfo]{Items: items})
}

func (s *Server) handleSavePage(w http.ResponseWriter, r *http.Request) {
	var req SavePageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.SavePage(req)
	if err != nil {
		writeJSON(w, statusFor(err), SavePageResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, SavePageResponse{OK: true, ID: id})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	url, err := s.PublishPage(req.ID)
	if err != nil {
		writeJSON(w, statusFor(err), PublishResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{OK: true, URL: url})
}

func (s *Server) handleMenuItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	site, err := s.sites.GetSite(q.Get("siteId"))
	if err != nil {
		s.fail(w, statusFor(err), err)
		return
	}
	name, err := parseMenuName(q.Get("menu"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, OKResponse{Error: err.Error()})
		return
	}
	locale := q.Get("locale")
	if locale == "" {
		locale = site.DefaultLocale()
	}
	rows, err := s.menus.ListMenuRows(site.ID, name, locale)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		rows = []domain.MenuRow{}
	}
	writeJSON(w, http.StatusOK, ItemsResponse[domain.MenuRow]{Items: rows})
}

func (s *Server) handleSaveTree(w http.ResponseWriter, r *http.Request) {
	var req SaveTreeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.SaveMenuTree(req); err != nil {
		writeJSON(w, statusFor(err), OKResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// ─── Operations ─────────────────────────────────────────────

// errInvalid marks request validation failures (HTTP 400).
var errInvalid = errors.New("invalid request")

// SavePage validates and stores a page, creating it when req.ID is empty.
// Every save records a revision.
func (s *Server) SavePage(req SavePageRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", fmt.Errorf("%w: title is required", errInvalid)
	}
	blocks := DecodeBlocks(req.Blocks)
	if err := builder.Validate(blocks); err != nil {
		return "", fmt.Errorf("%w: %v", errInvalid, err)
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	path := req.Path
	if path == "" {
		path = "/" + slug
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var page *domain.Page
	if req.ID == "" {
		if _, err := s.sites.GetSite(req.SiteID); err != nil {
			return "", err
		}
		page = &domain.Page{ID: uuid.NewString(), SiteID: req.SiteID}
	} else {
		existing, err := s.pages.GetPage(req.ID)
		if err != nil {
			return "", err
		}
		page = existing
	}
	page.Title = req.Title
	page.Slug = slug
	page.Path = path
	page.Blocks = blocks
	page.SEO = req.SEO
	page.PublishAt = req.PublishAt

	var err error
	if req.ID == "" {
		err = s.pages.CreatePage(page)
	} else {
		err = s.pages.UpdatePage(page)
	}
	if err != nil {
		return "", err
	}
	if _, err := s.revisions.Push(page.ID, "save", page.Blocks); err != nil {
		s.logger.Warn("revision not recorded", zap.String("page_id", page.ID), zap.Error(err))
	}
	s.logger.Info("page saved",
		zap.String("page_id", page.ID),
		zap.String("path", page.Path),
		zap.Int("blocks", len(page.Blocks)))
	return page.ID, nil
}

// PublishPage marks a saved page as published and returns its public URL.
func (s *Server) PublishPage(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: id is required", errInvalid)
	}
	page, err := s.pages.GetPage(id)
	if err != nil {
		return "", err
	}
	site, err := s.sites.GetSite(page.SiteID)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	page.Status = domain.PageStatusPublished
	page.PublishedAt = &now
	page.PublishAt = nil
	if err := s.pages.UpdatePage(page); err != nil {
		return "", err
	}
	if _, err := s.revisions.Push(page.ID, "publish", page.Blocks); err != nil {
		s.logger.Warn("revision not recorded", zap.String("page_id", page.ID), zap.Error(err))
	}
	url := site.PublicURL(page.Path)
	s.logger.Info("page published", zap.String("page_id", page.ID), zap.String("url", url))
	return url, nil
}

// PublishDue publishes every draft whose publishAt has passed and returns
// the published page ids.
func (s *Server) PublishDue(now time.Time) ([]string, error) {
	due, err := s.pages.ListDuePages(now)
	if err != nil {
		return nil, err
	}
	var (
		published []string
		errs      []error
	)
	for _, p := range due {
		if _, err := s.PublishPage(p.ID); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", p.ID, err))
			continue
		}
		published = append(published, p.ID)
	}
	return published, errors.Join(errs...)
}

// SaveMenuTree replaces one menu. Rows must form a forest: every parent
// present in the request and no parent cycles.
func (s *Server) SaveMenuTree(req SaveTreeRequest) error {
	site, err := s.sites.GetSite(req.SiteID)
	if err != nil {
		return err
	}
	name, err := parseMenuName(string(req.Menu))
	if err != nil {
		return err
	}
	locale := req.Locale
	if locale == "" {
		locale = site.DefaultLocale()
	}
	if err := checkMenuRows(req.Items); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}

	rows := make([]domain.MenuRow, len(req.Items))
	for i, row := range req.Items {
		row.SiteID = site.ID
		row.Menu = name
		row.Locale = locale
		if row.ParentID != nil && *row.ParentID == "" {
			row.ParentID = nil
		}
		rows[i] = row
	}
	if err := s.menus.ReplaceMenuTree(site.ID, name, locale, rows); err != nil {
		return err
	}
	s.logger.Info("menu saved",
		zap.String("site_id", site.ID),
		zap.String("menu", string(name)),
		zap.String("locale", locale),
		zap.Int("items", len(rows)))
	return nil
}

func checkMenuRows(rows []domain.MenuRow) error {
	ids := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return errors.New("menu item without id")
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate menu item %q", r.ID)
		}
		ids[r.ID] = true
	}
	for _, r := range rows {
		if r.ParentID == nil || *r.ParentID == "" {
			continue
		}
		if !ids[*r.ParentID] {
			return fmt.Errorf("menu item %q references missing parent %q", r.ID, *r.ParentID)
		}
		// Re-applying each row's own parent runs the walk-up cycle check.
		if _, err := menu.Reparent(rows, r.ID, *r.ParentID); err != nil {
			return fmt.Errorf("menu item %q: %w", r.ID, err)
		}
	}
	return nil
}

func parseMenuName(s string) (domain.MenuName, error) {
	if s == "" {
		return domain.MenuHome, nil
	}
	for _, n := range domain.MenuNames {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown menu %q", errInvalid, s)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "page"
	}
	return slug
}

// ─── Helpers ────────────────────────────────────────────────

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, OKResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, OKResponse{Error: "invalid json: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
