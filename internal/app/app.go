package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pagebuilder/internal/adminapi"
	"pagebuilder/internal/builder"
	"pagebuilder/internal/catalog"
	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/plugins"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// App holds the stores, services and catalog shared by every command.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time

	db        *storage.DB
	sites     *storage.SiteStore
	pages     *storage.PageStore
	menuRows  *storage.MenuStore
	revisions *storage.RevisionStore
	approvals *storage.ApprovalStore

	secrets   secret.SecretStore
	token     string
	registry  *builder.Registry
	templates *builder.TemplateSet
	loader    *catalog.Loader
	emitter   service.EventEmitter

	client  *adminapi.Client
	session *service.SessionService
	sources *service.DataSourceService
	hooks   *service.KindHooks
	editor  *service.EditorService
	menus   *service.MenuService
}

// Option customizes an App.
type Option func(*App)

// WithEmitter replaces the logging event emitter.
func WithEmitter(e service.EventEmitter) Option {
	return func(a *App) { a.emitter = e }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New opens the database and wires the services for cfg.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, now: time.Now}
	a.emitter = service.NewLogEmitter(logger)
	for _, opt := range opts {
		opt(a)
	}

	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.sites = storage.NewSiteStore(db)
	a.pages = storage.NewPageStore(db)
	a.menuRows = storage.NewMenuStore(db)
	a.revisions = storage.NewRevisionStore(db, cfg.Server.MaxRevisions)
	a.approvals = storage.NewApprovalStore(db)

	a.secrets, err = secret.Open(cfg.Secrets)
	if err != nil {
		db.Close()
		return nil, err
	}
	a.token = cfg.API.Token
	if a.token == "" {
		if v, err := a.secrets.Get(secret.APITokenKey); err == nil {
			a.token = string(v)
		}
	}

	a.registry = builder.DefaultRegistry()
	a.templates = builder.DefaultTemplates()
	a.loader = catalog.NewLoader(a.registry, a.templates, logger)
	if cfg.Catalog.Dir != "" {
		res, err := a.loader.LoadDir(cfg.Catalog.Dir)
		if err != nil {
			logger.Warn("catalog load failed", zap.String("dir", cfg.Catalog.Dir), zap.Error(err))
		} else {
			logger.Debug("catalog loaded",
				zap.Int("files", res.Files), zap.Int("kinds", res.Kinds), zap.Int("templates", res.Templates))
		}
	}

	a.client = adminapi.NewClient(cfg.API.BaseURL, a.token, cfg.GetAPITimeout())

	a.session, err = service.NewSessionService(storage.NewSessionStore(db), logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}
	a.sources = service.NewDataSourceService(storage.NewDataSourceStore(db), a.secrets, logger)
	a.hooks = service.NewKindHooks(
		plugins.NewCountdownHook(cfg.Editor.CountdownDays, a.now),
		plugins.NewProductRailHook(cfg.Editor.DefaultSource, a.sources, logger),
	)

	editor := builder.NewEditor(a.registry, a.templates,
		builder.WithRemovePolicy(builder.ParseRemovePolicy(cfg.Editor.RemovePolicy)))
	a.editor = service.NewEditorService(editor, service.EditorDeps{
		API:     a.client,
		Hooks:   a.hooks,
		Notices: service.NewNotifier(cfg.GetNoticeTTL(), a.emitter),
		Emitter: a.emitter,
		Logger:  logger,
	})
	a.menus = service.NewMenuService(a.client, a.session, a.emitter, logger)

	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Config() *config.Config { return a.cfg }
func (a *App) Logger() *zap.Logger { return a.logger }
func (a *App) Registry() *builder.Registry { return a.registry }
func (a *App) Templates() *builder.TemplateSet { return a.templates }
func (a *App) Client() *adminapi.Client { return a.client }
func (a *App) Editor() *service.EditorService { return a.editor }
func (a *App) Menus() *service.MenuService { return a.menus }
func (a *App) Sources() *service.DataSourceService { return a.sources }
func (a *App) Session() *service.SessionService { return a.session }
func (a *App) Approvals() *storage.ApprovalStore { return a.approvals }
func (a *App) Revisions() *storage.RevisionStore { return a.revisions }
func (a *App) Secrets() secret.SecretStore { return a.secrets }

// AdminServer builds the admin API server over the local stores.
func (a *App) AdminServer() *adminapi.Server {
	return adminapi.NewServer(adminapi.ServerDeps{
		Sites:     a.sites,
		Pages:     a.pages,
		Menus:     a.menuRows,
		Revisions: a.revisions,
		Token:     a.token,
		Logger:    a.logger,
		Now:       a.now,
	})
}

// Site finds a site by id or, failing that, by case-insensitive name. An
// empty ref selects the last site used.
func (a *App) Site(ctx context.Context, ref string) (domain.Site, error) {
	if ref == "" {
		ref = a.session.LastSiteID()
	}
	if ref == "" {
		return domain.Site{}, service.ErrNoSite
	}
	sites, err := a.client.ListSites(ctx)
	if err != nil {
		return domain.Site{}, err
	}
	for _, s := range sites {
		if s.ID == ref {
			return s, nil
		}
	}
	for _, s := range sites {
		if strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return domain.Site{}, fmt.Errorf("%w: %s", service.ErrUnknownSite, ref)
}
