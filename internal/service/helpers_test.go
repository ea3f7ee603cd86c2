package service_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagebuilder/internal/adminapi"
	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

// fakeAPI is an in-memory AdminAPI.
type fakeAPI struct {
	mu     sync.Mutex
	sites  []domain.Site
	pages  map[string]*domain.Page
	menus  map[domain.MenuName][]domain.MenuRow
	saved  []adminapi.SavePageRequest
	trees  []adminapi.SaveTreeRequest
	nextID int

	listErr    error
	saveErr    error
	publishErr error
	menuErr    error
	noURL      bool

	// onSaveTree runs before each SaveMenuTree, outside the lock.
	onSaveTree func()
}

func newFakeAPI(sites ...domain.Site) *fakeAPI {
	return &fakeAPI{
		sites: sites,
		pages: map[string]*domain.Page{},
		menus: map[domain.MenuName][]domain.MenuRow{},
	}
}

func (f *fakeAPI) ListSites(context.Context) ([]domain.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sites, f.listErr
}

func (f *fakeAPI) GetPage(_ context.Context, id string) (*domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok {
		return nil, &adminapi.APIError{Status: 404, Message: "page " + id + " not found"}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeAPI) SavePage(_ context.Context, in adminapi.SavePageRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, in)
	id := in.ID
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("page-%d", f.nextID)
	}
	f.pages[id] = &domain.Page{ID: id, SiteID: in.SiteID, Title: in.Title, Slug: in.Slug, Path: in.Path, Blocks: adminapi.DecodeBlocks(in.Blocks)}
	return id, nil
}

func (f *fakeAPI) PublishPage(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	if f.noURL {
		return "", nil
	}
	return "https://remote.example" + f.pages[id].Path, nil
}

func (f *fakeAPI) MenuItems(_ context.Context, _ string, menu domain.MenuName, _ string) ([]domain.MenuRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.menus[menu], f.menuErr
}

func (f *fakeAPI) SaveMenuTree(_ context.Context, in adminapi.SaveTreeRequest) error {
	if f.onSaveTree != nil {
		f.onSaveTree()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trees = append(f.trees, in)
	f.menus[in.Menu] = in.Items
	return nil
}

var shopSite = domain.Site{ID: "site-1", Name: "Shop", Kind: domain.SiteKindShop, Domain: "shop.example", Locales: []string{"en"}}

func newEditor() *builder.Editor {
	return builder.NewEditor(builder.DefaultRegistry(), builder.DefaultTemplates(), builder.WithIDGenerator(builder.SequentialIDs("b")))
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "pb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// localAPI serves the admin API from a temp SQLite database.
func localAPI(t *testing.T) (*adminapi.Client, *adminapi.Server) {
	t.Helper()
	db := openDB(t)
	srv := adminapi.NewServer(adminapi.ServerDeps{
		Sites:     storage.NewSiteStore(db),
		Pages:     storage.NewPageStore(db),
		Menus:     storage.NewMenuStore(db),
		Revisions: storage.NewRevisionStore(db, 0),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return adminapi.NewClient(ts.URL, "", 5*time.Second), srv
}
