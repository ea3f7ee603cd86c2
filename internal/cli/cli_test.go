package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/app"
	"pagebuilder/internal/builder"
	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "pb.db")
	cfg.API.BaseURL = ts.URL
	a, err := app.New(cfg, nil, app.WithEmitter(&service.MockEmitter{}))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	handler = a.AdminServer().Handler()
	return a
}

func run(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, a, "", args...)
}

func runWithInput(t *testing.T, a *app.App, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, a *app.App, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	require.NoError(t, err, out)
	return out
}

func TestCatalogCommands(t *testing.T) {
	a := newTestApp(t)

	out := mustRun(t, a, "kinds", "--category", "layout")
	assert.Contains(t, out, "Row")
	assert.Contains(t, out, "Section")
	assert.NotContains(t, out, "Hero")

	out = mustRun(t, a, "templates")
	assert.Contains(t, out, "tpl-3col")
	assert.Contains(t, out, "tpl-hero-2col")

	out = mustRun(t, a, "compose", "tpl-hero-2col")
	assert.Contains(t, out, "BannerPro")
	assert.Contains(t, out, "b2 [col 0]")
	assert.Contains(t, out, "b3 [col 1]")

	_, err := run(t, a, "compose", "tpl-missing")
	assert.ErrorContains(t, err, `unknown template "tpl-missing"`)
}

func TestSiteAndPageCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	out := mustRun(t, a, "site", "create", "Shop", "--domain", "shop.example")
	assert.Contains(t, out, "created Shop")
	siteID := a.Session().LastSiteID()
	require.NotEmpty(t, siteID)
	out = mustRun(t, a, "site", "list")
	assert.True(t, strings.HasPrefix(out, "*"), out)
	assert.Contains(t, out, "Shop")

	editor := a.Editor()
	require.NoError(t, editor.Open(ctx, siteID, ""))
	editor.SetMeta(service.PageMeta{Title: "Spring Drop"})
	editor.Drop(ctx, builder.DropRequest{Payload: builder.TemplatePrefix + "tpl-hero-2col", Target: domain.Root()})
	pageID, err := editor.Save(ctx)
	require.NoError(t, err)

	out = mustRun(t, a, "page", "list")
	assert.Contains(t, out, "Spring Drop")
	assert.Contains(t, out, "/spring-drop")

	out = mustRun(t, a, "page", "show", pageID)
	assert.Contains(t, out, "path: /spring-drop")
	assert.Contains(t, out, "BannerPro")
	assert.Contains(t, out, "Revisions")

	var opened string
	orig := openURL
	t.Cleanup(func() { openURL = orig })
	openURL = func(u string) error { opened = u; return nil }

	out = mustRun(t, a, "page", "publish", pageID, "--open")
	assert.Equal(t, "https://shop.example/spring-drop\n", out)
	assert.Equal(t, "https://shop.example/spring-drop", opened)

	page, err := a.Client().GetPage(ctx, pageID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusPublished, page.Status)
}

func TestMenuCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	mustRun(t, a, "site", "create", "Shop")
	site, err := a.Site(ctx, "")
	require.NoError(t, err)

	menus := a.Menus()
	require.NoError(t, menus.Load(ctx, site, ""))
	sale, err := menus.Add(domain.MenuHome, "Sale", "")
	require.NoError(t, err)
	require.NoError(t, menus.Update(domain.MenuHome, sale.ID, func(it domain.MenuItem) domain.MenuItem {
		it.LinkType = domain.LinkScheduled
		it.Schedules = []domain.Schedule{
			{When: "2026-03-01", URL: "/teaser"},
			{When: "2026-05-01", URL: "/collections/drop"},
		}
		return it
	}))
	require.NoError(t, menus.Save(ctx))

	out := mustRun(t, a, "menu", "resolve", "--at", "2026-04-01")
	assert.Equal(t, "Sale\t/teaser\n", out)
	out = mustRun(t, a, "menu", "resolve", "--at", "2026-05-02")
	assert.Equal(t, "Sale\t/collections/drop\n", out)

	out = mustRun(t, a, "menu", "show", "--at", "2026-05-02")
	assert.Contains(t, out, "Home")
	assert.Contains(t, out, "Sale")
	assert.Contains(t, out, "/collections/drop")
	assert.Contains(t, out, "2 schedules")

	_, err = run(t, a, "menu", "resolve", "--at", "next week")
	assert.ErrorContains(t, err, "invalid --at")
}

func TestDataSourceCommands(t *testing.T) {
	a := newTestApp(t)

	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := storage.New(path)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`CREATE TABLE products (id INTEGER PRIMARY KEY, title TEXT, price REAL, image TEXT, url TEXT, category TEXT)`)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`INSERT INTO products VALUES (1, 'Boots', 90, '', '/p/boots', 'shoes'), (2, 'Apron', 12, '', '/p/apron', 'kitchen')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := runWithInput(t, a, "hunter2\n", "datasource", "add", "catalog", "--driver", "sqlite", "--host", path, "--password-stdin")
	require.NoError(t, err, out)
	assert.Contains(t, out, "added catalog")

	ds, err := a.Sources().Get("catalog")
	require.NoError(t, err)
	assert.Equal(t, "products", ds.Table)

	assert.Contains(t, mustRun(t, a, "ds", "list"), "catalog")
	assert.Equal(t, "ok\n", mustRun(t, a, "datasource", "test", "catalog"))

	out = mustRun(t, a, "datasource", "preview", "catalog", "--category", "shoes")
	assert.Contains(t, out, "Boots")
	assert.NotContains(t, out, "Apron")

	mustRun(t, a, "datasource", "remove", "catalog")
	_, err = a.Sources().Get("catalog")
	assert.Error(t, err)

	_, err = run(t, a, "datasource", "add", "broken")
	assert.Error(t, err)
}

func TestApprovalCommands(t *testing.T) {
	a := newTestApp(t)
	store := a.Approvals()

	assert.Contains(t, mustRun(t, a, "approvals", "list"), "nothing pending")

	require.NoError(t, store.Create(&storage.Approval{ID: "act-1", Tool: "remove_block", Description: "Remove Hero b1"}))
	out := mustRun(t, a, "approvals", "list")
	assert.Contains(t, out, "act-1")
	assert.Contains(t, out, "remove_block")

	assert.Equal(t, "approved act-1\n", mustRun(t, a, "approvals", "approve", "act-1"))
	status, err := store.Status("act-1")
	require.NoError(t, err)
	assert.Equal(t, storage.ApprovalApproved, status)

	_, err = run(t, a, "approvals", "reject", "act-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRootCmd_LoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(dir, "pb.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(cfgPath))

	cmd := NewRootCmd(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "templates"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "tpl-header")

	cfg.Editor.RemovePolicy = "shred"
	require.NoError(t, cfg.Save(cfgPath))
	cmd = NewRootCmd(nil)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "kinds"})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "remove_policy")
}

func TestBlockTree_Placements(t *testing.T) {
	blocks := []domain.Block{
		{ID: "s1", Kind: "Section", Placement: domain.Root()},
		{ID: "h1", Kind: "Heading", Props: map[string]any{"text": "Hi"}, Placement: domain.InSlot("s1", "")},
		{ID: "r1", Kind: "Row", Placement: domain.Root()},
		{ID: "t1", Kind: "Text", Placement: domain.InRowColumn("r1", 1)},
	}
	out := blockTree(blocks).String()
	assert.Contains(t, out, "h1 [children]")
	assert.Contains(t, out, `text="Hi"`)
	assert.Contains(t, out, "t1 [col 1]")
	assert.Less(t, strings.Index(out, "s1"), strings.Index(out, "r1"))
}
