package adminapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

type fixture struct {
	server *Server
	client *Client
	pages  *storage.PageStore
	clock  time.Time
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "admin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		pages: storage.NewPageStore(db),
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.server = NewServer(ServerDeps{
		Sites:     storage.NewSiteStore(db),
		Pages:     f.pages,
		Menus:     storage.NewMenuStore(db),
		Revisions: storage.NewRevisionStore(db, 3),
		Token:     token,
		Now:       func() time.Time { return f.clock },
	})
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)
	f.client = NewClient(ts.URL, token, 5*time.Second)
	return f
}

func (f *fixture) site(t *testing.T) *domain.Site {
	t.Helper()
	site, err := f.client.CreateSite(context.Background(), CreateSiteRequest{
		Name: "Shop", Kind: domain.SiteKindShop, Domain: "shop.example", Locales: []string{"en", "de"},
	})
	require.NoError(t, err)
	return site
}

func sampleBlocks() []domain.Block {
	return []domain.Block{
		{ID: "row", Kind: "Row", Props: map[string]any{"cols": float64(2)}, Placement: domain.Root()},
		{ID: "img", Kind: "Image", Props: map[string]any{"src": "/a.png"}, Placement: domain.InRowColumn("row", 1)},
		{ID: "sec", Kind: "Section", Props: map[string]any{}, Placement: domain.Root()},
		{ID: "txt", Kind: "Text", Props: map[string]any{"text": "hi"}, Placement: domain.InSlot("sec", "children")},
	}
}

func TestWireBlocks_RoundTrip(t *testing.T) {
	blocks := sampleBlocks()
	wire := EncodeBlocks(blocks)
	assert.Equal(t, "row", wire[1].Props["_parentRowId"])
	assert.Equal(t, map[string]any{"id": "sec", "slot": "children"}, wire[3].Props["__parent"])

	if diff := cmp.Diff(blocks, DecodeBlocks(wire)); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndGetPage(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	site := f.site(t)

	id, err := f.client.SavePage(ctx, SavePageRequest{
		SiteID: site.ID,
		Title:  "Summer Sale!",
		Blocks: EncodeBlocks(sampleBlocks()),
		SEO:    domain.SEO{Title: "Sale", Robots: "index"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	page, err := f.client.GetPage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "summer-sale", page.Slug)
	assert.Equal(t, "/summer-sale", page.Path)
	assert.Equal(t, domain.PageStatusDraft, page.Status)
	assert.Equal(t, "Sale", page.SEO.Title)
	if diff := cmp.Diff(sampleBlocks(), page.Blocks); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}

	pages, err := f.client.ListPages(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, id, pages[0].ID)
}

func TestSavePage_UpdateKeepsID(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	site := f.site(t)

	id, err := f.client.SavePage(ctx, SavePageRequest{SiteID: site.ID, Title: "About", Path: "about-us"})
	require.NoError(t, err)

	again, err := f.client.SavePage(ctx, SavePageRequest{ID: id, SiteID: site.ID, Title: "About us", Path: "/about-us"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	page, err := f.client.GetPage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "About us", page.Title)
	assert.Equal(t, "/about-us", page.Path)
}

func TestSavePage_RejectsInvalidTree(t *testing.T) {
	f := newFixture(t, "")
	site := f.site(t)

	blocks := []domain.Block{
		{ID: "a", Kind: "Text", Props: map[string]any{}, Placement: domain.InSlot("ghost", "children")},
	}
	_, err := f.client.SavePage(context.Background(), SavePageRequest{
		SiteID: site.ID, Title: "Broken", Blocks: EncodeBlocks(blocks),
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "ghost")
}

func TestSavePage_UnknownSite(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.client.SavePage(context.Background(), SavePageRequest{SiteID: "nope", Title: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestPublishPage(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	site := f.site(t)

	id, err := f.client.SavePage(ctx, SavePageRequest{SiteID: site.ID, Title: "Home", Path: "/"})
	require.NoError(t, err)

	url, err := f.client.PublishPage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/", url)

	page, err := f.client.GetPage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusPublished, page.Status)
	require.NotNil(t, page.PublishedAt)
	assert.True(t, page.PublishedAt.Equal(f.clock))

	revs, err := f.client.ListRevisions(ctx, id)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "publish", revs[0].Label)
	assert.Equal(t, "save", revs[1].Label)
}

func TestPublishPage_Missing(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.client.PublishPage(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestRevisionsAreCapped(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	site := f.site(t)

	id, err := f.client.SavePage(ctx, SavePageRequest{SiteID: site.ID, Title: "Blog"})
	require.NoError(t, err)
	for range 4 {
		_, err = f.client.SavePage(ctx, SavePageRequest{ID: id, SiteID: site.ID, Title: "Blog"})
		require.NoError(t, err)
	}
	revs, err := f.client.ListRevisions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, revs, 3)
}

func TestPublishDue(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	site := f.site(t)

	past := f.clock.Add(-time.Hour)
	future := f.clock.Add(time.Hour)
	dueID, err := f.client.SavePage(ctx, SavePageRequest{SiteID: site.ID, Title: "Due", PublishAt: &past})
	require.NoError(t, err)
	_, err = f.client.SavePage(ctx, SavePageRequest{SiteID: site.ID, Title: "Later", PublishAt: &future})
	require.NoError(t, err)

	published, err := f.server.PublishDue(f.clock)
	require.NoError(t, err)
	assert.Equal(t, []string{dueID}, published)

	page, err := f.pages.GetPage(dueID)
	require.NoError(t, err)
	assert.Equal(t, domain.PageStatusPublished, page.Status)
	assert.Nil(t, page.PublishAt)

	published, err = f.server.PublishDue(f.clock)
	require.NoError(t, err)
	assert.Empty(t, published)
}

func TestMenuTree_SaveAndList(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	site := f.site(t)

	parent := "shop"
	rows := []domain.MenuRow{
		{ID: "shop", Label: "Shop", LinkType: domain.LinkInternal, URL: "/products", SortOrder: 1},
		{ID: "sale", ParentID: &parent, Label: "Sale", LinkType: domain.LinkInternal, URL: "/sale", SortOrder: 1},
	}
	require.NoError(t, f.client.SaveMenuTree(ctx, SaveTreeRequest{SiteID: site.ID, Menu: domain.MenuHome, Items: rows}))

	got, err := f.client.MenuItems(ctx, site.ID, domain.MenuHome, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	byID := map[string]domain.MenuRow{}
	for _, r := range got {
		byID[r.ID] = r
	}
	assert.Equal(t, "en", byID["shop"].Locale)
	assert.Equal(t, site.ID, byID["shop"].SiteID)
	assert.Nil(t, byID["shop"].ParentID)
	require.NotNil(t, byID["sale"].ParentID)
	assert.Equal(t, "shop", *byID["sale"].ParentID)

	other, err := f.client.MenuItems(ctx, site.ID, domain.MenuSecondary, "de")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMenuTree_RejectsCycles(t *testing.T) {
	f := newFixture(t, "")
	site := f.site(t)

	a, b := "a", "b"
	rows := []domain.MenuRow{
		{ID: "a", ParentID: &b, Label: "A"},
		{ID: "b", ParentID: &a, Label: "B"},
	}
	err := f.client.SaveMenuTree(context.Background(), SaveTreeRequest{SiteID: site.ID, Items: rows})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	err = f.client.SaveMenuTree(context.Background(), SaveTreeRequest{SiteID: site.ID, Menu: "footer"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t, "s3cret")
	ctx := context.Background()

	_, err := f.client.ListSites(ctx)
	require.NoError(t, err)

	anon := NewClient(f.client.BaseURL(), "", time.Second)
	_, err = anon.ListSites(ctx)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	resp, err := http.Get(f.client.BaseURL() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Summer Sale!":    "summer-sale",
		"  Über  Uns ":    "ber-uns",
		"already-slugged": "already-slugged",
		"!!!":             "page",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
