package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/config"
	"pagebuilder/internal/datasource"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/secret"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Notifier
// ─────────────────────────────────────────────────────────────

func TestNotifier_ExpiresAfterTTL(t *testing.T) {
	emitter := &service.MockEmitter{}
	n := service.NewNotifier(30*time.Millisecond, emitter)

	n.Error(context.Background(), "Save failed")
	got, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Save failed", got.Message)
	assert.Len(t, emitter.Named(service.EventNotice), 1)

	assert.Eventually(t, func() bool {
		_, ok := n.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_NewerNoticeReplaces(t *testing.T) {
	n := service.NewNotifier(time.Hour, nil)
	n.Info(context.Background(), "Saved")
	n.Error(context.Background(), "Publish failed")

	got, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "Publish failed", got.Message)
	assert.Equal(t, "error", got.Level)
}

// ─────────────────────────────────────────────────────────────
// SessionService
// ─────────────────────────────────────────────────────────────

func TestSessionService_PersistsAcrossInstances(t *testing.T) {
	store := storage.NewSessionStore(openDB(t))

	s1, err := service.NewSessionService(store, nil)
	require.NoError(t, err)
	assert.Empty(t, s1.LastSiteID())
	require.NoError(t, s1.SetLastSiteID("site-9"))

	set := domain.MenuSet{Home: []*domain.MenuItem{{ID: "a", Label: "A", LinkType: domain.LinkExternal, URL: "https://x"}}}
	require.NoError(t, s1.SetMenuDraft("site-9", "de", set))

	s2, err := service.NewSessionService(store, nil)
	require.NoError(t, err)
	assert.Equal(t, "site-9", s2.LastSiteID())

	got, ok, err := s2.MenuDraft("site-9", "de")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, set, got)

	_, ok, err = s2.MenuDraft("site-9", "en")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s2.ClearMenuDraft("site-9", "de"))
	_, ok, err = s2.MenuDraft("site-9", "de")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ─────────────────────────────────────────────────────────────
// DataSourceService
// ─────────────────────────────────────────────────────────────

func seedProductDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := storage.New(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Conn().Exec(`CREATE TABLE products (id INTEGER PRIMARY KEY, title TEXT, price REAL, image TEXT, url TEXT, category TEXT)`)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`INSERT INTO products VALUES (1, 'Boots', 90, '', '/p/boots', 'shoes'), (2, 'Apron', 12, '', '/p/apron', 'kitchen')`)
	require.NoError(t, err)
	return path
}

func TestDataSourceService_AddPreviewRemove(t *testing.T) {
	ctx := context.Background()
	secrets := secret.NewEnvStore("PB_TEST_")
	svc := service.NewDataSourceService(storage.NewDataSourceStore(openDB(t)), secrets, nil)

	ds, err := svc.Add(service.AddDataSourceInput{
		Name: "shopdb", Driver: domain.DataSourceSQLite, Host: seedProductDB(t), Password: "unused",
	})
	require.NoError(t, err)
	assert.Equal(t, "products", ds.Table)

	pw, err := secrets.Get(secret.DataSourceKey(ds.ID))
	require.NoError(t, err)
	assert.Equal(t, "unused", string(pw))

	require.NoError(t, svc.Test(ctx, "shopdb"))

	source, q := service.RailQuery(map[string]any{"source": "shopdb", "category": "shoes", "limit": float64(4)})
	assert.Equal(t, datasource.ProductQuery{Category: "shoes", Limit: 4}, q)
	products, err := svc.Preview(ctx, source, q)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Boots", products[0].Title)

	byID, err := svc.Get(ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "shopdb", byID.Name)

	require.NoError(t, svc.Remove("shopdb"))
	_, err = svc.Get("shopdb")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	pw, err = secrets.Get(secret.DataSourceKey(ds.ID))
	require.NoError(t, err)
	assert.Empty(t, pw)
}

func TestDataSourceService_JSONFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"items": [{"id": 1, "title": "Boots", "category": "shoes"}]}`), 0o644))
	svc := service.NewDataSourceService(storage.NewDataSourceStore(openDB(t)), secret.NewEnvStore("PB_TEST_"), nil)

	ds, err := svc.Add(service.AddDataSourceInput{Name: "feed", Driver: domain.DataSourceJSON, Host: path, Table: "items"})
	require.NoError(t, err)
	assert.Equal(t, "items", ds.Table)

	products, err := svc.Preview(context.Background(), "feed", datasource.ProductQuery{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Boots", products[0].Title)
}

func TestDataSourceService_Validation(t *testing.T) {
	svc := service.NewDataSourceService(storage.NewDataSourceStore(openDB(t)), secret.NewEnvStore("PB_TEST_"), nil)

	_, err := svc.Add(service.AddDataSourceInput{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "unsupported driver")
	assert.Contains(t, err.Error(), "host is required")

	_, err = svc.Add(service.AddDataSourceInput{Name: "x", Driver: domain.DataSourcePostgres, Host: "db", Table: "p; drop"})
	assert.ErrorContains(t, err, "invalid table")

	list, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ─────────────────────────────────────────────────────────────
// Scheduler
// ─────────────────────────────────────────────────────────────

type stubPublisher struct {
	mu      sync.Mutex
	due     []string
	calls   []time.Time
	release chan struct{}
}

func (p *stubPublisher) PublishDue(now time.Time) ([]string, error) {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, now)
	out := p.due
	p.due = nil
	return out, nil
}

func TestScheduler_PublishDueEmitsEvents(t *testing.T) {
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	pub := &stubPublisher{due: []string{"p1", "p2"}}
	emitter := &service.MockEmitter{}
	s := service.NewScheduler(config.SchedulerConfig{}, service.SchedulerDeps{
		Publisher: pub, Emitter: emitter, Now: func() time.Time { return now },
	})

	require.NoError(t, s.Run(context.Background(), service.JobPublishDue))
	assert.Equal(t, []time.Time{now}, pub.calls)
	events := emitter.Named(service.EventPublished)
	require.Len(t, events, 2)
	assert.Equal(t, map[string]string{"pageId": "p2"}, events[1].Data)

	assert.Error(t, s.Run(context.Background(), "vacuum"))
}

func TestScheduler_RefusesOverlappingRuns(t *testing.T) {
	pub := &stubPublisher{release: make(chan struct{})}
	s := service.NewScheduler(config.SchedulerConfig{}, service.SchedulerDeps{Publisher: pub})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), service.JobPublishDue) }()

	assert.Eventually(t, func() bool {
		return s.Run(context.Background(), service.JobPublishDue) == service.ErrJobRunning
	}, time.Second, 5*time.Millisecond)

	close(pub.release)
	require.NoError(t, <-done)
}

func TestScheduler_MenuLinksJob(t *testing.T) {
	ctx := context.Background()
	links, _, emitter := newMenuService(t, seededMenuAPI())
	require.NoError(t, links.Load(ctx, shopSite, ""))

	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	s := service.NewScheduler(config.SchedulerConfig{}, service.SchedulerDeps{
		Links: links, Now: func() time.Time { return now },
	})
	require.NoError(t, s.Run(ctx, service.JobMenuLinks))
	now = now.AddDate(0, 1, 0)
	require.NoError(t, s.Run(ctx, service.JobMenuLinks))
	assert.Len(t, emitter.Named(service.EventMenuLinksChanged), 1)
}

func TestScheduler_StartStop(t *testing.T) {
	s := service.NewScheduler(
		config.SchedulerConfig{Enabled: true, Publish: "@every 1h", MenuLinks: "@every 1h"},
		service.SchedulerDeps{Publisher: &stubPublisher{}},
	)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	bad := service.NewScheduler(config.SchedulerConfig{Publish: "every now and then"}, service.SchedulerDeps{Publisher: &stubPublisher{}})
	assert.Error(t, bad.Start(context.Background()))
}

// ─────────────────────────────────────────────────────────────
// KindHooks
// ─────────────────────────────────────────────────────────────

func TestKindHooks_DispatchAndDuplicates(t *testing.T) {
	hook := &recordingHook{}
	hooks := service.NewKindHooks(hook)
	assert.Equal(t, []string{"Text"}, hooks.Kinds())

	props, err := hooks.OnCreate(context.Background(), domain.Block{Kind: "Image"})
	require.NoError(t, err)
	assert.Nil(t, props)

	props, err = hooks.OnCreate(context.Background(), domain.Block{Kind: "Text"})
	require.NoError(t, err)
	assert.Equal(t, "hooked", props["text"])

	assert.Panics(t, func() { hooks.Register(&recordingHook{}) })

	var none *service.KindHooks
	assert.NoError(t, none.OnRemove(context.Background(), domain.Block{Kind: "Text"}))
}

// ─────────────────────────────────────────────────────────────
// MockEmitter
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)
	m.Emit(ctx, "test:event", "again")

	require.Len(t, m.Events, 3)
	assert.Equal(t, "test:event", m.Events[0].Event)
	assert.Len(t, m.Named("test:event"), 2)
}
