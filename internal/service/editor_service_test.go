package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/adminapi"
	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/plugins"
	"pagebuilder/internal/service"
)

type recordingHook struct {
	removed []string
}

func (h *recordingHook) Kind() string { return "Text" }

func (h *recordingHook) OnCreate(context.Context, domain.Block) (map[string]any, error) {
	return map[string]any{"text": "hooked"}, nil
}

func (h *recordingHook) OnRemove(_ context.Context, b domain.Block) error {
	h.removed = append(h.removed, b.ID)
	return nil
}

func TestEditorService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	client, _ := localAPI(t)
	site, err := client.CreateSite(ctx, adminapi.CreateSiteRequest{Name: "Shop", Kind: domain.SiteKindShop, Domain: "shop.example"})
	require.NoError(t, err)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	emitter := &service.MockEmitter{}
	svc := service.NewEditorService(newEditor(), service.EditorDeps{
		API:     client,
		Hooks:   service.NewKindHooks(plugins.NewCountdownHook(7, func() time.Time { return now })),
		Emitter: emitter,
	})

	require.NoError(t, svc.Open(ctx, site.ID, ""))
	countdown := svc.Drop(ctx, builder.DropRequest{Payload: "Countdown"})
	require.Len(t, countdown, 1)
	assert.Equal(t, "2026-06-08T00:00:00Z", countdown[0].Props["endsAt"])

	hero := svc.Drop(ctx, builder.DropRequest{Payload: "template:tpl-hero-2col"})
	require.Len(t, hero, 3)
	assert.True(t, svc.Dirty())

	id, err := svc.Save(ctx)
	require.NoError(t, err)
	assert.False(t, svc.Dirty())

	stored, err := client.GetPage(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored.Blocks, 4)
	for i, b := range svc.Blocks() {
		assert.Equal(t, b.ID, stored.Blocks[i].ID)
		assert.Equal(t, b.Kind, stored.Blocks[i].Kind)
		assert.Equal(t, b.Placement, stored.Blocks[i].Placement)
	}
	assert.Equal(t, "/untitled", stored.Path)

	url, err := svc.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/untitled", url)

	published := emitter.Named(service.EventPublished)
	require.Len(t, published, 1)
	assert.Equal(t, map[string]string{"pageId": id, "url": url}, published[0].Data)

	reopened := service.NewEditorService(newEditor(), service.EditorDeps{API: client})
	require.NoError(t, reopened.Open(ctx, "", id))
	assert.Equal(t, site.ID, reopened.Page().SiteID)
	assert.Len(t, reopened.Blocks(), 4)
}

func TestEditorService_PublishRequiresSave(t *testing.T) {
	ctx := context.Background()
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: newFakeAPI(shopSite)})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))

	_, err := svc.Publish(ctx)
	assert.ErrorIs(t, err, service.ErrNotSaved)
	n, ok := svc.Notices().Current()
	require.True(t, ok)
	assert.Equal(t, "error", n.Level)
}

func TestEditorService_SaveFailureShowsNotice(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(shopSite)
	api.saveErr = errors.New("connection refused")
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: api})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))
	svc.Drop(ctx, builder.DropRequest{Payload: "Text"})

	_, err := svc.Save(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, svc.Page().ID)
	assert.True(t, svc.Dirty())

	n, ok := svc.Notices().Current()
	require.True(t, ok)
	assert.Contains(t, n.Message, "connection refused")
}

func TestEditorService_SaveKeepsPageID(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(shopSite)
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: api})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))
	svc.SetMeta(service.PageMeta{Title: "Spring Drop"})

	first, err := svc.Save(ctx)
	require.NoError(t, err)
	second, err := svc.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, api.saved, 2)
	assert.Empty(t, api.saved[0].ID)
	assert.Equal(t, first, api.saved[1].ID)
	assert.Equal(t, "/spring-drop", api.saved[0].Path)
}

func TestEditorService_PublishPrefersServerURL(t *testing.T) {
	ctx := context.Background()
	bare := domain.Site{ID: "site-2", Name: "Bare", Kind: domain.SiteKindLanding}
	api := newFakeAPI(bare, shopSite)
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: api})
	require.NoError(t, svc.Open(ctx, bare.ID, ""))
	_, err := svc.Save(ctx)
	require.NoError(t, err)

	url, err := svc.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://remote.example/untitled", url)

	api.noURL = true
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))
	_, err = svc.Save(ctx)
	require.NoError(t, err)
	url, err = svc.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/untitled", url)
}

func TestEditorService_FailedSaveKeepsDerivedPathUnset(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(shopSite)
	api.saveErr = errors.New("connection refused")
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: api})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))
	svc.SetMeta(service.PageMeta{Title: "Spring Drop"})

	_, err := svc.Save(ctx)
	require.Error(t, err)
	assert.Empty(t, svc.Page().Slug)
	assert.Empty(t, svc.Page().Path)

	svc.SetMeta(service.PageMeta{Title: "Summer Drop"})
	api.saveErr = nil
	_, err = svc.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "summer-drop", svc.Page().Slug)
	assert.Equal(t, "/summer-drop", svc.Page().Path)
}

func TestEditorService_RemoveContainerThenSave(t *testing.T) {
	for _, policy := range []builder.RemovePolicy{builder.RemoveCascade, builder.RemovePromote} {
		t.Run(string(policy), func(t *testing.T) {
			ctx := context.Background()
			client, _ := localAPI(t)
			site, err := client.CreateSite(ctx, adminapi.CreateSiteRequest{Name: "Shop", Kind: domain.SiteKindShop})
			require.NoError(t, err)

			editor := builder.NewEditor(builder.DefaultRegistry(), builder.DefaultTemplates(),
				builder.WithIDGenerator(builder.SequentialIDs("b")), builder.WithRemovePolicy(policy))
			svc := service.NewEditorService(editor, service.EditorDeps{API: client})
			require.NoError(t, svc.Open(ctx, site.ID, ""))

			hero := svc.Drop(ctx, builder.DropRequest{Payload: "template:tpl-hero-2col"})
			require.Len(t, hero, 3)
			require.True(t, svc.Select(hero[0].ID))
			svc.Remove(ctx)

			id, err := svc.Save(ctx)
			require.NoError(t, err)
			stored, err := client.GetPage(ctx, id)
			require.NoError(t, err)
			assert.Len(t, stored.Blocks, len(svc.Blocks()))
			for _, b := range stored.Blocks {
				assert.True(t, b.Placement.IsRoot())
			}
		})
	}
}

func TestEditorService_PublishFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(shopSite)
	api.publishErr = &adminapi.APIError{Status: 500, Message: "boom"}
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: api})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))
	_, err := svc.Save(ctx)
	require.NoError(t, err)

	_, err = svc.Publish(ctx)
	var apiErr *adminapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, domain.PageStatusDraft, svc.Page().Status)
}

func TestEditorService_OpenErrors(t *testing.T) {
	ctx := context.Background()
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: newFakeAPI(shopSite)})
	assert.ErrorIs(t, svc.Open(ctx, "nope", ""), service.ErrUnknownSite)

	err := svc.Open(ctx, shopSite.ID, "missing-page")
	require.Error(t, err)
	_, ok := svc.Notices().Current()
	assert.True(t, ok)

	_, err = svc.Save(ctx)
	assert.ErrorIs(t, err, service.ErrNoSite)
}

func TestEditorService_HooksOnDropAndRemove(t *testing.T) {
	ctx := context.Background()
	hook := &recordingHook{}
	svc := service.NewEditorService(newEditor(), service.EditorDeps{
		API:   newFakeAPI(shopSite),
		Hooks: service.NewKindHooks(hook),
	})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))

	section := svc.Drop(ctx, builder.DropRequest{Payload: "Section"})[0]
	text := svc.Drop(ctx, builder.DropRequest{Payload: "Text", Target: domain.InSlot(section.ID, "")})
	require.Len(t, text, 1)
	assert.Equal(t, "hooked", text[0].Props["text"])
	assert.Equal(t, text[0].ID, svc.ActiveID())

	require.True(t, svc.Select(section.ID))
	removed := svc.Remove(ctx)
	assert.ElementsMatch(t, []string{section.ID, text[0].ID}, removed)
	assert.Equal(t, []string{text[0].ID}, hook.removed)
	assert.Empty(t, svc.Blocks())
}

func TestEditorService_ModeAndDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := service.NewEditorService(newEditor(), service.EditorDeps{API: newFakeAPI(shopSite)})
	require.NoError(t, svc.Open(ctx, shopSite.ID, ""))

	assert.Equal(t, builder.ModePreview, svc.ToggleMode())
	assert.Equal(t, builder.ModeDesign, svc.ToggleMode())

	svc.Drop(ctx, builder.DropRequest{Payload: "Button"})
	copies := svc.Duplicate()
	require.Len(t, copies, 1)
	assert.Len(t, svc.Blocks(), 2)
	assert.True(t, svc.Move(-1))

	b, ok := svc.UpdateActive(builder.Patch{Props: map[string]any{"label": "Buy"}})
	require.True(t, ok)
	assert.Equal(t, "Buy", b.Props["label"])
}
