package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/builder"
)

const promoCatalog = `
kinds:
  - kind: PromoStrip
    label: Promo strip
    category: Marketing
    defaults:
      text: Free shipping over $50
      tone: accent
templates:
  - id: tpl-promo
    label: Promo + hero
    nodes:
      - ref: sec
        kind: Section
      - ref: strip
        kind: PromoStrip
        parent: sec
        props:
          tone: dark
      - kind: Hero
        parent: sec
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newLoader() (*Loader, *builder.Registry, *builder.TemplateSet) {
	reg := builder.DefaultRegistry()
	tpls := builder.DefaultTemplates()
	return NewLoader(reg, tpls, nil), reg, tpls
}

func TestLoadDir_RegistersKindsAndTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "promo.yaml", promoCatalog)
	writeFile(t, dir, "notes.txt", "ignored")

	loader, reg, tpls := newLoader()
	res, err := loader.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, Result{Files: 1, Kinds: 1, Templates: 1}, res)

	def, ok := reg.Lookup("promostrip")
	require.True(t, ok)
	assert.Equal(t, "Marketing", def.Category)
	assert.Equal(t, "accent", reg.Defaults("PromoStrip")["tone"])

	blocks := tpls.Compose("tpl-promo", builder.SequentialIDs("b"), reg)
	require.Len(t, blocks, 3)
	assert.Equal(t, "dark", blocks[1].Props["tone"])
	assert.Equal(t, "Free shipping over $50", blocks[1].Props["text"])
	assert.Equal(t, blocks[0].ID, blocks[2].Placement.ParentID)
}

func TestLoadDir_RejectsBadTemplatesButKeepsGoodFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-bad.yml", `
templates:
  - id: tpl-ghost
    nodes:
      - kind: NoSuchKind
  - id: tpl-orphan
    nodes:
      - kind: Text
        parent: missing
  - id: tpl-ok
    nodes:
      - kind: Text
`)
	writeFile(t, dir, "b-broken.yaml", "kinds: [oops")
	writeFile(t, dir, "c-good.yaml", promoCatalog)

	loader, _, tpls := newLoader()
	res, err := loader.LoadDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, builder.ErrInvalidTemplate)
	assert.Equal(t, 2, res.Templates)

	_, ok := tpls.Get("tpl-ghost")
	assert.False(t, ok)
	_, ok = tpls.Get("tpl-orphan")
	assert.False(t, ok)
	_, ok = tpls.Get("tpl-ok")
	assert.True(t, ok)
	_, ok = tpls.Get("tpl-promo")
	assert.True(t, ok)
}

func TestParseFile_KindWithoutName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.yaml", "kinds:\n  - label: nameless\n")
	_, err := ParseFile(path)
	assert.Error(t, err)
}

func TestLoadDir_MissingDir(t *testing.T) {
	loader, _, _ := newLoader()
	_, err := loader.LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	loader, reg, _ := newLoader()

	reloaded := make(chan Result, 4)
	w := NewWatcher(loader, dir, 20*time.Millisecond, func(r Result, err error) {
		select {
		case reloaded <- r:
		default:
		}
	})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, dir, "promo.yaml", promoCatalog)

	deadline := time.After(5 * time.Second)
	for loaded := false; !loaded; {
		select {
		case r := <-reloaded:
			loaded = r.Kinds == 1
		case <-deadline:
			t.Fatal("catalog was not reloaded")
		}
	}
	_, ok := reg.Lookup("PromoStrip")
	assert.True(t, ok)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	loader, _, _ := newLoader()
	w := NewWatcher(loader, t.TempDir(), 0, nil)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
