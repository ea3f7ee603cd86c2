package builder

import (
	"sort"
	"strings"
	"sync"

	"pagebuilder/internal/domain"
)

// KindDef describes one block kind: its palette label and default props.
type KindDef struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Label    string         `json:"label" yaml:"label"`
	Category string         `json:"category" yaml:"category"`
	Columns  bool           `json:"columns,omitempty" yaml:"columns"` // children sit in numbered columns (Row)
	Slots    []string       `json:"slots,omitempty" yaml:"slots"`     // named slots of a container
	Defaults map[string]any `json:"defaults" yaml:"defaults"`
}

// IsContainer reports whether blocks may be placed inside this kind.
func (d KindDef) IsContainer() bool {
	return d.Columns || len(d.Slots) > 0
}

// Registry maps kind names to their definitions. Safe for concurrent use;
// the catalog watcher re-registers kinds while editors read them.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]KindDef
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...KindDef) *Registry {
	r := &Registry{kinds: make(map[string]KindDef, len(defs))}
	for _, d := range defs {
		r.Register(d)
	}
	return r
}

// DefaultRegistry returns a registry with the built-in kinds.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinKinds()...)
}

// Register adds or replaces a kind definition.
func (r *Registry) Register(def KindDef) {
	if def.Label == "" {
		def.Label = def.Kind
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[def.Kind] = def
}

// Lookup finds a kind by exact name, then case-insensitively.
func (r *Registry) Lookup(kind string) (KindDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.kinds[kind]; ok {
		return d, true
	}
	for name, d := range r.kinds {
		if strings.EqualFold(name, kind) {
			return d, true
		}
	}
	return KindDef{}, false
}

// Canonical returns the registered spelling of kind, or kind unchanged
// when it is unknown.
func (r *Registry) Canonical(kind string) string {
	if d, ok := r.Lookup(kind); ok {
		return d.Kind
	}
	return kind
}

// Defaults returns a private copy of the kind's default props. Unknown
// kinds yield an empty bag.
func (r *Registry) Defaults(kind string) map[string]any {
	d, ok := r.Lookup(kind)
	if !ok {
		return map[string]any{}
	}
	return domain.CloneProps(d.Defaults)
}

// Kinds lists all definitions sorted by category then kind.
func (r *Registry) Kinds() []KindDef {
	r.mu.RLock()
	out := make([]KindDef, 0, len(r.kinds))
	for _, d := range r.kinds {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func builtinKinds() []KindDef {
	return []KindDef{
		{Kind: "Heading", Label: "Heading", Category: "basic", Defaults: map[string]any{"text": "Heading", "level": 2, "align": "left"}},
		{Kind: "Text", Label: "Text", Category: "basic", Defaults: map[string]any{"text": "Write something…", "align": "left"}},
		{Kind: "Button", Label: "Button", Category: "basic", Defaults: map[string]any{"label": "Click me", "href": "#", "variant": "primary"}},
		{Kind: "Image", Label: "Image", Category: "basic", Defaults: map[string]any{"src": "", "alt": "", "fit": "cover"}},
		{Kind: "Spacer", Label: "Spacer", Category: "basic", Defaults: map[string]any{"height": 32}},
		{Kind: "Divider", Label: "Divider", Category: "basic", Defaults: map[string]any{"style": "solid"}},
		{Kind: "Row", Label: "Row", Category: "layout", Columns: true, Defaults: map[string]any{"cols": 2, "gap": 16}},
		{Kind: "Section", Label: "Section", Category: "layout", Slots: []string{domain.DefaultSlot}, Defaults: map[string]any{"padding": "48px 16px", "background": "", "fullWidth": false}},
		{Kind: "Header", Label: "Header", Category: "shop", Defaults: map[string]any{"logo": "", "menu": string(domain.MenuHome), "sticky": true, "showCart": true}},
		{Kind: "Footer", Label: "Footer", Category: "shop", Defaults: map[string]any{"menu": string(domain.MenuSecondary), "columns": 4, "copyright": ""}},
		{Kind: "Hero", Label: "Hero", Category: "shop", Defaults: map[string]any{"title": "Big headline", "subtitle": "", "ctaLabel": "Shop now", "ctaHref": "/products", "image": ""}},
		{Kind: "BannerPro", Label: "Banner Pro", Category: "shop", Defaults: map[string]any{"title": "Banner", "subtitle": "", "image": "", "height": 360, "overlay": 0.3}},
		{Kind: "ProductRail", Label: "Product Rail", Category: "shop", Defaults: map[string]any{"title": "Featured products", "source": "", "category": "", "limit": 8}},
		{Kind: "Countdown", Label: "Countdown", Category: "shop", Defaults: map[string]any{"label": "Sale ends in", "endsAt": ""}},
	}
}
