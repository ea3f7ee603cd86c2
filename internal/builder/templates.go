package builder

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"pagebuilder/internal/domain"
)

var (
	ErrUnknownTemplate = errors.New("builder: unknown template")
	ErrInvalidTemplate = errors.New("builder: invalid template")
)

// TemplateNode is one block of a template. Parent names an earlier node's
// Ref; nodes without a parent are the template's roots.
type TemplateNode struct {
	Ref    string         `json:"ref" yaml:"ref"`
	Kind   string         `json:"kind" yaml:"kind"`
	Props  map[string]any `json:"props,omitempty" yaml:"props"`
	Parent string         `json:"parent,omitempty" yaml:"parent"`
	Col    int            `json:"col,omitempty" yaml:"col"`
	Slot   string         `json:"slot,omitempty" yaml:"slot"`
}

// Template is a named multi-block composition insertable in one drop.
type Template struct {
	ID          string         `json:"id" yaml:"id"`
	Label       string         `json:"label" yaml:"label"`
	Description string         `json:"description,omitempty" yaml:"description"`
	Nodes       []TemplateNode `json:"nodes" yaml:"nodes"`
}

// Validate checks that refs are unique and every parent is declared
// before its children.
func (t Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	}
	seen := make(map[string]bool, len(t.Nodes))
	for i, n := range t.Nodes {
		if n.Kind == "" {
			return fmt.Errorf("%w: %s: node %d has no kind", ErrInvalidTemplate, t.ID, i)
		}
		if n.Ref != "" {
			if seen[n.Ref] {
				return fmt.Errorf("%w: %s: duplicate ref %q", ErrInvalidTemplate, t.ID, n.Ref)
			}
		}
		if n.Parent != "" && !seen[n.Parent] {
			return fmt.Errorf("%w: %s: node %d references undeclared parent %q", ErrInvalidTemplate, t.ID, i, n.Parent)
		}
		if n.Ref != "" {
			seen[n.Ref] = true
		}
	}
	return nil
}

// TemplateSet holds the templates available in the palette.
type TemplateSet struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateSet creates a set holding tpls. Invalid templates are skipped.
func NewTemplateSet(tpls ...Template) *TemplateSet {
	s := &TemplateSet{templates: make(map[string]Template, len(tpls))}
	for _, t := range tpls {
		_ = s.Register(t)
	}
	return s
}

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() *TemplateSet {
	return NewTemplateSet(builtinTemplates()...)
}

// Register adds or replaces a template after validating it.
func (s *TemplateSet) Register(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Label == "" {
		t.Label = t.ID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = t
	return nil
}

// Get returns the template with the given id.
func (s *TemplateSet) Get(id string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	return t, ok
}

// List returns all templates ordered by id.
func (s *TemplateSet) List() []Template {
	s.mu.RLock()
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Compose instantiates template id as fresh blocks in declaration order.
// Children of a Columns kind are placed by column, children of any other
// kind by slot. Unknown ids yield nil.
func (s *TemplateSet) Compose(id string, newID IDGenerator, reg *Registry) []domain.Block {
	t, ok := s.Get(id)
	if !ok {
		return nil
	}
	if newID == nil {
		newID = NewID
	}

	type placed struct {
		id   string
		kind string
	}
	byRef := make(map[string]placed, len(t.Nodes))
	out := make([]domain.Block, 0, len(t.Nodes))
	for _, n := range t.Nodes {
		kind := reg.Canonical(n.Kind)
		b := domain.Block{
			ID:        newID(),
			Kind:      kind,
			Props:     domain.MergeProps(reg.Defaults(kind), n.Props),
			Placement: domain.Root(),
		}
		if n.Parent != "" {
			p := byRef[n.Parent]
			if def, ok := reg.Lookup(p.kind); ok && def.Columns {
				b.Placement = domain.InRowColumn(p.id, n.Col)
			} else {
				b.Placement = domain.InSlot(p.id, n.Slot)
			}
		}
		if n.Ref != "" {
			byRef[n.Ref] = placed{id: b.ID, kind: kind}
		}
		out = append(out, b)
	}
	return out
}

func builtinTemplates() []Template {
	return []Template{
		{
			ID:    "tpl-header",
			Label: "Header",
			Nodes: []TemplateNode{{Ref: "header", Kind: "Header"}},
		},
		{
			ID:    "tpl-footer",
			Label: "Footer",
			Nodes: []TemplateNode{{Ref: "footer", Kind: "Footer"}},
		},
		{
			ID:          "tpl-hero-2col",
			Label:       "Hero, two columns",
			Description: "Banner on the left, copy on the right.",
			Nodes: []TemplateNode{
				{Ref: "row", Kind: "Row", Props: map[string]any{"cols": 2}},
				{Ref: "banner", Kind: "BannerPro", Parent: "row", Col: 0},
				{Ref: "copy", Kind: "Text", Parent: "row", Col: 1},
			},
		},
		{
			ID:    "tpl-3col",
			Label: "Three columns",
			Nodes: []TemplateNode{
				{Ref: "row", Kind: "Row", Props: map[string]any{"cols": 3}},
				{Kind: "Text", Parent: "row", Col: 0},
				{Kind: "Text", Parent: "row", Col: 1},
				{Kind: "Text", Parent: "row", Col: 2},
			},
		},
		{
			ID:          "tpl-landing-basic",
			Label:       "Landing page",
			Description: "Header, hero section and a three column feature row.",
			Nodes: []TemplateNode{
				{Ref: "header", Kind: "Header"},
				{Ref: "section", Kind: "Section"},
				{Ref: "hero", Kind: "Hero", Parent: "section"},
				{Ref: "features", Kind: "Row", Parent: "section", Props: map[string]any{"cols": 3}},
				{Kind: "Text", Parent: "features", Col: 0},
				{Kind: "Text", Parent: "features", Col: 1},
				{Kind: "Text", Parent: "features", Col: 2},
			},
		},
		{
			ID:    "tpl-product-grid",
			Label: "Product grid",
			Nodes: []TemplateNode{
				{Ref: "section", Kind: "Section"},
				{Kind: "Heading", Parent: "section", Props: map[string]any{"text": "Best sellers"}},
				{Kind: "ProductRail", Parent: "section", Props: map[string]any{"limit": 12}},
			},
		},
	}
}
