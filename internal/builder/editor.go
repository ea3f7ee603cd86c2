package builder

import (
	"slices"

	"pagebuilder/internal/domain"
)

// Mode is the editor view.
type Mode string

const (
	ModeDesign  Mode = "design"
	ModePreview Mode = "preview"
)

// RemovePolicy decides what happens to the contents of a removed container.
// Every policy leaves a tree that Validate accepts.
type RemovePolicy string

const (
	RemoveCascade RemovePolicy = "cascade" // drop the whole subtree
	RemovePromote RemovePolicy = "promote" // children become root blocks
)

// ParseRemovePolicy maps a config string to a policy, defaulting to cascade.
func ParseRemovePolicy(s string) RemovePolicy {
	switch RemovePolicy(s) {
	case RemovePromote:
		return RemovePromote
	default:
		return RemoveCascade
	}
}

// Patch is an inspector edit of the active block. A non-empty Kind that
// differs from the block's kind switches kinds; a nil value in Props
// deletes that key.
type Patch struct {
	Kind  string         `json:"kind,omitempty"`
	Props map[string]any `json:"props,omitempty"`
}

// Editor is the single-user page editor: a flat block list, the active
// block and the view mode. It is not safe for concurrent use.
type Editor struct {
	registry  *Registry
	templates *TemplateSet
	newID     IDGenerator
	policy    RemovePolicy

	blocks   []domain.Block
	activeID string
	mode     Mode
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithIDGenerator overrides the id source.
func WithIDGenerator(g IDGenerator) EditorOption {
	return func(e *Editor) { e.newID = g }
}

// WithRemovePolicy sets the container removal policy.
func WithRemovePolicy(p RemovePolicy) EditorOption {
	return func(e *Editor) { e.policy = p }
}

// NewEditor creates an empty editor in design mode.
func NewEditor(reg *Registry, tpls *TemplateSet, opts ...EditorOption) *Editor {
	e := &Editor{
		registry:  reg,
		templates: tpls,
		newID:     NewID,
		policy:    RemoveCascade,
		mode:      ModeDesign,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry returns the kind registry the editor draws defaults from.
func (e *Editor) Registry() *Registry { return e.registry }

// Templates returns the template set used for template drops.
func (e *Editor) Templates() *TemplateSet { return e.templates }

// Load replaces the block list and clears the selection.
func (e *Editor) Load(blocks []domain.Block) {
	e.blocks = make([]domain.Block, len(blocks))
	for i, b := range blocks {
		e.blocks[i] = b.Clone()
	}
	e.activeID = ""
}

// Blocks returns a copy of the block list in array order.
func (e *Editor) Blocks() []domain.Block {
	out := make([]domain.Block, len(e.blocks))
	for i, b := range e.blocks {
		out[i] = b.Clone()
	}
	return out
}

// Block returns the block with the given id.
func (e *Editor) Block(id string) (domain.Block, bool) {
	if i := e.indexOf(id); i >= 0 {
		return e.blocks[i].Clone(), true
	}
	return domain.Block{}, false
}

// Children returns the direct children of id in array order.
func (e *Editor) Children(id string) []domain.Block {
	var out []domain.Block
	for _, b := range e.blocks {
		if b.Placement.Parent() == id && id != "" {
			out = append(out, b.Clone())
		}
	}
	return out
}

// ActiveID returns the selected block id, or "".
func (e *Editor) ActiveID() string { return e.activeID }

// Active returns the selected block.
func (e *Editor) Active() (domain.Block, bool) {
	return e.Block(e.activeID)
}

// Select makes id the active block. Selecting an unknown id is a no-op.
func (e *Editor) Select(id string) bool {
	if e.indexOf(id) < 0 {
		return false
	}
	e.activeID = id
	return true
}

// Mode returns the current view.
func (e *Editor) Mode() Mode { return e.mode }

// ToggleMode flips between design and preview and returns the new mode.
func (e *Editor) ToggleMode() Mode {
	if e.mode == ModeDesign {
		e.mode = ModePreview
	} else {
		e.mode = ModeDesign
	}
	return e.mode
}

// Drop inserts the dragged kind or template at req.Target and selects the
// first inserted block. Malformed payloads, unknown kinds, empty templates
// and targets whose parent is not on the page are no-ops returning nil.
func (e *Editor) Drop(req DropRequest) []domain.Block {
	src, ok := ParseDragPayload(req.Payload, req.Sidecar)
	if !ok {
		return nil
	}
	target, ok := e.normalizeTarget(req.Target)
	if !ok {
		return nil
	}
	if src.IsTemplate() {
		return e.dropTemplate(src.TemplateID, target)
	}
	b, ok := e.dropKind(src.Kind, target)
	if !ok {
		return nil
	}
	return []domain.Block{b}
}

func (e *Editor) dropTemplate(id string, target domain.Placement) []domain.Block {
	composed := e.templates.Compose(id, e.newID, e.registry)
	if len(composed) == 0 {
		return nil
	}
	roots := make(map[string]bool)
	for _, r := range Roots(composed) {
		roots[r.ID] = true
	}
	for i := range composed {
		if roots[composed[i].ID] {
			composed[i].Placement = target
		}
	}
	inserted := RemapIDs(composed, e.newID)
	e.blocks = append(e.blocks, inserted...)
	e.activeID = inserted[0].ID
	return cloneAll(inserted)
}

func (e *Editor) dropKind(kind string, target domain.Placement) (domain.Block, bool) {
	def, ok := e.registry.Lookup(kind)
	if !ok {
		return domain.Block{}, false
	}
	b := domain.Block{
		ID:        e.newID(),
		Kind:      def.Kind,
		Props:     e.registry.Defaults(def.Kind),
		Placement: target,
	}
	e.blocks = append(e.blocks, b)
	e.activeID = b.ID
	return b.Clone(), true
}

func (e *Editor) normalizeTarget(t domain.Placement) (domain.Placement, bool) {
	if t.IsRoot() {
		return domain.Root(), true
	}
	if e.indexOf(t.ParentID) < 0 {
		return domain.Placement{}, false
	}
	if t.Type == domain.PlacementRowColumn {
		if t.ColIndex < 0 {
			t.ColIndex = 0
		}
		return domain.InRowColumn(t.ParentID, t.ColIndex), true
	}
	return domain.InSlot(t.ParentID, t.Slot), true
}

// Move shifts the active block one position up (dir < 0) or down
// (dir > 0) in array order. Nesting is untouched. It reports whether
// anything moved.
func (e *Editor) Move(dir int) bool {
	if dir == 0 || e.activeID == "" {
		return false
	}
	i := e.indexOf(e.activeID)
	if i < 0 {
		return false
	}
	j := i + 1
	if dir < 0 {
		j = i - 1
	}
	if j < 0 || j >= len(e.blocks) {
		return false
	}
	e.blocks[i], e.blocks[j] = e.blocks[j], e.blocks[i]
	return true
}

// Remove deletes the active block, applies the removal policy to its
// contents and clears the selection. It returns the removed ids.
func (e *Editor) Remove() []string {
	if e.activeID == "" || e.indexOf(e.activeID) < 0 {
		return nil
	}
	id := e.activeID
	removed := []string{id}
	switch e.policy {
	case RemoveCascade:
		removed = Subtree(e.blocks, id)
	case RemovePromote:
		for i := range e.blocks {
			if e.blocks[i].Placement.Parent() == id {
				e.blocks[i].Placement = domain.Root()
			}
		}
	}
	gone := make(map[string]bool, len(removed))
	for _, r := range removed {
		gone[r] = true
	}
	e.blocks = slices.DeleteFunc(e.blocks, func(b domain.Block) bool { return gone[b.ID] })
	e.activeID = ""
	return removed
}

// UpdateActive applies p to the active block. Switching kinds layers the
// new kind's defaults under the existing props, then the patch on top.
func (e *Editor) UpdateActive(p Patch) (domain.Block, bool) {
	return e.Update(e.activeID, p)
}

// Update applies p to the block with the given id without changing the
// selection.
func (e *Editor) Update(id string, p Patch) (domain.Block, bool) {
	i := e.indexOf(id)
	if i < 0 {
		return domain.Block{}, false
	}
	b := &e.blocks[i]
	if p.Kind != "" {
		kind := e.registry.Canonical(p.Kind)
		if kind != b.Kind {
			b.Props = domain.MergeProps(e.registry.Defaults(kind), b.Props)
			b.Kind = kind
		}
	}
	if b.Props == nil {
		b.Props = map[string]any{}
	}
	for k, v := range p.Props {
		if v == nil {
			delete(b.Props, k)
			continue
		}
		b.Props[k] = domain.MergeProps(map[string]any{k: v})[k]
	}
	return b.Clone(), true
}

// Duplicate copies the active block and its subtree under fresh ids,
// appends the copy and selects it.
func (e *Editor) Duplicate() []domain.Block {
	if e.indexOf(e.activeID) < 0 {
		return nil
	}
	members := make(map[string]bool)
	for _, id := range Subtree(e.blocks, e.activeID) {
		members[id] = true
	}
	var sub []domain.Block
	rootAt := 0
	for _, b := range e.blocks {
		if members[b.ID] {
			if b.ID == e.activeID {
				rootAt = len(sub)
			}
			sub = append(sub, b)
		}
	}
	copies := RemapIDs(sub, e.newID)
	e.blocks = append(e.blocks, copies...)
	e.activeID = copies[rootAt].ID
	return cloneAll(copies)
}

func (e *Editor) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(e.blocks, func(b domain.Block) bool { return b.ID == id })
}

func cloneAll(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}
