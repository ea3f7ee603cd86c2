package builder

import "pagebuilder/internal/domain"

// shape is a block with ids replaced by positions so forests can be
// compared structurally.
type shape struct {
	Kind   string
	Props  map[string]any
	Type   domain.PlacementType
	Parent int // index of the parent inside the forest, -1 for none or outside
	Col    int
	Slot   string
}

func shapes(blocks []domain.Block) []shape {
	pos := make(map[string]int, len(blocks))
	for i, b := range blocks {
		pos[b.ID] = i
	}
	out := make([]shape, len(blocks))
	for i, b := range blocks {
		parent := -1
		if p, ok := pos[b.Placement.Parent()]; ok {
			parent = p
		}
		typ := b.Placement.Type
		if b.Placement.IsRoot() {
			typ = domain.PlacementRoot
		}
		out[i] = shape{Kind: b.Kind, Props: b.Props, Type: typ, Parent: parent, Col: b.Placement.ColIndex, Slot: b.Placement.Slot}
	}
	return out
}

func ids(blocks []domain.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}
