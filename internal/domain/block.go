package domain

// PlacementType tags where a block lives in the page tree.
type PlacementType string

const (
	PlacementRoot        PlacementType = "root"
	PlacementRowColumn   PlacementType = "row-col"
	PlacementSectionSlot PlacementType = "section"
)

// DefaultSlot is the slot name used when a container placement omits one.
const DefaultSlot = "children"

// Reserved props keys used by the admin API to carry placement on the wire.
const (
	PropParentRowID    = "_parentRowId"
	PropParentColIndex = "_parentColIndex"
	PropParent         = "__parent"
)

// Placement is the position of a block inside its page: a root block, a
// cell of a Row column, or content of a container's named slot.
// Exactly one variant is active, selected by Type.
type Placement struct {
	Type     PlacementType `json:"type"`
	ParentID string        `json:"parentId,omitempty"`
	ColIndex int           `json:"colIndex,omitempty"`
	Slot     string        `json:"slot,omitempty"`
}

// Root returns the placement of a top-level block.
func Root() Placement {
	return Placement{Type: PlacementRoot}
}

// InRowColumn places a block in column col of the Row block rowID.
func InRowColumn(rowID string, col int) Placement {
	return Placement{Type: PlacementRowColumn, ParentID: rowID, ColIndex: col}
}

// InSlot places a block in the named slot of the container parentID.
func InSlot(parentID, slot string) Placement {
	if slot == "" {
		slot = DefaultSlot
	}
	return Placement{Type: PlacementSectionSlot, ParentID: parentID, Slot: slot}
}

// IsRoot reports whether the placement has no parent.
func (p Placement) IsRoot() bool {
	return p.Type == "" || p.Type == PlacementRoot || p.ParentID == ""
}

// Parent returns the parent block id, or "" for root placements.
func (p Placement) Parent() string {
	if p.IsRoot() {
		return ""
	}
	return p.ParentID
}

// WithParent returns a copy of p pointing at a different parent id.
func (p Placement) WithParent(id string) Placement {
	p.ParentID = id
	return p
}

// Block is a single placed UI element of a page.
type Block struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Props     map[string]any `json:"props"`
	Placement Placement      `json:"placement"`
}

// Clone returns a deep copy of b; props maps and slices are not shared.
func (b Block) Clone() Block {
	b.Props = CloneProps(b.Props)
	return b
}

// CloneProps deep-copies a props bag. A nil bag yields an empty map.
func CloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneProps(val)
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = cloneValue(x)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

// MergeProps layers bags left to right; later keys win. Values are deep-copied.
func MergeProps(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = cloneValue(v)
		}
	}
	return out
}

// EncodeProps returns b's props with its placement written into the
// reserved marker keys, the shape the admin API stores.
func EncodeProps(b Block) map[string]any {
	props := CloneProps(b.Props)
	delete(props, PropParentRowID)
	delete(props, PropParentColIndex)
	delete(props, PropParent)
	switch {
	case b.Placement.IsRoot():
	case b.Placement.Type == PlacementRowColumn:
		props[PropParentRowID] = b.Placement.ParentID
		props[PropParentColIndex] = b.Placement.ColIndex
	default:
		slot := b.Placement.Slot
		if slot == "" {
			slot = DefaultSlot
		}
		props[PropParent] = map[string]any{"id": b.Placement.ParentID, "slot": slot}
	}
	return props
}

// DecodeBlock builds a Block from its wire form, lifting the reserved
// marker keys out of props into Placement. A node carrying both markers
// is treated as a row cell.
func DecodeBlock(id, kind string, props map[string]any) Block {
	clean := CloneProps(props)
	rowID, _ := clean[PropParentRowID].(string)
	col := toInt(clean[PropParentColIndex])
	parent, _ := clean[PropParent].(map[string]any)
	delete(clean, PropParentRowID)
	delete(clean, PropParentColIndex)
	delete(clean, PropParent)

	b := Block{ID: id, Kind: kind, Props: clean, Placement: Root()}
	switch {
	case rowID != "":
		b.Placement = InRowColumn(rowID, col)
	case parent != nil:
		pid, _ := parent["id"].(string)
		slot, _ := parent["slot"].(string)
		if pid != "" {
			b.Placement = InSlot(pid, slot)
		}
	}
	return b
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}
