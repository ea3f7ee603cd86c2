package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// blockTree renders blocks as a tree in array order, children under their
// parent with the column or slot they sit in.
func blockTree(blocks []domain.Block) *tree.Tree {
	byID := make(map[string]domain.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}
	children := builder.ChildIndex(blocks)
	seen := make(map[string]bool, len(blocks))

	var node func(b domain.Block) any
	node = func(b domain.Block) any {
		seen[b.ID] = true
		label := kindStyle.Render(b.Kind) + " " + mutedStyle.Render(b.ID+placementSuffix(b.Placement))
		if s := propSummary(b.Props); s != "" {
			label += "  " + s
		}
		ids := children[b.ID]
		if len(ids) == 0 {
			return label
		}
		t := tree.Root(label)
		for _, id := range ids {
			if !seen[id] {
				t.Child(node(byID[id]))
			}
		}
		return t
	}

	t := tree.New()
	for _, b := range builder.Roots(blocks) {
		t.Child(node(b))
	}
	return t
}

func placementSuffix(p domain.Placement) string {
	switch p.Type {
	case domain.PlacementRowColumn:
		return fmt.Sprintf(" [col %d]", p.ColIndex)
	case domain.PlacementSectionSlot:
		return " [" + p.Slot + "]"
	default:
		return ""
	}
}

// propSummary shows the short text props of a block.
func propSummary(props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k, v := range props {
		if s, ok := v.(string); ok && s != "" && len(s) <= 40 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, props[k]))
	}
	return strings.Join(parts, " ")
}

// menuTree renders a menu with the href each item resolves to.
func menuTree(title string, items []*domain.MenuItem, hrefs map[string]string) *tree.Tree {
	var node func(it *domain.MenuItem) any
	node = func(it *domain.MenuItem) any {
		label := it.Label + " " + mutedStyle.Render("("+string(it.LinkType)+")")
		if href := hrefs[it.ID]; href != "" {
			label += " → " + href
		}
		if len(it.Schedules) > 0 {
			label += " " + statusStyle.Render(fmt.Sprintf("%d schedules", len(it.Schedules)))
		}
		if len(it.Children) == 0 {
			return label
		}
		t := tree.Root(label)
		for _, c := range it.Children {
			t.Child(node(c))
		}
		return t
	}

	t := tree.Root(titleStyle.Render(title))
	for _, it := range items {
		t.Child(node(it))
	}
	return t
}
