// Package menu edits navigation menus: nested item trees, their flat
// persisted rows and scheduled links.
package menu

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
)

var (
	ErrNotFound = errors.New("menu: item not found")
	ErrCycle    = errors.New("menu: cannot move an item under itself")
)

// NewItem returns a blank external link with a fresh id.
func NewItem(label string) *domain.MenuItem {
	if label == "" {
		label = "New item"
	}
	return &domain.MenuItem{
		ID:       uuid.NewString(),
		Label:    label,
		LinkType: domain.LinkExternal,
	}
}

// AddRoot appends item as the last top-level entry.
func AddRoot(tree []*domain.MenuItem, item *domain.MenuItem) []*domain.MenuItem {
	out := slices.Clone(tree)
	return append(out, item)
}

// Find returns the item with the given id anywhere in the tree.
func Find(tree []*domain.MenuItem, id string) *domain.MenuItem {
	for _, it := range tree {
		if it.ID == id {
			return it
		}
		if found := Find(it.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Remove detaches id from the tree. Only the branches on the path to the
// removed item are rebuilt; every other node is shared with the input.
// The removed item is nil when id is not in the tree.
func Remove(tree []*domain.MenuItem, id string) (*domain.MenuItem, []*domain.MenuItem) {
	for i, it := range tree {
		if it.ID == id {
			return it, slices.Delete(slices.Clone(tree), i, i+1)
		}
	}
	for i, it := range tree {
		removed, children := Remove(it.Children, id)
		if removed == nil {
			continue
		}
		copyIt := *it
		copyIt.Children = children
		out := slices.Clone(tree)
		out[i] = &copyIt
		return removed, out
	}
	return nil, tree
}

// MoveToRoot detaches id and appends it to the top level.
func MoveToRoot(tree []*domain.MenuItem, id string) ([]*domain.MenuItem, error) {
	removed, rest := Remove(tree, id)
	if removed == nil {
		return tree, ErrNotFound
	}
	return append(rest, removed), nil
}

// MoveToChildren detaches id and appends it as the last child of
// parentID. Moving an item under itself or one of its descendants fails
// with ErrCycle and leaves the tree unchanged.
func MoveToChildren(tree []*domain.MenuItem, id, parentID string) ([]*domain.MenuItem, error) {
	item := Find(tree, id)
	if item == nil || Find(tree, parentID) == nil {
		return tree, ErrNotFound
	}
	if id == parentID || Find(item.Children, parentID) != nil {
		return tree, ErrCycle
	}
	removed, rest := Remove(tree, id)
	return appendChild(rest, parentID, removed), nil
}

// appendChild rebuilds the path to parentID with child appended.
func appendChild(tree []*domain.MenuItem, parentID string, child *domain.MenuItem) []*domain.MenuItem {
	for i, it := range tree {
		if it.ID == parentID {
			copyIt := *it
			copyIt.Children = append(slices.Clone(it.Children), child)
			out := slices.Clone(tree)
			out[i] = &copyIt
			return out
		}
		if Find(it.Children, parentID) != nil {
			copyIt := *it
			copyIt.Children = appendChild(it.Children, parentID, child)
			out := slices.Clone(tree)
			out[i] = &copyIt
			return out
		}
	}
	return tree
}

// Update replaces the fields of item id with fn's result, rebuilding the
// path to it. Children are preserved regardless of what fn sets.
func Update(tree []*domain.MenuItem, id string, fn func(domain.MenuItem) domain.MenuItem) ([]*domain.MenuItem, error) {
	for i, it := range tree {
		if it.ID == id {
			next := fn(*it)
			next.ID = it.ID
			next.Children = it.Children
			out := slices.Clone(tree)
			out[i] = &next
			return out, nil
		}
		if Find(it.Children, id) != nil {
			children, err := Update(it.Children, id, fn)
			if err != nil {
				return tree, err
			}
			copyIt := *it
			copyIt.Children = children
			out := slices.Clone(tree)
			out[i] = &copyIt
			return out, nil
		}
	}
	return tree, ErrNotFound
}

// Reparent sets the parent of row id on a flat row list, walking up from
// the new parent to reject cycles. An empty parentID moves the row to the
// top level.
func Reparent(rows []domain.MenuRow, id, parentID string) ([]domain.MenuRow, error) {
	idx := slices.IndexFunc(rows, func(r domain.MenuRow) bool { return r.ID == id })
	if idx < 0 {
		return rows, ErrNotFound
	}
	out := slices.Clone(rows)
	if parentID == "" {
		out[idx].ParentID = nil
		return out, nil
	}
	if !slices.ContainsFunc(rows, func(r domain.MenuRow) bool { return r.ID == parentID }) {
		return rows, ErrNotFound
	}
	if parentID == id || isAncestor(rows, id, parentID) {
		return rows, ErrCycle
	}
	pid := parentID
	out[idx].ParentID = &pid
	return out, nil
}

// isAncestor reports whether ancestorID is on the parent chain of itemID.
func isAncestor(rows []domain.MenuRow, ancestorID, itemID string) bool {
	byID := make(map[string]domain.MenuRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	seen := map[string]bool{}
	cur := itemID
	for {
		r, ok := byID[cur]
		if !ok || r.ParentID == nil || seen[cur] {
			return false
		}
		seen[cur] = true
		if *r.ParentID == ancestorID {
			return true
		}
		cur = *r.ParentID
	}
}
