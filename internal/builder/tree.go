package builder

import (
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
)

// Roots returns the blocks that have no row or slot parent.
func Roots(blocks []domain.Block) []domain.Block {
	var out []domain.Block
	for _, b := range blocks {
		if b.Placement.IsRoot() {
			out = append(out, b)
		}
	}
	return out
}

// RemapIDs deep-clones blocks giving every node a fresh id. Parent
// references to nodes inside the list follow the rename; references to
// anything outside the list are kept as they are.
func RemapIDs(blocks []domain.Block, newID IDGenerator) []domain.Block {
	if newID == nil {
		newID = NewID
	}
	inside := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		inside[b.ID] = true
	}
	renamed := make(map[string]string, len(blocks))
	rename := func(old string) string {
		if id, ok := renamed[old]; ok {
			return id
		}
		id := newID()
		renamed[old] = id
		return id
	}

	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		c := b.Clone()
		c.ID = rename(b.ID)
		if pid := b.Placement.Parent(); pid != "" && inside[pid] {
			c.Placement = b.Placement.WithParent(rename(pid))
		}
		out[i] = c
	}
	return out
}

// ChildIndex maps each parent id to its children's ids in array order.
func ChildIndex(blocks []domain.Block) map[string][]string {
	idx := make(map[string][]string)
	for _, b := range blocks {
		if pid := b.Placement.Parent(); pid != "" {
			idx[pid] = append(idx[pid], b.ID)
		}
	}
	return idx
}

// Subtree returns id and all its descendants, parents before children.
func Subtree(blocks []domain.Block, id string) []string {
	idx := ChildIndex(blocks)
	seen := map[string]bool{}
	var out []string
	var walk func(string)
	walk = func(cur string) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		out = append(out, cur)
		for _, ch := range idx[cur] {
			walk(ch)
		}
	}
	walk(id)
	return out
}

// Validate reports duplicate ids, blocks parented to themselves, dangling
// parent references and parent cycles.
func Validate(blocks []domain.Block) error {
	var errs []error
	byID := make(map[string]domain.Block, len(blocks))
	for _, b := range blocks {
		if b.ID == "" {
			errs = append(errs, fmt.Errorf("block of kind %q has no id", b.Kind))
			continue
		}
		if _, dup := byID[b.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate block id %q", b.ID))
			continue
		}
		byID[b.ID] = b
	}
	for _, b := range blocks {
		pid := b.Placement.Parent()
		switch {
		case pid == "":
		case pid == b.ID:
			errs = append(errs, fmt.Errorf("block %q is its own parent", b.ID))
		default:
			if _, ok := byID[pid]; !ok {
				errs = append(errs, fmt.Errorf("block %q references missing parent %q", b.ID, pid))
			}
		}
	}
	reported := make(map[string]bool, len(byID))
	for _, b := range blocks {
		if b.ID == "" || reported[b.ID] {
			continue
		}
		reported[b.ID] = true
		if b.Placement.Parent() != b.ID && inCycle(byID, b.ID) {
			errs = append(errs, fmt.Errorf("block %q is part of a parent cycle", b.ID))
		}
	}
	return errors.Join(errs...)
}

func inCycle(byID map[string]domain.Block, start string) bool {
	seen := map[string]bool{start: true}
	cur := byID[start].Placement.Parent()
	for cur != "" {
		if cur == start {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		b, ok := byID[cur]
		if !ok {
			return false
		}
		cur = b.Placement.Parent()
	}
	return false
}
