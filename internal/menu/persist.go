package menu

import (
	"cmp"
	"slices"

	"pagebuilder/internal/domain"
)

// Flatten walks the tree depth-first and emits one row per item with its
// parent id and a 1-based sort order among its siblings.
func Flatten(tree []*domain.MenuItem, siteID string, menu domain.MenuName, locale string) []domain.MenuRow {
	var rows []domain.MenuRow
	var walk func(items []*domain.MenuItem, parent *string)
	walk = func(items []*domain.MenuItem, parent *string) {
		for i, it := range items {
			rows = append(rows, domain.MenuRow{
				ID:             it.ID,
				SiteID:         siteID,
				Menu:           menu,
				Locale:         locale,
				ParentID:       parent,
				Label:          it.Label,
				LinkType:       it.LinkType,
				URL:            it.URL,
				InternalPageID: it.InternalPageID,
				Schedules:      slices.Clone(it.Schedules),
				Target:         it.Target,
				SortOrder:      i + 1,
			})
			id := it.ID
			walk(it.Children, &id)
		}
	}
	walk(tree, nil)
	return rows
}

// Build is the inverse of Flatten. Rows are grouped by parent and sorted
// by sort order; the link type of each item is inferred from its row.
// Rows whose parent is missing are attached at the top level.
func Build(rows []domain.MenuRow, kind domain.SiteKind) []*domain.MenuItem {
	known := make(map[string]bool, len(rows))
	for _, r := range rows {
		known[r.ID] = true
	}
	byParent := make(map[string][]domain.MenuRow)
	for _, r := range rows {
		parent := ""
		if r.ParentID != nil && known[*r.ParentID] && *r.ParentID != r.ID {
			parent = *r.ParentID
		}
		byParent[parent] = append(byParent[parent], r)
	}
	for _, sibs := range byParent {
		slices.SortStableFunc(sibs, func(a, b domain.MenuRow) int {
			return cmp.Compare(a.SortOrder, b.SortOrder)
		})
	}

	visited := make(map[string]bool, len(rows))
	var build func(parent string) []*domain.MenuItem
	build = func(parent string) []*domain.MenuItem {
		var out []*domain.MenuItem
		for _, r := range byParent[parent] {
			if visited[r.ID] {
				continue
			}
			visited[r.ID] = true
			it := itemFromRow(r, kind)
			it.Children = build(r.ID)
			out = append(out, it)
		}
		return out
	}
	items := build("")

	// Rows on a parent cycle are unreachable from the top level; the first
	// row of each cycle becomes a top-level item carrying the rest.
	rest := slices.Clone(rows)
	slices.SortStableFunc(rest, func(a, b domain.MenuRow) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
	for _, r := range rest {
		if visited[r.ID] {
			continue
		}
		visited[r.ID] = true
		it := itemFromRow(r, kind)
		it.Children = build(r.ID)
		items = append(items, it)
	}
	return items
}

func itemFromRow(r domain.MenuRow, kind domain.SiteKind) *domain.MenuItem {
	it := &domain.MenuItem{
		ID:        r.ID,
		Label:     r.Label,
		URL:       r.URL,
		Schedules: slices.Clone(r.Schedules),
		Target:    r.Target,
	}
	switch {
	case r.LinkType == domain.LinkScheduled || len(r.Schedules) > 0:
		it.LinkType = domain.LinkScheduled
	case r.InternalPageID != "":
		it.LinkType = domain.LinkInternal
		it.InternalPageID = r.InternalPageID
		if page, ok := PageByID(kind, r.InternalPageID); ok && it.URL == "" {
			it.URL = page.Path
		}
	default:
		if page, ok := MatchInternal(kind, r.URL); ok {
			it.LinkType = domain.LinkInternal
			it.InternalPageID = page.ID
		} else {
			it.LinkType = domain.LinkExternal
		}
	}
	return it
}
