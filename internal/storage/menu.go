package storage

import (
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

// MenuStore implements domain.MenuStore using SQLite.
type MenuStore struct {
	db *DB
}

func NewMenuStore(db *DB) *MenuStore {
	return &MenuStore{db: db}
}

// ListMenuRows returns the flat rows of one menu, siblings in sort order.
func (s *MenuStore) ListMenuRows(siteID string, menu domain.MenuName, locale string) ([]domain.MenuRow, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, parent_id, label, link_type, url, internal_page_id, schedules_json, target, sort_order
		 FROM menu_items WHERE site_id = ? AND menu = ? AND locale = ?
		 ORDER BY sort_order, id`,
		siteID, menu, locale,
	)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	out := []domain.MenuRow{}
	for rows.Next() {
		r := domain.MenuRow{SiteID: siteID, Menu: menu, Locale: locale}
		var schedules string
		if err := rows.Scan(&r.ID, &r.ParentID, &r.Label, &r.LinkType, &r.URL,
			&r.InternalPageID, &schedules, &r.Target, &r.SortOrder); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		if err := json.Unmarshal([]byte(schedules), &r.Schedules); err != nil {
			return nil, fmt.Errorf("decode schedules of %s: %w", r.ID, err)
		}
		if len(r.Schedules) == 0 {
			r.Schedules = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceMenuTree atomically replaces every row of one menu.
func (s *MenuStore) ReplaceMenuTree(siteID string, menu domain.MenuName, locale string, rows []domain.MenuRow) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM menu_items WHERE site_id = ? AND menu = ? AND locale = ?`, siteID, menu, locale,
	); err != nil {
		return fmt.Errorf("delete menu items: %w", err)
	}
	for _, r := range rows {
		schedules, err := json.Marshal(nonNil(r.Schedules))
		if err != nil {
			return fmt.Errorf("encode schedules of %s: %w", r.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO menu_items (site_id, menu, locale, id, parent_id, label, link_type, url,
			 internal_page_id, schedules_json, target, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			siteID, menu, locale, r.ID, r.ParentID, r.Label, r.LinkType, r.URL,
			r.InternalPageID, string(schedules), r.Target, r.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("insert menu item %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
