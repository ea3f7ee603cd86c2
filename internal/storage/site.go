package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pagebuilder/internal/domain"
)

// SiteStore implements domain.SiteStore using SQLite.
type SiteStore struct {
	db *DB
}

func NewSiteStore(db *DB) *SiteStore {
	return &SiteStore{db: db}
}

const siteColumns = `id, name, kind, domain, locales_json, created_at, updated_at`

func scanSite(row interface{ Scan(...any) error }) (*domain.Site, error) {
	s := &domain.Site{}
	var locales string
	if err := row.Scan(&s.ID, &s.Name, &s.Kind, &s.Domain, &locales, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(locales), &s.Locales); err != nil {
		return nil, fmt.Errorf("decode locales: %w", err)
	}
	return s, nil
}

func (s *SiteStore) CreateSite(site *domain.Site) error {
	now := timestamp()
	site.CreatedAt = now
	site.UpdatedAt = now
	locales, err := json.Marshal(nonNil(site.Locales))
	if err != nil {
		return fmt.Errorf("encode locales: %w", err)
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO sites (`+siteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		site.ID, site.Name, site.Kind, site.Domain, string(locales), site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

func (s *SiteStore) GetSite(id string) (*domain.Site, error) {
	site, err := scanSite(s.db.Conn().QueryRow(`SELECT `+siteColumns+` FROM sites WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return site, nil
}

func (s *SiteStore) ListSites() ([]domain.Site, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + siteColumns + ` FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

func (s *SiteStore) UpdateSite(site *domain.Site) error {
	site.UpdatedAt = timestamp()
	locales, err := json.Marshal(nonNil(site.Locales))
	if err != nil {
		return fmt.Errorf("encode locales: %w", err)
	}
	res, err := s.db.Conn().Exec(
		`UPDATE sites SET name = ?, kind = ?, domain = ?, locales_json = ?, updated_at = ? WHERE id = ?`,
		site.Name, site.Kind, site.Domain, string(locales), site.UpdatedAt, site.ID,
	)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	return mustAffect(res, "site", site.ID)
}

func (s *SiteStore) DeleteSite(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM sites WHERE id = ?`, id)
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func mustAffect(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}
