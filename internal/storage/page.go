package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagebuilder/internal/domain"
)

// PageStore implements domain.PageStore using SQLite.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, site_id, title, slug, path, seo_json, status, publish_at, published_at, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (*domain.Page, error) {
	p := &domain.Page{}
	var (
		seo                    string
		publishAt, publishedAt sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.SiteID, &p.Title, &p.Slug, &p.Path, &seo, &p.Status,
		&publishAt, &publishedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seo), &p.SEO); err != nil {
		return nil, fmt.Errorf("decode seo: %w", err)
	}
	p.PublishAt = fromMillis(publishAt)
	p.PublishedAt = fromMillis(publishedAt)
	return p, nil
}

// CreatePage inserts the page and its blocks in one transaction.
func (s *PageStore) CreatePage(p *domain.Page) error {
	now := timestamp()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.PageStatusDraft
	}
	seo, err := json.Marshal(p.SEO)
	if err != nil {
		return fmt.Errorf("encode seo: %w", err)
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SiteID, p.Title, p.Slug, p.Path, string(seo), p.Status,
		toMillis(p.PublishAt), toMillis(p.PublishedAt), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	if err := writeBlocks(tx, p.ID, p.Blocks); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPage returns the page with its blocks.
func (s *PageStore) GetPage(id string) (*domain.Page, error) {
	p, err := scanPage(s.db.Conn().QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	if p.Blocks, err = listBlocks(s.db.Conn(), id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPages returns the pages of a site without their blocks.
func (s *PageStore) ListPages(siteID string) ([]domain.Page, error) {
	return s.queryPages(`SELECT `+pageColumns+` FROM pages WHERE site_id = ? ORDER BY path, created_at`, siteID)
}

// ListDuePages returns draft pages whose scheduled publish time has passed.
func (s *PageStore) ListDuePages(now time.Time) ([]domain.Page, error) {
	return s.queryPages(
		`SELECT `+pageColumns+` FROM pages
		 WHERE status = ? AND publish_at IS NOT NULL AND publish_at <= ?
		 ORDER BY publish_at`,
		domain.PageStatusDraft, now.UnixMilli(),
	)
}

func (s *PageStore) queryPages(query string, args ...any) ([]domain.Page, error) {
	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// UpdatePage writes the page metadata and replaces its blocks.
func (s *PageStore) UpdatePage(p *domain.Page) error {
	p.UpdatedAt = timestamp()
	seo, err := json.Marshal(p.SEO)
	if err != nil {
		return fmt.Errorf("encode seo: %w", err)
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE pages SET site_id = ?, title = ?, slug = ?, path = ?, seo_json = ?, status = ?,
		 publish_at = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		p.SiteID, p.Title, p.Slug, p.Path, string(seo), p.Status,
		toMillis(p.PublishAt), toMillis(p.PublishedAt), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if err := mustAffect(res, "page", p.ID); err != nil {
		return err
	}
	if err := writeBlocks(tx, p.ID, p.Blocks); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PageStore) DeletePage(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM pages WHERE id = ?`, id)
	return err
}
