// Package adminapi implements both sides of the admin REST contract used
// by the page builder: a client for a remote admin backend and a local
// server backed by the SQLite stores.
package adminapi

import (
	"time"

	"pagebuilder/internal/domain"
)

// WireBlock is a block as sent over the admin API. Placement travels in
// the reserved props markers.
type WireBlock struct {
	ID    string         `json:"id"`
	Kind  string         `json:"kind"`
	Props map[string]any `json:"props"`
}

// EncodeBlocks converts editor blocks to their wire form.
func EncodeBlocks(blocks []domain.Block) []WireBlock {
	out := make([]WireBlock, len(blocks))
	for i, b := range blocks {
		out[i] = WireBlock{ID: b.ID, Kind: b.Kind, Props: domain.EncodeProps(b)}
	}
	return out
}

// DecodeBlocks converts wire blocks back to editor blocks.
func DecodeBlocks(blocks []WireBlock) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		out[i] = domain.DecodeBlock(b.ID, b.Kind, b.Props)
	}
	return out
}

// WirePage is a page as returned by the admin API.
type WirePage struct {
	ID          string            `json:"id"`
	SiteID      string            `json:"siteId"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Path        string            `json:"path"`
	Blocks      []WireBlock       `json:"blocks"`
	SEO         domain.SEO        `json:"seo"`
	Status      domain.PageStatus `json:"status,omitempty"`
	PublishAt   *time.Time        `json:"publishAt,omitempty"`
	PublishedAt *time.Time        `json:"publishedAt,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt,omitempty"`
}

// PageToWire converts a page to its wire form.
func PageToWire(p *domain.Page) WirePage {
	return WirePage{
		ID:          p.ID,
		SiteID:      p.SiteID,
		Title:       p.Title,
		Slug:        p.Slug,
		Path:        p.Path,
		Blocks:      EncodeBlocks(p.Blocks),
		SEO:         p.SEO,
		Status:      p.Status,
		PublishAt:   p.PublishAt,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Page converts the wire form back to a page.
func (w WirePage) Page() *domain.Page {
	return &domain.Page{
		ID:          w.ID,
		SiteID:      w.SiteID,
		Title:       w.Title,
		Slug:        w.Slug,
		Path:        w.Path,
		Blocks:      DecodeBlocks(w.Blocks),
		SEO:         w.SEO,
		Status:      w.Status,
		PublishAt:   w.PublishAt,
		PublishedAt: w.PublishedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// SavePageRequest is the body of POST /api/admin/pages/save. An empty ID
// creates a page.
type SavePageRequest struct {
	ID        string      `json:"id,omitempty"`
	SiteID    string      `json:"siteId"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Path      string      `json:"path"`
	Blocks    []WireBlock `json:"blocks"`
	SEO       domain.SEO  `json:"seo"`
	PublishAt *time.Time  `json:"publishAt,omitempty"`
}

// SavePageResponse is the reply to a save.
type SavePageResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// PublishRequest is the body of POST /api/admin/pages/publish.
type PublishRequest struct {
	ID string `json:"id"`
}

// PublishResponse is the reply to a publish.
type PublishResponse struct {
	OK    bool   `json:"ok"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// CreateSiteRequest is the body of POST /api/admin/sites.
type CreateSiteRequest struct {
	Name    string          `json:"name"`
	Kind    domain.SiteKind `json:"kind"`
	Domain  string          `json:"domain"`
	Locales []string        `json:"locales"`
}

// SiteResponse is the reply to a site creation.
type SiteResponse struct {
	OK    bool         `json:"ok"`
	Site  *domain.Site `json:"site,omitempty"`
	Error string       `json:"error,omitempty"`
}

// ItemsResponse wraps list replies.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

// PageResponse is the reply to GET /api/admin/pages/{id}.
type PageResponse struct {
	Page *WirePage `json:"page"`
}

// RevisionInfo describes one saved revision of a page.
type RevisionInfo struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveTreeRequest is the body of POST /api/admin/menu-items/save-tree.
type SaveTreeRequest struct {
	SiteID string           `json:"siteId"`
	Menu   domain.MenuName  `json:"menu"`
	Locale string           `json:"locale"`
	Items  []domain.MenuRow `json:"items"`
}

// OKResponse is the generic reply of write endpoints.
type OKResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
