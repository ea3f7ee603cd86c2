package domain

import (
	"strings"
	"time"
)

type SiteKind string

const (
	SiteKindShop    SiteKind = "shop"
	SiteKindBlog    SiteKind = "blog"
	SiteKindLanding SiteKind = "landing"
)

type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      SiteKind  `json:"kind"`
	Domain    string    `json:"domain"`
	Locales   []string  `json:"locales"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultLocale is the first configured locale, or "en".
func (s Site) DefaultLocale() string {
	if len(s.Locales) > 0 && s.Locales[0] != "" {
		return s.Locales[0]
	}
	return "en"
}

// PublicURL is the address a published page with the given path is served at.
func (s Site) PublicURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	domain := strings.TrimSuffix(strings.TrimSpace(s.Domain), "/")
	if domain == "" {
		return path
	}
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain + path
	}
	return "https://" + domain + path
}

type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// SEO is the search/social metadata attached 1:1 to a page.
type SEO struct {
	Title           string `json:"title,omitempty"`
	Description     string `json:"description,omitempty"`
	CanonicalURL    string `json:"canonicalUrl,omitempty"`
	OGTitle         string `json:"ogTitle,omitempty"`
	OGDescription   string `json:"ogDescription,omitempty"`
	OGImage         string `json:"ogImage,omitempty"`
	OGType          string `json:"ogType,omitempty"`
	Robots          string `json:"robots,omitempty"`          // index | noindex
	ChangeFrequency string `json:"changeFrequency,omitempty"` // sitemap hint
	Priority        string `json:"priority,omitempty"`        // sitemap hint, "0.0".."1.0"
	JSONLD          string `json:"jsonLd,omitempty"`
}

type Page struct {
	ID          string     `json:"id"`
	SiteID      string     `json:"siteId"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Path        string     `json:"path"`
	Blocks      []Block    `json:"blocks"`
	SEO         SEO        `json:"seo"`
	Status      PageStatus `json:"status"`
	PublishAt   *time.Time `json:"publishAt,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type SiteStore interface {
	CreateSite(s *Site) error
	GetSite(id string) (*Site, error)
	ListSites() ([]Site, error)
	UpdateSite(s *Site) error
	DeleteSite(id string) error
}

type PageStore interface {
	CreatePage(p *Page) error
	GetPage(id string) (*Page, error)
	ListPages(siteID string) ([]Page, error)
	UpdatePage(p *Page) error
	DeletePage(id string) error
	ReplacePageBlocks(pageID string, blocks []Block) error
	ListDuePages(now time.Time) ([]Page, error)
}
