package menu

import (
	"net/url"
	"strings"

	"pagebuilder/internal/domain"
)

// CatalogPage is a well-known page of a site kind that menu links can
// point at internally.
type CatalogPage struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

var siteCatalogs = map[domain.SiteKind][]CatalogPage{
	domain.SiteKindShop: {
		{ID: "home", Label: "Home", Path: "/"},
		{ID: "products", Label: "All products", Path: "/products"},
		{ID: "collections", Label: "Collections", Path: "/collections"},
		{ID: "sale", Label: "Sale", Path: "/sale"},
		{ID: "cart", Label: "Cart", Path: "/cart"},
		{ID: "checkout", Label: "Checkout", Path: "/checkout"},
		{ID: "account", Label: "My account", Path: "/account"},
		{ID: "orders", Label: "Orders", Path: "/account/orders"},
		{ID: "contact", Label: "Contact", Path: "/contact"},
		{ID: "about", Label: "About", Path: "/about"},
	},
	domain.SiteKindBlog: {
		{ID: "home", Label: "Home", Path: "/"},
		{ID: "posts", Label: "Posts", Path: "/posts"},
		{ID: "tags", Label: "Tags", Path: "/tags"},
		{ID: "archive", Label: "Archive", Path: "/archive"},
		{ID: "about", Label: "About", Path: "/about"},
		{ID: "contact", Label: "Contact", Path: "/contact"},
	},
	domain.SiteKindLanding: {
		{ID: "home", Label: "Home", Path: "/"},
		{ID: "pricing", Label: "Pricing", Path: "/pricing"},
		{ID: "features", Label: "Features", Path: "/features"},
		{ID: "signup", Label: "Sign up", Path: "/signup"},
		{ID: "contact", Label: "Contact", Path: "/contact"},
	},
}

// PagesFor returns the page catalog for a site kind. Unknown kinds fall
// back to the shop catalog.
func PagesFor(kind domain.SiteKind) []CatalogPage {
	if pages, ok := siteCatalogs[kind]; ok {
		return pages
	}
	return siteCatalogs[domain.SiteKindShop]
}

// NormalizePath reduces a link to a comparable path: host, query and
// fragment dropped, lower-cased, one leading slash, no trailing slash.
func NormalizePath(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if u, err := url.Parse(link); err == nil {
		link = u.Path
	} else if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	if link == "" {
		return ""
	}
	link = strings.ToLower(link)
	link = "/" + strings.Trim(link, "/")
	return link
}

// MatchInternal finds the catalog page a link points at. Links to another
// host or with a scheme never match.
func MatchInternal(kind domain.SiteKind, link string) (CatalogPage, bool) {
	if u, err := url.Parse(strings.TrimSpace(link)); err == nil && (u.Host != "" || u.Scheme != "") {
		return CatalogPage{}, false
	}
	p := NormalizePath(link)
	if p == "" {
		return CatalogPage{}, false
	}
	for _, page := range PagesFor(kind) {
		if NormalizePath(page.Path) == p {
			return page, true
		}
	}
	return CatalogPage{}, false
}

// PageByID looks up a catalog page by id.
func PageByID(kind domain.SiteKind, id string) (CatalogPage, bool) {
	for _, page := range PagesFor(kind) {
		if page.ID == id {
			return page, true
		}
	}
	return CatalogPage{}, false
}
