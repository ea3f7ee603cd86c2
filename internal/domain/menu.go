package domain

type LinkType string

const (
	LinkExternal  LinkType = "external"
	LinkInternal  LinkType = "internal"
	LinkScheduled LinkType = "scheduled"
)

type MenuName string

const (
	MenuHome      MenuName = "home"
	MenuSecondary MenuName = "secondary"
)

// MenuNames lists the menus kept per site and locale.
var MenuNames = []MenuName{MenuHome, MenuSecondary}

// Schedule is one dated target of a scheduled link.
type Schedule struct {
	When string `json:"when"`
	URL  string `json:"url"`
}

// MenuItem is the nested form edited in the menu builder.
type MenuItem struct {
	ID             string      `json:"id"`
	Label          string      `json:"label"`
	LinkType       LinkType    `json:"linkType"`
	URL            string      `json:"url"`
	InternalPageID string      `json:"internalPageId,omitempty"`
	Schedules      []Schedule  `json:"schedules,omitempty"`
	Target         string      `json:"target,omitempty"`
	Children       []*MenuItem `json:"children,omitempty"`
}

// MenuRow is the flat, persisted form of a menu item.
type MenuRow struct {
	ID             string     `json:"id"`
	SiteID         string     `json:"siteId"`
	Menu           MenuName   `json:"menu"`
	Locale         string     `json:"locale"`
	ParentID       *string    `json:"parentId"`
	Label          string     `json:"label"`
	LinkType       LinkType   `json:"linkType"`
	URL            string     `json:"url"`
	InternalPageID string     `json:"internalPageId,omitempty"`
	Schedules      []Schedule `json:"schedules,omitempty"`
	Target         string     `json:"target,omitempty"`
	SortOrder      int        `json:"sortOrder"`
}

// MenuSet is the pair of menus edited together for one site and locale.
type MenuSet struct {
	Home      []*MenuItem `json:"home"`
	Secondary []*MenuItem `json:"secondary"`
}

// Tree returns the named menu.
func (s *MenuSet) Tree(name MenuName) []*MenuItem {
	if name == MenuSecondary {
		return s.Secondary
	}
	return s.Home
}

// SetTree replaces the named menu.
func (s *MenuSet) SetTree(name MenuName, tree []*MenuItem) {
	if name == MenuSecondary {
		s.Secondary = tree
		return
	}
	s.Home = tree
}

type MenuStore interface {
	ListMenuRows(siteID string, menu MenuName, locale string) ([]MenuRow, error)
	ReplaceMenuTree(siteID string, menu MenuName, locale string, rows []MenuRow) error
}
