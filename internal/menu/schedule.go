package menu

import (
	"strings"
	"time"

	"pagebuilder/internal/domain"
)

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseWhen parses a schedule date. Dates without a zone are read in UTC.
func ParseWhen(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ResolveScheduled picks the URL of the latest schedule whose date is not
// after now. Empty or unparseable dates are ignored; "" means none applies.
func ResolveScheduled(schedules []domain.Schedule, now time.Time) string {
	var (
		best    time.Time
		bestURL string
		found   bool
	)
	for _, s := range schedules {
		when, ok := ParseWhen(s.When)
		if !ok || when.After(now) {
			continue
		}
		if !found || !when.Before(best) {
			best, bestURL, found = when, s.URL, true
		}
	}
	return bestURL
}

// Href is the address an item links to at time now.
func Href(item *domain.MenuItem, now time.Time) string {
	if item == nil {
		return ""
	}
	if item.LinkType == domain.LinkScheduled {
		return ResolveScheduled(item.Schedules, now)
	}
	return item.URL
}

// ResolveAll maps every item id in the tree to its href at time now.
func ResolveAll(tree []*domain.MenuItem, now time.Time) map[string]string {
	out := map[string]string{}
	var walk func([]*domain.MenuItem)
	walk = func(items []*domain.MenuItem) {
		for _, it := range items {
			out[it.ID] = Href(it, now)
			walk(it.Children)
		}
	}
	walk(tree)
	return out
}
