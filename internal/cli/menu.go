package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/menu"
	"pagebuilder/internal/service"
)

// menuFlags select the site, locale and instant a menu command works on.
type menuFlags struct {
	site   string
	locale string
	at     string
}

func (f *menuFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.site, "site", "", "site id or name (default: last used)")
	cmd.Flags().StringVar(&f.locale, "locale", "", "menu locale (default: the site's first)")
	cmd.Flags().StringVar(&f.at, "at", "", "resolve scheduled links at this time (RFC3339 or YYYY-MM-DD)")
}

func (f *menuFlags) when() (time.Time, error) {
	if f.at == "" {
		return time.Now(), nil
	}
	t, ok := menu.ParseWhen(f.at)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --at %q", f.at)
	}
	return t, nil
}

// load opens the menus the flags point at.
func (f *menuFlags) load(cmd *cobra.Command, e *env) (*service.MenuService, time.Time, error) {
	at, err := f.when()
	if err != nil {
		return nil, time.Time{}, err
	}
	a, err := e.open()
	if err != nil {
		return nil, time.Time{}, err
	}
	site, err := a.Site(cmd.Context(), f.site)
	if err != nil {
		return nil, time.Time{}, err
	}
	menus := a.Menus()
	if err := menus.Load(cmd.Context(), site, f.locale); err != nil {
		return nil, time.Time{}, err
	}
	return menus, at, nil
}

func newMenuCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Inspect the navigation menus of a site",
	}

	var showFlags menuFlags
	var asJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the home and secondary menus with resolved links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			menus, at, err := showFlags.load(cmd, e)
			if err != nil {
				return err
			}
			set := menus.Set()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), set)
			}
			hrefs := menus.Resolve(at)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, menuTree("Home", set.Home, hrefs).String())
			fmt.Fprintln(w, menuTree("Secondary", set.Secondary, hrefs).String())
			return nil
		},
	}
	showFlags.register(show)
	show.Flags().BoolVar(&asJSON, "json", false, "print the menu trees as JSON")

	var resolveFlags menuFlags
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Print the href every menu item resolves to at a given time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			menus, at, err := resolveFlags.load(cmd, e)
			if err != nil {
				return err
			}
			hrefs := menus.Resolve(at)
			labels := map[string]string{}
			set := menus.Set()
			for _, tree := range [][]*domain.MenuItem{set.Home, set.Secondary} {
				collectLabels(tree, labels)
			}
			ids := make([]string, 0, len(hrefs))
			for id := range hrefs {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				if labels[ids[i]] != labels[ids[j]] {
					return labels[ids[i]] < labels[ids[j]]
				}
				return ids[i] < ids[j]
			})
			w := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintf(w, "%s\t%s\n", labels[id], hrefs[id])
			}
			return nil
		},
	}
	resolveFlags.register(resolve)

	var discardFlags menuFlags
	discard := &cobra.Command{
		Use:   "discard",
		Short: "Drop the unsaved menu draft and reload from the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			menus, _, err := discardFlags.load(cmd, e)
			if err != nil {
				return err
			}
			if err := menus.Discard(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "draft discarded")
			return nil
		},
	}
	discardFlags.register(discard)

	cmd.AddCommand(show, resolve, discard)
	return cmd
}

func collectLabels(tree []*domain.MenuItem, out map[string]string) {
	for _, it := range tree {
		out[it.ID] = it.Label
		collectLabels(it.Children, out)
	}
}
