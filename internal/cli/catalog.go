package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pagebuilder/internal/adminapi"
	"pagebuilder/internal/builder"
	"pagebuilder/internal/domain"
)

func newSiteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "List and create sites",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the sites known to the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			sites, err := a.Client().ListSites(cmd.Context())
			if err != nil {
				return err
			}
			last := a.Session().LastSiteID()
			w := cmd.OutOrStdout()
			for _, s := range sites {
				marker := " "
				if s.ID == last {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s  %s  %s  %s\n", marker, titleStyle.Render(s.Name),
					mutedStyle.Render(s.ID), s.Kind, strings.Join(s.Locales, ","))
			}
			return nil
		},
	}

	var in adminapi.CreateSiteRequest
	var kind string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a site and make it the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			in.Name = args[0]
			in.Kind = domain.SiteKind(kind)
			site, err := a.Client().CreateSite(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := a.Session().SetLastSiteID(site.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", site.Name, site.ID)
			return nil
		},
	}
	create.Flags().StringVar(&kind, "kind", string(domain.SiteKindShop), "site kind: shop, blog or landing")
	create.Flags().StringVar(&in.Domain, "domain", "", "public domain pages are served from")
	create.Flags().StringSliceVar(&in.Locales, "locale", []string{"en"}, "locales, default first")

	use := &cobra.Command{
		Use:   "use <site>",
		Short: "Select the site later commands default to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			site, err := a.Site(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.Session().SetLastSiteID(site.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "using %s\n", site.Name)
			return nil
		},
	}

	cmd.AddCommand(list, create, use)
	return cmd
}

func newKindsCmd(e *env) *cobra.Command {
	var category string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the block kinds of the palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			var kinds []builder.KindDef
			for _, k := range a.Registry().Kinds() {
				if category == "" || strings.EqualFold(k.Category, category) {
					kinds = append(kinds, k)
				}
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), kinds)
			}
			w := cmd.OutOrStdout()
			current := ""
			for _, k := range kinds {
				if k.Category != current {
					current = k.Category
					fmt.Fprintln(w, titleStyle.Render(current))
				}
				extra := ""
				switch {
				case k.Columns:
					extra = " columns"
				case len(k.Slots) > 0:
					extra = " slots: " + strings.Join(k.Slots, ", ")
				}
				fmt.Fprintf(w, "  %s  %s%s\n", kindStyle.Render(k.Kind), k.Label, mutedStyle.Render(extra))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only kinds of this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTemplatesCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List block templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			tpls := a.Templates().List()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), tpls)
			}
			w := cmd.OutOrStdout()
			for _, t := range tpls {
				fmt.Fprintf(w, "%s  %s %s\n", titleStyle.Render(t.ID), t.Label,
					mutedStyle.Render(fmt.Sprintf("(%d blocks)", len(t.Nodes))))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newComposeCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compose <template>",
		Short: "Expand a template into blocks without touching any page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			blocks := a.Templates().Compose(args[0], builder.SequentialIDs("b"), a.Registry())
			if len(blocks) == 0 {
				return fmt.Errorf("unknown template %q", args[0])
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), blocks)
			}
			fmt.Fprintln(cmd.OutOrStdout(), blockTree(blocks).String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
