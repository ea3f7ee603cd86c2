package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openURL is replaced in tests.
var openURL = browser.OpenURL

func newPageCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Inspect and publish pages",
	}

	var siteRef string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the pages of a site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			site, err := a.Site(cmd.Context(), siteRef)
			if err != nil {
				return err
			}
			pages, err := a.Client().ListPages(cmd.Context(), site.ID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range pages {
				fmt.Fprintf(w, "%s  %s  %s  %s\n", mutedStyle.Render(p.ID), titleStyle.Render(p.Title),
					p.Path, statusStyle.Render(string(p.Status)))
			}
			return nil
		},
	}
	list.Flags().StringVar(&siteRef, "site", "", "site id or name (default: last used)")

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <page-id>",
		Short: "Print a page's metadata, block tree and revisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			page, err := a.Client().GetPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), page)
			}
			revs, err := a.Client().ListRevisions(cmd.Context(), page.ID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(page.Title), statusStyle.Render(string(page.Status)))
			fmt.Fprintf(w, "path: %s\n", page.Path)
			if page.PublishAt != nil {
				fmt.Fprintf(w, "publishes %s\n", humanize.Time(*page.PublishAt))
			}
			if page.PublishedAt != nil {
				fmt.Fprintf(w, "published %s\n", humanize.Time(*page.PublishedAt))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, blockTree(page.Blocks).String())
			if len(revs) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, titleStyle.Render("Revisions"))
				for _, r := range revs {
					fmt.Fprintf(w, "  %s  %s  %s\n", mutedStyle.Render(r.ID), r.Label, humanize.Time(r.CreatedAt))
				}
			}
			return nil
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	var open bool
	publish := &cobra.Command{
		Use:   "publish <page-id>",
		Short: "Publish a saved page and print its public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			editor := a.Editor()
			if err := editor.Open(cmd.Context(), "", args[0]); err != nil {
				return err
			}
			url, err := editor.Publish(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			if open {
				if err := openURL(url); err != nil {
					e.logger.Warn("open browser", zap.String("url", url), zap.Error(err))
				}
			}
			return nil
		},
	}
	publish.Flags().BoolVar(&open, "open", false, "open the published page in the browser")

	cmd.AddCommand(list, show, publish)
	return cmd
}
