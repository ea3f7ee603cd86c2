package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pagebuilder/internal/datasource"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/service"
)

func newDataSourceCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasource",
		Aliases: []string{"ds"},
		Short:   "Manage the product databases and feeds ProductRail blocks read from",
	}

	var in service.AddDataSourceInput
	var driver string
	var passwordStdin bool
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a product database",
		Long: `Registers a MySQL, PostgreSQL, MongoDB or SQLite product database, or a
CSV, JSON or HTTP product feed. For feeds --host is the file path or URL and
--table is the JSON data path (e.g. data.items) or the CSV delimiter.
The password (a bearer token for http feeds) is kept in the configured
secret store, never in the database.

Example:
  pagebuilder datasource add catalog --driver postgres --host db.internal \
    --port 5432 --database shop --user reader --password-stdin < pw.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			in.Name = args[0]
			in.Driver = domain.DataSourceDriver(driver)
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				in.Password = strings.TrimRight(line, "\r\n")
			}
			ds, err := a.Sources().Add(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", ds.Name, ds.ID)
			return nil
		},
	}
	add.Flags().StringVar(&driver, "driver", "", "mysql, postgres, mongodb, sqlite, csv, json or http")
	add.Flags().StringVar(&in.Host, "host", "", "host, mongodb URI, file path or feed URL")
	add.Flags().IntVar(&in.Port, "port", 0, "port")
	add.Flags().StringVar(&in.Database, "database", "", "database name")
	add.Flags().StringVar(&in.Username, "user", "", "user name")
	add.Flags().StringVar(&in.SSLMode, "ssl-mode", "", "postgres sslmode")
	add.Flags().StringVar(&in.Table, "table", "", "table or collection (default products), JSON data path or CSV delimiter")
	add.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = add.MarkFlagRequired("driver")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered data sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			sources, err := a.Sources().List()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, ds := range sources {
				fmt.Fprintf(w, "%s  %s  %s  %s\n", titleStyle.Render(ds.Name), kindStyle.Render(string(ds.Driver)),
					ds.Table, mutedStyle.Render(ds.ID))
			}
			return nil
		},
	}

	test := &cobra.Command{
		Use:   "test <source>",
		Short: "Check that a data source accepts connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			if err := a.Sources().Test(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	var q datasource.ProductQuery
	var asJSON bool
	preview := &cobra.Command{
		Use:   "preview <source>",
		Short: "Print the products a ProductRail would show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			products, err := a.Sources().Preview(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), products)
			}
			w := cmd.OutOrStdout()
			for _, p := range products {
				fmt.Fprintf(w, "%s  %s  %.2f  %s\n", mutedStyle.Render(p.ID), p.Title, p.Price, p.Category)
			}
			return nil
		},
	}
	preview.Flags().StringVar(&q.Category, "category", "", "only products of this category")
	preview.Flags().IntVar(&q.Limit, "limit", 0, "maximum number of products")
	preview.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	remove := &cobra.Command{
		Use:   "remove <source>",
		Short: "Forget a data source and its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			if err := a.Sources().Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return nil
		},
	}

	cmd.AddCommand(add, list, test, preview, remove)
	return cmd
}
