package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local admin API with timed publishing and link refresh",
		Long: `Serves the admin REST API from the local SQLite database.

While running, pages whose publishAt has passed are published, scheduled
menu links of the last used site are re-resolved, catalog files are
reloaded on change and pending MCP approvals are announced in the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			e.logger.Info("starting admin api", zap.String("addr", e.cfg.Server.Addr))
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newMCPCmd(e *env) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the page and menu editor over MCP on stdin/stdout",
		Long: `Starts an MCP server on stdin/stdout. Tools edit one page and the menus
of one site at a time, and save through the admin API.

With --confirm, remove_block, menu_remove_item and publish_page wait until
the action is approved with "pagebuilder approvals approve <id>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			return a.ServeMCP(cmd.Context(), confirm)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "require approval for destructive tools")
	return cmd
}
