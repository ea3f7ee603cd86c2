// Package cli is the pagebuilder command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagebuilder/internal/app"
	"pagebuilder/internal/config"
	"pagebuilder/internal/logging"
)

// env carries what PersistentPreRunE prepared for the subcommands.
type env struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	app    *app.App
	owned  bool // app was opened here and is closed after the command
}

// NewRootCmd builds the command tree. A non-nil preset app is used instead
// of opening one from the config file.
func NewRootCmd(preset *app.App) *cobra.Command {
	e := &env{app: preset}

	root := &cobra.Command{
		Use:   "pagebuilder",
		Short: "Block-based page builder and menu editor",
		Long: `pagebuilder composes pages from blocks and templates, edits navigation
menus with scheduled links and publishes both through the admin API.

Run "pagebuilder serve" to start the local admin API, and
"pagebuilder mcp" to expose the editor to an MCP client.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.teardown()
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(e),
		newMCPCmd(e),
		newSiteCmd(e),
		newKindsCmd(e),
		newTemplatesCmd(e),
		newComposeCmd(e),
		newPageCmd(e),
		newMenuCmd(e),
		newDataSourceCmd(e),
		newApprovalsCmd(e),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := NewRootCmd(nil).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (e *env) setup() error {
	if e.app != nil {
		e.cfg = e.app.Config()
		e.logger = e.app.Logger()
		return nil
	}
	path := e.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	logger, err := logging.New(cfg.Logging, e.verbose)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.logger = logger
	return nil
}

// open returns the shared App, opening it on first use.
func (e *env) open() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := app.New(e.cfg, e.logger)
	if err != nil {
		return nil, err
	}
	e.app = a
	e.owned = true
	return a, nil
}

func (e *env) teardown() {
	if e.owned && e.app != nil {
		if err := e.app.Close(); err != nil {
			e.logger.Warn("close app", zap.Error(err))
		}
		e.app = nil
		e.owned = false
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}
