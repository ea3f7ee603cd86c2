package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newApprovalsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Decide destructive actions a `pagebuilder mcp --confirm` process is waiting on",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pending actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			pending, err := a.Approvals().ListPending()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("nothing pending"))
				return nil
			}
			for _, p := range pending {
				fmt.Fprintf(w, "%s  %s  %s  %s\n", mutedStyle.Render(p.ID), kindStyle.Render(p.Tool),
					p.Description, humanize.Time(p.CreatedAt))
			}
			return nil
		},
	}

	decide := func(use, done, short string, approved bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.open()
				if err != nil {
					return err
				}
				if err := a.Approvals().Resolve(args[0], approved); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, args[0])
				return nil
			},
		}
	}

	cmd.AddCommand(
		list,
		decide("approve", "approved", "Let a pending action run", true),
		decide("reject", "rejected", "Refuse a pending action", false),
	)
	return cmd
}
