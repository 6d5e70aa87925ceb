package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/pkg/profiling"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewListCmd creates the `list` command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sessions, newest first",
		Long: `Lists every session in the control directory. Running sessions whose
process has died are marked exited before they are shown.

Examples:
  vt list
  vt list --status running
  vt list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			client := e.client()
			defer client.Close()

			span := profiling.Start("list sessions")
			list, err := client.ListSessions(cmd.Context())
			span.Stop()
			if err != nil {
				return err
			}

			statusFilter, _ := cmd.Flags().GetString("status")
			if statusFilter != "" {
				status, err := sessions.ParseStatus(statusFilter)
				if err != nil {
					return err
				}
				list = filterStatus(list, status)
			}

			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SessionTable(list, time.Now()))
			return nil
		},
	}

	cmd.Flags().String("status", "", "Only show sessions in this status: starting, running, exited")

	return cmd
}

func filterStatus(list []*sessions.Session, status sessions.Status) []*sessions.Session {
	out := make([]*sessions.Session, 0, len(list))
	for _, s := range list {
		if s.Record != nil && s.Record.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// NewShowCmd creates the `show` command.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			s, err := getSession(cmd.Context(), e, args[0])
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), s)
			}
			p, err := e.mgr.Paths(s.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.SessionDetail(s, p))
			return nil
		},
	}
}

func getSession(ctx context.Context, e *env, id string) (*sessions.Session, error) {
	if err := sessions.ValidateID(id); err != nil {
		return nil, err
	}
	client := e.client()
	defer client.Close()
	return client.GetSession(ctx, id)
}
