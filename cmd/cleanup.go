package cmd

import (
	"fmt"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/profiling"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewReconcileCmd creates the `reconcile` command.
func NewReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Mark running sessions with dead processes as exited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			span := profiling.Start("reconcile")
			demoted, err := e.mgr.ReconcileAll()
			span.Stop()
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), map[string][]string{"demoted": demoted})
			}
			if len(demoted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All running sessions are alive.")
				return nil
			}
			for _, id := range demoted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, cli.StatusStyle(string(sessions.StatusExited)).Render("exited"))
			}
			return nil
		},
	}
}

// NewCleanupCmd creates the `cleanup` command.
func NewCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup [id]",
		Short: "Remove a session, or every exited session",
		Long: `Removes session directories. With an id, that session is removed whatever
its status; removing a session that does not exist succeeds. With --exited,
every exited session is removed, optionally limited by --match patterns on
the id or name (prefix a pattern with ! to exclude).

Examples:
  vt cleanup abc-123
  vt cleanup --exited
  vt cleanup --exited --match 'build-*' --match '!build-keep'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			exited, _ := cmd.Flags().GetBool("exited")
			patterns, _ := cmd.Flags().GetStringSlice("match")

			switch {
			case len(args) == 1 && exited:
				return errors.New(errors.ErrCodeInvalidInput, "give either an id or --exited, not both")
			case len(args) == 1:
				if err := sessions.ValidateID(args[0]); err != nil {
					return err
				}
				client := e.client()
				defer client.Close()
				if err := client.CleanupSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				return printRemoved(cmd, []string{args[0]}, nil)
			case exited:
				var removed []string
				if len(patterns) > 0 {
					removed, err = e.mgr.CleanupExitedMatching(patterns)
				} else {
					client := e.client()
					defer client.Close()
					removed, err = client.CleanupExited(cmd.Context())
				}
				return printRemoved(cmd, removed, err)
			}
			return errors.New(errors.ErrCodeInvalidInput, "give a session id or --exited").
				WithDetail("usage", cmd.UseLine())
		},
	}

	cmd.Flags().Bool("exited", false, "Remove every exited session")
	cmd.Flags().StringSlice("match", nil, "With --exited, only remove sessions whose id or name matches")

	return cmd
}

// printRemoved reports removed ids and then returns failures, so partial
// progress is shown before the error.
func printRemoved(cmd *cobra.Command, removed []string, failures error) error {
	if cli.GetOptions(cmd).JSONOutput {
		if err := cli.PrintJSON(cmd.OutOrStdout(), map[string][]string{"removed": nonNil(removed)}); err != nil {
			return err
		}
		return failures
	}
	for _, id := range removed {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
	}
	if len(removed) == 0 && failures == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clean up.")
	}
	return failures
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
