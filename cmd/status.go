package cmd

import (
	"fmt"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the `status` command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <starting|running|exited>",
		Short: "Set a session's status",
		Long: `Records a status transition for a session hosted by another program.
Moving to running requires --pid.

Examples:
  vt status abc-123 running --pid 4242
  vt status abc-123 exited --exit-code 0`,
		Args: cli.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			status, err := sessions.ParseStatus(args[1])
			if err != nil {
				return err
			}

			var pid, exitCode *int
			if cmd.Flags().Changed("pid") {
				v, _ := cmd.Flags().GetInt("pid")
				pid = &v
			}
			if cmd.Flags().Changed("exit-code") {
				v, _ := cmd.Flags().GetInt("exit-code")
				exitCode = &v
			}

			rec, err := e.mgr.UpdateStatus(args[0], status, pid, exitCode)
			if err != nil {
				return err
			}
			return printRecord(cmd, args[0], rec)
		},
	}

	cmd.Flags().Int("pid", 0, "Process id of the hosted command")
	cmd.Flags().Int("exit-code", 0, "Exit code of the hosted command")

	return cmd
}

// NewRenameCmd creates the `rename` command.
func NewRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Change a session's display name",
		Args:  cli.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			rec, err := e.mgr.UpdateName(args[0], args[1])
			if err != nil {
				return err
			}
			return printRecord(cmd, args[0], rec)
		},
	}
}

func printRecord(cmd *cobra.Command, id string, rec *sessions.Record) error {
	if cli.GetOptions(cmd).JSONOutput {
		return cli.PrintJSON(cmd.OutOrStdout(), &sessions.Session{ID: id, Record: rec})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, cli.StatusStyle(string(rec.Status)).Render(string(rec.Status)))
	return nil
}
