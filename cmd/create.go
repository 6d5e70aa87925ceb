package cmd

import (
	"fmt"
	"os"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewCreateCmd creates the `create` command.
func NewCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [-- command args...]",
		Short: "Create a session record without starting a process",
		Long: `Creates the session directory with its stdin channel, an empty stdout and a
record in the starting state. Use this when another program will host the
process and report its pid with 'vt status'.

Examples:
  vt create --name build -- make all
  vt create --id abc-123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			id, _ := cmd.Flags().GetString("id")
			name, _ := cmd.Flags().GetString("name")
			cwd, _ := cmd.Flags().GetString("cwd")
			if cwd == "" {
				cwd, _ = os.Getwd()
			}

			s, err := e.mgr.Create(sessions.CreateOptions{
				ID:      id,
				Name:    name,
				Cmdline: args,
				Cwd:     cwd,
			})
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				return cli.PrintJSON(cmd.OutOrStdout(), s)
			}
			p := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
			p.Success("Session created")
			fmt.Fprintln(cmd.OutOrStdout(), s.ID)
			return nil
		},
	}

	cmd.Flags().String("id", "", "Session id (default: derived from --name, or generated)")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("cwd", "", "Working directory recorded for the command (default: current directory)")

	return cmd
}
