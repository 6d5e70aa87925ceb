package cmd

import (
	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/paths"
	"github.com/spf13/cobra"
)

// NewPathsCmd creates the `paths` command.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths [id]",
		Short: "Print the directories vt uses, or a session's files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			opts := cli.GetOptions(cmd)
			p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())

			if len(args) == 1 {
				sp, err := e.mgr.Paths(args[0])
				if err != nil {
					return err
				}
				if opts.JSONOutput {
					return cli.PrintJSON(cmd.OutOrStdout(), sp)
				}
				p.Path("dir", sp.Dir)
				p.Path("metadata", sp.Metadata)
				p.Path("stdin", sp.Stdin)
				p.Path("stdout", sp.Stdout)
				return nil
			}

			all := []struct {
				Key, Label, Value string
			}{
				{"controlDir", "control dir", e.mgr.Root()},
				{"configDir", "config dir", paths.ConfigDir()},
				{"stateDir", "state dir", paths.StateDir()},
				{"logDir", "log dir", paths.LogDir()},
				{"socket", "daemon socket", e.socket()},
				{"pidFile", "daemon pid file", e.pidFile()},
			}

			if opts.JSONOutput {
				out := make(map[string]string, len(all))
				for _, entry := range all {
					out[entry.Key] = entry.Value
				}
				return cli.PrintJSON(cmd.OutOrStdout(), out)
			}
			for _, entry := range all {
				p.Path(entry.Label, entry.Value)
			}
			return nil
		},
	}
}
