package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/profiling"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the `doctor` command.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report problems in the control directory",
		Long: `Checks every entry of the control directory and reports what 'vt list'
silently skips: directories with invalid names, missing or corrupt
session.json files, records that do not match the session schema, temp files
left by an interrupted save, running sessions whose process is gone and
missing stdin channels. Nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			span := profiling.Start("scan control dir")
			diags, err := e.mgr.Scan()
			span.Stop()
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				if diags == nil {
					diags = []sessions.Diagnostic{}
				}
				return cli.PrintJSON(cmd.OutOrStdout(), diags)
			}

			p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if len(diags) == 0 {
				p.Success("No problems found in " + e.mgr.Root())
				return nil
			}

			idStyle := lipgloss.NewStyle().Bold(true)
			for _, d := range diags {
				line := fmt.Sprintf("%s %s", idStyle.Render(d.ID), d.Kind)
				if d.Detail != "" {
					line += ": " + d.Detail
				}
				p.Warn(line)
			}
			return nil
		},
	}
}
