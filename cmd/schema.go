package cmd

import (
	"fmt"

	"github.com/dairui1/vibetunnel/config"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewSchemaCmd creates the `schema` command.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [config|session]",
		Short:     "Print the JSON Schema for vibetunnel.yml or session.json",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"config", "session"},
		RunE: func(cmd *cobra.Command, args []string) error {
			which := "config"
			if len(args) == 1 {
				which = args[0]
			}

			var (
				data []byte
				err  error
			)
			switch which {
			case "config":
				data, err = config.GenerateSchema()
			case "session":
				data, err = sessions.RecordSchema()
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unknown schema: "+which).
					WithDetail("known", []string{"config", "session"})
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
