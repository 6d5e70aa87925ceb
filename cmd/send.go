package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
)

// NewSendCmd creates the `send` command.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <id> [text]",
		Short: "Write input to a session's stdin",
		Long: `Writes text, or the byte sequence of a named key, to the session's stdin
channel. Text is sent exactly as given; add --enter to follow it with a
carriage return.

Examples:
  vt send abc-123 'ls -la' --enter
  vt send abc-123 --key ctrl_c`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			id := args[0]
			key, _ := cmd.Flags().GetString("key")
			enter, _ := cmd.Flags().GetBool("enter")

			switch {
			case key != "" && len(args) == 2:
				return errors.New(errors.ErrCodeInvalidInput, "give either text or --key, not both")
			case key != "":
				return e.mgr.SendKey(id, key)
			case len(args) < 2 && !enter:
				return errors.New(errors.ErrCodeInvalidInput, "nothing to send").
					WithDetail("usage", cmd.UseLine())
			}

			if len(args) == 2 && args[1] != "" {
				if err := e.mgr.SendInput(id, []byte(args[1])); err != nil {
					return err
				}
			}
			if enter {
				return e.mgr.SendKey(id, "enter")
			}
			return nil
		},
	}

	cmd.Flags().String("key", "", "Send a named key instead of text")
	cmd.Flags().Bool("enter", false, "Follow the text with a carriage return")

	cli.SetStyledHelpWithExtras(cmd, sendHelpExtras)

	return cmd
}

func sendHelpExtras(w io.Writer) {
	fmt.Fprintln(w, cli.SectionTitle("KEYS"))
	fmt.Fprintln(w, " "+strings.Join(sessions.KeyNames(), ", "))
}
