package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/pkg/ptyhost"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewFwdCmd creates the `fwd` command.
func NewFwdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fwd [-- command args...]",
		Short: "Host a command in a PTY as a new session",
		Long: `Creates a session and runs the command under a pseudo-terminal until it
exits. Output is appended to the session's stdout file and mirrored to this
terminal; input written to the session's stdin channel (for example with
'vt send') is typed into the command. When run from a terminal, keystrokes
are forwarded too. vt exits with the command's exit code.

Without a command, the shell from host.shell in config or $SHELL is used.

Examples:
  vt fwd --name dev
  vt fwd --id build-1 -- make all
  vt fwd --quiet -- python3 server.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			argv := args
			if len(argv) == 0 {
				shell := e.cfg.Host.Shell
				if shell == "" {
					shell = ptyhost.DefaultShell()
				}
				argv = []string{shell}
			}

			id, _ := cmd.Flags().GetString("id")
			name, _ := cmd.Flags().GetString("name")
			cwd, _ := cmd.Flags().GetString("cwd")
			quiet, _ := cmd.Flags().GetBool("quiet")

			opts := ptyhost.HostOptions{
				ID:      id,
				Name:    name,
				Cmdline: argv,
				Cwd:     cwd,
			}
			// Zero size lets the host take the controlling terminal's size.
			if !isatty.IsTerminal(os.Stdout.Fd()) {
				opts.Cols = e.cfg.Host.Cols
				opts.Rows = e.cfg.Host.Rows
			}
			if !quiet {
				opts.Output = cmd.OutOrStdout()
			}

			interactive := !quiet && isatty.IsTerminal(os.Stdin.Fd())
			opts.Started = func(s *sessions.Session) {
				if cli.GetOptions(cmd).JSONOutput {
					_ = cli.PrintJSON(cmd.ErrOrStderr(), s)
				} else if !interactive {
					fmt.Fprintf(cmd.ErrOrStderr(), "session %s started (pid %d)\n", s.ID, *s.Record.Pid)
				}
				if interactive {
					go forwardKeystrokes(e.mgr, s.ID, os.Stdin)
				}
			}

			if interactive {
				state, err := term.MakeRaw(int(os.Stdin.Fd()))
				if err == nil {
					defer term.Restore(int(os.Stdin.Fd()), state)
				}
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			code, err := ptyhost.Run(ctx, e.mgr, opts)
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().String("id", "", "Session id (default: derived from --name, or generated)")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("cwd", "", "Working directory for the command (default: current directory)")
	cmd.Flags().BoolP("quiet", "q", false, "Do not mirror output or forward keystrokes")

	return cmd
}

// forwardKeystrokes copies local input into the session's stdin channel.
// It stops at the first read or write error.
func forwardKeystrokes(mgr *sessions.Manager, id string, in io.Reader) {
	buf := make([]byte, 1024)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if werr := mgr.SendInput(id, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
