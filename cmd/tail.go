package cmd

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"time"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

const exitPollInterval = 250 * time.Millisecond

// NewTailCmd creates the `tail` command.
func NewTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail <id>",
		Short: "Print a session's output",
		Long: `Prints the session's stdout file. With -f, keeps printing new output until
interrupted or, with --until-exit, until the session exits.

Examples:
  vt tail abc-123
  vt tail abc-123 -f --until-exit`,
		Args: cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			id := args[0]
			p, err := e.mgr.Paths(id)
			if err != nil {
				return err
			}
			if _, err := e.mgr.Store().Load(id); err != nil {
				return err
			}

			follow, _ := cmd.Flags().GetBool("follow")
			untilExit, _ := cmd.Flags().GetBool("until-exit")

			t, err := tail.TailFile(p.Stdout, tail.Config{
				Follow:    follow,
				ReOpen:    false,
				MustExist: true,
				Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
				Logger:    stdlog.New(io.Discard, "", 0),
			})
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to open session output").
					WithDetail(errors.DetailSessionID, id)
			}
			defer t.Cleanup()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if follow && untilExit {
				go func() {
					waitForExit(ctx, e.mgr, id)
					_ = t.StopAtEOF()
				}()
			}
			go func() {
				<-ctx.Done()
				_ = t.Stop()
			}()

			out := cmd.OutOrStdout()
			for line := range t.Lines {
				if line.Err != nil {
					cli.GetLogger(cmd, "tail").WithError(line.Err).Debug("Error reading session output")
					continue
				}
				fmt.Fprintln(out, line.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("follow", "f", false, "Keep printing new output")
	cmd.Flags().Bool("until-exit", false, "With -f, stop once the session has exited")

	return cmd
}

// waitForExit returns once the session is exited or gone, or ctx is done.
func waitForExit(ctx context.Context, mgr *sessions.Manager, id string) {
	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()
	for {
		s, err := mgr.Get(id)
		if err != nil || s.Record.Status == sessions.StatusExited {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

