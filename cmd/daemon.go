package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/internal/daemon/collector"
	"github.com/dairui1/vibetunnel/internal/daemon/engine"
	"github.com/dairui1/vibetunnel/internal/daemon/pidfile"
	"github.com/dairui1/vibetunnel/internal/daemon/server"
	"github.com/dairui1/vibetunnel/internal/daemon/store"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/daemon"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// NewDaemonCmd returns the session monitor daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the session monitor",
		Long: `The session monitor keeps the session list current: it marks sessions whose
process died as exited, watches the control directory for changes and
serves the list over a unix socket. vt commands use it when it is running
and read the control directory directly when it is not.`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			logger := logging.NewLogger("vtd")
			pidPath := e.pidFile()
			sockPath := e.socket()

			if err := pidfile.Acquire(pidPath); err != nil {
				return err
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.WithError(err).Error("Failed to release pid file")
				}
			}()

			st := store.New()
			eng := engine.New(st, logger)

			interval := e.cfg.MonitorInterval()
			debounce := time.Duration(e.cfg.Monitor.DebounceMs) * time.Millisecond
			eng.Register(collector.NewReconcileCollector(e.mgr, interval, logger.WithField("collector", "reconcile")))
			if e.cfg.WatchEnabled() {
				eng.Register(collector.NewWatchCollector(e.mgr, debounce, logger.WithField("collector", "watch")))
			}

			srv := server.New(e.mgr, logger)
			srv.SetEngine(eng)
			srv.SetRunningConfig(&daemon.RunningConfig{
				ControlDir:      e.mgr.Root(),
				Socket:          sockPath,
				MonitorInterval: interval,
				Watch:           e.cfg.WatchEnabled(),
				Debounce:        debounce,
				Collectors:      eng.Collectors(),
				Pid:             os.Getpid(),
				StartedAt:       time.Now().UTC(),
			})

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			go func() {
				<-ctx.Done()
				logger.Info("Received stop signal")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer shutdownCancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.WithError(err).Error("Server shutdown error")
				}
			}()

			go eng.Start(ctx)

			logger.WithFields(logrus.Fields{
				"pid":        os.Getpid(),
				"controlDir": e.mgr.Root(),
				"socket":     sockPath,
			}).Info("Starting session monitor")

			if err := srv.ListenAndServe(sockPath); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "session monitor server failed").
					WithDetail("socket", sockPath)
			}
			_ = os.Remove(sockPath)
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			running, pid, err := pidfile.IsRunning(e.pidFile())
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to read daemon pid file")
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("failed to find process %d", pid))
			}
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to send stop signal")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		Long:  "Prints the daemon's pid and running configuration. Exits 1 when it is stopped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}

			running, pid, err := pidfile.IsRunning(e.pidFile())
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to read daemon pid file")
			}

			var cfg *daemon.RunningConfig
			if running {
				if client, err := daemon.NewRemoteClient(e.socket()); err == nil {
					ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
					cfg, _ = client.GetConfig(ctx)
					cancel()
					client.Close()
				}
			}

			if cli.GetOptions(cmd).JSONOutput {
				if err := cli.PrintJSON(cmd.OutOrStdout(), map[string]interface{}{
					"running": running,
					"pid":     pid,
					"config":  cfg,
				}); err != nil {
					return err
				}
			} else if running {
				p := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
				p.Success(fmt.Sprintf("Running (PID: %d)", pid))
				p.Path("socket", e.socket())
				if cfg != nil {
					p.Path("control dir", cfg.ControlDir)
					p.Field("interval", cfg.MonitorInterval)
					p.Field("collectors", cfg.Collectors)
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
			}

			if !running {
				return &exitCodeError{code: 1}
			}
			return nil
		},
	}
}
