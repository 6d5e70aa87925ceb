// Package cmd implements the vt command line.
package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dairui1/vibetunnel/cli"
	"github.com/dairui1/vibetunnel/config"
	"github.com/dairui1/vibetunnel/pkg/daemon"
	"github.com/dairui1/vibetunnel/pkg/paths"
	"github.com/dairui1/vibetunnel/pkg/profiling"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/dairui1/vibetunnel/version"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the vt command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand("vt", "Manage PTY sessions in a shared control directory")
	root.Long = `vt creates, inspects and cleans up terminal sessions stored under a control
directory, one subdirectory per session holding session.json, stdin and stdout.

Examples:
  # host a shell as a new session
  vt fwd --name dev

  # list sessions, newest first
  vt list

  # type into a session
  vt send dev 'make test'
  vt send dev --key enter`

	cli.SetVersionTemplate(root, version.GetInfo())
	profiling.Attach(root)

	root.AddCommand(
		NewCreateCmd(),
		NewListCmd(),
		NewShowCmd(),
		NewStatusCmd(),
		NewRenameCmd(),
		NewSendCmd(),
		NewReconcileCmd(),
		NewCleanupCmd(),
		NewTailCmd(),
		NewDoctorCmd(),
		NewDaemonCmd(),
		NewFwdCmd(),
		NewPathsCmd(),
		NewSchemaCmd(),
		cli.NewVersionCommand("vt"),
	)

	cli.ApplyStyledHelpRecursive(root)

	return root
}

// Execute runs vt with os.Args and returns the process exit code.
func Execute() int {
	executed, err := NewRootCmd().ExecuteC()
	if err == nil {
		return 0
	}

	var exit *exitCodeError
	if stderrors.As(err, &exit) {
		return exit.code
	}

	opts := cli.GetOptions(executed)
	cli.NewErrorHandler(opts.Verbose, opts.JSONOutput).Handle(err)
	return 1
}

// exitCodeError carries a child process exit code out of RunE without
// printing anything.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return "exit status" }

// env bundles what most commands need: the loaded config and a manager over
// the resolved control directory.
type env struct {
	cfg *config.Config
	mgr *sessions.Manager
}

func newEnv(cmd *cobra.Command) (*env, error) {
	defer profiling.Start("load config").Stop()

	root, cfg, err := cli.ResolveControlDir(cmd)
	if err != nil {
		return nil, err
	}
	mgr, err := sessions.NewManager(root, sessions.WithLogger(cli.GetLogger(cmd, "sessions")))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, mgr: mgr}, nil
}

// socket returns the daemon socket, honoring daemon.socket from config.
func (e *env) socket() string {
	if e.cfg != nil && e.cfg.Daemon.Socket != "" {
		return e.cfg.Daemon.Socket
	}
	return paths.SocketPath()
}

// pidFile returns the daemon pid file, honoring daemon.pid_file from config.
func (e *env) pidFile() string {
	if e.cfg != nil && e.cfg.Daemon.PidFile != "" {
		return e.cfg.Daemon.PidFile
	}
	return paths.PidFilePath()
}

// client returns a daemon client for read and cleanup commands. It talks to
// a running daemon on the same control directory and works in-process
// otherwise.
func (e *env) client() daemon.Client {
	return daemon.New(e.mgr, e.socket())
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
