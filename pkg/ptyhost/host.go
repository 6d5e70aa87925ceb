// Package ptyhost runs a command under a pseudo-terminal and keeps its
// session directory current: output is appended to stdout, the stdin channel
// is pumped into the terminal, and the record follows the process from
// starting through running to exited.
package ptyhost

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const (
	defaultCols = 80
	defaultRows = 24

	defaultPollInterval = 50 * time.Millisecond
	drainTimeout        = 500 * time.Millisecond
)

// HostOptions describes the session to host.
type HostOptions struct {
	ID      string
	Name    string
	Cmdline []string
	Cwd     string

	// Cols and Rows set the initial terminal size. Zero means the size of
	// the controlling terminal, or 80x24 without one.
	Cols int
	Rows int

	// Env is appended to the current environment.
	Env []string

	// Output, when set, receives a copy of everything written to stdout.
	Output io.Writer

	// PollInterval is how often a plain-file stdin channel is checked for
	// new input.
	PollInterval time.Duration

	// Started is called once the record is marked running.
	Started func(*sessions.Session)
}

var logger = logging.NewLogger("ptyhost")

// Run creates the session, hosts the command until it exits (or ctx is
// cancelled, which hangs it up) and returns its exit code. A command that
// cannot be started leaves the session exited with code 1 and returns
// SPAWN_FAILED.
func Run(ctx context.Context, mgr *sessions.Manager, opts HostOptions) (int, error) {
	argv := opts.Cmdline
	if len(argv) == 0 {
		argv = []string{DefaultShell()}
	}

	sess, err := mgr.Create(sessions.CreateOptions{
		ID:      opts.ID,
		Name:    opts.Name,
		Cmdline: argv,
		Cwd:     opts.Cwd,
	})
	if err != nil {
		return sessions.DefaultExitCode, err
	}
	id := sess.ID
	log := logger.WithField("sessionId", id)

	paths, err := mgr.Paths(id)
	if err != nil {
		return sessions.DefaultExitCode, err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, opts.Env...)

	cols, rows := windowSize(opts.Cols, opts.Rows)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		code := sessions.DefaultExitCode
		if _, uerr := mgr.UpdateStatus(id, sessions.StatusExited, nil, &code); uerr != nil {
			log.WithError(uerr).Warn("Failed to record spawn failure")
		}
		return code, errors.SpawnFailed(id, argv, err)
	}
	defer ptmx.Close()

	pid := cmd.Process.Pid
	rec, err := mgr.UpdateStatus(id, sessions.StatusRunning, &pid, nil)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return sessions.DefaultExitCode, err
	}
	log.WithFields(logrus.Fields{"pid": pid, "cmdline": argv}).Info("Session running")
	if opts.Started != nil {
		opts.Started(&sessions.Session{ID: id, Record: rec, LastModified: rec.StartedAt})
	}

	outputDone, err := startOutput(ptmx, paths.Stdout, opts.Output, log)
	if err != nil {
		log.WithError(err).Warn("Output will not be recorded")
	}

	pumpCtx, stopPump := context.WithCancel(ctx)
	var pumpWG sync.WaitGroup
	pumpWG.Add(1)
	go func() {
		defer pumpWG.Done()
		pumpInput(pumpCtx, paths.Stdin, ptmx, opts.PollInterval, log)
	}()

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	var werr error
	select {
	case werr = <-waitErr:
	case <-ctx.Done():
		log.Info("Hanging up session")
		_ = cmd.Process.Signal(syscall.SIGHUP)
		select {
		case werr = <-waitErr:
		case <-time.After(2 * time.Second):
			_ = cmd.Process.Kill()
			werr = <-waitErr
		}
	}

	stopPump()
	pumpWG.Wait()

	if outputDone != nil {
		select {
		case <-outputDone:
		case <-time.After(drainTimeout):
			// A background child still holds the terminal open.
		}
	}

	code := exitCode(werr)
	if present, err := mgr.Dir().Exists(id); err != nil || !present {
		log.Warn("Session was removed while running; not recording exit")
		return code, nil
	}
	if _, err := mgr.UpdateStatus(id, sessions.StatusExited, nil, &code); err != nil {
		return code, err
	}
	log.WithField("exitCode", code).Info("Session exited")
	return code, nil
}

// DefaultShell returns $SHELL, or /bin/sh when it is unset.
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

func windowSize(cols, rows int) (int, int) {
	if cols > 0 && rows > 0 {
		return cols, rows
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			if cols <= 0 {
				cols = w
			}
			if rows <= 0 {
				rows = h
			}
		}
	}
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	return cols, rows
}

// startOutput appends everything read from the terminal to the stdout file.
// The returned channel closes once the terminal reports EOF or EIO.
func startOutput(ptmx *os.File, path string, mirror io.Writer, log *logrus.Entry) (<-chan struct{}, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Keep draining so the child never blocks on a full terminal buffer.
		out = nil
	}

	var dst io.Writer = io.Discard
	switch {
	case out != nil && mirror != nil:
		dst = io.MultiWriter(out, mirror)
	case out != nil:
		dst = out
	case mirror != nil:
		dst = mirror
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if out != nil {
			defer out.Close()
		}
		if _, cerr := io.Copy(dst, ptmx); cerr != nil && !isTerminalClosed(cerr) {
			log.WithError(cerr).Debug("Output copy stopped")
		}
	}()
	return done, err
}

func isTerminalClosed(err error) bool {
	return stderrors.Is(err, syscall.EIO) || stderrors.Is(err, os.ErrClosed) || stderrors.Is(err, io.EOF)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return sessions.DefaultExitCode
}
