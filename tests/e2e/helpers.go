package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// findVtBinary finds the vt binary under test.
// It relies on the Makefile setting the PATH to include the local ./bin directory.
func findVtBinary() (string, error) {
	path, err := exec.LookPath("vt")
	if err != nil {
		return "", fmt.Errorf("could not find 'vt' binary in PATH. Build it into a directory on PATH first")
	}
	return path, nil
}

// controlDir returns the scenario's control directory, creating it on first use.
func controlDir(ctx *harness.Context) string {
	if dir := ctx.GetString("control_dir"); dir != "" {
		return dir
	}
	dir := ctx.NewDir("control")
	ctx.Set("control_dir", dir)
	return dir
}

// runResult is the outcome of one vt invocation.
type runResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// vt runs the vt binary against the scenario control directory.
func vt(ctx *harness.Context, args ...string) (*runResult, error) {
	bin, err := findVtBinary()
	if err != nil {
		return nil, err
	}
	cmd := ctx.Command(bin, append([]string{"--control-dir", controlDir(ctx)}, args...)...)
	result := cmd.Run()
	ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
	return &runResult{Stdout: result.Stdout, Stderr: result.Stderr, ExitCode: result.ExitCode}, nil
}

// vtOK runs vt and fails unless it exits 0.
func vtOK(ctx *harness.Context, args ...string) (*runResult, error) {
	result, err := vt(ctx, args...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("vt %v failed with exit code %d: %s", args, result.ExitCode, result.Stderr)
	}
	return result, nil
}

// sessionView is the subset of `vt list --json` the scenarios check.
type sessionView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	Pid      *int     `json:"pid"`
	ExitCode *int     `json:"exitCode"`
	Cmdline  []string `json:"cmdline"`
}

func listSessions(ctx *harness.Context) ([]sessionView, error) {
	result, err := vtOK(ctx, "list", "--json")
	if err != nil {
		return nil, err
	}
	var list []sessionView
	if err := json.Unmarshal([]byte(result.Stdout), &list); err != nil {
		return nil, fmt.Errorf("failed to parse list output: %w", err)
	}
	return list, nil
}

// writeRecord writes a session.json by hand, the way an external host would.
func writeRecord(ctx *harness.Context, id, content string) error {
	return fs.WriteString(filepath.Join(controlDir(ctx), id, "session.json"), content)
}

// deadPID returns the pid of a process that has already been reaped.
func deadPID() (int, error) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
