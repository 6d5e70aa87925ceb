package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// VersionScenario tests the 'version' command.
func VersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-version",
		Description: "Verifies that vt reports its build information.",
		Tags:        []string{"vt", "basic"},
		Steps: []harness.Step{
			harness.NewStep("Run 'vt version'", func(ctx *harness.Context) error {
				result, err := vtOK(ctx, "version")
				if err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "vt ", "output should name the binary")
			}),
		},
	}
}

// SessionLifecycleScenario walks one session through create, status changes,
// input and cleanup.
func SessionLifecycleScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-session-lifecycle",
		Description: "Creates a session, records its transitions and removes it.",
		Tags:        []string{"vt", "sessions"},
		Steps: []harness.Step{
			harness.NewStep("Create a session", func(ctx *harness.Context) error {
				result, err := vtOK(ctx, "create", "--id", "e2e-life", "--name", "lifecycle", "--", "sleep", "60")
				if err != nil {
					return err
				}
				if err := assert.Equal("e2e-life", strings.TrimSpace(result.Stdout), "create prints the id"); err != nil {
					return err
				}
				for _, name := range []string{"session.json", "stdin", "stdout"} {
					if !exists(filepath.Join(controlDir(ctx), "e2e-life", name)) {
						return fmt.Errorf("expected %s in the session directory", name)
					}
				}
				return nil
			}),
			harness.NewStep("List shows the starting session", func(ctx *harness.Context) error {
				list, err := listSessions(ctx)
				if err != nil {
					return err
				}
				if err := assert.Equal(1, len(list), "one session"); err != nil {
					return err
				}
				if err := assert.Equal("starting", list[0].Status, "new sessions start in starting"); err != nil {
					return err
				}
				return assert.Equal("lifecycle", list[0].Name, "name is recorded")
			}),
			harness.NewStep("Input without a reader fails", func(ctx *harness.Context) error {
				result, err := vt(ctx, "send", "e2e-life", "ls", "--enter")
				if err != nil {
					return err
				}
				if err := assert.Equal(1, result.ExitCode, "send should fail"); err != nil {
					return err
				}
				return assert.Contains(result.Stderr, "STDIN_WRITE_FAILED", "error code is printed")
			}),
			harness.NewStep("Record exit and remove", func(ctx *harness.Context) error {
				if _, err := vtOK(ctx, "status", "e2e-life", "exited", "--exit-code", "0"); err != nil {
					return err
				}
				if _, err := vtOK(ctx, "cleanup", "e2e-life"); err != nil {
					return err
				}
				if exists(filepath.Join(controlDir(ctx), "e2e-life")) {
					return fmt.Errorf("session directory should be gone")
				}
				// Removing it again is not an error.
				_, err := vtOK(ctx, "cleanup", "e2e-life")
				return err
			}),
		},
	}
}

// ReconcileStaleScenario checks that a running session whose process is gone
// is listed as exited with code 1.
func ReconcileStaleScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-reconcile-stale",
		Description: "A running record with a dead pid is demoted when listed.",
		Tags:        []string{"vt", "sessions", "reconcile"},
		Steps: []harness.Step{
			harness.NewStep("Write a stale record", func(ctx *harness.Context) error {
				pid, err := deadPID()
				if err != nil {
					return err
				}
				return writeRecord(ctx, "e2e-stale", fmt.Sprintf(
					`{"status":"running","pid":%d,"startedAt":"2026-01-01T00:00:00Z","custom":"kept"}`, pid))
			}),
			harness.NewStep("List demotes it", func(ctx *harness.Context) error {
				list, err := listSessions(ctx)
				if err != nil {
					return err
				}
				if err := assert.Equal(1, len(list), "one session"); err != nil {
					return err
				}
				if err := assert.Equal("exited", list[0].Status, "dead session is exited"); err != nil {
					return err
				}
				if list[0].ExitCode == nil {
					return fmt.Errorf("exit code should be recorded")
				}
				return assert.Equal(1, *list[0].ExitCode, "unknown exit status is recorded as 1")
			}),
			harness.NewStep("Unknown keys survive the rewrite", func(ctx *harness.Context) error {
				content, err := fs.ReadString(filepath.Join(controlDir(ctx), "e2e-stale", "session.json"))
				if err != nil {
					return err
				}
				if err := assert.Contains(content, `"custom": "kept"`, "extra keys are preserved"); err != nil {
					return err
				}
				return assert.Contains(content, `"status": "exited"`, "demotion is persisted")
			}),
		},
	}
}

// CleanupExitedScenario removes exited sessions by pattern and leaves the
// rest.
func CleanupExitedScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-cleanup-exited",
		Description: "Bulk cleanup removes only exited sessions matching the patterns.",
		Tags:        []string{"vt", "sessions", "cleanup"},
		Steps: []harness.Step{
			harness.NewStep("Write records", func(ctx *harness.Context) error {
				records := map[string]string{
					"build-1": `{"status":"exited","exitCode":0,"startedAt":"2026-01-01T00:00:01Z"}`,
					"build-2": `{"status":"exited","exitCode":2,"startedAt":"2026-01-01T00:00:02Z"}`,
					"dev":     `{"status":"exited","exitCode":0,"startedAt":"2026-01-01T00:00:03Z"}`,
					"pending": `{"status":"starting","startedAt":"2026-01-01T00:00:04Z"}`,
				}
				for id, content := range records {
					if err := writeRecord(ctx, id, content); err != nil {
						return err
					}
				}
				return nil
			}),
			harness.NewStep("Cleanup matching", func(ctx *harness.Context) error {
				result, err := vtOK(ctx, "cleanup", "--exited", "--match", "build-*", "--match", "!build-2")
				if err != nil {
					return err
				}
				return assert.Equal("removed build-1\n", result.Stdout, "only build-1 matches")
			}),
			harness.NewStep("Cleanup all exited", func(ctx *harness.Context) error {
				if _, err := vtOK(ctx, "cleanup", "--exited"); err != nil {
					return err
				}
				list, err := listSessions(ctx)
				if err != nil {
					return err
				}
				if err := assert.Equal(1, len(list), "only the starting session remains"); err != nil {
					return err
				}
				return assert.Equal("pending", list[0].ID, "starting sessions are kept")
			}),
		},
	}
}

// InvalidIDScenario checks that unsafe ids are rejected before touching the
// filesystem.
func InvalidIDScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-invalid-id",
		Description: "Path-like session ids are rejected with INVALID_SESSION_ID.",
		Tags:        []string{"vt", "sessions", "validation"},
		Steps: []harness.Step{
			harness.NewStep("Reject traversal", func(ctx *harness.Context) error {
				for _, args := range [][]string{
					{"show", "../escape"},
					{"create", "--id", "a/b"},
					{"send", "x.y", "hi"},
				} {
					result, err := vt(ctx, args...)
					if err != nil {
						return err
					}
					if err := assert.Equal(1, result.ExitCode, "invalid id should fail"); err != nil {
						return err
					}
					if err := assert.Contains(result.Stderr, "INVALID_SESSION_ID", "error code is printed"); err != nil {
						return err
					}
				}
				if exists(filepath.Join(filepath.Dir(controlDir(ctx)), "escape")) {
					return fmt.Errorf("nothing should be created outside the control directory")
				}
				return nil
			}),
		},
	}
}

// FwdHostScenario hosts a command under a PTY and checks the recorded output
// and exit code.
func FwdHostScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-fwd-host",
		Description: "vt fwd records output and the real exit code.",
		Tags:        []string{"vt", "ptyhost"},
		Steps: []harness.Step{
			harness.NewStep("Run a command", func(ctx *harness.Context) error {
				result, err := vt(ctx, "fwd", "--quiet", "--id", "e2e-fwd", "--", "sh", "-c", "echo hosted-output; exit 5")
				if err != nil {
					return err
				}
				return assert.Equal(5, result.ExitCode, "vt exits with the command's code")
			}),
			harness.NewStep("Output and status are recorded", func(ctx *harness.Context) error {
				result, err := vtOK(ctx, "tail", "e2e-fwd")
				if err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "hosted-output", "output is in stdout"); err != nil {
					return err
				}
				list, err := listSessions(ctx)
				if err != nil {
					return err
				}
				if err := assert.Equal("exited", list[0].Status, "session exited"); err != nil {
					return err
				}
				return assert.Equal(5, *list[0].ExitCode, "exit code recorded")
			}),
		},
	}
}

// DoctorScenario checks that problems skipped by list are reported.
func DoctorScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vt-doctor",
		Description: "vt doctor reports corrupt records that list skips.",
		Tags:        []string{"vt", "doctor"},
		Steps: []harness.Step{
			harness.NewStep("Corrupt a record", func(ctx *harness.Context) error {
				return writeRecord(ctx, "e2e-bad", "{broken")
			}),
			harness.NewStep("List skips it, doctor reports it", func(ctx *harness.Context) error {
				list, err := listSessions(ctx)
				if err != nil {
					return err
				}
				if err := assert.Equal(0, len(list), "corrupt records are not listed"); err != nil {
					return err
				}
				result, err := vtOK(ctx, "doctor")
				if err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "corrupt_metadata", "doctor names the problem")
			}),
		},
	}
}
