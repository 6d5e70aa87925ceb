// Package paths provides XDG-compliant path resolution for vibetunnel.
//
// Resolution order:
// 1. VIBETUNNEL_HOME (portable root) → $VIBETUNNEL_HOME/{config,state,run,control}
// 2. XDG env vars → $XDG_*_HOME/vibetunnel
// 3. Platform defaults → ~/.config/vibetunnel, ~/.local/state/vibetunnel
//
// The session control directory keeps its historical default of
// ~/.vibetunnel/control so that native hosts and older CLIs share one tree.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "vibetunnel"

// Environment variables consulted during resolution.
const (
	EnvHome       = "VIBETUNNEL_HOME"
	EnvControlDir = "VIBETUNNEL_CONTROL_DIR"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", appName)
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return filepath.Join(xdgStateHome, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state", appName)
	}
	return ""
}

// ConfigDir returns the configuration directory holding vibetunnel.yml.
func ConfigDir() string {
	return getConfigHome()
}

// StateDir returns the state directory.
// Used for the daemon pid file and logs.
func StateDir() string {
	return getStateHome()
}

// LogDir returns the directory for file log sinks.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the runtime directory for the daemon socket.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// DefaultControlDir returns the control root used when neither a flag nor the
// config file names one.
func DefaultControlDir() string {
	if dir := os.Getenv(EnvControlDir); dir != "" {
		return dir
	}
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "control")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".vibetunnel", "control")
	}
	return ""
}

// SocketPath returns the path to the session monitor unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "vtd.sock")
}

// PidFilePath returns the path to the session monitor PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "vtd.pid")
}

// EnsureDirs creates the config, state and runtime directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
