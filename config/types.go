package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Defaults applied by SetDefaults.
const (
	DefaultMonitorInterval = "1s"
	DefaultDebounceMs      = 100
	DefaultCols            = 80
	DefaultRows            = 24
)

// Config represents vibetunnel.yml (or vibetunnel.toml).
type Config struct {
	// ControlDir is the root holding one directory per session.
	ControlDir string `yaml:"control_dir,omitempty" toml:"control_dir,omitempty" jsonschema:"description=Root directory holding one subdirectory per session (default ~/.vibetunnel/control)"`

	Monitor MonitorConfig `yaml:"monitor,omitempty" toml:"monitor,omitempty" jsonschema:"description=Session monitor (liveness reconciliation) settings"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty" toml:"daemon,omitempty" jsonschema:"description=Session monitor daemon settings"`
	Host    HostConfig    `yaml:"host,omitempty" toml:"host,omitempty" jsonschema:"description=Defaults for sessions hosted by 'vt fwd'"`

	// Extensions captures all other top-level keys for extensibility.
	// The logging section lives here and is decoded by the logging package.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// MonitorConfig controls the periodic liveness pass.
type MonitorConfig struct {
	// Interval is a Go duration string such as "1s" or "500ms".
	Interval string `yaml:"interval,omitempty" toml:"interval,omitempty" jsonschema:"description=How often running sessions are checked for dead processes,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	// Watch enables fsnotify-triggered refreshes in addition to the ticker.
	Watch *bool `yaml:"watch,omitempty" toml:"watch,omitempty" jsonschema:"description=Refresh the session list on control directory changes (default true)"`
	// DebounceMs coalesces bursts of filesystem events.
	DebounceMs int `yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty" jsonschema:"description=Debounce window for filesystem events in milliseconds,minimum=0"`
}

// DaemonConfig overrides the daemon's socket and pid file locations.
type DaemonConfig struct {
	Socket  string `yaml:"socket,omitempty" toml:"socket,omitempty" jsonschema:"description=Unix socket path for the daemon API"`
	PidFile string `yaml:"pid_file,omitempty" toml:"pid_file,omitempty" jsonschema:"description=PID file path for the daemon"`
}

// HostConfig holds defaults for the PTY host.
type HostConfig struct {
	Shell string `yaml:"shell,omitempty" toml:"shell,omitempty" jsonschema:"description=Command run when 'vt fwd' is given no arguments (default $SHELL)"`
	Cols  int    `yaml:"cols,omitempty" toml:"cols,omitempty" jsonschema:"description=Initial terminal width when stdout is not a terminal,minimum=1"`
	Rows  int    `yaml:"rows,omitempty" toml:"rows,omitempty" jsonschema:"description=Initial terminal height when stdout is not a terminal,minimum=1"`
}

// SetDefaults fills unset fields with their default values.
func (c *Config) SetDefaults() {
	if c.Monitor.Interval == "" {
		c.Monitor.Interval = DefaultMonitorInterval
	}
	if c.Monitor.Watch == nil {
		watch := true
		c.Monitor.Watch = &watch
	}
	if c.Monitor.DebounceMs == 0 {
		c.Monitor.DebounceMs = DefaultDebounceMs
	}
	if c.Host.Cols == 0 {
		c.Host.Cols = DefaultCols
	}
	if c.Host.Rows == 0 {
		c.Host.Rows = DefaultRows
	}
}

// MonitorInterval returns the parsed monitor interval, falling back to the
// default when the field is empty.
func (c *Config) MonitorInterval() time.Duration {
	raw := c.Monitor.Interval
	if raw == "" {
		raw = DefaultMonitorInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultMonitorInterval)
	}
	return d
}

// WatchEnabled reports whether fsnotify refreshes are enabled.
func (c *Config) WatchEnabled() bool {
	return c.Monitor.Watch == nil || *c.Monitor.Watch
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded vibetunnel.yml into the provided target struct. The target must be a
// pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
