package config

import (
	"fmt"
	"time"

	"github.com/dairui1/vibetunnel/errors"
)

// Validate performs semantic checks the JSON schema cannot express.
func (c *Config) Validate() error {
	if c.Monitor.Interval != "" {
		d, err := time.ParseDuration(c.Monitor.Interval)
		if err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("monitor.interval %q is not a duration", c.Monitor.Interval)).
				WithDetail("field", "monitor.interval")
		}
		if d <= 0 {
			return errors.ConfigInvalid("monitor.interval must be positive").
				WithDetail("field", "monitor.interval")
		}
	}

	if c.Monitor.DebounceMs < 0 {
		return errors.ConfigInvalid("monitor.debounce_ms must not be negative").
			WithDetail("field", "monitor.debounce_ms")
	}

	if c.Host.Cols < 0 || c.Host.Rows < 0 {
		return errors.ConfigInvalid("host.cols and host.rows must be positive").
			WithDetail("field", "host")
	}

	return nil
}
