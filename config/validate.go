package config

import (
	"os"

	"github.com/marchkit/marchkit/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Dataset override must exist when set; schema validation happens
	// later, when the catalog is built
	if c.Targets.Path != "" {
		if _, err := os.Stat(c.Targets.Path); err != nil {
			return errors.Wrapf(err, "targets.path %q is not readable", c.Targets.Path)
		}
	}

	// Collector timeout: 0 would make every external collector fail
	// instantly, negative is nonsense
	if c.Detect.CollectorTimeoutSeconds <= 0 {
		return errors.Newf("detect.collector_timeout_seconds must be > 0, got %d (omit for default %d)",
			c.Detect.CollectorTimeoutSeconds, DefaultCollectorTimeoutSeconds)
	}

	return nil
}
