package config

import (
	"github.com/spf13/viper"
)

// DefaultCollectorTimeoutSeconds bounds external collector commands.
// The sysctl collector blocks on an external process; an unbounded call
// would hang detection on a wedged host.
const DefaultCollectorTimeoutSeconds = 5

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Dataset defaults: empty path selects the embedded dataset
	v.SetDefault("targets.path", "")

	// Detection defaults
	v.SetDefault("detect.collector_timeout_seconds", DefaultCollectorTimeoutSeconds)

	// Log defaults
	v.SetDefault("log.json", false)
}
