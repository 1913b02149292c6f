// Package config provides marchkit configuration via Viper.
//
// Configuration is read from marchkit.toml (project, then user, then
// system), overridden by MARCHKIT_* environment variables. Everything has
// a working default: marchkit is usable with no configuration at all.
package config

// Config represents the marchkit configuration
type Config struct {
	Targets TargetsConfig `mapstructure:"targets"`
	Detect  DetectConfig  `mapstructure:"detect"`
	Log     LogConfig     `mapstructure:"log"`
}

// TargetsConfig configures the microarchitecture dataset source
type TargetsConfig struct {
	// Path points at an alternate dataset file (JSON or YAML).
	// Empty means the dataset embedded in the binary.
	Path string `mapstructure:"path"`
}

// DetectConfig configures host detection behavior
type DetectConfig struct {
	// CollectorTimeoutSeconds bounds collectors that shell out to
	// external commands (the sysctl path on macOS). A timed-out
	// collector counts as a failed attempt. Default: 5.
	CollectorTimeoutSeconds int `mapstructure:"collector_timeout_seconds"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json"` // JSON structured output instead of console
}
