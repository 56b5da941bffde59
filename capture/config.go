package capture

import (
	"github.com/hazyhaar/codecapture/capture/internal/config"
)

// Config is the top-level codecapture configuration. Re-exported from internal.
type Config = config.Config

// PageConfig selects the watched tab.
type PageConfig = config.PageConfig

// PollingConfig controls the capture cycle.
type PollingConfig = config.PollingConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() *Config {
	return config.Default()
}
