package background

import (
	"time"

	"github.com/hazyhaar/codecapture/background/internal/review"
)

// ReviewConfig configures the review backend. The API key is never read
// from YAML.
type ReviewConfig = review.Config

// Review providers.
const (
	ProviderOpenAI = review.ProviderOpenAI
	ProviderGemini = review.ProviderGemini
)

// Config holds the coordinator configuration.
type Config struct {
	DBPath string       `yaml:"db_path"`
	Review ReviewConfig `yaml:"review"`
	// StoreTimeout bounds each storage call made through the bus.
	StoreTimeout time.Duration `yaml:"store_timeout"`
	// EventRetentionDays prunes the event log at startup. Zero keeps all.
	EventRetentionDays int `yaml:"event_retention_days"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "codecapture.db"
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 10 * time.Second
	}
	c.Review.Defaults()
}
