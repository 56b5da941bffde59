// CLAUDE:SUMMARY Code review requester: builds the two-message review prompt and sends it to an OpenAI-compatible endpoint or to Gemini, one attempt, no retry.
// Package review asks a language model to review submitted code.
//
// One Review call is one outbound request. Failures are returned as-is:
// *NetworkError when the service could not be reached or answered without a
// structured error, *APIError when it returned one.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/codecapture/submission"
)

// Reviewer reviews code in the context of the problem it was submitted for.
type Reviewer interface {
	Review(ctx context.Context, code string, info submission.Snapshot) (string, error)
}

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults.
const (
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultTemperature = 0.7
	DefaultTimeout     = 120 * time.Second
)

// Config selects and configures a backend.
type Config struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	// APIKey is a secret. It has no yaml tag so a dumped config never
	// carries it; it is set from the environment.
	APIKey string `yaml:"-"`
}

// Defaults fills the zero fields.
func (c *Config) Defaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Endpoint == "" && c.Provider == ProviderOpenAI {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultOpenAIModel
		if c.Provider == ProviderGemini {
			c.Model = DefaultGeminiModel
		}
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// New builds the Reviewer named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Reviewer, error) {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("review: unknown provider %q", cfg.Provider)
	}
}
