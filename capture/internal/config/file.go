// CLAUDE:SUMMARY Defines the codecapture config blocks (browser, page, polling, selectors, store, review, background, display) and parses YAML with defaults and env secrets.
// Package config handles codecapture configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/hazyhaar/codecapture/background"
	"github.com/hazyhaar/codecapture/capture/internal/browser"
	"github.com/hazyhaar/codecapture/capture/internal/resolver"
	"gopkg.in/yaml.v3"
)

// Config is the top-level codecapture configuration.
type Config struct {
	Browser    browser.Config          `yaml:"browser"`
	Page       PageConfig              `yaml:"page"`
	Polling    PollingConfig           `yaml:"polling"`
	Selectors  resolver.Selectors      `yaml:"selectors"`
	Output     OutputConfig            `yaml:"output"`
	Store      StoreConfig             `yaml:"store"`
	Review     background.ReviewConfig `yaml:"review"`
	Background BackgroundConfig        `yaml:"background"`
	Display    DisplayConfig           `yaml:"display"`
}

// PageConfig selects the tab to watch.
type PageConfig struct {
	// URL is opened in a new tab when no open tab matches Match.
	URL string `yaml:"url"`
	// Match attaches to an already open tab whose URL contains it.
	Match string `yaml:"match"`
	ID    string `yaml:"id"`
}

// PollingConfig controls the capture cycle and the control search.
type PollingConfig struct {
	InitialDelay   time.Duration `yaml:"initial_delay"`
	Tick           time.Duration `yaml:"tick"`
	MaxAttempts    int           `yaml:"max_attempts"`
	ScanInterval   time.Duration `yaml:"scan_interval"`
	ScanAttempts   int           `yaml:"scan_attempts"`
	DebounceWindow time.Duration `yaml:"debounce_window"`
}

// OutputConfig adds sinks next to the coordinator.
type OutputConfig struct {
	// Stdout also writes each snapshot as a JSON line.
	Stdout bool `yaml:"stdout"`
}

// StoreConfig locates the coordinator database.
type StoreConfig struct {
	DBPath             string `yaml:"db_path"`
	EventRetentionDays int    `yaml:"event_retention_days"`
}

// BackgroundConfig splits capture and coordinator across processes.
type BackgroundConfig struct {
	// Endpoint is the base URL of a remote coordinator's bus. Empty runs
	// the coordinator in-process.
	Endpoint string `yaml:"endpoint"`
	// Listen exposes the in-process coordinator's bus on this address.
	// The bus is unauthenticated: only loopback addresses are accepted
	// unless AllowRemote is set.
	Listen      string `yaml:"listen"`
	AllowRemote bool   `yaml:"allow_remote"`
	// Timeout bounds one remote bus call.
	Timeout time.Duration `yaml:"timeout"`
}

// DisplayConfig controls the display server.
type DisplayConfig struct {
	Listen string `yaml:"listen"`
}

// Defaults.
const (
	DefaultPageURL       = "https://leetcode.com/problemset/"
	DefaultPageMatch     = "leetcode.com/problems/"
	DefaultDisplayListen = "127.0.0.1:8765"
)

// Environment variables holding review API keys.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Page.URL == "" && c.Page.Match == "" {
		c.Page.URL = DefaultPageURL
		c.Page.Match = DefaultPageMatch
	}
	if c.Page.ID == "" {
		c.Page.ID = "main"
	}
	if c.Polling.InitialDelay == 0 {
		c.Polling.InitialDelay = time.Second
	}
	if c.Polling.Tick <= 0 {
		c.Polling.Tick = 500 * time.Millisecond
	}
	if c.Polling.MaxAttempts <= 0 {
		c.Polling.MaxAttempts = 20
	}
	if c.Polling.ScanInterval <= 0 {
		c.Polling.ScanInterval = 500 * time.Millisecond
	}
	if c.Polling.ScanAttempts <= 0 {
		c.Polling.ScanAttempts = 20
	}
	if c.Polling.DebounceWindow <= 0 {
		c.Polling.DebounceWindow = 200 * time.Millisecond
	}
	c.Selectors = c.Selectors.WithDefaults()
	if c.Store.DBPath == "" {
		c.Store.DBPath = "codecapture.db"
	}
	c.Review.Defaults()
	if c.Background.Timeout <= 0 {
		c.Background.Timeout = 150 * time.Second
	}
	if c.Display.Listen == "" {
		c.Display.Listen = DefaultDisplayListen
	}
}

// ApplyEnv reads the review API key from the environment. getenv is
// os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	name := EnvOpenAIKey
	if c.Review.Provider == background.ProviderGemini {
		name = EnvGeminiKey
	}
	if v := getenv(name); v != "" {
		c.Review.APIKey = v
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Polling.InitialDelay < 0 {
		errs = append(errs, errors.New("polling.initial_delay must not be negative"))
	}
	if c.Background.Endpoint != "" {
		u, err := url.Parse(c.Background.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("background.endpoint %q is not an http(s) URL", c.Background.Endpoint))
		}
		if c.Background.Listen != "" {
			errs = append(errs, errors.New("background.listen requires an in-process coordinator (empty background.endpoint)"))
		}
	}
	if c.Background.Listen != "" && !c.Background.AllowRemote && !isLoopback(c.Background.Listen) {
		errs = append(errs, fmt.Errorf("background.listen %q is not a loopback address (set background.allow_remote to expose the bus)", c.Background.Listen))
	}
	switch c.Review.Provider {
	case background.ProviderOpenAI, background.ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("review.provider %q is not one of openai, gemini", c.Review.Provider))
	}
	return errors.Join(errs...)
}

// isLoopback reports whether addr (host:port) binds to loopback only. An
// empty host binds every interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// CoordinatorConfig maps the store and review blocks onto the coordinator.
func (c *Config) CoordinatorConfig() *background.Config {
	return &background.Config{
		DBPath:             c.Store.DBPath,
		Review:             c.Review,
		EventRetentionDays: c.Store.EventRetentionDays,
	}
}
