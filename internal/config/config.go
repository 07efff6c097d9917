// Package config loads the application configuration: built-in defaults,
// then a json5 file merged with its .local override, then environment
// variables. Command line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"catalog-sync/adapters"
	"catalog-sync/internal/types"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// DefaultFile is the config file looked up when none is given
const DefaultFile = "catalog-sync.json5"

// EnvPrefix prefixes every environment override
const EnvPrefix = "CATALOG_SYNC_"

// MinRequestDelay is the lowest politeness delay accepted from configuration
const MinRequestDelay = 1500 * time.Millisecond

// Config is the application configuration
type Config struct {
	DataDir   string        `json:"data_dir"`
	OutputDir string        `json:"output_dir"`
	LogLevel  string        `json:"log_level"`
	Fetch     FetchConfig   `json:"fetch"`
	History   HistoryConfig `json:"history"`
	Publish   PublishConfig `json:"publish"`

	// Vendors overrides built-in vendors with the same key and adds new ones
	Vendors []adapters.VendorConfig `json:"vendors"`
}

// FetchConfig controls request pacing. Durations use time.ParseDuration
// syntax, e.g. "2s".
type FetchConfig struct {
	RequestDelay string `json:"request_delay"`
	MaxRetries   int    `json:"max_retries"`
	RetryBackoff string `json:"retry_backoff"`
	Timeout      string `json:"timeout"`
	Browser      bool   `json:"browser"`
	ScrollPasses int    `json:"scroll_passes"`
	BrowserPath  string `json:"browser_path"`
	UserAgent    string `json:"user_agent"`
}

// HistoryConfig enables the run history store when DSN is set
type HistoryConfig struct {
	DSN string `json:"dsn"`
}

// PublishConfig enables uploading run artifacts to S3 when Bucket is set
type PublishConfig struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	Region string `json:"region"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DataDir:   "data",
		OutputDir: "scraper-output",
		LogLevel:  "info",
		Fetch: FetchConfig{
			RequestDelay: "2s",
			MaxRetries:   3,
			RetryBackoff: "5s",
			Timeout:      "30s",
			ScrollPasses: 10,
			UserAgent:    types.DefaultUserAgent,
		},
		Publish: PublishConfig{
			Prefix: "catalog-sync",
		},
	}
}

// Load builds the configuration from defaults, the config file at path
// (merged with its .local variant) and the environment. A missing file is
// only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := ReadConfig[Config](path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if required {
				return nil, fmt.Errorf("config file %s not found", path)
			}
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig reads name and merges name.local.<ext> over it. It returns
// os.ErrNotExist when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return out, err
		}
		found = true
	}

	ext := filepath.Ext(name)
	localName := strings.TrimSuffix(name, ext) + ".local" + ext
	localData, err := os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localData) > 0 {
		var override T
		if err := json5.Unmarshal(localData, &override); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// LoadDotEnv loads environment variables from files (".env" by default).
// Missing files are ignored and variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getEnvOrDefault(EnvPrefix+"DATA_DIR", c.DataDir)
	c.OutputDir = getEnvOrDefault(EnvPrefix+"OUTPUT_DIR", c.OutputDir)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)

	c.Fetch.RequestDelay = getEnvOrDefault(EnvPrefix+"REQUEST_DELAY", c.Fetch.RequestDelay)
	c.Fetch.RetryBackoff = getEnvOrDefault(EnvPrefix+"RETRY_BACKOFF", c.Fetch.RetryBackoff)
	c.Fetch.Timeout = getEnvOrDefault(EnvPrefix+"TIMEOUT", c.Fetch.Timeout)
	c.Fetch.UserAgent = getEnvOrDefault(EnvPrefix+"USER_AGENT", c.Fetch.UserAgent)
	c.Fetch.BrowserPath = getEnvOrDefault(EnvPrefix+"BROWSER_PATH", c.Fetch.BrowserPath)

	var err error
	if c.Fetch.MaxRetries, err = getIntOrDefault(EnvPrefix+"MAX_RETRIES", c.Fetch.MaxRetries); err != nil {
		return err
	}
	if c.Fetch.ScrollPasses, err = getIntOrDefault(EnvPrefix+"SCROLL_PASSES", c.Fetch.ScrollPasses); err != nil {
		return err
	}
	if c.Fetch.Browser, err = getBoolOrDefault(EnvPrefix+"BROWSER", c.Fetch.Browser); err != nil {
		return err
	}

	c.History.DSN = getEnvOrDefault(EnvPrefix+"HISTORY_DSN", c.History.DSN)
	c.Publish.Bucket = getEnvOrDefault(EnvPrefix+"PUBLISH_BUCKET", c.Publish.Bucket)
	c.Publish.Prefix = getEnvOrDefault(EnvPrefix+"PUBLISH_PREFIX", c.Publish.Prefix)
	c.Publish.Region = getEnvOrDefault(EnvPrefix+"PUBLISH_REGION", c.Publish.Region)
	return nil
}

// Validate checks the configuration for values the tool cannot run with
func (c *Config) Validate() error {
	fetch, err := c.FetchSettings()
	if err != nil {
		return err
	}
	if fetch.RequestDelay < MinRequestDelay {
		return fmt.Errorf("fetch.request_delay must be at least %v, got %v", MinRequestDelay, fetch.RequestDelay)
	}
	if fetch.MaxRetries < 1 {
		return fmt.Errorf("fetch.max_retries must be at least 1")
	}
	if fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.DataDir == "" || c.OutputDir == "" {
		return fmt.Errorf("data_dir and output_dir are required")
	}
	return nil
}

// FetchSettings converts the fetch section into the scraper configuration
func (c *Config) FetchSettings() (*types.Config, error) {
	settings := types.DefaultConfig()

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"request_delay", c.Fetch.RequestDelay, &settings.RequestDelay},
		{"retry_backoff", c.Fetch.RetryBackoff, &settings.RetryBackoff},
		{"timeout", c.Fetch.Timeout, &settings.Timeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("fetch.%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if c.Fetch.MaxRetries != 0 {
		settings.MaxRetries = c.Fetch.MaxRetries
	}
	if c.Fetch.ScrollPasses != 0 {
		settings.ScrollPasses = c.Fetch.ScrollPasses
	}
	if c.Fetch.UserAgent != "" {
		settings.UserAgent = c.Fetch.UserAgent
	}
	settings.UseHeadlessBrowser = c.Fetch.Browser
	settings.BrowserPath = c.Fetch.BrowserPath
	return settings, nil
}

// VendorConfigs returns the built-in vendors with the configured overrides
// applied. Overrides are matched by key; unmatched entries are added as
// new vendors after the built-in ones.
func (c *Config) VendorConfigs() ([]adapters.VendorConfig, error) {
	vendors := adapters.Builtin()
	index := make(map[string]int, len(vendors))
	for i, v := range vendors {
		index[v.Key] = i
	}

	for _, override := range c.Vendors {
		if i, ok := index[override.Key]; ok {
			if err := mergo.Merge(&vendors[i], override, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("vendor %s: %w", override.Key, err)
			}
			continue
		}
		if err := override.Validate(); err != nil {
			return nil, err
		}
		index[override.Key] = len(vendors)
		vendors = append(vendors, override)
	}
	return vendors, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
