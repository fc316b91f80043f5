// Package config loads scribe settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"scribe/internal/llm"
	"scribe/internal/search"
)

type Config struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Port     int    `yaml:"port"`
	Token    string `yaml:"token"`

	SearchEndpoint        string `yaml:"search_endpoint"`
	MaxLinksPerExpression int    `yaml:"max_links_per_expression"`
	MaxExpressions        int    `yaml:"max_expressions"`
	MaxToolRoundTrips     int    `yaml:"max_tool_round_trips"`

	CachePath string `yaml:"cache_path"`
	CacheTTL  string `yaml:"cache_ttl"`

	// API keys are only read from the environment
	Keys map[string]string `yaml:"-"`
}

var defaultConfig = Config{
	Provider:              llm.ProviderOpenRouter,
	Port:                  8765,
	SearchEndpoint:        search.DefaultEndpoint,
	MaxLinksPerExpression: search.DefaultLimit,
	MaxExpressions:        2,
	MaxToolRoundTrips:     2,
	CacheTTL:              "168h",
}

// Environment variables read by Load
const (
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvSearchKey     = "JINA_API_KEY"
	EnvToken         = "SCRIBE_TOKEN"
	EnvProvider      = "SCRIBE_PROVIDER"
	EnvModel         = "SCRIBE_MODEL"
	EnvCache         = "SCRIBE_CACHE"
)

// Default returns the built-in settings.
func Default() Config {
	cfg := defaultConfig
	cfg.Keys = map[string]string{}
	return cfg
}

// Load starts from the defaults, merges the YAML file at path (skipped when path is empty)
// and applies environment overrides.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		// only fields present in the file overwrite the defaults
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	for _, name := range []string{EnvOpenRouterKey, EnvOpenAIKey, EnvAnthropicKey, EnvSearchKey} {
		if v := getenv(name); v != "" {
			cfg.Keys[name] = v
		}
	}
	if v := getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := getenv(EnvProvider); v != "" {
		cfg.Provider = v
	}
	if v := getenv(EnvModel); v != "" {
		cfg.Model = v
	}
	if v := getenv(EnvCache); v != "" {
		cfg.CachePath = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Provider) {
	case llm.ProviderOpenRouter, llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.MaxLinksPerExpression < 1 {
		errs = append(errs, fmt.Errorf("max_links_per_expression must be positive"))
	}
	if c.MaxExpressions < 1 {
		errs = append(errs, fmt.Errorf("max_expressions must be positive"))
	}
	if c.MaxToolRoundTrips < 1 {
		errs = append(errs, fmt.Errorf("max_tool_round_trips must be positive"))
	}
	if _, err := c.TTL(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TTL parses CacheTTL. An empty value keeps cache entries forever.
func (c Config) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache_ttl %q: %w", c.CacheTTL, err)
	}
	return d, nil
}

// APIKey returns the key for the named model provider.
func (c Config) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case llm.ProviderOpenAI:
		return c.Keys[EnvOpenAIKey]
	case llm.ProviderAnthropic:
		return c.Keys[EnvAnthropicKey]
	default:
		return c.Keys[EnvOpenRouterKey]
	}
}

// SearchKey returns the search API key.
func (c Config) SearchKey() string {
	return c.Keys[EnvSearchKey]
}
