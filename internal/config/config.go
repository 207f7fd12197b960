package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its configuration file.
const DefaultPath = ".yijing/config.yaml"

// Config holds all yijing configuration.
type Config struct {
	// Client side
	Resolver   ResolverConfig   `yaml:"resolver"`
	Ritual     RitualConfig     `yaml:"ritual"`
	Classifier ClassifierConfig `yaml:"classifier"`
	UI         UIConfig         `yaml:"ui"`

	// Backend side
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`

	Logging LoggingConfig `yaml:"logging"`
}

// ResolverConfig points the client at the answer backend.
type ResolverConfig struct {
	BaseURL       string `yaml:"base_url" env:"YIJING_RESOLVER_URL"`
	Timeout       string `yaml:"timeout" env:"YIJING_RESOLVER_TIMEOUT"`
	HealthTimeout string `yaml:"health_timeout"`
}

// RitualConfig holds the draw animation delays.
type RitualConfig struct {
	ShakeDelay  string `yaml:"shake_delay"`
	RevealDelay string `yaml:"reveal_delay"`
	SettleDelay string `yaml:"settle_delay"`
}

// ClassifierConfig adds keywords that mark a question as informational.
type ClassifierConfig struct {
	ExtraKeywords []string `yaml:"extra_keywords" env:"YIJING_EXTRA_KEYWORDS"`
}

// UIConfig configures the interactive client.
type UIConfig struct {
	Theme         string `yaml:"theme" env:"YIJING_THEME"` // light, dark, auto
	TranscriptDir string `yaml:"transcript_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			BaseURL:       "http://localhost:5001",
			Timeout:       "60s",
			HealthTimeout: "5s",
		},
		Ritual: RitualConfig{
			ShakeDelay:  "2s",
			RevealDelay: "800ms",
			SettleDelay: "1.5s",
		},
		UI: UIConfig{
			Theme:         "auto",
			TranscriptDir: ".",
		},
		Server: ServerConfig{
			Addr: "0.0.0.0",
			Port: 5001,
			RateLimit: RateLimitConfig{
				RPS:     2,
				Burst:   5,
				IdleTTL: "10m",
			},
			Metrics:      true,
			ReadTimeout:  "15s",
			WriteTimeout: "90s",
		},
		LLM: LLMConfig{
			Provider:    ProviderNone,
			Timeout:     "60s",
			Temperature: 0.7,
			MaxTokens:   800,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Dir:    ".yijing/logs",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var providerKeyEnv = []struct{ env, provider string }{
	{"GEMINI_API_KEY", ProviderGemini},
	{"AZURE_OPENAI_API_KEY", ProviderAzure},
}

// applyEnvOverrides applies the env-tagged fields, then the provider key
// fallbacks and PORT.
func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	// Provider keys, in priority order. An explicit YIJING_LLM_API_KEY wins,
	// and a configured provider only accepts its own key.
	if c.LLM.APIKey == "" {
		for _, pk := range providerKeyEnv {
			key := os.Getenv(pk.env)
			if key == "" {
				continue
			}
			if c.LLM.Provider == "" || c.LLM.Provider == ProviderNone {
				c.LLM.Provider = pk.provider
			}
			if c.LLM.Provider == pk.provider {
				c.LLM.APIKey = key
				break
			}
		}
	}
	if ep := os.Getenv("AZURE_OPENAI_ENDPOINT"); ep != "" && c.LLM.Endpoint == "" {
		c.LLM.Endpoint = ep
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("parse env: PORT=%q: %w", port, err)
		}
		c.Server.Port = p
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetResolverTimeout returns the per-request resolver timeout.
func (c *Config) GetResolverTimeout() time.Duration {
	return parseDuration(c.Resolver.Timeout, 60*time.Second)
}

// GetHealthTimeout returns the startup health probe timeout.
func (c *Config) GetHealthTimeout() time.Duration {
	return parseDuration(c.Resolver.HealthTimeout, 5*time.Second)
}

// GetShakeDelay returns how long a draw shakes before revealing.
func (c *Config) GetShakeDelay() time.Duration {
	return parseDuration(c.Ritual.ShakeDelay, 2*time.Second)
}

// GetRevealDelay returns how long a revealed value is shown before settling.
func (c *Config) GetRevealDelay() time.Duration {
	return parseDuration(c.Ritual.RevealDelay, 800*time.Millisecond)
}

// GetSettleDelay returns the pause between the third draw and submission.
func (c *Config) GetSettleDelay() time.Duration {
	return parseDuration(c.Ritual.SettleDelay, 1500*time.Millisecond)
}

// ValidThemes lists the accepted ui.theme values.
var ValidThemes = []string{"auto", "light", "dark"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	durations := map[string]string{
		"resolver.timeout":           c.Resolver.Timeout,
		"resolver.health_timeout":    c.Resolver.HealthTimeout,
		"ritual.shake_delay":         c.Ritual.ShakeDelay,
		"ritual.reveal_delay":        c.Ritual.RevealDelay,
		"ritual.settle_delay":        c.Ritual.SettleDelay,
		"server.read_timeout":        c.Server.ReadTimeout,
		"server.write_timeout":       c.Server.WriteTimeout,
		"server.rate_limit.idle_ttl": c.Server.RateLimit.IdleTTL,
		"llm.timeout":                c.LLM.Timeout,
	}
	for key, v := range durations {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s %q: negative duration", key, v)
		}
	}

	if c.Resolver.BaseURL == "" {
		return fmt.Errorf("resolver.base_url is required")
	}
	if c.UI.Theme != "" && !slices.Contains(ValidThemes, c.UI.Theme) {
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.LLM.validate(); err != nil {
		return err
	}
	return c.Logging.validate()
}
