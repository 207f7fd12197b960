package config

import (
	"fmt"
	"slices"
	"time"
)

// LLM providers.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderAzure  = "azure"
)

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderNone, ProviderGemini, ProviderAzure}

// Default models per provider.
const (
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultAzureDeployment = "gpt-4o-mini"
)

// LLMConfig configures the interpretation provider used by `yijing serve`.
type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"YIJING_LLM_PROVIDER"` // none, gemini, azure
	APIKey      string  `yaml:"api_key" env:"YIJING_LLM_API_KEY"`
	Model       string  `yaml:"model" env:"YIJING_LLM_MODEL"`
	Endpoint    string  `yaml:"endpoint"`   // azure only
	Deployment  string  `yaml:"deployment"` // azure only
	Timeout     string  `yaml:"timeout"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int32   `yaml:"max_tokens"`
}

// GetTimeout returns the provider call timeout.
func (c LLMConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

// Enabled reports whether a provider is configured with credentials.
func (c LLMConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone && c.APIKey != ""
}

func (c LLMConfig) validate() error {
	if c.Provider != "" && !slices.Contains(ValidProviders, c.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.Provider, ValidProviders)
	}
	if c.Provider == ProviderAzure && c.APIKey != "" && c.Endpoint == "" {
		return fmt.Errorf("llm.endpoint is required for the azure provider (or set AZURE_OPENAI_ENDPOINT)")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature: %v", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("invalid llm.max_tokens: %d", c.MaxTokens)
	}
	return nil
}
