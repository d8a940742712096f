package llms

import (
	"fmt"
	"os"
	"time"
)

// ProviderConfig selects and configures an LLM backend.
type ProviderConfig struct {
	Type        string  `yaml:"type" json:"type"` // "openai", "anthropic", "ollama"
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key" json:"api_key"`
	Host        string  `yaml:"host" json:"host"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Timeout     int     `yaml:"timeout" json:"timeout"` // seconds
	MaxRetries  int     `yaml:"max_retries" json:"max_retries"`
}

// SetDefaults fills zero values, detecting the provider from the
// environment when unset.
func (c *ProviderConfig) SetDefaults() {
	if c.Type == "" {
		switch {
		case os.Getenv("OPENAI_API_KEY") != "":
			c.Type = "openai"
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			c.Type = "anthropic"
		default:
			c.Type = "openai"
		}
	}

	if c.Model == "" {
		switch c.Type {
		case "anthropic":
			c.Model = "claude-sonnet-4-20250514"
		case "ollama":
			c.Model = "llama3.2"
		default:
			c.Model = "gpt-4o-mini"
		}
	}

	if c.APIKey == "" {
		switch c.Type {
		case "anthropic":
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if c.Temperature == 0 {
		c.Temperature = 0.3
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

// NewProvider creates a Provider from config.
func NewProvider(cfg *ProviderConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config cannot be nil")
	}
	cfg.SetDefaults()

	timeout := time.Duration(cfg.Timeout) * time.Second

	switch cfg.Type {
	case "openai":
		return NewOpenAIProvider(&OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Host:        cfg.Host,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
			MaxRetries:  cfg.MaxRetries,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(&AnthropicConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Host:        cfg.Host,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
			MaxRetries:  cfg.MaxRetries,
		}), nil
	case "ollama":
		// Ollama exposes an OpenAI-compatible surface.
		host := cfg.Host
		if host == "" {
			host = "http://localhost:11434/v1"
		}
		return NewOpenAIProvider(&OpenAIConfig{
			Model:       cfg.Model,
			Host:        host,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
			MaxRetries:  cfg.MaxRetries,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM type: %s (supported: openai, anthropic, ollama)", cfg.Type)
	}
}
