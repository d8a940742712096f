package llms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderConfigSetDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := &ProviderConfig{}
	cfg.SetDefaults()

	assert.Equal(t, "openai", cfg.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 60, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestProviderConfigDetectsFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg := &ProviderConfig{}
	cfg.SetDefaults()

	assert.Equal(t, "anthropic", cfg.Type)
	assert.Equal(t, "sk-ant-test", cfg.APIKey)
}

func TestProviderConfigExplicitTypeWins(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg := &ProviderConfig{Type: "ollama"}
	cfg.SetDefaults()

	assert.Equal(t, "ollama", cfg.Type)
	assert.Equal(t, "llama3.2", cfg.Model)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *ProviderConfig
		wantModel string
	}{
		{"openai", &ProviderConfig{Type: "openai", APIKey: "k", Model: "gpt-4o"}, "gpt-4o"},
		{"anthropic", &ProviderConfig{Type: "anthropic", APIKey: "k", Model: "claude-sonnet-4-20250514"}, "claude-sonnet-4-20250514"},
		{"ollama", &ProviderConfig{Type: "ollama", Model: "llama3.2"}, "llama3.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, p.ModelName())
			assert.NoError(t, p.Close())
		})
	}
}

func TestNewProviderUnsupportedType(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Type: "palm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM type")
}

func TestNewProviderNilConfig(t *testing.T) {
	_, err := NewProvider(nil)
	assert.Error(t, err)
}
