// Package config defines the typed configuration for every process in the
// mesh and the YAML loader with environment expansion. A single config
// file describes the whole deployment; each process reads the sections it
// needs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/sentimesh/pkg/analyzer"
	"github.com/kadirpekel/sentimesh/pkg/llms"
	"github.com/kadirpekel/sentimesh/pkg/observability"
)

// ============================================================================
// TOP-LEVEL CONFIG
// ============================================================================

// Config is the full deployment configuration.
type Config struct {
	Coordinator CoordinatorConfig         `yaml:"coordinator" json:"coordinator"`
	Agents      map[string]AgentConfig    `yaml:"agents" json:"agents"`
	LLM         llms.ProviderConfig       `yaml:"llm" json:"llm"`
	Scraper     ScraperConfig             `yaml:"scraper" json:"scraper"`
	Logging     LoggingConfig             `yaml:"logging" json:"logging"`
	Metrics     observability.MetricsConfig `yaml:"metrics" json:"metrics"`
}

// CoordinatorConfig configures the workflow coordinator service.
type CoordinatorConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// Strategy selects how department analyzers are invoked: "local" runs
	// them sequentially in-process, "remote" fans out over A2A in parallel.
	Strategy string `yaml:"strategy" json:"strategy"`

	AgentTypes []string `yaml:"agent_types" json:"agent_types"`

	// Pointer fields so an explicit zero (or false) in the file is
	// honored instead of being treated as unset.
	MaxDiscussionRounds   *int     `yaml:"max_discussion_rounds" json:"max_discussion_rounds"`
	DisagreementThreshold *float64 `yaml:"disagreement_threshold" json:"disagreement_threshold"`
	EnableConsensusDebate *bool    `yaml:"enable_consensus_debate" json:"enable_consensus_debate"`

	// AgentTimeout bounds each remote analyzer call, in seconds.
	AgentTimeout int `yaml:"agent_timeout" json:"agent_timeout"`
}

// AgentConfig configures one agent service.
type AgentConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// CardPath optionally points at a JSON agent card on disk; when empty
	// the service serves its built-in card.
	CardPath string `yaml:"card_path" json:"card_path"`
}

// URL returns the agent's base URL.
func (a AgentConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", a.Host, a.Port)
}

// ScraperConfig configures review collection sources.
type ScraperConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	MaxItemsPerSource int           `yaml:"max_items_per_source" json:"max_items_per_source"`
	YouTube           YouTubeConfig `yaml:"youtube" json:"youtube"`
	Tiki              TikiConfig    `yaml:"tiki" json:"tiki"`
}

// YouTubeConfig configures the YouTube comments source.
type YouTubeConfig struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	Host   string `yaml:"host" json:"host"`
}

// TikiConfig configures the Tiki product review source.
type TikiConfig struct {
	Host string `yaml:"host" json:"host"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // simple, verbose
	Output string `yaml:"output" json:"output"` // empty for stderr, or a file path
}

// ============================================================================
// DEFAULTS AND VALIDATION
// ============================================================================

// Default ports follow the fixed deployment layout: coordinator on 8000,
// departments on 8001-8005 in canonical order, master on 8006, advisor
// on 8007. Each can be overridden by <TYPE>_AGENT_PORT / COORDINATOR_PORT.
var defaultPorts = map[string]int{
	analyzer.TypeQuality:         8001,
	analyzer.TypeExperience:      8002,
	analyzer.TypeUserExperience:  8003,
	analyzer.TypeBusiness:        8004,
	analyzer.TypeTechnical:       8005,
	analyzer.TypeMasterAnalyst:   8006,
	analyzer.TypeBusinessAdvisor: 8007,
}

const defaultCoordinatorPort = 8000

// DefaultPort returns the canonical port for an agent type, honoring the
// environment override.
func DefaultPort(agentType string) int {
	if v := os.Getenv(envPortName(agentType)); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			return port
		}
	}
	if port, ok := defaultPorts[agentType]; ok {
		return port
	}
	return 0
}

// SetDefaults fills every zero value with the documented default.
func (c *Config) SetDefaults() {
	if c.Coordinator.Host == "" {
		c.Coordinator.Host = "127.0.0.1"
	}
	if c.Coordinator.Port == 0 {
		c.Coordinator.Port = defaultCoordinatorPort
		if v := os.Getenv("COORDINATOR_PORT"); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				c.Coordinator.Port = port
			}
		}
	}
	if c.Coordinator.Strategy == "" {
		c.Coordinator.Strategy = "local"
	}
	if len(c.Coordinator.AgentTypes) == 0 {
		c.Coordinator.AgentTypes = append([]string{}, analyzer.DefaultDepartments...)
	}
	if c.Coordinator.MaxDiscussionRounds == nil {
		rounds := 2
		c.Coordinator.MaxDiscussionRounds = &rounds
	}
	if c.Coordinator.DisagreementThreshold == nil {
		threshold := 0.6
		c.Coordinator.DisagreementThreshold = &threshold
	}
	if c.Coordinator.EnableConsensusDebate == nil {
		enabled := true
		c.Coordinator.EnableConsensusDebate = &enabled
	}
	if c.Coordinator.AgentTimeout == 0 {
		c.Coordinator.AgentTimeout = 30
	}

	if c.Agents == nil {
		c.Agents = make(map[string]AgentConfig)
	}
	allTypes := append(append([]string{}, analyzer.DefaultDepartments...),
		analyzer.TypeMasterAnalyst, analyzer.TypeBusinessAdvisor)
	for _, agentType := range allTypes {
		agent := c.Agents[agentType]
		if agent.Host == "" {
			agent.Host = "127.0.0.1"
		}
		if agent.Port == 0 {
			agent.Port = DefaultPort(agentType)
		}
		c.Agents[agentType] = agent
	}

	c.LLM.SetDefaults()

	if c.Scraper.MaxItemsPerSource == 0 {
		c.Scraper.MaxItemsPerSource = 10
	}
	if c.Scraper.YouTube.APIKey == "" {
		c.Scraper.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.Scraper.YouTube.Host == "" {
		c.Scraper.YouTube.Host = "https://www.googleapis.com/youtube/v3"
	}
	if c.Scraper.Tiki.Host == "" {
		c.Scraper.Tiki.Host = "https://tiki.vn/api/v2"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "simple"
	}
}

// Validate checks invariants after defaulting.
func (c *Config) Validate() error {
	if c.Coordinator.Strategy != "local" && c.Coordinator.Strategy != "remote" {
		return fmt.Errorf("invalid coordinator strategy: %s (must be local or remote)", c.Coordinator.Strategy)
	}
	if r := c.Coordinator.MaxDiscussionRounds; r != nil && *r < 0 {
		return fmt.Errorf("max_discussion_rounds cannot be negative")
	}
	if t := c.Coordinator.DisagreementThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("disagreement_threshold must be in [0, 1], got %v", *t)
	}
	for _, agentType := range c.Coordinator.AgentTypes {
		if _, ok := defaultPorts[agentType]; !ok {
			return fmt.Errorf("unknown agent type in coordinator.agent_types: %s", agentType)
		}
	}
	for agentType, agent := range c.Agents {
		if agent.Port <= 0 || agent.Port > 65535 {
			return fmt.Errorf("invalid port for agent %s: %d", agentType, agent.Port)
		}
	}
	return nil
}

// DebateEnabled reports whether consensus debate rounds run.
func (c *CoordinatorConfig) DebateEnabled() bool {
	return c.EnableConsensusDebate == nil || *c.EnableConsensusDebate
}

// ============================================================================
// LOADING
// ============================================================================

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// LoadFromFile reads a YAML config file, expands ${VAR} references, and
// applies defaults and validation. An empty path yields Default().
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
