package coordinator

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/sentimesh/pkg/config"
	"github.com/kadirpekel/sentimesh/pkg/workflow"
)

// TaskOptions is the decoded view of the recognized coordinator request
// metadata keys. Unknown keys are ignored; unset keys fall back to the
// coordinator's configured defaults.
type TaskOptions struct {
	ProductCategory string   `mapstructure:"product_category"`
	AgentTypes      []string `mapstructure:"agent_types"`

	MaxTokensPerAgent int `mapstructure:"max_tokens_per_agent"`
	MaxTokensMaster   int `mapstructure:"max_tokens_master"`
	MaxTokensAdvisor  int `mapstructure:"max_tokens_advisor"`

	// Pointer fields distinguish an absent key from an explicit zero or
	// false: zero rounds and a zero threshold are valid requests.
	MaxDiscussionRounds   *int     `mapstructure:"max_discussion_rounds"`
	DisagreementThreshold *float64 `mapstructure:"disagreement_threshold"`
	EnableConsensusDebate *bool    `mapstructure:"enable_consensus_debate"`

	EnableScraping    bool     `mapstructure:"enable_scraping"`
	ProductName       string   `mapstructure:"product_name"`
	Sources           []string `mapstructure:"sources"`
	MaxItemsPerSource int      `mapstructure:"max_items_per_source"`
}

// DecodeTaskOptions decodes raw request metadata. A nil map yields the
// zero options.
func DecodeTaskOptions(metadata map[string]interface{}) (*TaskOptions, error) {
	opts := &TaskOptions{}
	if len(metadata) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build options decoder: %w", err)
	}
	if err := decoder.Decode(metadata); err != nil {
		return nil, fmt.Errorf("failed to decode task metadata: %w", err)
	}
	return opts, nil
}

// WorkflowOptions merges request options over the coordinator defaults
// into a workflow run configuration.
func (o *TaskOptions) WorkflowOptions(defaults config.CoordinatorConfig, productID string) workflow.Options {
	opts := workflow.Options{
		ProductCategory:       o.ProductCategory,
		ProductID:             productID,
		AgentTypes:            o.AgentTypes,
		MaxTokensPerAgent:     o.MaxTokensPerAgent,
		MaxTokensMaster:       o.MaxTokensMaster,
		MaxTokensAdvisor:      o.MaxTokensAdvisor,
		MaxRounds:             o.MaxDiscussionRounds,
		DisagreementThreshold: o.DisagreementThreshold,
		EnableDebate:          o.EnableConsensusDebate,
	}

	if len(opts.AgentTypes) == 0 {
		opts.AgentTypes = append([]string{}, defaults.AgentTypes...)
	}
	if opts.MaxRounds == nil {
		opts.MaxRounds = defaults.MaxDiscussionRounds
	}
	if opts.DisagreementThreshold == nil {
		opts.DisagreementThreshold = defaults.DisagreementThreshold
	}
	if opts.EnableDebate == nil {
		opts.EnableDebate = defaults.EnableConsensusDebate
	}

	opts.SetDefaults()
	return opts
}
