// Package workflow implements the coordinator's typed state graph: the
// department fan-out, the consensus check with bounded discussion rounds,
// master synthesis, and business advisory. The engine is transport
// agnostic; analyzer invocation goes through the Invoker interface so the
// same graph runs in-process or over A2A.
package workflow

import (
	"context"

	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/analyzer"
)

// ============================================================================
// WORKFLOW STATE
// ============================================================================

// State is the mutable state of a single workflow run. It is owned
// exclusively by the run that created it and discarded on return; it is
// never persisted.
type State struct {
	ReviewText      string
	ProductCategory string
	ProductID       string

	DepartmentRecords  []analysis.Record
	DiscussionMessages []string
	CurrentRound       int

	Disagreement     float64
	ConsensusReached bool

	MasterRecord  *analysis.Record
	AdvisorRecord *analysis.Record

	Metadata map[string]interface{}
}

// NewState initializes a run state for the given review.
func NewState(reviewText string, opts Options) *State {
	return &State{
		ReviewText:         reviewText,
		ProductCategory:    opts.ProductCategory,
		ProductID:          opts.ProductID,
		DepartmentRecords:  []analysis.Record{},
		DiscussionMessages: []string{},
		Metadata:           map[string]interface{}{},
	}
}

// ============================================================================
// RUN OPTIONS
// ============================================================================

// Options configures one workflow run. Zero values are filled by
// SetDefaults; the coordinator builds Options from request metadata.
type Options struct {
	ProductCategory string
	ProductID       string
	AgentTypes      []string

	MaxTokensPerAgent int
	MaxTokensMaster   int
	MaxTokensAdvisor  int

	// MaxRounds and DisagreementThreshold are pointers so an explicit
	// zero survives defaulting: zero rounds and a zero threshold are
	// both legitimate requests.
	MaxRounds             *int
	DisagreementThreshold *float64
	EnableDebate          *bool
}

// SetDefaults fills the documented defaults.
func (o *Options) SetDefaults() {
	o.ProductCategory = analyzer.NormalizeCategory(o.ProductCategory)
	if len(o.AgentTypes) == 0 {
		o.AgentTypes = append([]string{}, analyzer.DefaultDepartments...)
	}
	if o.MaxRounds == nil {
		rounds := 2
		o.MaxRounds = &rounds
	}
	if o.DisagreementThreshold == nil {
		threshold := 0.6
		o.DisagreementThreshold = &threshold
	}
	if o.EnableDebate == nil {
		enabled := true
		o.EnableDebate = &enabled
	}
}

// Rounds returns the discussion round budget.
func (o *Options) Rounds() int {
	if o.MaxRounds == nil {
		return 2
	}
	return *o.MaxRounds
}

// Threshold returns the consensus disagreement threshold.
func (o *Options) Threshold() float64 {
	if o.DisagreementThreshold == nil {
		return 0.6
	}
	return *o.DisagreementThreshold
}

// DebateEnabled reports whether discussion transitions are permitted.
func (o *Options) DebateEnabled() bool {
	return o.EnableDebate == nil || *o.EnableDebate
}

func (o *Options) analysisParams() analyzer.Params {
	p := analyzer.Params{ProductCategory: o.ProductCategory, MaxTokens: o.MaxTokensPerAgent}
	p.SetDefaults()
	return p
}

func (o *Options) masterParams() analyzer.Params {
	p := analyzer.Params{ProductCategory: o.ProductCategory, MaxTokens: o.MaxTokensMaster}
	p.SetDefaults()
	return p
}

func (o *Options) advisorParams() analyzer.Params {
	p := analyzer.Params{ProductCategory: o.ProductCategory, MaxTokens: o.MaxTokensAdvisor}
	p.SetDefaults()
	return p
}

// ============================================================================
// INVOKER
// ============================================================================

// Invoker abstracts analyzer invocation so the same graph runs with
// in-process analyzers or remote agent services. Every method absorbs
// failures into fallback records; none of them return errors.
type Invoker interface {
	// Analyze runs one department analyzer on text.
	Analyze(ctx context.Context, agentType, text string, params analyzer.Params) analysis.Record

	// AnalyzeAll runs the department analyzers on text and returns one
	// record per agent type, in the given order.
	AnalyzeAll(ctx context.Context, agentTypes []string, text string, params analyzer.Params) []analysis.Record

	// Synthesize runs the master analyzer over the department records.
	Synthesize(ctx context.Context, records []analysis.Record, review string, params analyzer.Params) analysis.Record

	// Recommend runs the business advisor over the master verdict.
	Recommend(ctx context.Context, master analysis.Record, records []analysis.Record, review string, params analyzer.Params) analysis.Record
}
