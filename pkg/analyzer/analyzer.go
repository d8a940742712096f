// Package analyzer implements the sentiment analyzer capability. All
// seven specializations share one implementation; they differ only in the
// prompt and focus-area data selected by (agent_type, product_category).
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/llms"
)

// Department specializations in their canonical deployment order, plus
// the two higher-level specializations.
const (
	TypeQuality         = "quality"
	TypeExperience      = "experience"
	TypeUserExperience  = "user_experience"
	TypeBusiness        = "business"
	TypeTechnical       = "technical"
	TypeMasterAnalyst   = "master_analyst"
	TypeBusinessAdvisor = "business_advisor"
)

// DefaultDepartments is the default department fan-out order.
var DefaultDepartments = []string{
	TypeQuality,
	TypeExperience,
	TypeUserExperience,
	TypeBusiness,
	TypeTechnical,
}

// DefaultCategory is used when the requested product category is unknown.
const DefaultCategory = "electronics"

// KnownCategories are the product categories with dedicated focus lists.
var KnownCategories = []string{
	"electronics",
	"fashion",
	"home_garden",
	"beauty_health",
	"sports_outdoors",
	"books_media",
}

// Params configures a single analyze call. Unknown metadata keys are
// dropped before Params is built; see coordinator and agentservice.
type Params struct {
	ProductCategory string  `mapstructure:"product_category"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	ModelName       string  `mapstructure:"model_name"`
}

// SetDefaults fills zero values with the documented defaults.
func (p *Params) SetDefaults() {
	if p.ProductCategory == "" {
		p.ProductCategory = DefaultCategory
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 150
	}
	if p.Temperature == 0 {
		p.Temperature = 0.3
	}
}

// Analyzer is the uniform capability every agent service hosts.
//
// Analyze never fails: any provider or parse error is absorbed into a
// fallback record. Synthesize and Recommend are implemented only by the
// master_analyst and business_advisor specializations; every other
// specialization returns ErrUnsupported.
type Analyzer interface {
	AgentType() string
	AgentName() string
	Card() *a2a.AgentCard

	Analyze(ctx context.Context, text string, params Params) analysis.Record
	Synthesize(ctx context.Context, records []analysis.Record, review string, params Params) (analysis.Record, error)
	Recommend(ctx context.Context, master analysis.Record, records []analysis.Record, review string, params Params) (analysis.Record, error)
}

// ErrUnsupported is returned when an extended operation is called on a
// specialization that does not implement it.
var ErrUnsupported = fmt.Errorf("operation not supported by this specialization")

// ============================================================================
// LLM-BACKED IMPLEMENTATION
// ============================================================================

// LLMAnalyzer is the provider-backed Analyzer implementation.
type LLMAnalyzer struct {
	agentType string
	spec      specialization
	provider  llms.Provider
}

// New creates an analyzer for the given specialization.
func New(agentType string, provider llms.Provider) (*LLMAnalyzer, error) {
	spec, ok := specializations[agentType]
	if !ok {
		return nil, fmt.Errorf("unknown agent type: %s", agentType)
	}
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &LLMAnalyzer{agentType: agentType, spec: spec, provider: provider}, nil
}

func (a *LLMAnalyzer) AgentType() string {
	return a.agentType
}

func (a *LLMAnalyzer) AgentName() string {
	return a.spec.Name
}

// Card builds the analyzer's static agent card.
func (a *LLMAnalyzer) Card() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:         a.spec.Name,
		Description:  a.spec.Description,
		Version:      "1.0.0",
		Capabilities: a.spec.Capabilities,
		Skills: []a2a.AgentSkill{
			{
				Name:        "analyze",
				Description: "Classify review sentiment from the " + a.agentType + " perspective",
				Tags:        []string{"sentiment", a.agentType},
			},
		},
		AgentType: a.agentType,
	}
}

// Analyze classifies text. The result is always a well-formed normalized
// record; failures yield a fallback.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string, params Params) analysis.Record {
	params.SetDefaults()

	systemPrompt := a.buildSystemPrompt(params.ProductCategory)
	userPrompt := "Analyze this product review:\n\n" + text

	rec, err := a.generate(ctx, systemPrompt, userPrompt, params)
	if err != nil {
		return analysis.Fallback(a.agentType, a.spec.Name, err)
	}
	return rec
}

// Synthesize produces the master verdict over all department records.
func (a *LLMAnalyzer) Synthesize(ctx context.Context, records []analysis.Record, review string, params Params) (analysis.Record, error) {
	if a.agentType != TypeMasterAnalyst {
		return analysis.Record{}, ErrUnsupported
	}
	params.SetDefaults()

	userPrompt := fmt.Sprintf(
		"Original review:\n%s\n\nDepartment analyses:\n%s\n\nSynthesize a final verdict.",
		review, FormatRecords(records))

	rec, err := a.generate(ctx, a.buildSystemPrompt(params.ProductCategory), userPrompt, params)
	if err != nil {
		return analysis.Fallback(a.agentType, a.spec.Name, err), nil
	}
	return rec, nil
}

// Recommend derives business recommendations from the master verdict and
// the department records.
func (a *LLMAnalyzer) Recommend(ctx context.Context, master analysis.Record, records []analysis.Record, review string, params Params) (analysis.Record, error) {
	if a.agentType != TypeBusinessAdvisor {
		return analysis.Record{}, ErrUnsupported
	}
	params.SetDefaults()

	userPrompt := fmt.Sprintf(
		"Original review:\n%s\n\nMaster verdict: %s (confidence %.2f)\n%s\n\nDepartment analyses:\n%s\n\nDerive concrete business recommendations.",
		review, master.Sentiment, master.Confidence, master.Reasoning, FormatRecords(records))

	rec, err := a.generate(ctx, a.buildSystemPrompt(params.ProductCategory), userPrompt, params)
	if err != nil {
		fb := analysis.Fallback(a.agentType, a.spec.Name, err)
		// An advisor fallback inherits the master's sentiment.
		if master.Sentiment.Valid() {
			fb.Sentiment = master.Sentiment
		}
		return fb, nil
	}
	return rec, nil
}

func (a *LLMAnalyzer) generate(ctx context.Context, systemPrompt, userPrompt string, params Params) (analysis.Record, error) {
	text, _, err := a.provider.Generate(ctx, llms.GenerateRequest{
		Model:        params.ModelName,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    params.MaxTokens,
		Temperature:  params.Temperature,
	})
	if err != nil {
		return analysis.Record{}, fmt.Errorf("provider call failed: %w", err)
	}

	rec, err := analysis.ParseRecord(text)
	if err != nil {
		return analysis.Record{}, fmt.Errorf("malformed analyzer output: %w", err)
	}

	rec.AgentType = a.agentType
	rec.AgentName = a.spec.Name
	rec.Normalize()
	return rec, nil
}

func (a *LLMAnalyzer) buildSystemPrompt(category string) string {
	var b strings.Builder
	b.WriteString(a.spec.SystemPrompt)

	if focus := FocusAreas(a.agentType, category); len(focus) > 0 {
		b.WriteString("\n\nFocus areas for this product category: ")
		b.WriteString(strings.Join(focus, ", "))
		b.WriteString(".")
	}

	b.WriteString("\n\nRespond with a single JSON object:\n")
	b.WriteString(`{"sentiment": "positive|neutral|negative", "confidence": 0.0-1.0, ` +
		`"emotions": ["..."], "topics": ["..."], "reasoning": "...", "business_impact": "..."}`)
	return b.String()
}

// FormatRecords renders department records as a compact numbered list for
// inclusion in synthesis and discussion prompts.
func FormatRecords(records []analysis.Record) string {
	if len(records) == 0 {
		return "(no department analyses available)"
	}
	var b strings.Builder
	for i, rec := range records {
		status := ""
		if rec.Failed() {
			status = " [failed]"
		}
		fmt.Fprintf(&b, "%d. %s%s: %s (confidence %.2f)",
			i+1, rec.AgentType, status, rec.Sentiment, rec.Confidence)
		if rec.Reasoning != "" {
			fmt.Fprintf(&b, " - %s", analysis.Truncate(rec.Reasoning, 200))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
