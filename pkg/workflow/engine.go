package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/analyzer"
	"github.com/kadirpekel/sentimesh/pkg/observability"
	"github.com/kadirpekel/sentimesh/pkg/tokens"
)

// EngineVersion tags every result's metadata.
const EngineVersion = "1.0.0"

// MaxTranscriptLineLen is the soft cap on a single discussion transcript
// line.
const MaxTranscriptLineLen = 240

// maxContextTokens bounds the discussion context handed back to agents.
const maxContextTokens = 3000

// ============================================================================
// STATE MACHINE
// ============================================================================

// Node names. END is the only terminal node.
const (
	NodeStart   = "START"
	NodeDeptRun = "DEPT_RUN"
	NodeCheck   = "CHECK"
	NodeDiscuss = "DISCUSS"
	NodeMaster  = "MASTER"
	NodeAdvisor = "ADVISOR"
	NodeEnd     = "END"
)

// Mode selects the workflow shape.
type Mode string

const (
	// ModeLinear runs departments, master, advisor with no consensus
	// check and no discussion.
	ModeLinear Mode = "linear"

	// ModeConsensus inserts the consensus check and the bounded
	// discussion loop between departments and master synthesis.
	ModeConsensus Mode = "consensus"
)

// validEdges is the transition guard: a node may only hand control to one
// of its listed successors.
var validEdges = map[string][]string{
	NodeStart:   {NodeDeptRun},
	NodeDeptRun: {NodeCheck, NodeMaster, NodeEnd},
	NodeCheck:   {NodeMaster, NodeDiscuss},
	NodeDiscuss: {NodeCheck},
	NodeMaster:  {NodeAdvisor},
	NodeAdvisor: {NodeEnd},
}

type nodeFunc func(ctx context.Context, s *State) (string, error)

// EngineConfig configures a workflow engine.
type EngineConfig struct {
	Invoker Invoker
	Mode    Mode
	Options Options
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Engine drives the state machine over a State. One engine serves many
// concurrent runs; each run owns its own State.
type Engine struct {
	invoker Invoker
	mode    Mode
	opts    Options
	metrics *observability.Metrics
	logger  *slog.Logger
	nodes   map[string]nodeFunc
}

// NewEngine builds an engine. Options defaults are applied here once.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("invoker cannot be nil")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeConsensus
	}
	if cfg.Mode != ModeLinear && cfg.Mode != ModeConsensus {
		return nil, fmt.Errorf("unknown workflow mode: %s", cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Options.SetDefaults()

	e := &Engine{
		invoker: cfg.Invoker,
		mode:    cfg.Mode,
		opts:    cfg.Options,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	e.nodes = map[string]nodeFunc{
		NodeStart:   e.startNode,
		NodeDeptRun: e.departmentNode,
		NodeCheck:   e.consensusCheckNode,
		NodeDiscuss: e.discussionNode,
		NodeMaster:  e.masterNode,
		NodeAdvisor: e.advisorNode,
	}
	return e, nil
}

// Options returns the engine's defaulted run options.
func (e *Engine) Options() Options {
	return e.opts
}

// Run executes the workflow for one review and returns the complete
// result. Analyzer failures never surface here; the only errors are
// machine-level (an invalid transition, which indicates a bug).
func (e *Engine) Run(ctx context.Context, reviewText string) (*Result, error) {
	started := time.Now()
	state := NewState(reviewText, e.opts)

	if e.metrics.Enabled() {
		e.metrics.WorkflowRuns.Add(ctx, 1)
	}

	// The loop bound guarantees termination; the step cap is a guard
	// against a broken node wiring, not a semantic limit.
	maxSteps := 4*e.opts.Rounds() + 16

	current := NodeStart
	for step := 0; current != NodeEnd; step++ {
		if step > maxSteps {
			return nil, fmt.Errorf("workflow exceeded %d transitions at node %s", maxSteps, current)
		}

		node, ok := e.nodes[current]
		if !ok {
			return nil, fmt.Errorf("unknown workflow node: %s", current)
		}

		next, err := node(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("workflow node %s failed: %w", current, err)
		}
		if !edgeAllowed(current, next) {
			return nil, fmt.Errorf("invalid workflow transition %s -> %s", current, next)
		}

		e.logger.Debug("workflow transition", "from", current, "to", next, "round", state.CurrentRound)
		current = next
	}

	state.Metadata["processing_time_ms"] = time.Since(started).Milliseconds()
	state.Metadata["discussion_rounds"] = state.CurrentRound
	state.Metadata["disagreement"] = state.Disagreement
	state.Metadata["consensus_reached"] = state.ConsensusReached
	state.Metadata["version"] = EngineVersion

	if e.metrics.Enabled() {
		e.metrics.DiscussionRounds.Record(ctx, int64(state.CurrentRound))
	}

	return ResultFromState(state), nil
}

func edgeAllowed(from, to string) bool {
	for _, succ := range validEdges[from] {
		if succ == to {
			return true
		}
	}
	return false
}

// ============================================================================
// NODES
// ============================================================================

func (e *Engine) startNode(ctx context.Context, s *State) (string, error) {
	return NodeDeptRun, nil
}

// departmentNode fans out to the department analyzers. Records land in
// configured agent order; failed slots hold fallback records.
func (e *Engine) departmentNode(ctx context.Context, s *State) (string, error) {
	s.DepartmentRecords = e.invoker.AnalyzeAll(ctx, e.opts.AgentTypes, s.ReviewText, e.opts.analysisParams())

	if len(s.DepartmentRecords) == 0 {
		// Nothing to synthesize over; terminate with a fallback advisory.
		fb := analysis.Fallback(analyzer.TypeBusinessAdvisor, "Business Advisor",
			fmt.Errorf("no department records produced"))
		s.AdvisorRecord = &fb
		s.Metadata["failed_agents"] = e.opts.AgentTypes
		return NodeEnd, nil
	}

	if failed := failedAgents(s.DepartmentRecords); len(failed) > 0 {
		s.Metadata["failed_agents"] = failed
	}

	if e.mode == ModeLinear {
		return NodeMaster, nil
	}
	return NodeCheck, nil
}

// consensusCheckNode recomputes disagreement over the current records and
// decides whether another discussion round is permitted.
func (e *Engine) consensusCheckNode(ctx context.Context, s *State) (string, error) {
	s.Disagreement, s.ConsensusReached = CheckConsensus(s.DepartmentRecords, e.opts.Threshold())

	e.logger.Info("consensus check",
		"disagreement", s.Disagreement,
		"threshold", e.opts.Threshold(),
		"consensus", s.ConsensusReached,
		"round", s.CurrentRound)

	if s.ConsensusReached || s.CurrentRound >= e.opts.Rounds() || !e.opts.DebateEnabled() {
		return NodeMaster, nil
	}
	return NodeDiscuss, nil
}

// discussionNode revisits each department agent in order with the current
// records as context. Refined records overwrite in place; a failed
// re-analysis keeps the prior record.
func (e *Engine) discussionNode(ctx context.Context, s *State) (string, error) {
	params := e.opts.analysisParams()

	for i, agentType := range e.opts.AgentTypes {
		if i >= len(s.DepartmentRecords) {
			break
		}

		contextText := buildDiscussionContext(s.ReviewText, s.DepartmentRecords)
		refined := e.invoker.Analyze(ctx, agentType, contextText, params)
		if !refined.Failed() {
			s.DepartmentRecords[i] = refined
		}

		s.DiscussionMessages = append(s.DiscussionMessages,
			transcriptLine(s.CurrentRound+1, s.DepartmentRecords[i]))
	}

	s.CurrentRound++
	return NodeCheck, nil
}

// masterNode synthesizes the final verdict. department_records is frozen
// from here on; no node past this point touches it.
func (e *Engine) masterNode(ctx context.Context, s *State) (string, error) {
	rec := e.invoker.Synthesize(ctx, s.DepartmentRecords, s.ReviewText, e.opts.masterParams())
	s.MasterRecord = &rec
	return NodeAdvisor, nil
}

func (e *Engine) advisorNode(ctx context.Context, s *State) (string, error) {
	master := s.MasterRecord
	if master == nil {
		fb := analysis.Fallback(analyzer.TypeMasterAnalyst, "Master Analyst",
			fmt.Errorf("master record missing"))
		master = &fb
		s.MasterRecord = master
	}

	rec := e.invoker.Recommend(ctx, *master, s.DepartmentRecords, s.ReviewText, e.opts.advisorParams())
	s.AdvisorRecord = &rec
	return NodeEnd, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func failedAgents(records []analysis.Record) []string {
	var failed []string
	for _, rec := range records {
		if rec.Failed() {
			failed = append(failed, rec.AgentType)
		}
	}
	return failed
}

// transcriptLine renders one compact discussion line, capped so long
// reasonings cannot bloat the transcript.
func transcriptLine(round int, rec analysis.Record) string {
	line := fmt.Sprintf("round %d %s: %s (%.2f) %s",
		round, rec.AgentType, rec.Sentiment, rec.Confidence, rec.Reasoning)
	return analysis.Truncate(line, MaxTranscriptLineLen)
}

// buildDiscussionContext combines the review with a summary of every
// current record, trimming the review when the combined prompt would
// exceed the context budget.
func buildDiscussionContext(review string, records []analysis.Record) string {
	summary := analyzer.FormatRecords(records)
	header := "Reconsider your analysis given your peers' views.\n\nCurrent analyses:\n" +
		summary + "\n\nOriginal review:\n"

	if budget := maxContextTokens - tokens.Estimate(header); tokens.Estimate(review) > budget {
		// Rough 4 chars per token; Truncate keeps rune boundaries.
		review = analysis.Truncate(review, budget*4)
	}
	return header + review
}
