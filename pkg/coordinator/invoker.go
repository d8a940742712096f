// Package coordinator hosts the workflow engine behind a single A2A
// endpoint and provides the two coordination strategies: local analyzers
// invoked sequentially in-process, and remote agent services fanned out
// over A2A in parallel. Both strategies satisfy workflow.Invoker and
// produce structurally identical results.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/analyzer"
	"github.com/kadirpekel/sentimesh/pkg/observability"
	"github.com/kadirpekel/sentimesh/pkg/workflow"
)

// ============================================================================
// LOCAL INVOKER - In-process sequential strategy
// ============================================================================

// LocalInvoker holds analyzer instances directly; no nested HTTP. The
// department phase runs sequentially in configured order.
type LocalInvoker struct {
	analyzers map[string]analyzer.Analyzer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewLocalInvoker creates the in-process strategy over the given
// analyzers, keyed by agent type.
func NewLocalInvoker(analyzers map[string]analyzer.Analyzer, metrics *observability.Metrics, logger *slog.Logger) *LocalInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalInvoker{analyzers: analyzers, metrics: metrics, logger: logger}
}

func (v *LocalInvoker) Analyze(ctx context.Context, agentType, text string, params analyzer.Params) analysis.Record {
	az, ok := v.analyzers[agentType]
	if !ok {
		return analysis.Fallback(agentType, analyzer.DisplayName(agentType),
			fmt.Errorf("no analyzer configured for agent type %s", agentType))
	}

	started := time.Now()
	rec := az.Analyze(ctx, text, params)
	v.observe(ctx, rec, time.Since(started))
	return rec
}

func (v *LocalInvoker) AnalyzeAll(ctx context.Context, agentTypes []string, text string, params analyzer.Params) []analysis.Record {
	records := make([]analysis.Record, 0, len(agentTypes))
	for _, agentType := range agentTypes {
		records = append(records, v.Analyze(ctx, agentType, text, params))
	}
	return records
}

func (v *LocalInvoker) Synthesize(ctx context.Context, records []analysis.Record, review string, params analyzer.Params) analysis.Record {
	az, ok := v.analyzers[analyzer.TypeMasterAnalyst]
	if !ok {
		return analysis.Fallback(analyzer.TypeMasterAnalyst,
			analyzer.DisplayName(analyzer.TypeMasterAnalyst),
			fmt.Errorf("master analyzer not configured"))
	}

	started := time.Now()
	rec, err := az.Synthesize(ctx, records, review, params)
	if err != nil {
		rec = analysis.Fallback(az.AgentType(), az.AgentName(), err)
	}
	v.observe(ctx, rec, time.Since(started))
	return rec
}

func (v *LocalInvoker) Recommend(ctx context.Context, master analysis.Record, records []analysis.Record, review string, params analyzer.Params) analysis.Record {
	az, ok := v.analyzers[analyzer.TypeBusinessAdvisor]
	if !ok {
		rec := analysis.Fallback(analyzer.TypeBusinessAdvisor,
			analyzer.DisplayName(analyzer.TypeBusinessAdvisor),
			fmt.Errorf("business advisor not configured"))
		if master.Sentiment.Valid() {
			rec.Sentiment = master.Sentiment
		}
		return rec
	}

	started := time.Now()
	rec, err := az.Recommend(ctx, master, records, review, params)
	if err != nil {
		rec = analysis.Fallback(az.AgentType(), az.AgentName(), err)
		if master.Sentiment.Valid() {
			rec.Sentiment = master.Sentiment
		}
	}
	v.observe(ctx, rec, time.Since(started))
	return rec
}

func (v *LocalInvoker) observe(ctx context.Context, rec analysis.Record, elapsed time.Duration) {
	if !v.metrics.Enabled() {
		return
	}
	v.metrics.AgentCalls.Add(ctx, 1)
	v.metrics.AgentDuration.Record(ctx, elapsed.Seconds())
	if rec.Failed() {
		v.metrics.AgentErrors.Add(ctx, 1)
	}
}

// ============================================================================
// REMOTE INVOKER - Parallel A2A strategy
// ============================================================================

// RemoteInvoker addresses each agent service over HTTP JSON-RPC. The
// department fan-out runs one RPC per agent concurrently; records land in
// a fixed slot buffer indexed by configured agent position, so ordering
// never depends on completion order.
type RemoteInvoker struct {
	clients map[string]*a2a.Client
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRemoteInvoker creates the parallel strategy over agent base URLs
// keyed by agent type. Timeout bounds each individual RPC.
func NewRemoteInvoker(endpoints map[string]string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RemoteInvoker {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	clients := make(map[string]*a2a.Client, len(endpoints))
	for agentType, baseURL := range endpoints {
		clients[agentType] = a2a.NewClient(&a2a.ClientConfig{BaseURL: baseURL, Timeout: timeout})
	}
	return &RemoteInvoker{clients: clients, timeout: timeout, metrics: metrics, logger: logger}
}

func (v *RemoteInvoker) Analyze(ctx context.Context, agentType, text string, params analyzer.Params) analysis.Record {
	params.SetDefaults()
	return v.call(ctx, agentType, text, map[string]interface{}{
		"product_category": params.ProductCategory,
		"max_tokens":       params.MaxTokens,
	})
}

// AnalyzeAll fans out concurrently. Each worker writes exactly one slot of
// the result buffer; the buffer is read only after Wait returns.
func (v *RemoteInvoker) AnalyzeAll(ctx context.Context, agentTypes []string, text string, params analyzer.Params) []analysis.Record {
	records := make([]analysis.Record, len(agentTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, agentType := range agentTypes {
		g.Go(func() error {
			records[i] = v.Analyze(gctx, agentType, text, params)
			return nil
		})
	}
	// Workers never return errors; failures became fallback records.
	_ = g.Wait()

	if ctx.Err() != nil {
		// The caller went away; gathered records are discarded.
		return nil
	}
	return records
}

func (v *RemoteInvoker) Synthesize(ctx context.Context, records []analysis.Record, review string, params analyzer.Params) analysis.Record {
	params.SetDefaults()
	return v.call(ctx, analyzer.TypeMasterAnalyst, review, map[string]interface{}{
		"product_category":   params.ProductCategory,
		"max_tokens":         params.MaxTokens,
		"department_records": records,
	})
}

func (v *RemoteInvoker) Recommend(ctx context.Context, master analysis.Record, records []analysis.Record, review string, params analyzer.Params) analysis.Record {
	params.SetDefaults()
	rec := v.call(ctx, analyzer.TypeBusinessAdvisor, review, map[string]interface{}{
		"product_category":   params.ProductCategory,
		"max_tokens":         params.MaxTokens,
		"master_record":      master,
		"department_records": records,
	})
	if rec.Failed() && master.Sentiment.Valid() {
		rec.Sentiment = master.Sentiment
	}
	return rec
}

// call performs one agent RPC under the per-agent deadline and decodes the
// record from the result artifact. Every failure mode collapses into a
// fallback record.
func (v *RemoteInvoker) call(ctx context.Context, agentType, text string, metadata map[string]interface{}) analysis.Record {
	agentName := analyzer.DisplayName(agentType)

	client, ok := v.clients[agentType]
	if !ok {
		return analysis.Fallback(agentType, agentName,
			fmt.Errorf("no endpoint configured for agent type %s", agentType))
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	started := time.Now()
	result, err := client.SendTask(callCtx, text, metadata)
	elapsed := time.Since(started)

	rec, err := decodeRecord(result, err)
	if err != nil {
		v.logger.Warn("agent call failed", "agent", agentType, "error", err)
		rec = analysis.Fallback(agentType, agentName, err)
	}

	if v.metrics.Enabled() {
		v.metrics.AgentCalls.Add(ctx, 1)
		v.metrics.AgentDuration.Record(ctx, elapsed.Seconds())
		if rec.Failed() {
			v.metrics.AgentErrors.Add(ctx, 1)
		}
	}
	return rec
}

func decodeRecord(result *a2a.TaskResult, err error) (analysis.Record, error) {
	if err != nil {
		return analysis.Record{}, err
	}

	text, err := a2a.ResultText(result)
	if err != nil {
		return analysis.Record{}, err
	}

	var rec analysis.Record
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return analysis.Record{}, fmt.Errorf("malformed record artifact: %w", err)
	}
	rec.Normalize()
	return rec, nil
}

var _ workflow.Invoker = (*LocalInvoker)(nil)
var _ workflow.Invoker = (*RemoteInvoker)(nil)
