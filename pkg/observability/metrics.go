// Package observability wires the otel meter to a Prometheus exporter and
// defines the runtime's instruments. Metrics are scraped from /metrics on
// the coordinator.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Metrics holds the runtime's instruments. The zero value is a no-op.
type Metrics struct {
	enabled bool

	WorkflowRuns     metric.Int64Counter
	AgentCalls       metric.Int64Counter
	AgentErrors      metric.Int64Counter
	AgentTokens      metric.Int64Counter
	AgentDuration    metric.Float64Histogram
	DiscussionRounds metric.Int64Histogram
}

// InitMetrics creates the instruments backed by a Prometheus exporter.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)
	meter := meterProvider.Meter("sentimesh")

	m := &Metrics{enabled: true}

	if m.WorkflowRuns, err = meter.Int64Counter(
		"sentimesh_workflow_runs_total",
		metric.WithDescription("Total workflow runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create workflow runs counter: %w", err)
	}

	if m.AgentCalls, err = meter.Int64Counter(
		"sentimesh_agent_calls_total",
		metric.WithDescription("Total analyzer invocations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent calls counter: %w", err)
	}

	if m.AgentErrors, err = meter.Int64Counter(
		"sentimesh_agent_errors_total",
		metric.WithDescription("Analyzer invocations recovered as fallback records"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent errors counter: %w", err)
	}

	if m.AgentTokens, err = meter.Int64Counter(
		"sentimesh_agent_tokens_used_total",
		metric.WithDescription("Total tokens used by analyzers"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent tokens counter: %w", err)
	}

	if m.AgentDuration, err = meter.Float64Histogram(
		"sentimesh_agent_call_duration_seconds",
		metric.WithDescription("Analyzer call duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent duration histogram: %w", err)
	}

	if m.DiscussionRounds, err = meter.Int64Histogram(
		"sentimesh_discussion_rounds",
		metric.WithDescription("Discussion rounds per workflow run"),
	); err != nil {
		return nil, fmt.Errorf("failed to create discussion rounds histogram: %w", err)
	}

	return m, nil
}

// Enabled reports whether instruments record anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
