// Package agentservice hosts one Analyzer behind the A2A HTTP surface:
// POST /rpc, GET /health, GET /.well-known/agent.json. Services are
// stateless; every request is handled independently against immutable
// configuration.
package agentservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/analyzer"
	"github.com/kadirpekel/sentimesh/pkg/observability"
	"github.com/kadirpekel/sentimesh/pkg/tokens"
)

// ServiceVersion is reported by /health and the built-in agent card.
const ServiceVersion = "1.0.0"

// Config configures an agent service.
type Config struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	CardPath string `yaml:"card_path" json:"card_path"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		// Generous: a single request may wait on an LLM roundtrip.
		c.WriteTimeout = 120 * time.Second
	}
}

// Server is one agent service instance.
type Server struct {
	cfg        Config
	analyzer   analyzer.Analyzer
	metrics    *observability.Metrics
	logger     *slog.Logger
	httpServer *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics attaches metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an agent service for the given analyzer.
func New(cfg Config, az analyzer.Analyzer, opts ...Option) (*Server, error) {
	if az == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	cfg.SetDefaults()
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("agent service port is required")
	}

	s := &Server{
		cfg:      cfg,
		analyzer: az,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc(a2a.WellKnownCardPath, a2a.CardHandler(cfg.CardPath, az.Card()))

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:      LoggingMiddleware(s.logger, CORSMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until Stop is called. It blocks.
func (s *Server) Start() error {
	s.logger.Info("agent service listening",
		"agent", s.analyzer.AgentType(), "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("agent service failed: %w", err)
	}
	return nil
}

// Stop shuts the service down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("agent service stopping", "agent", s.analyzer.AgentType())
	return s.httpServer.Shutdown(ctx)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req a2a.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, a2a.NewErrorResponse("", a2a.CodeInvalidParams,
			fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	if errResp := a2a.Validate(&req); errResp != nil {
		writeResponse(w, errResp)
		return
	}

	text, err := a2a.ExtractText(req.Params.Message)
	if err != nil {
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInvalidParams, err.Error()))
		return
	}

	meta, err := DecodeMeta(req.Params.Metadata)
	if err != nil {
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInvalidParams, err.Error()))
		return
	}

	rec := s.runAnalyzer(r.Context(), text, meta)

	payload, err := json.Marshal(rec)
	if err != nil {
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInternalError,
			fmt.Sprintf("failed to encode record: %v", err)))
		return
	}

	params := analyzer.Params{ProductCategory: meta.ProductCategory, MaxTokens: meta.MaxTokens}
	params.SetDefaults()

	resp := a2a.NewTaskResponse(req.ID, req.Params.ID, string(payload),
		a2a.WithMetadata(map[string]interface{}{
			"agent_type":       s.analyzer.AgentType(),
			"product_category": params.ProductCategory,
			"max_tokens":       params.MaxTokens,
			"sentiment":        string(rec.Sentiment),
			"confidence":       rec.Confidence,
		}))
	if req.Params.SessionID != "" {
		resp.Result.SessionID = req.Params.SessionID
	}
	writeResponse(w, resp)
}

// runAnalyzer dispatches to the extended operations when the metadata
// carries their inputs, and to plain analysis otherwise. Failures always
// come back as fallback records.
func (s *Server) runAnalyzer(ctx context.Context, text string, meta *RequestMeta) analysis.Record {
	started := time.Now()
	params := analyzer.Params{ProductCategory: meta.ProductCategory, MaxTokens: meta.MaxTokens}

	var rec analysis.Record
	switch {
	case s.analyzer.AgentType() == analyzer.TypeMasterAnalyst && len(meta.DepartmentRecords) > 0:
		var err error
		rec, err = s.analyzer.Synthesize(ctx, meta.DepartmentRecords, text, params)
		if err != nil {
			rec = analysis.Fallback(s.analyzer.AgentType(), s.analyzer.AgentName(), err)
		}
	case s.analyzer.AgentType() == analyzer.TypeBusinessAdvisor && meta.MasterRecord != nil:
		var err error
		rec, err = s.analyzer.Recommend(ctx, *meta.MasterRecord, meta.DepartmentRecords, text, params)
		if err != nil {
			rec = analysis.Fallback(s.analyzer.AgentType(), s.analyzer.AgentName(), err)
			if meta.MasterRecord.Sentiment.Valid() {
				rec.Sentiment = meta.MasterRecord.Sentiment
			}
		}
	default:
		rec = s.analyzer.Analyze(ctx, text, params)
	}

	if s.metrics.Enabled() {
		s.metrics.AgentCalls.Add(ctx, 1)
		s.metrics.AgentDuration.Record(ctx, time.Since(started).Seconds())
		s.metrics.AgentTokens.Add(ctx, int64(tokens.Estimate(text)+tokens.Estimate(rec.Reasoning)))
		if rec.Failed() {
			s.metrics.AgentErrors.Add(ctx, 1)
		}
	}
	return rec
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"agent":   s.analyzer.AgentType(),
		"version": ServiceVersion,
	})
}

func writeResponse(w http.ResponseWriter, resp *a2a.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
