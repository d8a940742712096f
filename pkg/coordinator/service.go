package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/agentservice"
	"github.com/kadirpekel/sentimesh/pkg/config"
	"github.com/kadirpekel/sentimesh/pkg/observability"
	"github.com/kadirpekel/sentimesh/pkg/scraper"
	"github.com/kadirpekel/sentimesh/pkg/workflow"
)

// ServiceVersion is reported by /health and the coordinator card.
const ServiceVersion = "1.0.0"

// Service hosts the workflow engine behind one /rpc endpoint.
type Service struct {
	cfg        config.CoordinatorConfig
	invoker    workflow.Invoker
	scraper    *scraper.Scraper
	metrics    *observability.Metrics
	logger     *slog.Logger
	httpServer *http.Server
}

// Option customizes a Service.
type Option func(*Service)

// WithScraper enables the optional review collection pre-step.
func WithScraper(s *scraper.Scraper) Option {
	return func(svc *Service) { svc.scraper = s }
}

// WithMetrics attaches metric instruments and exposes /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// New creates the coordinator service over an invocation strategy.
func New(cfg config.CoordinatorConfig, invoker workflow.Invoker, opts ...Option) (*Service, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker cannot be nil")
	}

	svc := &Service{
		cfg:     cfg,
		invoker: invoker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", svc.handleRPC)
	mux.HandleFunc("/health", svc.handleHealth)
	mux.HandleFunc(a2a.WellKnownCardPath, a2a.CardHandler("", svc.card()))
	if svc.metrics.Enabled() {
		mux.Handle("/metrics", observability.Handler())
	}

	svc.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:     agentservice.LoggingMiddleware(svc.logger, agentservice.CORSMiddleware(mux)),
		ReadTimeout: 30 * time.Second,
		// A run may span several discussion rounds of LLM calls.
		WriteTimeout: 10 * time.Minute,
	}
	return svc, nil
}

// Addr returns the listen address.
func (s *Service) Addr() string {
	return s.httpServer.Addr
}

// Start serves until Stop is called. It blocks.
func (s *Service) Start() error {
	s.logger.Info("coordinator listening", "addr", s.httpServer.Addr, "strategy", s.cfg.Strategy)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("coordinator failed: %w", err)
	}
	return nil
}

// Stop shuts the service down gracefully.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("coordinator stopping")
	return s.httpServer.Shutdown(ctx)
}

func (s *Service) card() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:         "Sentiment Coordinator",
		Description:  "Orchestrates department analyzers, consensus discussion, synthesis, and advisory",
		Version:      ServiceVersion,
		Capabilities: []string{"analyze", "orchestrate"},
		Skills: []a2a.AgentSkill{
			{
				Name:        "analyze_product_reviews",
				Description: "Run the full multi-agent sentiment workflow over a review or product name",
				Tags:        []string{"sentiment", "consensus", "orchestration"},
			},
		},
		AgentType: "coordinator",
	}
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Service) handleRPC(w http.ResponseWriter, r *http.Request) {
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

	reviewText, err := a2a.ExtractText(req.Params.Message)
	if err != nil {
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInvalidParams, err.Error()))
		return
	}

	taskOpts, err := DecodeTaskOptions(req.Params.Metadata)
	if err != nil {
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInvalidParams, err.Error()))
		return
	}

	scraped := s.maybeScrape(r.Context(), taskOpts)
	if text := scraper.Compose(scraped); text != "" {
		reviewText = text
	}

	result, err := s.run(r.Context(), reviewText, taskOpts, req.Params.ID)
	if err != nil {
		// Catastrophic only: the machine could not construct a result.
		s.logger.Error("workflow run failed", "error", err)
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInternalError, err.Error()))
		return
	}

	if len(scraped) > 0 {
		result.Metadata["scraped_items"] = len(scraped)
		result.Metadata["scrape_product"] = taskOpts.ProductName
	}

	payload, err := result.JSON()
	if err != nil {
		writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.CodeInternalError, err.Error()))
		return
	}

	resp := a2a.NewTaskResponse(req.ID, req.Params.ID, payload,
		a2a.WithMetadata(map[string]interface{}{
			"consensus_reached": result.ConsensusReached,
			"disagreement":      result.Disagreement,
			"discussion_rounds": result.DiscussionRounds,
			"product_category":  result.ProductCategory,
		}))
	if req.Params.SessionID != "" {
		resp.Result.SessionID = req.Params.SessionID
	}
	writeResponse(w, resp)
}

// run builds and executes one engine. Engines are cheap; per-request
// construction keeps run options isolated between concurrent callers.
func (s *Service) run(ctx context.Context, reviewText string, taskOpts *TaskOptions, productID string) (*workflow.Result, error) {
	engine, err := workflow.NewEngine(workflow.EngineConfig{
		Invoker: s.invoker,
		Mode:    workflow.ModeConsensus,
		Options: taskOpts.WorkflowOptions(s.cfg, productID),
		Metrics: s.metrics,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, reviewText)
}

// maybeScrape runs the optional collection pre-step. Any failure leaves
// the caller's review text untouched.
func (s *Service) maybeScrape(ctx context.Context, taskOpts *TaskOptions) []scraper.ReviewItem {
	if !taskOpts.EnableScraping || taskOpts.ProductName == "" || s.scraper == nil {
		return nil
	}
	return s.scraper.Collect(ctx, taskOpts.ProductName, taskOpts.Sources, taskOpts.MaxItemsPerSource)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"agent":   "coordinator",
		"version": ServiceVersion,
	})
}

func writeResponse(w http.ResponseWriter, resp *a2a.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
