// Package supervisor assembles and runs the whole mesh in one process:
// seven agent services, the coordinator, and the optional scraper. It also
// implements the health probe and the pidfile-based stop used by the CLI.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/agentservice"
	"github.com/kadirpekel/sentimesh/pkg/analyzer"
	"github.com/kadirpekel/sentimesh/pkg/config"
	"github.com/kadirpekel/sentimesh/pkg/coordinator"
	"github.com/kadirpekel/sentimesh/pkg/llms"
	"github.com/kadirpekel/sentimesh/pkg/observability"
	"github.com/kadirpekel/sentimesh/pkg/scraper"
	"github.com/kadirpekel/sentimesh/pkg/workflow"
)

// Supervisor owns every service of a deployment.
type Supervisor struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	provider llms.Provider

	agents []*agentservice.Server
	coord  *coordinator.Service
}

// allAgentTypes is the full deployment: five departments plus master and
// advisor.
func allAgentTypes() []string {
	return append(append([]string{}, analyzer.DefaultDepartments...),
		analyzer.TypeMasterAnalyst, analyzer.TypeBusinessAdvisor)
}

// New builds the full service set from config. Nothing listens until
// Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Supervisor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := observability.InitMetrics(ctx, cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	provider, err := llms.NewProvider(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	s := &Supervisor{cfg: cfg, logger: logger, metrics: metrics, provider: provider}

	analyzers := make(map[string]analyzer.Analyzer)
	for _, agentType := range allAgentTypes() {
		az, err := analyzer.New(agentType, provider)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s analyzer: %w", agentType, err)
		}
		analyzers[agentType] = az

		agentCfg := cfg.Agents[agentType]
		svc, err := agentservice.New(agentservice.Config{
			Host:     agentCfg.Host,
			Port:     agentCfg.Port,
			CardPath: agentCfg.CardPath,
		}, az, agentservice.WithMetrics(metrics), agentservice.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s service: %w", agentType, err)
		}
		s.agents = append(s.agents, svc)
	}

	var invoker workflow.Invoker
	switch cfg.Coordinator.Strategy {
	case "remote":
		endpoints := make(map[string]string)
		for _, agentType := range allAgentTypes() {
			endpoints[agentType] = cfg.Agents[agentType].URL()
		}
		invoker = coordinator.NewRemoteInvoker(endpoints,
			time.Duration(cfg.Coordinator.AgentTimeout)*time.Second, metrics, logger)
	default:
		invoker = coordinator.NewLocalInvoker(analyzers, metrics, logger)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithMetrics(metrics),
		coordinator.WithLogger(logger),
	}
	if cfg.Scraper.Enabled {
		coordOpts = append(coordOpts, coordinator.WithScraper(s.buildScraper()))
	}

	coord, err := coordinator.New(cfg.Coordinator, invoker, coordOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}
	s.coord = coord

	return s, nil
}

func (s *Supervisor) buildScraper() *scraper.Scraper {
	var sources []scraper.Source
	if s.cfg.Scraper.YouTube.APIKey != "" {
		sources = append(sources, scraper.NewYouTubeSource(scraper.YouTubeConfig{
			APIKey: s.cfg.Scraper.YouTube.APIKey,
			Host:   s.cfg.Scraper.YouTube.Host,
		}))
	}
	sources = append(sources, scraper.NewTikiSource(scraper.TikiConfig{
		Host: s.cfg.Scraper.Tiki.Host,
	}))
	return scraper.New(s.logger, sources...)
}

// Run starts every service and blocks until ctx is cancelled or a service
// fails. On cancellation all services are shut down gracefully.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, agent := range s.agents {
		g.Go(agent.Start)
	}
	g.Go(s.coord.Start)

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.shutdown(stopCtx)
		return nil
	})

	s.logger.Info("mesh running",
		"agents", len(s.agents),
		"coordinator", s.coord.Addr(),
		"strategy", s.cfg.Coordinator.Strategy)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor failed: %w", err)
	}
	return nil
}

func (s *Supervisor) shutdown(ctx context.Context) {
	for _, agent := range s.agents {
		if err := agent.Stop(ctx); err != nil {
			s.logger.Warn("agent shutdown error", "error", err)
		}
	}
	if err := s.coord.Stop(ctx); err != nil {
		s.logger.Warn("coordinator shutdown error", "error", err)
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Warn("provider close error", "error", err)
	}
}

// ============================================================================
// HEALTH PROBING
// ============================================================================

// HealthCheck probes every service's /health endpoint. It returns nil
// only when all of them respond healthy.
func HealthCheck(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}

	probe := func(name, baseURL string) error {
		client := a2a.NewClient(&a2a.ClientConfig{BaseURL: baseURL, Timeout: 5 * time.Second})
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("%s at %s: %w", name, baseURL, err)
		}
		return nil
	}

	var failures []error
	for _, agentType := range allAgentTypes() {
		if err := probe(agentType, cfg.Agents[agentType].URL()); err != nil {
			failures = append(failures, err)
		}
	}
	coordURL := fmt.Sprintf("http://%s:%d", cfg.Coordinator.Host, cfg.Coordinator.Port)
	if err := probe("coordinator", coordURL); err != nil {
		failures = append(failures, err)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d services unhealthy: %v",
			len(failures), len(allAgentTypes())+1, failures)
	}
	return nil
}
