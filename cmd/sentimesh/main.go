// Command sentimesh runs the multi-agent review sentiment mesh: seven
// analyzer services plus the coordinator, supervised in one process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/sentimesh/pkg/config"
	"github.com/kadirpekel/sentimesh/pkg/supervisor"
)

var version = "1.0.0"

type CLI struct {
	Config    string   `help:"Path to YAML configuration file." short:"c" optional:""`
	EnvFile   []string `help:"Env files to load before reading config." name:"env-file" optional:""`
	LogLevel  string   `help:"Log level: debug, info, warn, error." env:"LOG_LEVEL" default:"info"`
	LogFormat string   `help:"Log format: simple, verbose." env:"LOG_FORMAT" default:"simple"`
	LogFile   string   `help:"Write logs to this file instead of stderr." env:"LOG_FILE" optional:""`

	Serve       ServeCmd       `cmd:"" default:"1" help:"Run the full agent mesh."`
	HealthCheck HealthCheckCmd `cmd:"" name:"health-check" help:"Probe every service; exit 0 only if all are healthy."`
	Stop        StopCmd        `cmd:"" help:"Stop a running mesh via its pid file."`
	Version     VersionCmd     `cmd:"" help:"Print the version."`
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(c.EnvFile...); err != nil {
		return nil, err
	}
	return config.LoadFromFile(c.Config)
}

// ============================================================================
// COMMANDS
// ============================================================================

type ServeCmd struct {
	Parallel bool   `help:"Fan out department analyzers over A2A in parallel."`
	PIDFile  string `help:"PID file path." default:"sentimesh.pid"`
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	if s.Parallel {
		cfg.Coordinator.Strategy = "remote"
	}

	logger, cleanup, err := setupLogging(cli, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup, err := supervisor.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := supervisor.WritePIDFile(s.PIDFile); err != nil {
		return err
	}
	defer func() { _ = supervisor.RemovePIDFile(s.PIDFile) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	interrupted := make(chan bool, 1)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		interrupted <- sig == os.Interrupt
		cancel()
	}()

	if err := sup.Run(ctx); err != nil {
		return err
	}

	select {
	case byInterrupt := <-interrupted:
		if byInterrupt {
			// os.Exit skips deferred calls, so release the pid file and
			// close the log file explicitly.
			_ = supervisor.RemovePIDFile(s.PIDFile)
			cleanup()
			os.Exit(130)
		}
	default:
	}
	return nil
}

type HealthCheckCmd struct{}

func (h *HealthCheckCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := supervisor.HealthCheck(ctx, cfg); err != nil {
		return err
	}
	fmt.Println("all services healthy")
	return nil
}

type StopCmd struct {
	PIDFile string `help:"PID file path." default:"sentimesh.pid"`
}

func (s *StopCmd) Run(cli *CLI) error {
	if err := supervisor.StopRunning(s.PIDFile); err != nil {
		return err
	}
	fmt.Println("stopped")
	return nil
}

type VersionCmd struct{}

func (v *VersionCmd) Run(cli *CLI) error {
	fmt.Printf("sentimesh %s\n", version)
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sentimesh"),
		kong.Description("Distributed multi-agent product review sentiment analysis."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "sentimesh: %v\n", err)
		os.Exit(1)
	}
}
