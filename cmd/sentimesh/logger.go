package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kadirpekel/sentimesh/pkg/config"
	"github.com/kadirpekel/sentimesh/pkg/logger"
)

// setupLogging initializes the process logger from CLI flags, falling back
// to the config file's logging section for anything left at its default.
func setupLogging(cli *CLI, cfg *config.Config) (*slog.Logger, func(), error) {
	level := cli.LogLevel
	if level == "info" && cfg.Logging.Level != "" {
		level = cfg.Logging.Level
	}
	format := cli.LogFormat
	if format == "simple" && cfg.Logging.Format != "" {
		format = cfg.Logging.Format
	}
	output := cli.LogFile
	if output == "" {
		output = cfg.Logging.Output
	}

	parsed, _ := logger.ParseLevel(level)

	dest := os.Stderr
	cleanup := func() {}
	if output != "" {
		file, closeFile, err := logger.OpenLogFile(output)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		dest = file
		cleanup = closeFile
	}

	logger.Init(parsed, dest, format)
	return logger.GetLogger(), cleanup, nil
}
