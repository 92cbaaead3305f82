package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/logger"
	"github.com/goliatone/go-crudform/pkg/orchestrator"
)

const defaultConfigPath = "crudform.yaml"

var (
	configPath  string
	logLevel    string
	development bool

	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "crudform",
	Short:         "Schema-driven CRUD screens",
	Long:          "Fetch page schemas from a backend, normalize them and render list, form and print views.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		l, err := logger.New(logger.Config{
			Level:       logLevel,
			Development: development,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		log = l.WithComponent("cli")
		cmd.SetContext(logger.WithLogger(cmd.Context(), log))
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", envOr(config.EnvConfigPath, defaultConfigPath), "path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr(config.EnvLogLevel, "info"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&development, "dev", false, "human-friendly development logging")
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func newOrchestrator(opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newOrchestratorFrom(cfg, opts...)
}

func newOrchestratorFrom(cfg config.Config, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(cfg, append([]orchestrator.Option{orchestrator.WithLogger(log)}, opts...)...)
}

// openOutput returns stdout for an empty path or "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
