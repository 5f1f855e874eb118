// Package cli defines Cobra command definitions for the briefing CLI.
// This file contains the root command, global flags and the shared
// environment every command runs in.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/config"
	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/log"
	"github.com/berth-dev/briefing/internal/metrics"
	"github.com/berth-dev/briefing/internal/orchestrator"
	"github.com/berth-dev/briefing/internal/session"
	"github.com/berth-dev/briefing/internal/ui"
)

var (
	dirFlag string
	verbose bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "briefing",
	Short: "AI-guided interview that turns a raw idea into a clear brief",
	Long: `Briefing interviews you about an idea. It gauges how familiar you are
with the domain, asks yes/no questions pitched at that level, and
rewrites the idea until you confirm it.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTTY() {
			return cmd.Help()
		}
		return runNew(cmd, args)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", ".", "Project directory holding .briefing/")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug output to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(logCmd)
}

// env is what a command needs to talk to the engine.
type env struct {
	root    string
	cfg     *config.Config
	logger  *zap.Logger
	store   session.Store
	events  *log.Logger
	gen     llm.Generator
	orch    *orchestrator.Orchestrator
	metrics *metrics.Collector
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("closing store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// newGenerator builds the configured provider. Tests replace it.
var newGenerator = func(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Collector) (llm.Generator, error) {
	var base llm.Generator
	apiKey := ""
	if cfg.LLM.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		base = llm.NewOpenAIClient(llm.OpenAIOptions{
			BaseURL:      cfg.LLM.BaseURL,
			Model:        cfg.LLM.Model,
			APIKey:       apiKey,
			Timeout:      cfg.LLMTimeout(),
			ProbeTimeout: cfg.ProbeTimeout(),
		})
	case config.ProviderGenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("genai provider needs an API key in $%s", cfg.LLM.APIKeyEnv)
		}
		client, err := llm.NewGenAIClient(ctx, apiKey, cfg.LLM.Model, cfg.ProbeTimeout())
		if err != nil {
			return nil, err
		}
		base = client
	case config.ProviderClaude:
		base = llm.NewClaudeCLI(cfg.LLM.Model, cfg.LLMTimeout())
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	return llm.NewRetrying(base, cfg.LLM.MaxRetries, cfg.RetryDelay(), logger.Named("llm"), m), nil
}

// openEnv loads config and wires the store, loggers, generator and
// orchestrator. reg may be nil.
func openEnv(ctx context.Context, reg prometheus.Registerer) (*env, error) {
	root, err := filepath.Abs(dirFlag)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := log.New(level)
	if err != nil {
		return nil, err
	}

	e := &env{root: root, cfg: cfg, logger: logger}
	if reg != nil {
		e.metrics = metrics.New(reg)
	}

	var recorder log.Recorder = log.Discard
	if cfg.Log.Events {
		events, err := log.NewLogger(root)
		if err != nil {
			return nil, fmt.Errorf("opening event log: %w", err)
		}
		e.events = events
		recorder = events
	}

	e.store, err = session.Open(cfg.Store, root, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	e.gen, err = newGenerator(ctx, cfg, logger, e.metrics)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("creating text generator: %w", err)
	}

	e.orch, err = orchestrator.New(cfg, e.gen, orchestrator.Services{
		Store:   e.store,
		Events:  recorder,
		Logger:  logger,
		Metrics: e.metrics,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}
