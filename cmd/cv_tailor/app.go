package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadym-shevikov/cv-tailor/internal/config"
	"github.com/vadym-shevikov/cv-tailor/internal/fetch"
	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/llm"
	"github.com/vadym-shevikov/cv-tailor/internal/observability"
	"github.com/vadym-shevikov/cv-tailor/internal/pipeline"
)

// loadConfig loads the file and environment layers, applies the persistent
// flags plus any command-specific overrides, fills gaps from defaults and validates.
func loadConfig(cmd *cobra.Command, overrides func(*config.Config)) (*config.Config, error) {
	loaded, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		loaded.LogFormat = logFormat
	}
	if verbose {
		loaded.LogLevel = "debug"
	}
	if overrides != nil {
		overrides(loaded)
	}

	cfg := loaded.MergeWithDefaults(config.Default())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return observability.NewLogger(cfg.LogLevel, cfg.LogFormat, w)
}

// knowledgeProviders opens the local provider and, when the configured backend
// is remote, the remote one. Requests selecting a backend that was not opened
// use the local provider.
func knowledgeProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remote, local *knowledge.FallbackProvider, closeFn func(), err error) {
	sources := cfg.KnowledgeSources()

	localCfg := sources
	localCfg.Backend = knowledge.BackendLocal
	local, _, err = knowledge.New(ctx, localCfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open local knowledge: %w", err)
	}

	closeFn = func() {}
	if sources.Backend == knowledge.BackendRemote {
		remote, closeFn, err = knowledge.New(ctx, sources, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open knowledge: %w", err)
		}
	}
	return remote, local, closeFn, nil
}

// clientFactory creates completion clients from the configured provider and API key.
func clientFactory(cfg *config.Config) pipeline.ClientFactory {
	return func(ctx context.Context, model string, timeout time.Duration) (llm.Client, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key configured (set GEMINI_API_KEY or CV_TAILOR_API_KEY)")
		}
		llmCfg := cfg.Completion(model)
		if timeout > 0 {
			llmCfg.Timeout = timeout
		}
		return llm.NewClient(ctx, llmCfg, cfg.APIKey)
	}
}

func newOrchestrator(cfg *config.Config, remote, local *knowledge.FallbackProvider, logger *slog.Logger) *pipeline.Orchestrator {
	var remoteProvider knowledge.Provider
	if remote != nil {
		remoteProvider = remote
	}
	return pipeline.NewOrchestrator(
		pipeline.WithKnowledge(remoteProvider, local),
		pipeline.WithClientFactory(clientFactory(cfg)),
		pipeline.WithLogger(logger),
	)
}

func newJobFetcher(cfg *config.Config, logger *slog.Logger) *fetch.JobFetcher {
	opts := []fetch.JobOption{fetch.WithLogger(logger)}
	if cfg.UseBrowser {
		opts = append(opts, fetch.WithRenderer(fetch.BrowserRenderer(fetch.DefaultTimeout, logger)))
	}
	return fetch.NewJobFetcher(opts...)
}
