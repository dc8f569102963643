package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadym-shevikov/cv-tailor/internal/config"
	"github.com/vadym-shevikov/cv-tailor/internal/fetch"
	"github.com/vadym-shevikov/cv-tailor/internal/server"
	"github.com/vadym-shevikov/cv-tailor/internal/server/ratelimit"
)

var (
	servePort       int
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server exposing POST /analyze, POST /analyze/stream, GET /health and GET /knowledge/{topic}.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Use a headless browser for job pages rendered client-side (requires Chrome)")
	rootCmd.AddCommand(serveCmd)
}

func serverConfig(cfg *config.Config) server.Config {
	exempt := make(map[string]bool, len(cfg.RateLimit.Exempt))
	for _, ip := range cfg.RateLimit.Exempt {
		exempt[ip] = true
	}
	limits := ratelimit.DefaultConfig()
	limits.Enabled = cfg.RateLimit.Enabled
	limits.PerHour = cfg.RateLimit.PerHour
	limits.Burst = cfg.RateLimit.Burst
	limits.Exempt = exempt

	return server.Config{
		Port:           cfg.Port,
		MaxUploadBytes: server.DefaultMaxUploadBytes,
		Pipeline:       cfg.Pipeline(),
		RateLimit:      limits,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, func(c *config.Config) {
		if cmd.Flags().Changed("port") {
			c.Port = servePort
		}
		if cmd.Flags().Changed("use-browser") {
			c.UseBrowser = serveUseBrowser
		}
		if c.LogFormat == "" {
			c.LogFormat = "json"
		}
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	remote, local, closeKnowledge, err := knowledgeProviders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeKnowledge()

	served := local
	if remote != nil {
		served = remote
	}

	srv := server.New(serverConfig(cfg), newOrchestrator(cfg, remote, local, logger),
		server.WithJobFetcher(fetch.NewCachedFetcher(newJobFetcher(cfg, logger), fetch.DefaultCacheTTL)),
		server.WithKnowledge(served),
		server.WithLogger(logger),
	)
	return srv.Start(ctx)
}
