package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vadym-shevikov/cv-tailor/internal/config"
	"github.com/vadym-shevikov/cv-tailor/internal/observability"
	"github.com/vadym-shevikov/cv-tailor/internal/pipeline"
)

// Output formats
const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Analyze a CV against a job posting and print the report",
	Long: `Extracts the CV (PDF, DOCX or plain text), parses the job posting, rates the match
and ATS readiness, and rewrites the summary, skills and most recent roles without adding facts.

The job posting is read from --job, fetched from --job-url, or omitted for a structure-only review.`,
	RunE: runPipelineCmd,
}

var (
	runCV                string
	runJob               string
	runJobURL            string
	runFormat            string
	runOut               string
	runKnowledgeBackend  string
	runCompletionModel   string
	runCompletionTimeout int
	runAPIKey            string
	runUseBrowser        bool
)

func init() {
	runCommand.Flags().StringVar(&runCV, "cv", "", "Path to the CV (PDF, DOCX or text)")
	runCommand.Flags().StringVarP(&runJob, "job", "j", "", "Path to the job posting text file (mutually exclusive with --job-url)")
	runCommand.Flags().StringVar(&runJobURL, "job-url", "", "URL to fetch the job posting from (mutually exclusive with --job)")
	runCommand.Flags().StringVarP(&runFormat, "format", "f", formatMarkdown, "Output format: markdown or json")
	runCommand.Flags().StringVarP(&runOut, "out", "o", "", "Write the report to this file instead of stdout")
	runCommand.Flags().StringVar(&runKnowledgeBackend, "knowledge-backend", "", "Knowledge backend: remote or local")
	runCommand.Flags().StringVar(&runCompletionModel, "completion-model", "", "Completion model identifier")
	runCommand.Flags().IntVar(&runCompletionTimeout, "completion-timeout-ms", 0, "Per-call completion timeout in milliseconds")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use a headless browser for job pages rendered client-side (requires Chrome)")

	_ = runCommand.MarkFlagRequired("cv")
	runCommand.MarkFlagsMutuallyExclusive("job", "job-url")

	rootCmd.AddCommand(runCommand)
}

func applyRunFlags(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("knowledge-backend") {
			cfg.KnowledgeBackend = runKnowledgeBackend
		}
		if cmd.Flags().Changed("completion-model") {
			cfg.CompletionModel = runCompletionModel
		}
		if cmd.Flags().Changed("completion-timeout-ms") {
			cfg.CompletionTimeoutMs = runCompletionTimeout
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey = runAPIKey
		}
		if cmd.Flags().Changed("use-browser") {
			cfg.UseBrowser = runUseBrowser
		}
	}
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	if runFormat != formatMarkdown && runFormat != formatJSON {
		return fmt.Errorf("unknown format %q (expected markdown or json)", runFormat)
	}

	cfg, err := loadConfig(cmd, applyRunFlags(cmd))
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	document, err := os.ReadFile(runCV)
	if err != nil {
		return fmt.Errorf("failed to read CV: %w", err)
	}

	jobText, err := readJob(ctx, cfg, logger)
	if err != nil {
		return err
	}

	remote, local, closeKnowledge, err := knowledgeProviders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeKnowledge()

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	req := pipeline.Request{
		Document: document,
		Filename: filepath.Base(runCV),
		JobText:  jobText,
	}
	if verbose {
		req.OnProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", e.Stage, e.Message)
		}
	}

	report := newOrchestrator(cfg, remote, local, logger).Run(ctx, req, cfg.Pipeline())

	if verbose && report.Analysis != nil {
		printer.PrintAnalysis(report.Analysis)
		printer.PrintRewrites(report.Rewrites)
		printer.PrintNotices(report.Notices)
	}

	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Status == pipeline.StatusFailed {
		return errors.New("analysis failed: " + report.StatusDetail)
	}
	return nil
}

func readJob(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	switch {
	case runJob != "":
		data, err := os.ReadFile(runJob)
		if err != nil {
			return "", fmt.Errorf("failed to read job posting: %w", err)
		}
		return string(data), nil
	case runJobURL != "":
		text, err := newJobFetcher(cfg, logger).JobText(ctx, runJobURL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch job posting: %w", err)
		}
		return text, nil
	default:
		return "", nil
	}
}

func writeReport(stdout io.Writer, report *pipeline.Report) error {
	out := stdout
	if runOut != "" {
		f, err := os.Create(runOut)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if runFormat == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}
	if _, err := io.WriteString(out, report.Markdown); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
