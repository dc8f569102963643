// Package pipeline runs the extraction, analysis and rewrite stages as one run
// and assembles the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadym-shevikov/cv-tailor/internal/analysis"
	"github.com/vadym-shevikov/cv-tailor/internal/extraction"
	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/llm"
	"github.com/vadym-shevikov/cv-tailor/internal/observability"
	"github.com/vadym-shevikov/cv-tailor/internal/rewriting"
)

// Stage names used in progress events
const (
	StageExtraction = "extraction"
	StageAnalysis   = "analysis"
	StageRewrite    = "rewrite"
	StageReport     = "report"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	RunID   string `json:"run_id,omitempty"`
	Stage   string `json:"stage"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Config holds the per-run options.
type Config struct {
	KnowledgeBackend      knowledge.Backend
	CompletionModel       string // Empty uses the client factory's default
	CompletionTimeout     time.Duration
	MatchThresholds       analysis.Thresholds
	ReadinessThresholds   analysis.Thresholds
	MaxImprovementTargets int
	MaxExperienceRewrites int
	MinJobTextLength      int
}

// DefaultConfig returns the default run options.
func DefaultConfig() Config {
	a := analysis.DefaultConfig()
	return Config{
		KnowledgeBackend:      knowledge.BackendLocal,
		CompletionTimeout:     llm.DefaultTimeout,
		MatchThresholds:       a.MatchThresholds,
		ReadinessThresholds:   a.ReadinessThresholds,
		MaxImprovementTargets: a.MaxImprovementTargets,
		MaxExperienceRewrites: rewriting.MaxExperienceRewrites,
		MinJobTextLength:      extraction.DefaultMinJobTextLength,
	}
}

// Validate checks the threshold pairs and limits.
func (c Config) Validate() error {
	if err := c.MatchThresholds.Validate(); err != nil {
		return fmt.Errorf("match thresholds: %w", err)
	}
	if err := c.ReadinessThresholds.Validate(); err != nil {
		return fmt.Errorf("readiness thresholds: %w", err)
	}
	if c.MaxExperienceRewrites < 1 || c.MaxExperienceRewrites > rewriting.MaxExperienceRewrites {
		return fmt.Errorf("max experience rewrites must be between 1 and %d, got %d", rewriting.MaxExperienceRewrites, c.MaxExperienceRewrites)
	}
	if c.MaxImprovementTargets < 1 {
		return fmt.Errorf("max improvement targets must be positive, got %d", c.MaxImprovementTargets)
	}
	return nil
}

// ClientFactory creates a completion client for one run.
type ClientFactory func(ctx context.Context, model string, timeout time.Duration) (llm.Client, error)

// Request is the input of one run.
type Request struct {
	Document   []byte
	Filename   string // Optional; its extension picks the document format
	JobText    string
	OnProgress ProgressCallback
}

// Orchestrator runs pipeline requests. It holds only process-wide collaborators;
// every run gets its own RunState.
type Orchestrator struct {
	remote    knowledge.Provider
	local     knowledge.Provider
	clients   ClientFactory
	extractor extraction.TextExtractor
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithKnowledge sets the providers used for the remote and local backends.
// A nil remote makes remote runs use the local provider.
func WithKnowledge(remote, local knowledge.Provider) Option {
	return func(o *Orchestrator) {
		o.remote = remote
		o.local = local
	}
}

// WithClientFactory sets how completion clients are created. Without one,
// every section keeps its original text.
func WithClientFactory(f ClientFactory) Option {
	return func(o *Orchestrator) {
		o.clients = f
	}
}

// WithExtractor replaces the document text extractor.
func WithExtractor(e extraction.TextExtractor) Option {
	return func(o *Orchestrator) {
		o.extractor = e
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pipeline run and returns its report. Run never returns an
// error: a fatal extraction failure produces a Failed report.
func (o *Orchestrator) Run(ctx context.Context, req Request, cfg Config) *Report {
	state := NewRunState()
	logger := observability.RunLogger(o.logger, state.RunID.String())
	emit := func(stage, message string) {
		if req.OnProgress != nil {
			req.OnProgress(ProgressEvent{RunID: state.RunID.String(), Stage: stage, Status: state.Status, Message: message})
		}
	}

	logger.Info("run started", "document_bytes", len(req.Document), "job_text_chars", len(req.JobText))
	if err := o.run(ctx, state, req, cfg, logger, emit); err != nil {
		// Only a broken state machine gets here.
		logger.Error("run aborted", "error", err)
		state.Status = StatusFailed
		state.StatusDetail = err.Error()
	}

	report := NewReport(state)
	logger.Info("run finished", "status", state.Status, "rewrites", len(state.Rewrites), "notices", len(state.Notices))
	emit(StageReport, fmt.Sprintf("Run finished with status %s", state.Status))
	return report
}

func (o *Orchestrator) run(ctx context.Context, state *RunState, req Request, cfg Config, logger *slog.Logger, emit func(string, string)) error {
	extractor := o.extractor
	if extractor == nil {
		extractor = extraction.DocumentExtractor{Filename: req.Filename}
	}
	extracted, err := extraction.NewStage(extractor,
		extraction.WithMinJobTextLength(cfg.MinJobTextLength),
		extraction.WithLogger(logger),
	).Run(ctx, req.Document, req.JobText)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		if err := state.Fail(failureMessage(err)); err != nil {
			return err
		}
		emit(StageExtraction, state.StatusDetail)
		return nil
	}

	state.Resume = &extracted.Resume
	state.Job = &extracted.Job
	state.degraded = extracted.Degraded()
	state.jobTextTooShort = extracted.JobTextTooShort
	for _, n := range extracted.Notices {
		state.AddNotice(n)
	}
	if err := state.Advance(StatusExtracted); err != nil {
		return err
	}
	emit(StageExtraction, fmt.Sprintf("Found %d skills and %d roles", len(state.Resume.Skills), len(state.Resume.ExperienceEntries)))

	provider := o.knowledgeFor(cfg.KnowledgeBackend)
	state.Analysis = analysis.NewStage(provider, analysis.Config{
		MatchThresholds:       cfg.MatchThresholds,
		ReadinessThresholds:   cfg.ReadinessThresholds,
		MaxImprovementTargets: cfg.MaxImprovementTargets,
	}, logger).Run(ctx, analysis.Input{
		Resume:          state.Resume,
		Job:             state.Job,
		JobTextTooShort: state.jobTextTooShort,
	})
	if err := state.Advance(StatusAnalyzed); err != nil {
		return err
	}
	emit(StageAnalysis, fmt.Sprintf("Match %s, ATS readiness %s", state.Analysis.MatchLevel, state.Analysis.ATSReadinessLevel))

	client, closeClient := o.completionClient(ctx, state, cfg, logger)
	defer closeClient()
	state.Rewrites = rewriting.NewStage(client, provider, rewriting.Config{
		MaxExperienceRewrites: cfg.MaxExperienceRewrites,
		Tier:                  llm.TierStandard,
	}, logger).Run(ctx, rewriting.Input{
		Resume:   state.Resume,
		Job:      state.Job,
		Analysis: state.Analysis,
	})
	if err := state.Advance(StatusRewritten); err != nil {
		return err
	}
	emit(StageRewrite, fmt.Sprintf("Rewrote %d sections", len(state.Rewrites)))

	if state.degraded {
		state.StatusDetail = "Reduced confidence: the CV or job description could only be partly read."
	}
	return state.Finish()
}

func (o *Orchestrator) knowledgeFor(backend knowledge.Backend) knowledge.Provider {
	if backend == knowledge.BackendRemote && o.remote != nil {
		return o.remote
	}
	if o.local != nil {
		return o.local
	}
	if o.remote != nil {
		return o.remote
	}
	return noKnowledge{}
}

// completionClient creates the run's client. Without one, rewriting falls back
// for every section and the report says why.
func (o *Orchestrator) completionClient(ctx context.Context, state *RunState, cfg Config, logger *slog.Logger) (llm.Client, func()) {
	noop := func() {}
	if o.clients == nil {
		state.AddNotice("No completion service is configured; every section is shown unchanged.")
		return nil, noop
	}

	client, err := o.clients(ctx, cfg.CompletionModel, cfg.CompletionTimeout)
	if err != nil {
		logger.Warn("completion client unavailable", "error", err)
		state.AddNotice("The completion service is unavailable; every section is shown unchanged.")
		return nil, noop
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close completion client", "error", err)
		}
	}
}

// failureMessage turns a fatal extraction error into the message shown to the user.
func failureMessage(err error) string {
	var unsupported *extraction.UnsupportedFormatError
	switch {
	case errors.As(err, &unsupported):
		return unsupported.Error()
	case errors.Is(err, extraction.ErrNoExtractableText):
		return "the document contains no extractable text"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the request was cancelled before the CV could be read"
	default:
		return err.Error()
	}
}

// noKnowledge is the provider used when none is configured.
type noKnowledge struct{}

func (noKnowledge) Fetch(context.Context, knowledge.Topic) string { return "" }
