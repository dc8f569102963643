// Package rewriting produces fact-preserving before/after rewrites of résumé sections.
package rewriting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/llm"
	"github.com/vadym-shevikov/cv-tailor/internal/prompts"
	"github.com/vadym-shevikov/cv-tailor/internal/schemas"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// maxAttempts bounds the content attempts per section: the first try plus one correction.
const maxAttempts = 2

const maxRejectedChars = 2000

// Format hints per section kind
const (
	summaryFormat    = "a single paragraph of plain prose."
	skillsFormat     = "a single comma-separated list of skills."
	experienceFormat = "keep the heading line(s) exactly as given, followed by one bullet per line starting with \"- \"."
)

// Config holds the rewrite settings.
type Config struct {
	MaxExperienceRewrites int           // Clamped to 1..MaxExperienceRewrites
	Tier                  llm.ModelTier // Model tier used for every call
}

// DefaultConfig returns the default rewrite settings.
func DefaultConfig() Config {
	return Config{MaxExperienceRewrites: MaxExperienceRewrites, Tier: llm.TierStandard}
}

// Input is what the rewrite stage reads.
type Input struct {
	Resume   *types.ResumeDocument
	Job      *types.JobPosting
	Analysis *types.AnalysisReport
}

// Stage rewrites the Summary, Skills and the most relevant experience entries.
type Stage struct {
	client    llm.Client
	knowledge knowledge.Provider
	cfg       Config
	logger    *slog.Logger
}

// NewStage creates a rewrite stage. A nil client makes every section fall back
// to its original text.
func NewStage(client llm.Client, provider knowledge.Provider, cfg Config, logger *slog.Logger) *Stage {
	if cfg.Tier == "" {
		cfg.Tier = llm.TierStandard
	}
	if cfg.MaxExperienceRewrites == 0 {
		cfg.MaxExperienceRewrites = MaxExperienceRewrites
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{client: client, knowledge: provider, cfg: cfg, logger: logger}
}

// section is one unit of rewrite work.
type section struct {
	id     types.SectionID
	title  string
	before string
	format string
}

// sectionResponse is the JSON object the completion service returns.
type sectionResponse struct {
	After            string   `json:"after"`
	Rationale        string   `json:"rationale"`
	AddressedTargets []string `json:"addressed_targets"`
}

// Run rewrites every eligible section. It never fails: a section that cannot be
// improved safely is returned unchanged with an explanatory rationale.
func (s *Stage) Run(ctx context.Context, in Input) []types.SectionRewrite {
	sections := s.plan(in)
	if len(sections) == 0 {
		return nil
	}

	checker := NewFactChecker(in.Resume)
	examples := s.styleExamples(ctx)

	rewrites := make([]types.SectionRewrite, 0, len(sections))
	for _, sec := range sections {
		rw := s.rewriteSection(ctx, sec, in, checker, examples)
		s.logger.Info("section rewritten",
			"section", rw.Section.String(),
			"attempts", rw.Attempts,
			"unchanged", rw.Unchanged)
		rewrites = append(rewrites, rw)
	}
	return rewrites
}

// plan lists the sections to rewrite in output order. Absent sections are skipped.
func (s *Stage) plan(in Input) []section {
	var sections []section
	if summary := strings.TrimSpace(in.Resume.Summary); summary != "" {
		sections = append(sections, section{id: types.SummaryID, title: "Summary", before: summary, format: summaryFormat})
	}
	if len(in.Resume.Skills) > 0 {
		sections = append(sections, section{id: types.SkillsID, title: "Skills", before: in.Resume.SkillsText(), format: skillsFormat})
	}
	job := in.Job
	if job == nil {
		job = &types.JobPosting{}
	}
	for _, idx := range SelectExperience(in.Resume, job, s.cfg.MaxExperienceRewrites) {
		entry := in.Resume.ExperienceEntries[idx]
		sections = append(sections, section{
			id:     types.ExperienceID(idx),
			title:  entry.Label(),
			before: entry.Text(),
			format: experienceFormat,
		})
	}
	return sections
}

func (s *Stage) rewriteSection(ctx context.Context, sec section, in Input, checker *FactChecker, examples string) types.SectionRewrite {
	var targets []types.ImprovementTarget
	if in.Analysis != nil {
		targets = in.Analysis.TargetsFor(sec.id.Kind)
	}
	rw := types.SectionRewrite{Section: sec.id, Title: sec.title, Before: sec.before}

	if s.client == nil {
		return fallback(rw, targets, "no completion service configured")
	}

	styleBlock := ""
	if sec.id.Kind == types.SectionExperience {
		styleBlock = examples
	}
	prompt, err := prompts.Render(prompts.RewritingFile, prompts.KeySectionRewrite, map[string]string{
		"SectionTitle":  sec.title,
		"JobRole":       roleOrDefault(in.Job),
		"Before":        sec.before,
		"Targets":       formatTargets(targets),
		"StyleExamples": styleBlock,
		"FormatHint":    sec.format,
	})
	if err != nil {
		s.logger.Error("failed to build rewrite prompt", "section", sec.id.String(), "error", err)
		return fallback(rw, targets, "prompt unavailable")
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		rw.Attempts = attempt

		resp, raw, err := s.generate(ctx, prompt)
		if err == nil {
			if violations := checker.Check(sec.before, resp.After); len(violations) > 0 {
				err = &ViolationError{Tokens: violations}
			}
		}
		if err != nil {
			lastErr = err
			s.logger.Warn("rewrite attempt rejected", "section", sec.id.String(), "attempt", attempt, "error", err)
			if next, ok := s.retryPrompt(sec.before, resp.After, raw, err); ok {
				prompt = next
			}
			continue
		}

		rationale := resp.Rationale
		addressed := referencedTargets(rationale, targets)
		if len(addressed) == 0 {
			rationale, addressed = s.fixRationale(ctx, resp.After, targets)
			if len(addressed) == 0 {
				return fallback(rw, targets, "the rationale did not name an improvement target")
			}
		}

		rw.After = resp.After
		rw.Rationale = rationale
		rw.AddressedTargets = addressed
		return rw
	}

	return fallback(rw, targets, describeFailure(lastErr))
}

// generate asks for a rewrite and decodes the schema-checked response. raw is
// the completion text, returned even when decoding fails.
func (s *Stage) generate(ctx context.Context, prompt string) (sectionResponse, string, error) {
	var resp sectionResponse

	raw, err := s.client.GenerateJSON(ctx, prompt, s.cfg.Tier)
	if err != nil {
		return resp, "", err
	}
	if err := schemas.Validate(schemas.SectionRewriteResponse, []byte(raw)); err != nil {
		return resp, raw, &ResponseError{Message: "completion response does not match the rewrite schema", Cause: err}
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return resp, raw, &ResponseError{Message: "failed to decode rewrite response", Cause: err}
	}
	resp.After = strings.TrimSpace(resp.After)
	resp.Rationale = strings.TrimSpace(resp.Rationale)
	return resp, raw, nil
}

// retryPrompt builds the correction prompt for a rejected attempt. Completion
// failures retry the same prompt.
func (s *Stage) retryPrompt(before, after, raw string, err error) (string, bool) {
	var violation *ViolationError
	var response *ResponseError

	var violations, rejected string
	switch {
	case errors.As(err, &violation):
		violations = strings.Join(violation.Tokens, ", ")
		rejected = after
	case errors.As(err, &response):
		violations = "the response was not the requested JSON object"
		rejected = truncate(raw, maxRejectedChars)
	default:
		return "", false
	}

	prompt, renderErr := prompts.Render(prompts.RewritingFile, prompts.KeyCorrection, map[string]string{
		"Violations": violations,
		"Before":     before,
		"Rejected":   rejected,
	})
	if renderErr != nil {
		s.logger.Error("failed to build correction prompt", "error", renderErr)
		return "", false
	}
	return prompt, true
}

// fixRationale asks once for a rationale that names a target, keeping after as is.
func (s *Stage) fixRationale(ctx context.Context, after string, targets []types.ImprovementTarget) (string, []string) {
	if len(targets) == 0 {
		return "", nil
	}
	prompt, err := prompts.Render(prompts.RewritingFile, prompts.KeyRationaleCorrection, map[string]string{
		"Targets": formatTargets(targets),
		"After":   after,
	})
	if err != nil {
		s.logger.Error("failed to build rationale prompt", "error", err)
		return "", nil
	}

	resp, _, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("rationale regeneration failed", "error", err)
		return "", nil
	}
	return resp.Rationale, referencedTargets(resp.Rationale, targets)
}

// styleExamples renders the bullet examples topic, or "" when none is available.
func (s *Stage) styleExamples(ctx context.Context) string {
	if s.knowledge == nil {
		return ""
	}
	text := strings.TrimSpace(s.knowledge.Fetch(ctx, knowledge.TopicBulletExamples))
	if text == "" {
		return ""
	}
	block, err := prompts.Render(prompts.RewritingFile, prompts.KeyStyleExamples, map[string]string{"Examples": text})
	if err != nil {
		s.logger.Warn("failed to render style examples", "error", err)
		return ""
	}
	return block
}

// fallback keeps the original text of a section.
func fallback(rw types.SectionRewrite, targets []types.ImprovementTarget, reason string) types.SectionRewrite {
	rw.After = rw.Before
	rw.Unchanged = true
	rw.Rationale = fallbackRationale(targets, reason)
	rw.AddressedTargets = nil
	return rw
}

func describeFailure(err error) string {
	var violation *ViolationError
	var completion *llm.CompletionError
	switch {
	case err == nil:
		return "no acceptable rewrite"
	case errors.As(err, &completion):
		if completion.Timeout() {
			return "the completion service timed out"
		}
		return "the completion service failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the run was cancelled"
	case errors.As(err, &violation):
		return fmt.Sprintf("every attempt added unsupported content: %s", strings.Join(violation.Tokens, ", "))
	default:
		return "the completion service returned an unusable response"
	}
}

func roleOrDefault(job *types.JobPosting) string {
	if job == nil || strings.TrimSpace(job.RoleTitle) == "" {
		return "(not stated)"
	}
	return job.RoleTitle
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
