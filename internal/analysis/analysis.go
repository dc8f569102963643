// Package analysis compares a structured résumé against a job posting and rates
// skill match and ATS readiness.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vadym-shevikov/cv-tailor/internal/extraction"
	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// Thresholds maps a ratio in [0, 1] to a Level: ratio >= High is High,
// ratio < Low is Low, anything else is Medium.
type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Level rates ratio against the thresholds.
func (t Thresholds) Level(ratio float64) types.Level {
	switch {
	case ratio >= t.High:
		return types.LevelHigh
	case ratio < t.Low:
		return types.LevelLow
	default:
		return types.LevelMedium
	}
}

// Validate checks 0 <= Low <= High <= 1.
func (t Thresholds) Validate() error {
	if t.Low < 0 || t.High > 1 || t.Low > t.High {
		return fmt.Errorf("thresholds must satisfy 0 <= low <= high <= 1, got low=%v high=%v", t.Low, t.High)
	}
	return nil
}

// Config holds the analysis settings.
type Config struct {
	MatchThresholds       Thresholds
	ReadinessThresholds   Thresholds
	MaxImprovementTargets int
}

// DefaultConfig returns the default analysis settings.
func DefaultConfig() Config {
	return Config{
		MatchThresholds:       Thresholds{Low: 0.4, High: 0.75},
		ReadinessThresholds:   Thresholds{Low: 0.5, High: 0.99},
		MaxImprovementTargets: 6,
	}
}

// Input is everything the stage reads.
type Input struct {
	Resume *types.ResumeDocument
	Job    *types.JobPosting
	// JobTextTooShort requests the minimal report: no skill comparison is attempted.
	JobTextTooShort bool
}

// Stage produces an AnalysisReport. It has no failure mode.
type Stage struct {
	knowledge knowledge.Provider
	cfg       Config
	logger    *slog.Logger
}

// NewStage creates an analysis stage. A nil provider means no advisory guidance.
func NewStage(provider knowledge.Provider, cfg Config, logger *slog.Logger) *Stage {
	if cfg.MaxImprovementTargets <= 0 {
		cfg.MaxImprovementTargets = DefaultConfig().MaxImprovementTargets
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{knowledge: provider, cfg: cfg, logger: logger}
}

// keywordScan is the result of comparing required skills with the résumé.
type keywordScan struct {
	matched     []string
	missing     []string
	niceMatched []string
	coverage    float64
}

// Run analyzes the input. Equal inputs and equal knowledge content always
// produce equal reports.
func (s *Stage) Run(ctx context.Context, in Input) *types.AnalysisReport {
	var atsTips, bestPractices string
	var scan keywordScan

	// The knowledge fetches and the keyword scan are independent.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		atsTips = s.fetch(gctx, knowledge.TopicATSTips)
		return nil
	})
	g.Go(func() error {
		bestPractices = s.fetch(gctx, knowledge.TopicCVBestPractices)
		return nil
	})
	if !in.JobTextTooShort {
		g.Go(func() error {
			scan = scanKeywords(in.Resume, in.Job)
			return nil
		})
	}
	_ = g.Wait()

	guidance := strings.TrimSpace(atsTips + "\n" + bestPractices)
	if guidance == "" {
		s.logger.Info("no knowledge guidance available, using structural checks only")
	}
	checks := runChecklist(in.Resume, guidance)

	if in.JobTextTooShort {
		report := minimalReport(checks, s.cfg.MaxImprovementTargets)
		s.logger.Info("analysis complete", "minimal", true, "targets", len(report.ImprovementTargets))
		return report
	}

	report := &types.AnalysisReport{
		MatchLevel:        s.cfg.MatchThresholds.Level(scan.coverage),
		ATSReadinessLevel: s.cfg.ReadinessThresholds.Level(checks.passRatio()),
		SkillCoverage:     scan.coverage,
		MatchedKeywords:   scan.matched,
		MissingKeywords:   scan.missing,
		Strengths:         []string{},
		Issues:            []string{},
	}

	if len(in.Job.RequiredSkills) == 0 {
		report.Issues = append(report.Issues, "The job description lists no recognizable skills to compare against.")
	}
	if len(scan.matched) > 0 {
		report.Strengths = append(report.Strengths, fmt.Sprintf("Covers %d of %d required skills: %s.",
			len(scan.matched), len(in.Job.RequiredSkills), strings.Join(scan.matched, ", ")))
	}
	if len(scan.niceMatched) > 0 {
		report.Strengths = append(report.Strengths, fmt.Sprintf("Also shows nice-to-have skills: %s.",
			strings.Join(scan.niceMatched, ", ")))
	}
	report.Strengths = append(report.Strengths, checks.strengths()...)
	report.Issues = append(report.Issues, checks.issues()...)
	report.ImprovementTargets = buildTargets(scan.missing, checks, in.Job, s.cfg.MaxImprovementTargets)

	s.logger.Info("analysis complete",
		"match_level", report.MatchLevel,
		"ats_readiness", report.ATSReadinessLevel,
		"coverage", fmt.Sprintf("%.2f", report.SkillCoverage),
		"missing", len(report.MissingKeywords),
		"targets", len(report.ImprovementTargets),
	)
	return report
}

func (s *Stage) fetch(ctx context.Context, topic knowledge.Topic) string {
	if s.knowledge == nil {
		return ""
	}
	return s.knowledge.Fetch(ctx, topic)
}

// scanKeywords compares normalized required skills with the résumé's skills list
// and its summary and bullet text. A résumé without structure is searched through
// its raw text.
func scanKeywords(resume *types.ResumeDocument, job *types.JobPosting) keywordScan {
	owned := make(map[string]bool, len(resume.Skills))
	for _, s := range extraction.NormalizeSkills(resume.Skills) {
		owned[s] = true
	}

	text := resume.RawText
	if resume.HasStructure() {
		text = resume.Summary + "\n" + strings.Join(resume.BulletText(), "\n")
	}

	has := func(skill string) bool {
		return owned[skill] || extraction.ContainsSkill(text, skill)
	}

	scan := keywordScan{matched: []string{}, missing: []string{}}
	for _, skill := range job.RequiredSkills {
		if has(skill) {
			scan.matched = append(scan.matched, skill)
		} else {
			scan.missing = append(scan.missing, skill)
		}
	}
	for _, skill := range job.NiceToHaveSkills {
		if has(skill) {
			scan.niceMatched = append(scan.niceMatched, skill)
		}
	}
	if len(job.RequiredSkills) > 0 {
		scan.coverage = float64(len(scan.matched)) / float64(len(job.RequiredSkills))
	}
	return scan
}

func minimalReport(checks checklist, maxTargets int) *types.AnalysisReport {
	report := &types.AnalysisReport{
		MatchLevel:        types.LevelLow,
		ATSReadinessLevel: types.LevelLow,
		MatchedKeywords:   []string{},
		MissingKeywords:   []string{},
		Strengths:         checks.strengths(),
		Issues: append([]string{"The job description is missing or too short to compare skills against."},
			checks.issues()...),
		Minimal: true,
	}
	report.ImprovementTargets = buildTargets(nil, checks, nil, maxTargets)
	return report
}
