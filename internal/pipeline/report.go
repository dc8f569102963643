package pipeline

import (
	"fmt"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

const (
	reportTitle  = "## CV Optimization Assistant"
	reportFooter = "_Generated by the CV Optimization Assistant._"
)

// Report is the single artifact of a run.
type Report struct {
	RunID        string                 `json:"run_id"`
	Status       Status                 `json:"status"`
	StatusDetail string                 `json:"status_detail,omitempty"`
	Notices      []string               `json:"notices,omitempty"`
	Analysis     *types.AnalysisReport  `json:"analysis"`
	Rewrites     []types.SectionRewrite `json:"rewrites"`
	Markdown     string                 `json:"markdown"`
}

// NewReport assembles the report of a terminal run.
func NewReport(state *RunState) *Report {
	report := &Report{
		RunID:        state.RunID.String(),
		Status:       state.Status,
		StatusDetail: state.StatusDetail,
		Notices:      state.Notices,
	}
	if state.Status == StatusFailed {
		report.Markdown = RenderFailure(state.StatusDetail)
		return report
	}
	report.Analysis = state.Analysis
	report.Rewrites = state.Rewrites
	report.Markdown = RenderMarkdown(state.Analysis, state.Rewrites, state.Notices)
	return report
}

// RenderFailure renders the one-line report of a failed run.
func RenderFailure(message string) string {
	if message == "" {
		message = "unknown error"
	}
	return fmt.Sprintf("Unable to analyze the CV: %s\n", message)
}

// RenderMarkdown renders the match summary followed by one block per rewrite,
// in the order given.
//
//nolint:errcheck // writes to a strings.Builder cannot fail
func RenderMarkdown(a *types.AnalysisReport, rewrites []types.SectionRewrite, notices []string) string {
	var sb strings.Builder
	sb.WriteString(reportTitle + "\n\n")

	for _, n := range notices {
		fmt.Fprintf(&sb, "> **Reduced confidence:** %s\n", n)
	}
	if len(notices) > 0 {
		sb.WriteString("\n")
	}

	if a != nil {
		writeAnalysis(&sb, a)
	}

	role := 0
	experienceHeader := false
	for _, rw := range rewrites {
		switch rw.Section.Kind {
		case types.SectionExperience:
			if !experienceHeader {
				sb.WriteString("### Experience\n\n")
				experienceHeader = true
			}
			role++
			fmt.Fprintf(&sb, "#### Role %d: %s\n\n", role, rw.Title)
		default:
			fmt.Fprintf(&sb, "### %s\n\n", rw.Section.Kind)
		}
		writeRewrite(&sb, rw)
	}

	sb.WriteString(reportFooter + "\n")
	return sb.String()
}

//nolint:errcheck // writes to a strings.Builder cannot fail
func writeAnalysis(sb *strings.Builder, a *types.AnalysisReport) {
	sb.WriteString("### Overall Match & ATS Readiness\n\n")
	fmt.Fprintf(sb, "- Match level: %s\n", a.MatchLevel)
	fmt.Fprintf(sb, "- ATS readiness: %s\n", a.ATSReadinessLevel)
	fmt.Fprintf(sb, "- Missing keywords: %s\n", joinOrNone(a.MissingKeywords))
	writeNested(sb, "Strengths", a.Strengths)
	writeNested(sb, "Issues", a.Issues)
	sb.WriteString("\n")

	if len(a.ImprovementTargets) > 0 {
		sb.WriteString("**Improvement opportunities**\n\n")
		for _, t := range a.ImprovementTargets {
			fmt.Fprintf(sb, "- %s\n", t.Text)
		}
		sb.WriteString("\n")
	}
}

//nolint:errcheck // writes to a strings.Builder cannot fail
func writeNested(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(sb, "- %s: none\n", label)
		return
	}
	fmt.Fprintf(sb, "- %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", item)
	}
}

//nolint:errcheck // writes to a strings.Builder cannot fail
func writeRewrite(sb *strings.Builder, rw types.SectionRewrite) {
	fmt.Fprintf(sb, "**Before**\n\n%s\n\n", strings.TrimSpace(rw.Before))
	fmt.Fprintf(sb, "**After**\n\n%s\n\n", strings.TrimSpace(rw.After))
	fmt.Fprintf(sb, "_Why:_ %s\n\n", strings.TrimSpace(rw.Rationale))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
