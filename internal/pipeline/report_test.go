package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

func TestRenderMarkdown(t *testing.T) {
	analysis := &types.AnalysisReport{
		MatchLevel:        types.LevelMedium,
		ATSReadinessLevel: types.LevelHigh,
		MissingKeywords:   []string{"kubernetes"},
		Strengths:         []string{"Covers 1 of 2 required skills: go."},
		ImprovementTargets: []types.ImprovementTarget{
			{Text: "Surface kubernetes where the CV already shows it", Keyword: "kubernetes"},
		},
	}
	rewrites := []types.SectionRewrite{
		{Section: types.SummaryID, Title: "Summary", Before: "Engineer.", After: "Go engineer.", Rationale: "Leads the Summary with Go."},
		{Section: types.ExperienceID(2), Title: "Engineer at Acme", Before: "- Built APIs", After: "- Built Go APIs", Rationale: "Experience: names Go."},
		{Section: types.ExperienceID(0), Title: "Intern at Beta", Before: "- Wrote tests", After: "- Wrote tests", Rationale: "No safe improvement found.", Unchanged: true},
	}

	expected := `## CV Optimization Assistant

> **Reduced confidence:** The job description is short.

### Overall Match & ATS Readiness

- Match level: Medium
- ATS readiness: High
- Missing keywords: kubernetes
- Strengths:
  - Covers 1 of 2 required skills: go.
- Issues: none

**Improvement opportunities**

- Surface kubernetes where the CV already shows it

### Summary

**Before**

Engineer.

**After**

Go engineer.

_Why:_ Leads the Summary with Go.

### Experience

#### Role 1: Engineer at Acme

**Before**

- Built APIs

**After**

- Built Go APIs

_Why:_ Experience: names Go.

#### Role 2: Intern at Beta

**Before**

- Wrote tests

**After**

- Wrote tests

_Why:_ No safe improvement found.

_Generated by the CV Optimization Assistant._
`
	assert.Equal(t, expected, RenderMarkdown(analysis, rewrites, []string{"The job description is short."}))
}

func TestRenderMarkdown_NoNotices(t *testing.T) {
	md := RenderMarkdown(&types.AnalysisReport{MatchLevel: types.LevelLow, ATSReadinessLevel: types.LevelLow}, nil, nil)
	assert.NotContains(t, md, "Reduced confidence")
	assert.Contains(t, md, "- Missing keywords: none\n")
	assert.NotContains(t, md, "Improvement opportunities")
}

func TestRenderFailure(t *testing.T) {
	assert.Equal(t, "Unable to analyze the CV: no text\n", RenderFailure("no text"))
	assert.Equal(t, "Unable to analyze the CV: unknown error\n", RenderFailure(""))
}
