// Package types provides type definitions for the structured data passed between pipeline stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// Level is a coarse three-step rating.
type Level string

// Level values
const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// ImprovementTarget is one focus point handed to rewriting.
// It references either a missing keyword or a section name.
type ImprovementTarget struct {
	Text    string      `json:"text" validate:"required"`
	Section SectionKind `json:"section,omitempty"`
	Keyword string      `json:"keyword,omitempty"`
}

// Reference returns the keyword or section name the target points at.
func (t ImprovementTarget) Reference() string {
	if t.Keyword != "" {
		return t.Keyword
	}
	return string(t.Section)
}

// AppliesTo reports whether the target is relevant to a section of the given kind.
// Keyword targets apply to every section.
func (t ImprovementTarget) AppliesTo(kind SectionKind) bool {
	return t.Keyword != "" || t.Section == "" || t.Section == kind
}

// AnalysisReport is the result of comparing a résumé against a job posting.
type AnalysisReport struct {
	MatchLevel         Level               `json:"match_level" validate:"required,oneof=Low Medium High"`
	ATSReadinessLevel  Level               `json:"ats_readiness_level" validate:"required,oneof=Low Medium High"`
	SkillCoverage      float64             `json:"skill_coverage"`
	MatchedKeywords    []string            `json:"matched_keywords"`
	MissingKeywords    []string            `json:"missing_keywords"`
	Strengths          []string            `json:"strengths"`
	Issues             []string            `json:"issues"`
	ImprovementTargets []ImprovementTarget `json:"improvement_targets" validate:"dive"`
	Minimal            bool                `json:"minimal,omitempty"` // Job text too sparse for skill comparison
}

// Validate validates the AnalysisReport using the validator.
func (a *AnalysisReport) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}

// TargetsFor returns the improvement targets relevant to a section kind, preserving order.
func (a *AnalysisReport) TargetsFor(kind SectionKind) []ImprovementTarget {
	var targets []ImprovementTarget
	for _, t := range a.ImprovementTargets {
		if t.AppliesTo(kind) {
			targets = append(targets, t)
		}
	}
	return targets
}

// TargetTexts returns the human-readable text of every improvement target.
func (a *AnalysisReport) TargetTexts() []string {
	texts := make([]string, 0, len(a.ImprovementTargets))
	for _, t := range a.ImprovementTargets {
		texts = append(texts, t.Text)
	}
	return texts
}
