// Package types provides type definitions for the structured data passed between pipeline stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ResumeDocument is the structured résumé produced by extraction.
// RawText is always populated; the structured fields are empty when segmentation
// could not locate them.
type ResumeDocument struct {
	Summary           string            `json:"summary,omitempty"`
	Skills            []string          `json:"skills"`
	ExperienceEntries []ExperienceEntry `json:"experience_entries"`
	RawText           string            `json:"raw_text" validate:"required"`
}

// ExperienceEntry is a single role inside the Experience section.
// Entries must not be modified after extraction.
type ExperienceEntry struct {
	Heading      string   `json:"heading,omitempty"` // Original heading line(s) as they appeared
	Organization string   `json:"organization,omitempty"`
	RoleTitle    string   `json:"role_title,omitempty"`
	DateRange    string   `json:"date_range,omitempty"`
	BulletPoints []string `json:"bullet_points"`
}

// Validate validates the ResumeDocument using the validator.
func (r *ResumeDocument) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// HasStructure reports whether any structured field was populated.
func (r *ResumeDocument) HasStructure() bool {
	return r.Summary != "" || len(r.Skills) > 0 || len(r.ExperienceEntries) > 0
}

// BulletText returns every experience bullet in document order.
func (r *ResumeDocument) BulletText() []string {
	var bullets []string
	for _, entry := range r.ExperienceEntries {
		bullets = append(bullets, entry.BulletPoints...)
	}
	return bullets
}

// SkillsText renders the skills list the way it is shown in reports.
func (r *ResumeDocument) SkillsText() string {
	return strings.Join(r.Skills, ", ")
}

// Text renders the entry as heading lines followed by "- " bullets.
func (e ExperienceEntry) Text() string {
	var sb strings.Builder
	heading := e.Heading
	if heading == "" {
		heading = joinNonEmpty(" | ", e.RoleTitle, e.Organization, e.DateRange)
	}
	if heading != "" {
		sb.WriteString(heading)
	}
	for _, bullet := range e.BulletPoints {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(bullet)
	}
	return sb.String()
}

// Label returns a short human-readable name for the entry.
func (e ExperienceEntry) Label() string {
	if label := joinNonEmpty(" at ", e.RoleTitle, e.Organization); label != "" {
		return label
	}
	if e.Heading != "" {
		return strings.SplitN(e.Heading, "\n", 2)[0]
	}
	return "Untitled role"
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
