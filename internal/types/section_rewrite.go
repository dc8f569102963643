// Package types provides type definitions for the structured data passed between pipeline stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// SectionKind names a rewritable résumé section.
type SectionKind string

// Section kinds
const (
	SectionSummary    SectionKind = "Summary"
	SectionSkills     SectionKind = "Skills"
	SectionExperience SectionKind = "Experience"
)

// SectionID identifies a rewritten section. Index is the position of the entry in
// ResumeDocument.ExperienceEntries and is only meaningful for Experience.
type SectionID struct {
	Kind  SectionKind
	Index int
}

// SummaryID is the id of the summary section.
var SummaryID = SectionID{Kind: SectionSummary}

// SkillsID is the id of the skills section.
var SkillsID = SectionID{Kind: SectionSkills}

// ExperienceID returns the id of the experience entry at index i.
func ExperienceID(i int) SectionID {
	return SectionID{Kind: SectionExperience, Index: i}
}

func (s SectionID) String() string {
	if s.Kind == SectionExperience {
		return fmt.Sprintf("Experience[%d]", s.Index)
	}
	return string(s.Kind)
}

var experienceIDPattern = regexp.MustCompile(`^Experience\[(\d+)\]$`)

// MarshalText encodes the id as "Summary", "Skills" or "Experience[i]".
func (s SectionID) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes the textual form produced by MarshalText.
func (s *SectionID) UnmarshalText(text []byte) error {
	str := string(text)
	switch SectionKind(str) {
	case SectionSummary, SectionSkills:
		*s = SectionID{Kind: SectionKind(str)}
		return nil
	}
	m := experienceIDPattern.FindStringSubmatch(str)
	if m == nil {
		return fmt.Errorf("invalid section id %q", str)
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return fmt.Errorf("invalid section index in %q: %w", str, err)
	}
	*s = ExperienceID(idx)
	return nil
}

// SectionRewrite is the before/after pair for one section plus the reason for the change.
// After must only contain facts reachable from Before or the source résumé.
type SectionRewrite struct {
	Section          SectionID `json:"section_id"`
	Title            string    `json:"title"`
	Before           string    `json:"before" validate:"required"`
	After            string    `json:"after" validate:"required"`
	Rationale        string    `json:"rationale" validate:"required"`
	AddressedTargets []string  `json:"addressed_targets,omitempty"`
	Unchanged        bool      `json:"unchanged,omitempty"` // Fallback: After equals Before
	Attempts         int       `json:"attempts"`
}

// Validate validates the SectionRewrite using the validator.
func (r *SectionRewrite) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
