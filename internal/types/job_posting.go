// Package types provides type definitions for the structured data passed between pipeline stages.
//
//nolint:revive // types is a standard Go package name pattern
package types

// JobPosting is the structured job description produced by extraction.
// RequiredSkills and NiceToHaveSkills hold normalized, de-duplicated skill names
// in first-seen order.
type JobPosting struct {
	RoleTitle        string   `json:"role_title,omitempty"`
	Responsibilities []string `json:"responsibilities"`
	RequiredSkills   []string `json:"required_skills"`
	NiceToHaveSkills []string `json:"nice_to_have_skills"`
	RawText          string   `json:"raw_text"`
}
