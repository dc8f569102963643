package rewriting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

var testTargets = []types.ImprovementTarget{
	{Text: "Surface kubernetes where the CV already shows it", Keyword: "kubernetes"},
	{Text: "Lead the Summary with the skills the role asks for", Section: types.SectionSummary},
	{Text: "Group skills by relevance", Section: types.SectionSkills},
}

func TestReferencedTargets(t *testing.T) {
	tests := []struct {
		name      string
		rationale string
		expected  []string
	}{
		{
			name:      "keyword",
			rationale: "Moves kubernetes to the front.",
			expected:  []string{"Surface kubernetes where the CV already shows it"},
		},
		{
			name:      "section name with a target term",
			rationale: "Leads the summary with the skills the role needs.",
			expected:  []string{"Lead the Summary with the skills the role asks for"},
		},
		{
			name:      "bare section name",
			rationale: "Tightened the summary wording.",
		},
		{
			name:      "section term without the section name",
			rationale: "Better relevance overall.",
		},
		{
			name:      "full target text",
			rationale: "Done: group skills by relevance.",
			expected:  []string{"Group skills by relevance"},
		},
		{
			name:      "no target",
			rationale: "Improved wording.",
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, referencedTargets(tt.rationale, testTargets))
		})
	}
}

func TestFormatTargets(t *testing.T) {
	assert.Equal(t, "- (none)", formatTargets(nil))
	assert.Equal(t,
		"- [keyword: kubernetes] Surface kubernetes where the CV already shows it\n- [section: Summary] Lead the Summary with the skills the role asks for",
		formatTargets(testTargets[:2]))
}

func TestFallbackRationale(t *testing.T) {
	assert.Equal(t,
		"No safe improvement found for kubernetes, Summary, Skills; the original text is kept (timeout).",
		fallbackRationale(testTargets, "timeout"))
	assert.Equal(t,
		"No safe improvement found; the original text is kept (timeout).",
		fallbackRationale(nil, "timeout"))
}
