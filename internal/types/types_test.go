package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeDocument_Validate(t *testing.T) {
	doc := &ResumeDocument{RawText: "Jane Doe\nEngineer"}
	assert.NoError(t, doc.Validate())

	empty := &ResumeDocument{Summary: "Engineer"}
	assert.Error(t, empty.Validate())
}

func TestResumeDocument_HasStructure(t *testing.T) {
	assert.False(t, (&ResumeDocument{RawText: "x"}).HasStructure())
	assert.True(t, (&ResumeDocument{RawText: "x", Skills: []string{"Go"}}).HasStructure())
	assert.True(t, (&ResumeDocument{RawText: "x", Summary: "s"}).HasStructure())
}

func TestResumeDocument_BulletText(t *testing.T) {
	doc := &ResumeDocument{
		RawText: "x",
		ExperienceEntries: []ExperienceEntry{
			{BulletPoints: []string{"a", "b"}},
			{BulletPoints: []string{"c"}},
		},
	}
	assert.Equal(t, []string{"a", "b", "c"}, doc.BulletText())
}

func TestExperienceEntry_Text(t *testing.T) {
	tests := []struct {
		name     string
		entry    ExperienceEntry
		expected string
	}{
		{
			name:     "heading and bullets",
			entry:    ExperienceEntry{Heading: "Engineer, Acme | 2020 - 2023", BulletPoints: []string{"Built APIs", "Cut costs 20%"}},
			expected: "Engineer, Acme | 2020 - 2023\n- Built APIs\n- Cut costs 20%",
		},
		{
			name:     "synthesized heading",
			entry:    ExperienceEntry{RoleTitle: "Engineer", Organization: "Acme", BulletPoints: []string{"Built APIs"}},
			expected: "Engineer | Acme\n- Built APIs",
		},
		{
			name:     "bullets only",
			entry:    ExperienceEntry{BulletPoints: []string{"Built APIs"}},
			expected: "- Built APIs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.Text())
		})
	}
}

func TestExperienceEntry_Label(t *testing.T) {
	assert.Equal(t, "Engineer at Acme", ExperienceEntry{RoleTitle: "Engineer", Organization: "Acme"}.Label())
	assert.Equal(t, "Acme 2020", ExperienceEntry{Heading: "Acme 2020\nsecond"}.Label())
	assert.Equal(t, "Untitled role", ExperienceEntry{}.Label())
}

func TestAnalysisReport_Validate(t *testing.T) {
	report := &AnalysisReport{
		MatchLevel:        LevelHigh,
		ATSReadinessLevel: LevelLow,
		ImprovementTargets: []ImprovementTarget{
			{Text: "Add keyword: Go", Keyword: "go"},
		},
	}
	assert.NoError(t, report.Validate())

	report.MatchLevel = "Unknown"
	assert.Error(t, report.Validate())

	report.MatchLevel = LevelLow
	report.ImprovementTargets = append(report.ImprovementTargets, ImprovementTarget{})
	assert.Error(t, report.Validate())
}

func TestAnalysisReport_TargetsFor(t *testing.T) {
	report := &AnalysisReport{
		ImprovementTargets: []ImprovementTarget{
			{Text: "keyword", Keyword: "kubernetes"},
			{Text: "skills", Section: SectionSkills},
			{Text: "experience", Section: SectionExperience},
		},
	}

	skills := report.TargetsFor(SectionSkills)
	require.Len(t, skills, 2)
	assert.Equal(t, "keyword", skills[0].Text)
	assert.Equal(t, "skills", skills[1].Text)

	summary := report.TargetsFor(SectionSummary)
	require.Len(t, summary, 1)
	assert.Equal(t, "kubernetes", summary[0].Reference())

	assert.Equal(t, []string{"keyword", "skills", "experience"}, report.TargetTexts())
}

func TestSectionID_TextRoundTrip(t *testing.T) {
	for _, id := range []SectionID{SummaryID, SkillsID, ExperienceID(2)} {
		t.Run(id.String(), func(t *testing.T) {
			text, err := id.MarshalText()
			require.NoError(t, err)

			var decoded SectionID
			require.NoError(t, decoded.UnmarshalText(text))
			assert.Equal(t, id, decoded)
		})
	}

	var bad SectionID
	assert.Error(t, bad.UnmarshalText([]byte("Education")))
}

func TestSectionRewrite_JSON(t *testing.T) {
	rw := SectionRewrite{
		Section:   ExperienceID(1),
		Before:    "old",
		After:     "new",
		Rationale: "Addresses Go",
	}
	data, err := json.Marshal(rw)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"section_id":"Experience[1]"`)
	assert.NoError(t, rw.Validate())

	rw.Rationale = ""
	assert.Error(t, rw.Validate())
}
