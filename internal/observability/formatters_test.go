package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

func TestPrintResume(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResume(&types.ResumeDocument{
		RawText: "x",
		Summary: "Backend engineer",
		Skills:  []string{"Go", "SQL"},
		ExperienceEntries: []types.ExperienceEntry{
			{RoleTitle: "Engineer", Organization: "Acme", BulletPoints: []string{"a", "b"}},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED CV")
	assert.Contains(t, output, "Backend engineer")
	assert.Contains(t, output, "Skills:   2")
	assert.Contains(t, output, "Engineer at Acme (2 bullets)")
}

func TestPrintResume_NoStructure(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResume(&types.ResumeDocument{RawText: "plain text only"})
	assert.Contains(t, buf.String(), "No sections recognized (15 characters of text)")
}

func TestPrintJobPosting(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobPosting(&types.JobPosting{
		RoleTitle:        "Senior Engineer",
		RequiredSkills:   []string{"go", "kubernetes", "postgresql", "aws", "terraform", "kafka"},
		NiceToHaveSkills: []string{"rust"},
	})
	output := buf.String()

	assert.Contains(t, output, "PARSED JOB POSTING")
	assert.Contains(t, output, "Senior Engineer")
	assert.Contains(t, output, "• kubernetes")
	assert.Contains(t, output, "... and 1 more")
	assert.Contains(t, output, "• rust")
}

func TestPrintJobPosting_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJobPosting(&types.JobPosting{})
	output := buf.String()
	assert.Contains(t, output, "(not found)")
	assert.Contains(t, output, "No skills recognized")
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(&types.AnalysisReport{
		MatchLevel:        types.LevelMedium,
		ATSReadinessLevel: types.LevelHigh,
		SkillCoverage:     0.5,
		MissingKeywords:   []string{"kubernetes"},
		ImprovementTargets: []types.ImprovementTarget{
			{Text: "Add keyword: kubernetes", Keyword: "kubernetes"},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "Match:    Medium (50% of required skills)")
	assert.Contains(t, output, "ATS:      High")
	assert.Contains(t, output, "• Add keyword: kubernetes")
	assert.NotContains(t, output, "Issues:")
}

func TestPrintRewrites(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRewrites([]types.SectionRewrite{
		{Section: types.SummaryID, Title: "Summary", Rationale: "Adds Go", Attempts: 1},
		{Section: types.ExperienceID(0), Rationale: "No safe improvement", Unchanged: true, Attempts: 2},
	})
	output := buf.String()

	assert.Contains(t, output, "Rewritten 1 of 2 sections")
	assert.Contains(t, output, "✓ Summary (1 attempts)")
	assert.Contains(t, output, "= Experience[0] (2 attempts)")
}

func TestPrinter_NilAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResume(nil)
	p.PrintJobPosting(nil)
	p.PrintAnalysis(nil)
	p.PrintRewrites(nil)
	p.PrintNotices(nil)

	assert.Empty(t, buf.String())
}

func TestPrintNotices(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintNotices([]string{"Job text too short"})
	assert.Contains(t, buf.String(), "⚠ Job text too short")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobPosting(&types.JobPosting{
		RoleTitle: "Senior Staff Principal Distinguished Engineer Level 99 Platform Infrastructure",
	})

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "résumé ...", truncate("résumé text here", 10))
}
