package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCV = `Jane Doe
jane@example.com

Summary
Backend engineer with 8 years building distributed systems in Go.

Skills
Languages: Go, Python
Infrastructure: Kubernetes, Docker, AWS

Experience
Senior Software Engineer | Acme Corp | Jan 2020 - Present
- Built a payment service in Go handling 2M requests per day
- Reduced p99 latency by 40%
Software Engineer | Beta Inc | 2016 - 2019
- Maintained Python ETL pipelines

Education
BSc Computer Science`

func TestSegmentResume_CleanInput(t *testing.T) {
	doc, notices := SegmentResume(sampleCV)

	assert.Empty(t, notices)
	assert.Equal(t, sampleCV, doc.RawText)
	assert.Equal(t, "Backend engineer with 8 years building distributed systems in Go.", doc.Summary)
	assert.Equal(t, []string{"Go", "Python", "Kubernetes", "Docker", "AWS"}, doc.Skills)

	require.Len(t, doc.ExperienceEntries, 2)
	first := doc.ExperienceEntries[0]
	assert.Equal(t, "Senior Software Engineer", first.RoleTitle)
	assert.Equal(t, "Acme Corp", first.Organization)
	assert.Equal(t, "Jan 2020 - Present", first.DateRange)
	assert.Equal(t, []string{
		"Built a payment service in Go handling 2M requests per day",
		"Reduced p99 latency by 40%",
	}, first.BulletPoints)

	second := doc.ExperienceEntries[1]
	assert.Equal(t, "Software Engineer", second.RoleTitle)
	assert.Equal(t, "Beta Inc", second.Organization)
	assert.Equal(t, "2016 - 2019", second.DateRange)
	assert.Equal(t, []string{"Maintained Python ETL pipelines"}, second.BulletPoints)
}

func TestSegmentResume_NoStructure(t *testing.T) {
	text := "I am a developer who likes building things with computers and coffee."
	doc, notices := SegmentResume(text)

	assert.Equal(t, text, doc.RawText)
	assert.False(t, doc.HasStructure())
	assert.Equal(t, []string{
		"Could not locate a Summary section in the CV.",
		"Could not locate a Skills section in the CV.",
		"Could not locate a Experience section in the CV.",
	}, notices)
}

func TestSegmentResume_PartialSections(t *testing.T) {
	text := "Profile\nPlatform engineer.\n\nTechnical Skills\n\nWork History\nWrote some code for a while"
	doc, notices := SegmentResume(text)

	assert.Equal(t, "Platform engineer.", doc.Summary)
	assert.Empty(t, doc.Skills)
	assert.Empty(t, doc.ExperienceEntries)
	assert.Equal(t, []string{
		"The Skills section of the CV is empty.",
		"Could not split the Experience section into individual roles.",
	}, notices)
}

func TestSegmentResume_InlineHeadings(t *testing.T) {
	text := "Summary: Data engineer focused on pipelines.\nSkills: SQL; Airflow | dbt\nExperience\nData Engineer at Gamma, 2019 - 2022\n- Built Airflow DAGs"
	doc, notices := SegmentResume(text)

	assert.Empty(t, notices)
	assert.Equal(t, "Data engineer focused on pipelines.", doc.Summary)
	assert.Equal(t, []string{"SQL", "Airflow", "dbt"}, doc.Skills)
	require.Len(t, doc.ExperienceEntries, 1)
	assert.Equal(t, "Data Engineer", doc.ExperienceEntries[0].RoleTitle)
	assert.Equal(t, "Gamma", doc.ExperienceEntries[0].Organization)
}

func TestParseSkillsRegion(t *testing.T) {
	lines := []string{
		"• Go, Python, go",
		"Cloud: AWS; GCP",
		"I have worked with many different tools over the course of my career",
		"",
	}
	assert.Equal(t, []string{"Go", "Python", "AWS", "GCP"}, parseSkillsRegion(lines))
}
