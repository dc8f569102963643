package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExperience(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected []struct{ role, org, dates string }
		bullets  [][]string
	}{
		{
			name: "wrapped bullet continues",
			lines: []string{
				"Engineer, Acme, 2019 - 2021",
				"- Built an internal platform used by",
				"40 teams across the company",
				"- Led migration to Kubernetes.",
			},
			expected: []struct{ role, org, dates string }{{"Engineer", "Acme", "2019 - 2021"}},
			bullets: [][]string{{
				"Built an internal platform used by 40 teams across the company",
				"Led migration to Kubernetes.",
			}},
		},
		{
			name: "organization before role with date on its own line",
			lines: []string{
				"Acme Corp — Staff Engineer",
				"Mar 2018 – Dec 2020",
				"• Owned the billing platform",
			},
			expected: []struct{ role, org, dates string }{{"Staff Engineer", "Acme Corp", "Mar 2018 – Dec 2020"}},
			bullets:  [][]string{{"Owned the billing platform"}},
		},
		{
			name: "consecutive date headers start new roles",
			lines: []string{
				"Engineer | Alpha | 2020 - 2021",
				"Developer | Beta | 2018 - 2020",
				"- Shipped features",
			},
			expected: []struct{ role, org, dates string }{
				{"Engineer", "Alpha", "2020 - 2021"},
				{"Developer", "Beta", "2018 - 2020"},
			},
			bullets: [][]string{nil, {"Shipped features"}},
		},
		{
			name:  "prose without bullets or dates is dropped",
			lines: []string{"Worked on various things for several companies"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := SplitExperience(tt.lines)
			require.Len(t, entries, len(tt.expected))
			for i, want := range tt.expected {
				assert.Equal(t, want.role, entries[i].RoleTitle)
				assert.Equal(t, want.org, entries[i].Organization)
				assert.Equal(t, want.dates, entries[i].DateRange)
				assert.Equal(t, tt.bullets[i], entries[i].BulletPoints)
			}
		})
	}
}

func TestSplitExperience_KeepsHeading(t *testing.T) {
	entries := SplitExperience([]string{"Freelance | 2015 - 2016", "- Built websites"})
	require.Len(t, entries, 1)
	assert.Equal(t, "Freelance | 2015 - 2016", entries[0].Heading)
	assert.Equal(t, "2015 - 2016", entries[0].DateRange)
	assert.Empty(t, entries[0].RoleTitle)
}

func TestHasRoleKeyword(t *testing.T) {
	assert.True(t, hasRoleKeyword("Senior Software Engineer"))
	assert.True(t, hasRoleKeyword("Tech Lead"))
	assert.False(t, hasRoleKeyword("Acme Corp"))
	assert.False(t, hasRoleKeyword("Engineering Inc"))
}
