package analysis

import (
	"regexp"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/extraction"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// checkItem is one ATS structural check.
type checkItem struct {
	name     string
	passed   bool
	section  types.SectionKind
	strength string
	issue    string
	target   string
	advice   string // Matching line from the knowledge guidance, if any
}

// checklist holds the results of every ATS check in a fixed order.
type checklist []checkItem

// minRawBullets is how many bullet lines an unsegmented résumé needs to count
// as bullet-style.
const minRawBullets = 3

// quantityPattern matches numeric or percentage tokens.
var quantityPattern = regexp.MustCompile(`\d|%`)

// Guidance keywords used to pick advice lines for each check.
var adviceKeywords = map[string][]string{
	"summary_heading":    {"summary"},
	"skills_heading":     {"skills"},
	"experience_heading": {"section headings", "experience"},
	"bullet_entries":     {"bullet"},
	"quantified":         {"quantif", "numbers"},
}

// runChecklist runs the ATS checks against the résumé. guidance is advisory: it
// only adds advice to failed checks.
func runChecklist(resume *types.ResumeDocument, guidance string) checklist {
	bullets := resume.BulletText()
	if len(resume.ExperienceEntries) == 0 {
		bullets = extraction.BulletLines(resume.RawText)
	}

	checks := checklist{
		{
			name:     "summary_heading",
			passed:   resume.Summary != "",
			section:  types.SectionSummary,
			strength: "Has a clearly labelled Summary section.",
			issue:    "No recognizable Summary section heading.",
			target:   "Open with a short Summary that states role, experience and core skills",
		},
		{
			name:     "skills_heading",
			passed:   len(resume.Skills) > 0,
			section:  types.SectionSkills,
			strength: "Has a dedicated Skills section.",
			issue:    "No recognizable Skills section heading.",
			target:   "List Skills as short keywords under a standard heading",
		},
		{
			name:     "experience_heading",
			passed:   len(resume.ExperienceEntries) > 0,
			section:  types.SectionExperience,
			strength: "Experience is split into individual roles.",
			issue:    "No recognizable Experience section with individual roles.",
			target:   "Give each Experience role a heading line with title, company and dates",
		},
		{
			name:     "bullet_entries",
			passed:   hasBulletStyle(resume, bullets),
			section:  types.SectionExperience,
			strength: "Experience is written as bullet points.",
			issue:    "Experience is written as paragraphs rather than bullet points.",
			target:   "Rewrite Experience entries as concise bullet points",
		},
		{
			name:     "quantified",
			passed:   hasQuantifiedOutcome(bullets),
			section:  types.SectionExperience,
			strength: "Bullets include quantified outcomes.",
			issue:    "No quantified outcomes (numbers or percentages) in experience bullets.",
			target:   "Surface quantified outcomes already in the CV in Experience bullets",
		},
	}

	for i := range checks {
		if !checks[i].passed {
			checks[i].advice = adviceFor(guidance, adviceKeywords[checks[i].name])
		}
	}
	return checks
}

// hasBulletStyle checks that every role has bullets, or that an unsegmented
// résumé contains a few bullet lines.
func hasBulletStyle(resume *types.ResumeDocument, bullets []string) bool {
	if len(resume.ExperienceEntries) == 0 {
		return len(bullets) >= minRawBullets
	}
	for _, e := range resume.ExperienceEntries {
		if len(e.BulletPoints) == 0 {
			return false
		}
	}
	return true
}

// hasQuantifiedOutcome checks if any bullet contains numbers or metrics.
func hasQuantifiedOutcome(bullets []string) bool {
	for _, b := range bullets {
		if quantityPattern.MatchString(b) {
			return true
		}
	}
	return false
}

// adviceFor returns the first guidance list item mentioning one of keywords.
func adviceFor(guidance string, keywords []string) string {
	if guidance == "" {
		return ""
	}
	for _, line := range strings.Split(guidance, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		lower := strings.ToLower(line)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return strings.TrimSpace(strings.TrimPrefix(line, "- "))
			}
		}
	}
	return ""
}

func (c checklist) passRatio() float64 {
	if len(c) == 0 {
		return 0
	}
	passed := 0
	for _, item := range c {
		if item.passed {
			passed++
		}
	}
	return float64(passed) / float64(len(c))
}

func (c checklist) strengths() []string {
	out := []string{}
	for _, item := range c {
		if item.passed {
			out = append(out, item.strength)
		}
	}
	return out
}

func (c checklist) issues() []string {
	out := []string{}
	for _, item := range c {
		if item.passed {
			continue
		}
		if item.advice != "" {
			out = append(out, item.issue+" Tip: "+item.advice)
			continue
		}
		out = append(out, item.issue)
	}
	return out
}

func (c checklist) failed() []checkItem {
	var out []checkItem
	for _, item := range c {
		if !item.passed {
			out = append(out, item)
		}
	}
	return out
}
