package extraction

import (
	"regexp"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

type jobSection int

const (
	jobUnclassified jobSection = iota
	jobResponsibilities
	jobRequired
	jobNiceToHave
)

// Header phrases per job section. Nice-to-have is checked first so
// "Preferred qualifications" does not read as a requirement.
var (
	niceToHaveHeaders = []string{
		"nice to have", "nice-to-have", "good to have", "preferred", "bonus", "desirable", "extra credit",
	}
	requiredHeaders = []string{
		"requirements", "required", "must have", "must-have", "qualifications", "what you bring",
		"what we're looking for", "what we are looking for", "you have", "who you are", "skills",
	}
	responsibilityHeaders = []string{
		"responsibilities", "what you'll do", "what you will do", "the role", "your role", "duties",
		"your impact", "day to day", "in this role",
	}
	// Headers that end a requirement section without starting a new one.
	otherHeaders = []string{
		"benefits", "perks", "what we offer", "about us", "about the company", "compensation", "salary",
		"how to apply", "our values", "why join", "equal opportunity",
	}
	// Words that may surround a header phrase on a header line without a colon.
	headerFiller = map[string]bool{
		"&": true, "/": true, "-": true, "and": true, "the": true, "key": true, "core": true, "main": true,
		"basic": true, "minimum": true, "additional": true, "technical": true, "job": true, "role": true,
		"about": true, "our": true, "your": true, "experience": true, "skills": true, "qualifications": true,
	}
)

// Inline qualifiers that classify a single line regardless of its section.
var (
	niceToHaveQualifier = regexp.MustCompile(`(?i)\b(nice to have|nice-to-have|bonus|a plus|is a plus|preferred|good to have)\b`)
	requiredQualifier   = regexp.MustCompile(`(?i)\b(required|must have|must-have|mandatory|essential)\b`)
	listSplitter        = regexp.MustCompile(`\s*[,;]\s*`)
	pairSplitter        = regexp.MustCompile(`\s*(?:/\s|\s/|\band\b|\bor\b|&)\s*`)
	leadingQualifiers   = regexp.MustCompile(`(?i)^(?:\d+\+?\s*(?:years?|yrs)\s+(?:of\s+)?(?:professional\s+)?(?:experience\s+)?(?:with|in|using)?\s*|` +
		`(?:strong|solid|deep|proven|excellent|good|great|working|hands-on|practical)\s+|` +
		`(?:experience|proficiency|familiarity|knowledge|expertise|fluency|background)\s+(?:with|in|of)\s+|` +
		`(?:the\s+)?(?:ability|able)\s+to\s+)+`)
	trailingQualifiers  = regexp.MustCompile(`(?i)\s+(?:experience|skills?|knowledge|expertise|proficiency)$`)
	trailingCopula      = regexp.MustCompile(`(?i)\s+(?:is|are)(?:\s+(?:a|an|also))?$`)
)

const (
	maxJobHeaderWords = 6
	maxRoleTitleChars = 100
	maxListItemWords  = 3
)

// ParseJobPosting splits job text into responsibilities, required skills and
// nice-to-have skills. Lines that cannot be classified become responsibilities.
// When no requirement section or qualifier is present, vocabulary skills found
// anywhere in the text are used as required skills.
func ParseJobPosting(text string) types.JobPosting {
	job := types.JobPosting{RawText: text}

	var required, nice []string
	current := jobUnclassified
	sawRequirements := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if section, inline, ok := matchJobHeader(line); ok {
			current = section
			if section == jobRequired || section == jobNiceToHave {
				sawRequirements = true
			}
			if inline == "" {
				continue
			}
			line = inline
		} else if job.RoleTitle == "" && current == jobUnclassified && len(job.Responsibilities) == 0 && isRoleTitleCandidate(line) {
			job.RoleTitle = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}

		item := stripBullet(line)
		section := current
		switch {
		case niceToHaveQualifier.MatchString(item):
			section = jobNiceToHave
			sawRequirements = true
		case requiredQualifier.MatchString(item):
			section = jobRequired
			sawRequirements = true
		}

		switch section {
		case jobRequired, jobNiceToHave:
			skills := extractSkills(item)
			if len(skills) == 0 {
				job.Responsibilities = append(job.Responsibilities, item)
				continue
			}
			if section == jobRequired {
				required = append(required, skills...)
			} else {
				nice = append(nice, skills...)
			}
		default:
			job.Responsibilities = append(job.Responsibilities, item)
		}
	}

	if !sawRequirements {
		required = ScanKnownSkills(text)
	}

	job.RequiredSkills = NormalizeSkills(required)
	job.NiceToHaveSkills = withoutRequired(NormalizeSkills(nice), job.RequiredSkills)
	if job.Responsibilities == nil {
		job.Responsibilities = []string{}
	}
	return job
}

func isRoleTitleCandidate(line string) bool {
	return len(line) <= maxRoleTitleChars && !isBullet(line) && !strings.HasSuffix(line, ".")
}

var jobHeaderGroups = []struct {
	section jobSection
	headers []string
}{
	{jobNiceToHave, niceToHaveHeaders},
	{jobRequired, requiredHeaders},
	{jobResponsibilities, responsibilityHeaders},
	{jobUnclassified, otherHeaders},
}

// matchJobHeader recognizes a section header line, optionally with inline
// content after a colon ("Must have: Go, Kubernetes"). Without a colon the
// whole line must be header words, so "Go required" stays a requirement.
func matchJobHeader(line string) (jobSection, string, bool) {
	if isBullet(line) {
		return jobUnclassified, "", false
	}
	label, inline, hasColon := strings.Cut(line, ":")
	if !hasColon {
		label = line
	}
	label = strings.ToLower(strings.TrimSpace(headingDecoration.ReplaceAllString(label, "")))
	if label == "" || len(strings.Fields(label)) > maxJobHeaderWords {
		return jobUnclassified, "", false
	}
	if !hasColon && !onlyHeaderWords(label) {
		return jobUnclassified, "", false
	}

	for _, group := range jobHeaderGroups {
		for _, h := range group.headers {
			if containsPhrase(label, h) {
				return group.section, strings.TrimSpace(inline), true
			}
		}
	}
	return jobUnclassified, "", false
}

// onlyHeaderWords reports whether label is made of header phrases and filler.
func onlyHeaderWords(label string) bool {
	rest := " " + strings.Join(strings.Fields(label), " ") + " "
	found := false
	for _, group := range jobHeaderGroups {
		for _, h := range group.headers {
			if strings.Contains(rest, " "+h+" ") {
				rest = strings.ReplaceAll(rest, " "+h+" ", " ")
				found = true
			}
		}
	}
	if !found {
		return false
	}
	for _, word := range strings.Fields(rest) {
		if !headerFiller[word] {
			return false
		}
	}
	return true
}

// extractSkills reads skill names from one requirement line. Short list items
// are skills themselves; longer sentences contribute vocabulary matches only.
func extractSkills(item string) []string {
	if _, rest, ok := strings.Cut(item, ":"); ok && strings.TrimSpace(rest) != "" {
		item = rest
	}
	item = niceToHaveQualifier.ReplaceAllString(item, "")
	item = requiredQualifier.ReplaceAllString(item, "")

	var skills []string
	for _, part := range listSplitter.Split(item, -1) {
		part = cleanListItem(part)
		if part == "" {
			continue
		}
		if len(strings.Fields(part)) > maxListItemWords {
			skills = append(skills, ScanKnownSkills(part)...)
			continue
		}
		for _, piece := range pairSplitter.Split(part, -1) {
			if piece = cleanListItem(piece); piece != "" {
				skills = append(skills, piece)
			}
		}
	}
	return skills
}

func cleanListItem(s string) string {
	s = leadingQualifiers.ReplaceAllString(strings.TrimSpace(s), "")
	s = edgePunct.ReplaceAllString(s, "")
	s = trailingCopula.ReplaceAllString(s, "")
	return trailingQualifiers.ReplaceAllString(s, "")
}

func withoutRequired(skills, required []string) []string {
	req := make(map[string]bool, len(required))
	for _, r := range required {
		req[r] = true
	}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if !req[s] {
			out = append(out, s)
		}
	}
	return out
}
