package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

var skillSeparators = regexp.MustCompile(`\s*[,;|•·▪]\s*`)

const (
	maxSkillWords = 6
	maxSkillChars = 60
	maxLabelWords = 4
)

// SegmentResume splits cleaned résumé text into Summary, Skills and Experience.
// Sections that cannot be located stay empty; each gap is reported as a notice.
func SegmentResume(text string) (types.ResumeDocument, []string) {
	doc := types.ResumeDocument{RawText: text}
	regions, found := splitRegions(text)

	var notices []string
	if found[sectionSummary] {
		doc.Summary = joinParagraph(regions[sectionSummary])
	}
	if found[sectionSkills] {
		doc.Skills = parseSkillsRegion(regions[sectionSkills])
	}
	if found[sectionExperience] {
		doc.ExperienceEntries = SplitExperience(regions[sectionExperience])
	}

	for _, kind := range []sectionKind{sectionSummary, sectionSkills, sectionExperience} {
		switch {
		case !found[kind]:
			notices = append(notices, fmt.Sprintf("Could not locate a %s section in the CV.", kind))
		case kind == sectionSummary && doc.Summary == "",
			kind == sectionSkills && len(doc.Skills) == 0:
			notices = append(notices, fmt.Sprintf("The %s section of the CV is empty.", kind))
		case kind == sectionExperience && len(doc.ExperienceEntries) == 0:
			notices = append(notices, "Could not split the Experience section into individual roles.")
		}
	}

	return doc, notices
}

// splitRegions assigns every line to the region of the most recent heading.
func splitRegions(text string) (map[sectionKind][]string, map[sectionKind]bool) {
	regions := make(map[sectionKind][]string)
	found := make(map[sectionKind]bool)
	current := sectionNone

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if h, ok := matchHeading(line); ok {
			// Category lines such as "Languages: Go, Java" belong to the skills list.
			if h.inline != "" && current == sectionSkills && h.kind != sectionSummary && h.kind != sectionExperience {
				regions[current] = append(regions[current], line)
				continue
			}
			if found[h.kind] && h.kind != sectionOther {
				regions[h.kind] = append(regions[h.kind], "")
			}
			current = h.kind
			found[h.kind] = true
			if h.inline != "" {
				regions[current] = append(regions[current], h.inline)
			}
			continue
		}
		if current == sectionNone || current == sectionOther {
			continue
		}
		regions[current] = append(regions[current], line)
	}
	return regions, found
}

func joinParagraph(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = stripBullet(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}

// parseSkillsRegion turns list-like lines into individual skills, dropping
// category labels and sentence-length fragments.
func parseSkillsRegion(lines []string) []string {
	var skills []string
	seen := make(map[string]bool)

	for _, line := range lines {
		line = stripBullet(line)
		if line == "" {
			continue
		}
		if label, rest, ok := strings.Cut(line, ":"); ok && len(strings.Fields(label)) <= maxLabelWords {
			line = rest
		}
		for _, token := range skillSeparators.Split(line, -1) {
			token = edgePunct.ReplaceAllString(strings.TrimSpace(token), "")
			if token == "" || len(token) > maxSkillChars || len(strings.Fields(token)) > maxSkillWords {
				continue
			}
			key := strings.ToLower(token)
			if seen[key] {
				continue
			}
			seen[key] = true
			skills = append(skills, token)
		}
	}
	return skills
}
