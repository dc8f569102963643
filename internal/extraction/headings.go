package extraction

import (
	"regexp"
	"strings"
)

// sectionKind is a résumé region found by heading matching.
type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionSummary
	sectionSkills
	sectionExperience
	sectionOther // Recognized heading that ends the previous region (Education, Projects, ...)
)

func (k sectionKind) String() string {
	switch k {
	case sectionSummary:
		return "Summary"
	case sectionSkills:
		return "Skills"
	case sectionExperience:
		return "Experience"
	case sectionOther:
		return "Other"
	default:
		return "None"
	}
}

// headingSynonyms lists canonical heading phrases per section.
var headingSynonyms = map[sectionKind][]string{
	sectionSummary: {
		"summary", "professional summary", "career summary", "executive summary", "profile",
		"professional profile", "about", "about me", "objective", "career objective", "overview",
	},
	sectionSkills: {
		"skills", "technical skills", "core skills", "key skills", "skills & tools", "skills and tools",
		"tech stack", "technologies", "technical expertise", "competencies", "core competencies", "tools",
	},
	sectionExperience: {
		"experience", "work experience", "professional experience", "relevant experience", "work history",
		"employment", "employment history", "career history",
	},
	sectionOther: {
		"education", "certifications", "certificates", "projects", "personal projects", "publications",
		"languages", "awards", "achievements", "interests", "hobbies", "volunteering", "volunteer experience",
		"references", "courses", "training", "contact", "contact information",
	},
}

// HeadingConfidenceThreshold is the minimum score for a line to be treated as a
// heading. Scores below it are "no match", never "best match".
const HeadingConfidenceThreshold = 0.75

const (
	scoreExact   = 1.0 // Line is exactly a synonym
	scoreInline  = 0.9 // "Skills: Go, Python"
	scorePartial = 0.5 // Short line containing a synonym among other words
)

const maxHeadingWords = 5

var headingDecoration = regexp.MustCompile(`^[#*=_\s]+|[#*=_:\s]+$`)

// heading is a matched section heading.
type heading struct {
	kind       sectionKind
	confidence float64
	inline     string // Content after "Heading:" on the same line
}

// matchHeading scores a line against every synonym and returns the best
// match at or above the confidence threshold.
func matchHeading(line string) (heading, bool) {
	if line == "" || isBullet(line) {
		return heading{}, false
	}

	best := heading{}
	for kind, synonyms := range headingSynonyms {
		for _, syn := range synonyms {
			h := scoreHeading(line, syn, kind)
			if h.confidence > best.confidence ||
				(h.confidence == best.confidence && h.confidence > 0 && kind < best.kind) {
				best = h
			}
		}
	}

	if best.confidence < HeadingConfidenceThreshold {
		return heading{}, false
	}
	return best, true
}

func scoreHeading(line, synonym string, kind sectionKind) heading {
	normalized := strings.ToLower(headingDecoration.ReplaceAllString(line, ""))
	normalized = innerSpace.ReplaceAllString(normalized, " ")

	if normalized == synonym {
		return heading{kind: kind, confidence: scoreExact}
	}

	if label, rest, ok := strings.Cut(line, ":"); ok {
		label = strings.ToLower(strings.TrimSpace(headingDecoration.ReplaceAllString(label, "")))
		rest = strings.TrimSpace(rest)
		if label == synonym && rest != "" {
			return heading{kind: kind, confidence: scoreInline, inline: rest}
		}
	}

	words := strings.Fields(normalized)
	if len(words) <= maxHeadingWords && containsPhrase(normalized, synonym) {
		return heading{kind: kind, confidence: scorePartial}
	}
	return heading{}
}

func containsPhrase(text, phrase string) bool {
	return (" " + text + " ") != strings.Replace(" "+text+" ", " "+phrase+" ", "", 1)
}

var bulletPrefix = regexp.MustCompile(`^(?:[-*•·▪►‣◦–—]|o\s|\d{1,2}[.)])\s*`)

// isBullet reports whether a line starts with a bullet marker.
func isBullet(line string) bool {
	return bulletPrefix.MatchString(strings.TrimSpace(line))
}

// stripBullet removes a leading bullet marker.
func stripBullet(line string) string {
	return strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
}

// BulletLines returns the text of every bullet line in text, markers removed.
func BulletLines(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		if isBullet(line) {
			if b := stripBullet(line); b != "" {
				bullets = append(bullets, b)
			}
		}
	}
	return bullets
}
