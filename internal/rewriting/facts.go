package rewriting

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vadym-shevikov/cv-tailor/internal/extraction"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// genericClaims are self-descriptions that need evidence; a rewrite may keep
// them but never add them.
var genericClaims = []string{
	"team player", "results-driven", "results driven", "detail-oriented", "self-starter", "go-getter",
	"hard-working", "hardworking", "passionate", "rockstar", "ninja", "world-class", "best-in-class",
	"synergy", "thought leader", "visionary",
}

// nameLikeExceptions are capitalized words that never denote a fact.
var nameLikeExceptions = map[string]bool{"I": true}

// sentenceOpeners are words that commonly start a bullet or sentence without
// naming anything. Other capitalized openers must be backed by the source.
var sentenceOpeners = toSet(
	// Function words
	"a", "an", "the", "this", "that", "these", "those", "our", "my", "we", "he", "she", "they", "it", "its",
	"and", "but", "or", "for", "with", "by", "in", "on", "at", "to", "as", "from", "of", "over", "across",
	"through", "while", "when", "after", "before", "during", "since", "also", "then", "each", "every",
	"all", "both", "more", "most", "under", "within", "about",
	// Action verbs that are not regular -ed forms
	"led", "built", "drove", "ran", "grew", "won", "cut", "set", "made", "wrote", "took", "brought",
	"began", "taught", "sold", "found", "held", "kept", "met", "put", "rebuilt", "rewrote", "overhauled",
	"build", "lead", "drive", "design", "develop", "deliver", "own", "manage", "create", "improve",
	"reduce", "increase", "implement", "maintain", "mentor", "ship", "launch", "scale", "automate",
	"building", "leading", "driving", "designing", "developing", "delivering", "owning", "managing",
	"creating", "improving", "reducing", "increasing", "implementing", "maintaining", "mentoring",
	"shipping", "launching", "scaling", "automating", "working",
	// Common nouns that open summaries and bullets
	"engineer", "developer", "responsible", "experienced", "senior", "junior", "backend", "frontend",
	"full-stack", "software", "team", "teams", "key", "core", "skills", "experience", "summary",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// FactChecker verifies that a candidate rewrite only uses facts present in the
// section's original text or elsewhere in the résumé (skills, headings, bullets).
type FactChecker struct {
	resumeText string
}

// NewFactChecker creates a checker for one résumé.
func NewFactChecker(resume *types.ResumeDocument) *FactChecker {
	parts := []string{resume.SkillsText()}
	for _, e := range resume.ExperienceEntries {
		parts = append(parts, e.Heading, e.Organization, e.RoleTitle, e.DateRange)
		parts = append(parts, e.BulletPoints...)
	}
	return &FactChecker{resumeText: strings.Join(parts, "\n")}
}

// Check returns the proper-noun-like, numeric, vocabulary-skill and generic-claim
// tokens of after that are not backed by before or the résumé, in order found.
// An empty result means the rewrite is acceptable.
func (c *FactChecker) Check(before, after string) []string {
	source := before + "\n" + c.resumeText
	words := wordSet(source)
	numbers := make(map[string]bool)
	for _, n := range numberPattern.FindAllString(source, -1) {
		numbers[n] = true
	}

	var violations []string
	seen := make(map[string]bool)
	flag := func(token string) {
		key := strings.ToLower(token)
		if !seen[key] {
			seen[key] = true
			violations = append(violations, token)
		}
	}

	for _, token := range candidateTokens(after) {
		if !supported(token, source, words) {
			flag(token)
		}
	}
	for _, skill := range extraction.ScanKnownSkills(after) {
		if !extraction.ContainsSkill(source, skill) {
			flag(skill)
		}
	}
	for _, n := range numberPattern.FindAllString(after, -1) {
		if !numbers[n] {
			flag(n)
		}
	}
	for _, claim := range newPhrases(after, source, genericClaims) {
		flag(claim)
	}
	return violations
}

// candidateTokens returns the words of text that look like names: capitalized
// mid-sentence, all caps, mixed case, or containing digits or symbols.
func candidateTokens(text string) []string {
	var tokens []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-*•·▪ ")
		sentenceStart := true
		for _, raw := range strings.Fields(line) {
			word := strings.Trim(raw, "()[]{}\"'“”‘’,;:!?")
			word = strings.TrimRight(word, ".")
			if word != "" && isNameLike(word, sentenceStart) {
				tokens = append(tokens, word)
			}
			last := raw[len(raw)-1]
			sentenceStart = strings.IndexByte(".!?:;|", last) >= 0
		}
	}
	return tokens
}

func isNameLike(word string, sentenceStart bool) bool {
	if nameLikeExceptions[word] {
		return false
	}

	var letters, uppers int
	var digit, symbol, innerUpper, innerDot bool
	for i, r := range word {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				uppers++
				if i > 0 {
					innerUpper = true
				}
			}
		case unicode.IsDigit(r):
			digit = true
		case r == '+' || r == '#':
			symbol = true
		case r == '.' && i > 0:
			innerDot = true
		}
	}

	switch {
	case letters == 0:
		return false // Numbers are checked separately
	case digit, symbol, innerUpper, innerDot:
		return true
	case uppers == 0:
		return false
	case !sentenceStart:
		return true
	default:
		return !isSentenceOpener(word)
	}
}

// isSentenceOpener reports whether a capitalized word at the start of a
// sentence is an ordinary opener rather than a name.
func isSentenceOpener(word string) bool {
	lower := strings.ToLower(word)
	if sentenceOpeners[lower] {
		return true
	}
	// Regular past tense: "Partnered", "Reduced", "Shipped"
	return len(lower) > 4 && strings.HasSuffix(lower, "ed")
}

// supported reports whether a name-like token appears in the source, directly,
// as a skill alias, or as a compound of source words.
func supported(token, source string, words map[string]bool) bool {
	lower := strings.ToLower(token)
	if words[lower] || extraction.ContainsSkill(source, token) {
		return true
	}
	parts := strings.FieldsFunc(lower, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if !words[p] {
			return false
		}
	}
	return true
}

// newPhrases returns the phrases found in text but not in source (case-insensitive).
func newPhrases(text, source string, phrases []string) []string {
	lowerText := strings.ToLower(text)
	lowerSource := strings.ToLower(source)

	var found []string
	for _, p := range phrases {
		if strings.Contains(lowerText, p) && !strings.Contains(lowerSource, p) {
			found = append(found, p)
		}
	}
	return found
}
