package rewriting

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/extraction"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// MaxExperienceRewrites is the most experience entries rewritten per run.
const MaxExperienceRewrites = 3

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}+#.-]*`)

// stopwords are ignored when matching responsibility keywords.
var stopwords = map[string]bool{
	"and": true, "the": true, "with": true, "for": true, "from": true, "into": true, "that": true,
	"this": true, "our": true, "your": true, "you": true, "will": true, "are": true, "have": true,
	"work": true, "team": true, "teams": true, "across": true, "using": true, "about": true,
	"other": true, "their": true, "them": true, "they": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "within": true, "also": true, "more": true, "must": true, "able": true,
}

// scoredEntry is an experience entry with its relevance score.
type scoredEntry struct {
	index int
	score int
}

// SelectExperience returns the indexes of the entries to rewrite, best first.
// An entry scores one point per required skill found in its text and one per
// responsibility keyword its bullets share. Ties keep document order, which
// is most recent first.
func SelectExperience(resume *types.ResumeDocument, job *types.JobPosting, limit int) []int {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxExperienceRewrites {
		limit = MaxExperienceRewrites
	}

	keywords := responsibilityKeywords(job.Responsibilities)
	scored := make([]scoredEntry, 0, len(resume.ExperienceEntries))
	for i, entry := range resume.ExperienceEntries {
		if len(entry.BulletPoints) == 0 {
			continue
		}
		scored = append(scored, scoredEntry{index: i, score: scoreEntry(entry, job.RequiredSkills, keywords)})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	indexes := make([]int, 0, len(scored))
	for _, s := range scored {
		indexes = append(indexes, s.index)
	}
	return indexes
}

func scoreEntry(entry types.ExperienceEntry, requiredSkills []string, keywords []string) int {
	text := entry.Text()
	score := 0
	for _, skill := range requiredSkills {
		if extraction.ContainsSkill(text, skill) {
			score++
		}
	}

	words := wordSet(strings.Join(entry.BulletPoints, " "))
	for _, k := range keywords {
		if words[k] {
			score++
		}
	}
	return score
}

// responsibilityKeywords returns the distinct significant words of the job's
// responsibilities in first-seen order.
func responsibilityKeywords(responsibilities []string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, r := range responsibilities {
		for _, w := range wordPattern.FindAllString(strings.ToLower(r), -1) {
			w = strings.TrimRight(w, ".-")
			if len(w) < 4 || stopwords[w] || seen[w] {
				continue
			}
			seen[w] = true
			keywords = append(keywords, w)
		}
	}
	return keywords
}

func wordSet(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		words[strings.TrimRight(w, ".-")] = true
	}
	return words
}
