package rewriting

import (
	"fmt"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/extraction"
	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

const (
	maxFallbackRefs = 3
	minTermLength   = 4
)

// referencedTargets returns the text of every target the rationale names, by
// keyword, full target text, or section name together with a term of the
// target text. A bare section name is not enough.
func referencedTargets(rationale string, targets []types.ImprovementTarget) []string {
	if strings.TrimSpace(rationale) == "" {
		return nil
	}
	lower := strings.ToLower(rationale)
	words := wordSet(rationale)

	var refs []string
	for _, t := range targets {
		switch {
		case strings.Contains(lower, strings.ToLower(t.Text)):
		case t.Keyword != "" && extraction.ContainsSkill(rationale, t.Keyword):
		case t.Keyword == "" && t.Section != "" && words[strings.ToLower(string(t.Section))] &&
			sharesTerm(words, targetTerms(t)):
		default:
			continue
		}
		refs = append(refs, t.Text)
	}
	return refs
}

// targetTerms returns the content words of a section target's text.
func targetTerms(t types.ImprovementTarget) []string {
	section := strings.ToLower(string(t.Section))
	var terms []string
	for w := range wordSet(t.Text) {
		if len(w) >= minTermLength && w != section && !stopwords[w] {
			terms = append(terms, w)
		}
	}
	return terms
}

// sharesTerm reports whether any word shares a stem with a term, so "leads"
// matches "lead".
func sharesTerm(words map[string]bool, terms []string) bool {
	for _, term := range terms {
		for w := range words {
			if len(w) >= minTermLength && (strings.HasPrefix(w, term) || strings.HasPrefix(term, w)) {
				return true
			}
		}
	}
	return false
}

// formatTargets renders targets as prompt list items.
func formatTargets(targets []types.ImprovementTarget) string {
	if len(targets) == 0 {
		return "- (none)"
	}
	lines := make([]string, 0, len(targets))
	for _, t := range targets {
		kind := "section"
		if t.Keyword != "" {
			kind = "keyword"
		}
		lines = append(lines, fmt.Sprintf("- [%s: %s] %s", kind, t.Reference(), t.Text))
	}
	return strings.Join(lines, "\n")
}

// fallbackRationale explains why a section was left unchanged, naming the
// targets it could not address.
func fallbackRationale(targets []types.ImprovementTarget, reason string) string {
	refs := make([]string, 0, maxFallbackRefs)
	for _, t := range targets {
		if len(refs) == maxFallbackRefs {
			break
		}
		refs = append(refs, t.Reference())
	}
	if len(refs) == 0 {
		return fmt.Sprintf("No safe improvement found; the original text is kept (%s).", reason)
	}
	return fmt.Sprintf("No safe improvement found for %s; the original text is kept (%s).", strings.Join(refs, ", "), reason)
}
