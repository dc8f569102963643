package analysis

import (
	"fmt"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// genericTargets keep every rewritable section focused when nothing more specific applies.
var genericTargets = []types.ImprovementTarget{
	{Text: "Keep the Summary to a few sentences naming role and core skills", Section: types.SectionSummary},
	{Text: "Order Skills so the most relevant keywords come first", Section: types.SectionSkills},
	{Text: "Start each Experience bullet with a strong action verb", Section: types.SectionExperience},
}

// buildTargets returns missing-keyword targets, then checklist targets, then
// generic section targets for sections not yet covered. The list is
// de-duplicated and capped at maxTargets. A nil job yields structural targets only.
func buildTargets(missing []string, checks checklist, job *types.JobPosting, maxTargets int) []types.ImprovementTarget {
	var candidates []types.ImprovementTarget

	for _, kw := range missing {
		candidates = append(candidates, types.ImprovementTarget{
			Text:    fmt.Sprintf("Surface %s where the CV already shows it", kw),
			Keyword: kw,
		})
	}
	for _, item := range checks.failed() {
		candidates = append(candidates, types.ImprovementTarget{Text: item.target, Section: item.section})
	}
	if job != nil && job.RoleTitle != "" {
		candidates = append(candidates, types.ImprovementTarget{
			Text:    fmt.Sprintf("Align the Summary with the %s role", job.RoleTitle),
			Section: types.SectionSummary,
		})
	}

	targets := dedupeTargets(candidates)
	if len(targets) > maxTargets {
		targets = targets[:maxTargets]
	}

	for _, g := range genericTargets {
		if len(targets) >= maxTargets {
			break
		}
		if !covers(targets, g.Section) {
			targets = append(targets, g)
		}
	}
	if targets == nil {
		targets = []types.ImprovementTarget{}
	}
	return targets
}

func dedupeTargets(targets []types.ImprovementTarget) []types.ImprovementTarget {
	seen := make(map[string]bool, len(targets))
	var out []types.ImprovementTarget
	for _, t := range targets {
		key := strings.ToLower(t.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// covers reports whether some target applies to the section kind.
func covers(targets []types.ImprovementTarget, kind types.SectionKind) bool {
	for _, t := range targets {
		if t.AppliesTo(kind) {
			return true
		}
	}
	return false
}
