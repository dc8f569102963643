package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

const monthNames = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

// dateRangePattern matches "Jan 2020 - Present", "2018 – 2021", "03/2019 to 05/2022".
var dateRangePattern = regexp.MustCompile(`(?i)(?:` + monthNames + `\s+|\d{1,2}/)?(?:19|20)\d{2}\s*(?:-|–|—|to|until)\s*(?:(?:` +
	monthNames + `\s+|\d{1,2}/)?(?:19|20)\d{2}|present|current|now|today)`)

var headerSeparators = regexp.MustCompile(`\s+[|–—-]\s+|\s*\|\s*|,\s*|\s+at\s+|\s*@\s*`)

var roleKeywords = []string{
	"engineer", "developer", "programmer", "architect", "manager", "lead", "head", "director", "analyst",
	"scientist", "designer", "consultant", "specialist", "administrator", "intern", "officer", "coordinator",
	"associate", "researcher", "owner", "vp", "president", "cto", "ceo", "founder", "sre", "devops", "tester",
}

// maxHeaderPartWords rejects sentence-length fragments as role or organization.
const maxHeaderPartWords = 8

type roleBlock struct {
	header  []string
	bullets []string
}

func (b *roleBlock) hasDate() bool {
	for _, h := range b.header {
		if dateRangePattern.MatchString(h) {
			return true
		}
	}
	return false
}

// SplitExperience splits the Experience region into roles. A role starts at a
// non-bullet line that follows bullets, or at a second date line. Blocks with
// neither bullets nor a date range are not roles and are dropped.
func SplitExperience(lines []string) []types.ExperienceEntry {
	var blocks []*roleBlock
	var cur *roleBlock
	afterBlank := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			afterBlank = true
			continue
		}

		if isBullet(line) {
			text := stripBullet(line)
			if text == "" {
				continue
			}
			if cur == nil {
				cur = &roleBlock{}
				blocks = append(blocks, cur)
			}
			cur.bullets = append(cur.bullets, text)
			afterBlank = false
			continue
		}

		if cur != nil && len(cur.bullets) > 0 && !afterBlank && isContinuation(cur.bullets[len(cur.bullets)-1], line) {
			last := len(cur.bullets) - 1
			cur.bullets[last] = cur.bullets[last] + " " + line
			continue
		}

		startsRole := cur == nil || len(cur.bullets) > 0 ||
			(dateRangePattern.MatchString(line) && cur.hasDate())
		if startsRole {
			cur = &roleBlock{}
			blocks = append(blocks, cur)
		}
		cur.header = append(cur.header, line)
		afterBlank = false
	}

	var entries []types.ExperienceEntry
	for _, b := range blocks {
		if len(b.bullets) == 0 && !b.hasDate() {
			continue
		}
		entries = append(entries, buildEntry(b))
	}
	return entries
}

// isContinuation reports whether a non-bullet line continues the wrapped bullet prev.
func isContinuation(prev, line string) bool {
	if dateRangePattern.MatchString(line) || endsSentence(prev) {
		return false
	}
	first := []rune(line)[0]
	return unicode.IsLower(first) || unicode.IsDigit(first) || strings.ContainsRune("%($&", first)
}

func endsSentence(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

func buildEntry(b *roleBlock) types.ExperienceEntry {
	entry := types.ExperienceEntry{
		Heading:      strings.Join(b.header, "\n"),
		BulletPoints: b.bullets,
	}

	var parts []string
	for _, h := range b.header {
		if entry.DateRange == "" {
			if loc := dateRangePattern.FindStringIndex(h); loc != nil {
				entry.DateRange = strings.TrimSpace(h[loc[0]:loc[1]])
				h = h[:loc[0]] + " " + h[loc[1]:]
			}
		}
		for _, p := range headerSeparators.Split(h, -1) {
			p = strings.Trim(strings.TrimSpace(p), "()[]|–—-,")
			p = strings.TrimSpace(p)
			if p == "" || len(strings.Fields(p)) > maxHeaderPartWords {
				continue
			}
			parts = append(parts, p)
		}
	}

	role := -1
	for i, p := range parts {
		if hasRoleKeyword(p) {
			role = i
			break
		}
	}
	if role < 0 {
		return entry
	}

	entry.RoleTitle = parts[role]
	switch {
	case role == 0 && len(parts) > 1:
		entry.Organization = parts[1]
	case role > 0:
		entry.Organization = parts[role-1]
	}
	if hasRoleKeyword(entry.Organization) {
		entry.Organization = ""
	}
	return entry
}

func hasRoleKeyword(s string) bool {
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		for _, k := range roleKeywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
