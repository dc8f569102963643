package extraction

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun    = regexp.MustCompile(`[ \t\x{00A0}]+`)
	pageNumberLine   = regexp.MustCompile(`(?i)^(?:page\s*)?\d{1,3}(?:\s*(?:/|of)\s*\d{1,3})?$`)
	dashedPageNumber = regexp.MustCompile(`^[-–—]\s*\d{1,3}\s*[-–—]$`)
	digitRun         = regexp.MustCompile(`\d+`)
	// Lines that only make sense as running headers when page breaks are unknown.
	runningMarker = regexp.MustCompile(`(?i)(@|https?://|www\.|\+?\d[\d\s().-]{7,}\d|\bpage\b|\bcurriculum vitae\b|\bresume\b|\bconfidential\b)`)
)

const (
	// Header/footer candidates are taken from this many lines at each page edge.
	pageEdgeLines = 2
	// A line repeating this many times (or on every page of a shorter document) is running text.
	runningRepeatMin = 3
	runningLineMax   = 80
)

// CleanText normalizes extracted text: line endings and spacing, running
// headers/footers, isolated page numbers, and blank-line runs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	rawPages := strings.Split(content, pageBreak)
	pages := make([][]string, 0, len(rawPages))
	for _, page := range rawPages {
		lines := strings.Split(page, "\n")
		for i, line := range lines {
			lines[i] = cleanLine(line)
		}
		pages = append(pages, lines)
	}

	running := runningLines(pages)

	var out []string
	for _, lines := range pages {
		for _, line := range lines {
			if line != "" && (isPageNumber(line) || running[runningKey(line)]) {
				continue
			}
			out = append(out, line)
		}
		out = append(out, "")
	}

	return strings.TrimSpace(collapseBlankLines(out))
}

func cleanLine(line string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
}

func isPageNumber(line string) bool {
	return pageNumberLine.MatchString(line) || dashedPageNumber.MatchString(line)
}

// runningKey ignores digits so "Page 1 of 2" and "Page 2 of 2" compare equal.
func runningKey(line string) string {
	return strings.ToLower(digitRun.ReplaceAllString(line, "#"))
}

// runningLines finds repeated header/footer lines. With page breaks, candidates
// come from page edges and must repeat on min(3, pages) pages. Without them, a
// line must repeat three times and look like contact or page furniture.
func runningLines(pages [][]string) map[string]bool {
	running := make(map[string]bool)

	if len(pages) >= 2 {
		need := min(runningRepeatMin, len(pages))
		seenOnPages := make(map[string]int)
		for _, lines := range pages {
			seen := make(map[string]bool)
			for _, line := range edgeLines(lines) {
				key := runningKey(line)
				if len(line) > runningLineMax || isBullet(line) || seen[key] {
					continue
				}
				seen[key] = true
				seenOnPages[key]++
			}
		}
		for key, n := range seenOnPages {
			if n >= need {
				running[key] = true
			}
		}
		return running
	}

	counts := make(map[string]int)
	for _, line := range pages[0] {
		if line == "" || len(line) > runningLineMax || isBullet(line) || !runningMarker.MatchString(line) {
			continue
		}
		counts[runningKey(line)]++
	}
	for key, n := range counts {
		if n >= runningRepeatMin {
			running[key] = true
		}
	}
	return running
}

func edgeLines(lines []string) []string {
	var nonEmpty []string
	for _, l := range lines {
		if l != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) <= 2*pageEdgeLines {
		return nonEmpty
	}
	edges := append([]string{}, nonEmpty[:pageEdgeLines]...)
	return append(edges, nonEmpty[len(nonEmpty)-pageEdgeLines:]...)
}

// collapseBlankLines joins lines, keeping at most one blank line in a row.
func collapseBlankLines(lines []string) string {
	var sb strings.Builder
	blank := false
	for _, line := range lines {
		if line == "" {
			if !blank && sb.Len() > 0 {
				sb.WriteString("\n")
			}
			blank = true
			continue
		}
		if sb.Len() > 0 && !blank {
			sb.WriteString("\n")
		}
		if blank && sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
		blank = false
	}
	return sb.String()
}
