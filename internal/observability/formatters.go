// Package observability provides logger construction and the human-readable
// summaries printed by the CLI in verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList appends up to limit items, then a "... and N more" line.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

// PrintResume outputs what segmentation found in the CV.
func (p *Printer) PrintResume(doc *types.ResumeDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	if !doc.HasStructure() {
		fmt.Fprintf(&sb, "No sections recognized (%d characters of text)", len([]rune(doc.RawText)))
		p.printBox("EXTRACTED CV", sb.String())
		return
	}

	if doc.Summary != "" {
		fmt.Fprintf(&sb, "Summary:  %s\n", doc.Summary)
	}
	fmt.Fprintf(&sb, "Skills:   %d\n", len(doc.Skills))
	fmt.Fprintf(&sb, "Roles:    %d\n", len(doc.ExperienceEntries))
	labels := make([]string, 0, len(doc.ExperienceEntries))
	for _, entry := range doc.ExperienceEntries {
		labels = append(labels, fmt.Sprintf("%s (%d bullets)", entry.Label(), len(entry.BulletPoints)))
	}
	if len(labels) > 0 {
		sb.WriteString("\n")
		writeList(&sb, "Experience", labels, maxItemsToShow)
	}

	p.printBox("EXTRACTED CV", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobPosting outputs a human-readable summary of the parsed job posting.
func (p *Printer) PrintJobPosting(job *types.JobPosting) {
	if job == nil {
		return
	}

	var sb strings.Builder
	role := job.RoleTitle
	if role == "" {
		role = "(not found)"
	}
	fmt.Fprintf(&sb, "Role:     %s\n\n", role)
	writeList(&sb, "Required skills", job.RequiredSkills, maxItemsToShow)
	writeList(&sb, "Nice-to-haves", job.NiceToHaveSkills, 3)
	if len(job.RequiredSkills) == 0 && len(job.NiceToHaveSkills) == 0 {
		sb.WriteString("No skills recognized\n")
	}

	p.printBox("PARSED JOB POSTING", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnalysis outputs the match and readiness levels with the gaps found.
func (p *Printer) PrintAnalysis(report *types.AnalysisReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Match:    %s (%.0f%% of required skills)\n", report.MatchLevel, report.SkillCoverage*100)
	fmt.Fprintf(&sb, "ATS:      %s\n\n", report.ATSReadinessLevel)
	writeList(&sb, "Missing keywords", report.MissingKeywords, maxItemsToShow)
	writeList(&sb, "Issues", report.Issues, 3)
	writeList(&sb, "Targets", report.TargetTexts(), maxItemsToShow)

	p.printBox("ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRewrites outputs one line per rewritten section with its outcome.
func (p *Printer) PrintRewrites(rewrites []types.SectionRewrite) {
	if len(rewrites) == 0 {
		return
	}

	var sb strings.Builder
	changed := 0
	for _, rw := range rewrites {
		if !rw.Unchanged {
			changed++
		}
	}
	fmt.Fprintf(&sb, "Rewritten %d of %d sections:\n\n", changed, len(rewrites))

	for i, rw := range rewrites {
		mark := "✓"
		if rw.Unchanged {
			mark = "="
		}
		title := rw.Title
		if title == "" {
			title = rw.Section.String()
		}
		fmt.Fprintf(&sb, "%s %s (%d attempts)\n", mark, title, rw.Attempts)
		fmt.Fprintf(&sb, "  %s\n", rw.Rationale)
		if i < len(rewrites)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("REWRITES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintNotices outputs reduced-confidence notices, or nothing when there are none.
func (p *Printer) PrintNotices(notices []string) {
	if len(notices) == 0 {
		return
	}
	var sb strings.Builder
	for i, n := range notices {
		fmt.Fprintf(&sb, "⚠ %s", n)
		if i < len(notices)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("NOTICES", sb.String())
}
