package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// DefaultMinJobTextLength is the shortest job text, in characters, that is
// compared skill by skill.
const DefaultMinJobTextLength = 80

// Result is the output of the extraction stage.
type Result struct {
	Resume types.ResumeDocument
	Job    types.JobPosting
	// Notices explain reduced confidence; a non-empty list makes the run degraded.
	Notices []string
	// JobTextTooShort means the job text is below the minimum length.
	JobTextTooShort bool
}

// Degraded reports whether extraction was only partially successful.
func (r *Result) Degraded() bool {
	return len(r.Notices) > 0
}

// Stage runs text extraction, cleanup and segmentation.
type Stage struct {
	extractor        TextExtractor
	minJobTextLength int
	logger           *slog.Logger
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithMinJobTextLength overrides DefaultMinJobTextLength.
func WithMinJobTextLength(n int) StageOption {
	return func(s *Stage) {
		if n > 0 {
			s.minJobTextLength = n
		}
	}
}

// WithLogger sets the stage logger.
func WithLogger(logger *slog.Logger) StageOption {
	return func(s *Stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStage creates an extraction stage using the given text extractor.
func NewStage(extractor TextExtractor, opts ...StageOption) *Stage {
	if extractor == nil {
		extractor = DocumentExtractor{}
	}
	s := &Stage{
		extractor:        extractor,
		minJobTextLength: DefaultMinJobTextLength,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run extracts the structured résumé and job posting. The only error it returns
// wraps ErrNoExtractableText: the document gave no usable text. Every other
// shortfall is reported through Result.Notices.
func (s *Stage) Run(ctx context.Context, document []byte, jobText string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.extractor.ExtractText(document)
	if err != nil {
		if errors.Is(err, ErrNoExtractableText) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrNoExtractableText, err)
	}

	text := CleanText(raw)
	if text == "" {
		return nil, ErrNoExtractableText
	}

	resume, notices := SegmentResume(text)
	for _, n := range notices {
		s.logger.Info("cv segmentation incomplete", "detail", n)
	}

	result := &Result{
		Resume:  resume,
		Notices: notices,
	}

	jobText = CleanText(jobText)
	result.Job = ParseJobPosting(jobText)
	if n := utf8.RuneCountInString(strings.TrimSpace(jobText)); n < s.minJobTextLength {
		result.JobTextTooShort = true
		msg := "No job description was provided; skill comparison was skipped."
		if n > 0 {
			msg = fmt.Sprintf("The job description is too short (%d characters, minimum %d); skill comparison was skipped.", n, s.minJobTextLength)
		}
		result.Notices = append(result.Notices, msg)
		s.logger.Info("job text below minimum length", "length", n, "minimum", s.minJobTextLength)
	}

	s.logger.Info("extraction complete",
		"skills", len(resume.Skills),
		"experience_entries", len(resume.ExperienceEntries),
		"required_skills", len(result.Job.RequiredSkills),
		"degraded", result.Degraded(),
	)
	return result, nil
}
