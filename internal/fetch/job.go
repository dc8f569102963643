package fetch

import (
	"context"
	"log/slog"
)

// TextFetcher retrieves the text of a job posting.
type TextFetcher interface {
	JobText(ctx context.Context, url string) (string, error)
}

// JobFetcher fetches a job posting over HTTP and, when enabled, retries pages
// with too little text in a headless browser.
type JobFetcher struct {
	options *Options
	render  Renderer
	logger  *slog.Logger
}

// JobOption configures a JobFetcher.
type JobOption func(*JobFetcher)

// WithOptions sets the HTTP fetch options.
func WithOptions(opts *Options) JobOption {
	return func(f *JobFetcher) {
		if opts != nil {
			f.options = opts
		}
	}
}

// WithRenderer enables the browser fallback using render.
func WithRenderer(render Renderer) JobOption {
	return func(f *JobFetcher) {
		f.render = render
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) JobOption {
	return func(f *JobFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewJobFetcher creates a JobFetcher. Without WithRenderer it never starts a browser.
func NewJobFetcher(opts ...JobOption) *JobFetcher {
	f := &JobFetcher{
		options: DefaultOptions(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// JobText returns the main text of the job posting at url.
func (f *JobFetcher) JobText(ctx context.Context, url string) (string, error) {
	platform := DetectPlatform(url)
	content := PlatformContentSelectors(platform)
	noise := PlatformNoiseSelectors(platform)

	var text string
	res, fetchErr := URL(ctx, url, f.options)
	if fetchErr == nil {
		extracted, err := ExtractMainText(res.HTML, content, noise...)
		if err != nil {
			return "", &Error{URL: url, Message: "failed to extract text", Cause: err}
		}
		text = extracted
	}

	if f.render != nil && (fetchErr != nil || ShouldUseBrowser(text)) {
		f.logger.Info("retrying job posting in browser", "url", url, "platform", platform, "http_chars", len(text))
		if rendered, err := f.renderText(ctx, url, content, noise); err != nil {
			f.logger.Warn("browser fallback failed", "url", url, "error", err)
		} else if len(rendered) > len(text) {
			text = rendered
			fetchErr = nil
		}
	}

	if fetchErr != nil {
		return "", fetchErr
	}
	if text == "" {
		return "", &Error{URL: url, Message: "no job posting text found"}
	}
	f.logger.Debug("fetched job posting", "url", url, "platform", platform, "chars", len(text))
	return text, nil
}

func (f *JobFetcher) renderText(ctx context.Context, url string, content, noise []string) (string, error) {
	html, err := f.render(ctx, url)
	if err != nil {
		return "", err
	}
	return ExtractMainText(html, content, noise...)
}
