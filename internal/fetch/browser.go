package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the extracted text length below which a page is assumed
// to be rendered client-side and worth retrying in a browser.
const MinContentLength = 500

// ShouldUseBrowser reports whether extracted text is too short to be a job posting.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer returns the rendered HTML of a page.
type Renderer func(ctx context.Context, url string) (string, error)

// BrowserRenderer returns a Renderer backed by headless Chrome.
// Chrome or Chromium must be installed.
func BrowserRenderer(timeout time.Duration, logger *slog.Logger) Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, url string) (string, error) {
		return renderWithBrowser(ctx, url, timeout, logger)
	}
}

func renderWithBrowser(ctx context.Context, url string, timeout time.Duration, logger *slog.Logger) (string, error) {
	logger.Debug("starting headless browser", "url", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Consent banners can hide the posting; a missing button is fine.
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	logger.Debug("browser rendered page", "url", url, "bytes", len(html))
	return html, nil
}
