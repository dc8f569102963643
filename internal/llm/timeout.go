package llm

import (
	"context"
	"time"
)

// timeoutClient bounds every call of the wrapped client and reports failures as
// *CompletionError.
type timeoutClient struct {
	inner   Client
	timeout time.Duration
}

// WithTimeout wraps c so each call runs under its own deadline. A timeout is
// returned as a *CompletionError like any other failure.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeoutClient{inner: c, timeout: d}
}

func (t *timeoutClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return t.call(ctx, tier, func(ctx context.Context) (string, error) {
		return t.inner.GenerateContent(ctx, prompt, tier)
	})
}

func (t *timeoutClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return t.call(ctx, tier, func(ctx context.Context) (string, error) {
		return t.inner.GenerateJSON(ctx, prompt, tier)
	})
}

func (t *timeoutClient) call(ctx context.Context, tier ModelTier, fn func(context.Context) (string, error)) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := fn(callCtx)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", &CompletionError{Model: t.inner.GetModel(tier), Cause: r.err}
		}
		return r.text, nil
	case <-callCtx.Done():
		return "", &CompletionError{Model: t.inner.GetModel(tier), Cause: callCtx.Err()}
	}
}

func (t *timeoutClient) GetModel(tier ModelTier) string {
	return t.inner.GetModel(tier)
}

func (t *timeoutClient) Close() error {
	return t.inner.Close()
}
