package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
	delay time.Duration
}

func (m *mockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	args := m.Called(prompt, tier)
	return args.String(0), args.Error(1)
}

func (m *mockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return m.GenerateContent(ctx, prompt, tier)
}

func (m *mockClient) GetModel(ModelTier) string { return "test-model" }

func (m *mockClient) Close() error { return nil }

func TestWithTimeout_PassesThrough(t *testing.T) {
	inner := &mockClient{}
	inner.On("GenerateContent", "prompt", TierStandard).Return("ok", nil)

	client := WithTimeout(inner, time.Second)
	text, err := client.GenerateContent(context.Background(), "prompt", TierStandard)

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "test-model", client.GetModel(TierStandard))
	inner.AssertExpectations(t)
}

func TestWithTimeout_WrapsFailure(t *testing.T) {
	inner := &mockClient{}
	cause := errors.New("unavailable")
	inner.On("GenerateContent", "prompt", TierStandard).Return("", cause)

	_, err := WithTimeout(inner, time.Second).GenerateJSON(context.Background(), "prompt", TierStandard)

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, "test-model", completionErr.Model)
	assert.False(t, completionErr.Timeout())
	assert.ErrorIs(t, err, cause)
}

func TestWithTimeout_Deadline(t *testing.T) {
	inner := &mockClient{delay: time.Second}

	start := time.Now()
	_, err := WithTimeout(inner, 20*time.Millisecond).GenerateContent(context.Background(), "prompt", TierStandard)

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.True(t, completionErr.Timeout())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Contains(t, err.Error(), "timed out")
}
