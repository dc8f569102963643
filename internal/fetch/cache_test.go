package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	text  string
	err   error
	calls int
}

func (f *countingFetcher) JobText(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestCachedFetcher_ReusesWithinTTL(t *testing.T) {
	next := &countingFetcher{text: "posting"}
	cache := NewCachedFetcher(next, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		text, err := cache.JobText(context.Background(), "https://example.com/job")
		require.NoError(t, err)
		assert.Equal(t, "posting", text)
	}
	assert.Equal(t, 1, next.calls)

	_, err := cache.JobText(context.Background(), "https://example.com/other")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 2, cache.Len())
}

func TestCachedFetcher_Expires(t *testing.T) {
	next := &countingFetcher{text: "posting"}
	cache := NewCachedFetcher(next, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.JobText(context.Background(), "u")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cache.JobText(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestCachedFetcher_DoesNotCacheErrors(t *testing.T) {
	next := &countingFetcher{err: errors.New("boom")}
	cache := NewCachedFetcher(next, 0)

	_, err := cache.JobText(context.Background(), "u")
	require.Error(t, err)
	_, err = cache.JobText(context.Background(), "u")
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
