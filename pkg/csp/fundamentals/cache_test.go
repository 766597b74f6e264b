package fundamentals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/csp/pkg/csp/types"
)

type countingSource struct {
	calls map[string]int
	err   error
}

func (s *countingSource) Enrich(ctx context.Context, ticker string) (types.Fundamentals, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[ticker]++
	if s.err != nil {
		return Default(), s.err
	}
	f := Default()
	f.Score = len(ticker)
	return f, nil
}

func TestCached_HitWithinTTL(t *testing.T) {
	src := &countingSource{}
	c := NewCached(src, time.Minute, 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f, err := c.Enrich(ctx, "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 4, f.Score)
	}
	assert.Equal(t, 1, src.calls["AAPL"])
}

func TestCached_Expires(t *testing.T) {
	src := &countingSource{}
	c := NewCached(src, time.Minute, 10)
	now := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = c.Enrich(ctx, "MSFT")
	now = now.Add(2 * time.Minute)
	_, _ = c.Enrich(ctx, "MSFT")
	assert.Equal(t, 2, src.calls["MSFT"])
}

func TestCached_EvictsLeastRecentlyUsed(t *testing.T) {
	src := &countingSource{}
	c := NewCached(src, time.Hour, 2)
	ctx := context.Background()

	_, _ = c.Enrich(ctx, "AAPL")
	_, _ = c.Enrich(ctx, "MSFT")
	_, _ = c.Enrich(ctx, "AAPL") // AAPL becomes most recent
	_, _ = c.Enrich(ctx, "NVDA") // evicts MSFT
	assert.Equal(t, 2, c.Len())

	_, _ = c.Enrich(ctx, "AAPL")
	_, _ = c.Enrich(ctx, "MSFT")
	assert.Equal(t, 1, src.calls["AAPL"])
	assert.Equal(t, 2, src.calls["MSFT"])
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: errors.New("rate limited")}
	c := NewCached(src, time.Hour, 10)
	ctx := context.Background()

	f, err := c.Enrich(ctx, "TSLA")
	require.Error(t, err)
	assert.Equal(t, Default(), f)
	_, _ = c.Enrich(ctx, "TSLA")
	assert.Equal(t, 2, src.calls["TSLA"])
	assert.Zero(t, c.Len())
}
