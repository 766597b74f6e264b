package screener

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/csp/pkg/csp/types"
)

type fakeMarket struct {
	price       float64
	priceErr    error
	expirations []string
	puts        []types.PutQuote
	putsErr     error
}

func (f *fakeMarket) LatestPrice(ctx context.Context, sym string) (float64, error) {
	return f.price, f.priceErr
}

func (f *fakeMarket) Expirations(ctx context.Context, sym string) ([]string, error) {
	return f.expirations, nil
}

func (f *fakeMarket) Puts(ctx context.Context, sym, expiration string) ([]types.PutQuote, error) {
	return f.puts, f.putsErr
}

var monday = time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

func newScreener(m *fakeMarket) *Screener {
	return New(m, m, zerolog.Nop())
}

func TestScreen_SelectsBestQualifyingPut(t *testing.T) {
	m := &fakeMarket{
		price:       200,
		expirations: []string{"2026-10-23", "2026-10-30"},
		puts: []types.PutQuote{
			{Strike: 185, Bid: 2.0, Ask: 2.2, OpenInterest: 1200, ImpliedVolatility: 0.3123},
			{Strike: 195, Bid: 3.0, Ask: 3.3, OpenInterest: 800, ImpliedVolatility: 0.28},
		},
	}

	got, err := newScreener(m).Screen(context.Background(), "AAPL", "2026-10-23", 5, monday)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "2026-10-23", got.Expiration)
	assert.Equal(t, 4, got.DaysToExpiration)
	assert.Equal(t, 200.0, got.CurrentPrice)
	assert.Equal(t, 185.0, got.Strike)
	assert.Equal(t, 2.0, got.Bid)
	assert.Equal(t, 2.2, got.Ask)
	assert.Equal(t, int64(1200), got.OpenInterest)
	assert.Equal(t, 200.0, got.Premium)
	assert.Equal(t, 18500.0, got.CashRequired)
	assert.Equal(t, 1.08, got.AbsROIPct)
	assert.Equal(t, 98.65, got.AnnualizedROIPct)
	assert.Equal(t, 31.23, got.IVPct)
}

func TestScreen_Errors(t *testing.T) {
	base := func() *fakeMarket {
		return &fakeMarket{
			price:       200,
			expirations: []string{"2026-10-23"},
			puts:        []types.PutQuote{{Strike: 185, Bid: 2}},
		}
	}

	tests := []struct {
		name       string
		mutate     func(*fakeMarket)
		expiration string
		moneyness  float64
		today      time.Time
		want       error
	}{
		{"no qualifying strike", func(m *fakeMarket) { m.puts = []types.PutQuote{{Strike: 195, Bid: 3}} }, "2026-10-23", 5, monday, ErrNoQualifyingStrike},
		{"empty chain", func(m *fakeMarket) { m.puts = nil }, "2026-10-23", 5, monday, ErrNoQualifyingStrike},
		{"expiration not listed", nil, "2026-10-30", 5, monday, ErrExpirationUnavailable},
		{"price error", func(m *fakeMarket) { m.priceErr = errors.New("boom") }, "2026-10-23", 5, monday, ErrNoPrice},
		{"zero price", func(m *fakeMarket) { m.price = 0 }, "2026-10-23", 5, monday, ErrNoPrice},
		{"chain error", func(m *fakeMarket) { m.putsErr = errors.New("timeout") }, "2026-10-23", 5, monday, ErrChainUnavailable},
		{"expires today", nil, "2026-10-23", 5, time.Date(2026, time.October, 23, 9, 0, 0, 0, time.UTC), ErrExpired},
		{"zero strike", func(m *fakeMarket) { m.puts = []types.PutQuote{{Strike: 0, Bid: 1}} }, "2026-10-23", 5, monday, ErrInvalidContract},
		{"negative moneyness", nil, "2026-10-23", -1, monday, ErrInvalidMoneyness},
		{"moneyness over 100", nil, "2026-10-23", 101, monday, ErrInvalidMoneyness},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := base()
			if tc.mutate != nil {
				tc.mutate(m)
			}
			_, err := newScreener(m).Screen(context.Background(), "AAPL", tc.expiration, tc.moneyness, tc.today)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}

func TestScreen_ZeroMoneynessAllowsAtTheMoney(t *testing.T) {
	m := &fakeMarket{
		price:       100,
		expirations: []string{"2026-10-23"},
		puts:        []types.PutQuote{{Strike: 100, Bid: 1.5}, {Strike: 101, Bid: 9}},
	}
	got, err := newScreener(m).Screen(context.Background(), "X", "2026-10-23", 0, monday)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Strike)
}

func TestSelectBestPut(t *testing.T) {
	puts := []types.PutQuote{
		{Strike: 170, Bid: 1.2},
		{Strike: 180, Bid: 2.5},
		{Strike: 175, Bid: 2.5},
		{Strike: 200, Bid: 9.0},
	}

	best, ok := SelectBestPut(puts, 190)
	require.True(t, ok)
	assert.Equal(t, 180.0, best.Strike, "ties keep the first row")

	_, ok = SelectBestPut(puts, 100)
	assert.False(t, ok)

	_, ok = SelectBestPut(nil, 100)
	assert.False(t, ok)
}

func TestDerive_AnnualizedScalesWithDays(t *testing.T) {
	p := types.PutQuote{Strike: 185, Bid: 2}

	ten, err := Derive("AAPL", "x", 200, p, 10)
	require.NoError(t, err)
	twenty, err := Derive("AAPL", "x", 200, p, 20)
	require.NoError(t, err)

	assert.Equal(t, ten.AbsROIPct, twenty.AbsROIPct)
	assert.InDelta(t, ten.AnnualizedROIPct, 2*twenty.AnnualizedROIPct, 0.011)
}

func TestDerive_NeverInfinite(t *testing.T) {
	for _, days := range []int{0, -1} {
		_, err := Derive("AAPL", "x", 200, types.PutQuote{Strike: 185, Bid: 2}, days)
		assert.True(t, errors.Is(err, ErrExpired))
	}

	r, err := Derive("AAPL", "x", 200, types.PutQuote{Strike: 185, Bid: 0}, 1)
	require.NoError(t, err)
	assert.False(t, math.IsInf(r.AnnualizedROIPct, 0))
	assert.Zero(t, r.AbsROIPct)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.08, Round2(1.0810810))
	assert.Equal(t, 98.65, Round2(98.6486486))
	assert.Equal(t, -1.24, Round2(-1.236))
}
