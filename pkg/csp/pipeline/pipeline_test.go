package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/csp/pkg/csp/columns"
	"github.com/komsit37/csp/pkg/csp/filter"
	"github.com/komsit37/csp/pkg/csp/fundamentals"
	"github.com/komsit37/csp/pkg/csp/screener"
	"github.com/komsit37/csp/pkg/csp/types"
)

var monday = time.Date(2026, time.October, 19, 14, 0, 0, 0, time.UTC)

type fakeScreener struct {
	results map[string]types.ScreenResult
}

func key(ticker, exp string) string { return ticker + "|" + exp }

func (f *fakeScreener) Screen(ctx context.Context, ticker, expiration string, m float64, today time.Time) (types.ScreenResult, error) {
	if r, ok := f.results[key(ticker, expiration)]; ok {
		return r, nil
	}
	return types.ScreenResult{}, screener.ErrNoQualifyingStrike
}

type fakeFundamentals struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeFundamentals) Enrich(ctx context.Context, ticker string) (types.Fundamentals, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ticker)
	f.mu.Unlock()
	if f.fail[ticker] {
		return fundamentals.Default(), errors.New("rate limited")
	}
	d := fundamentals.Default()
	d.Recommendation = "Buy"
	d.Score = 1
	return d, nil
}

func result(ticker, exp string, price, bid, roi float64) types.ScreenResult {
	return types.ScreenResult{Ticker: ticker, Expiration: exp, CurrentPrice: price, Bid: bid, AbsROIPct: roi}
}

func opts() Options {
	return Options{Moneyness: 5, Price: filter.DefaultPriceRange()}
}

func tickersOf(rs types.ResultSet) []string {
	out := make([]string, 0, len(rs.Records))
	for _, r := range rs.Records {
		out = append(out, r.Ticker)
	}
	return out
}

func TestRunAll_SortsByBidAndFiltersPrice(t *testing.T) {
	exp := "2026-10-23"
	fs := &fakeScreener{results: map[string]types.ScreenResult{
		key("AAPL", exp): result("AAPL", exp, 200, 2.0, 1.08),
		key("MSFT", exp): result("MSFT", exp, 400, 5.0, 1.3),
		key("TSLA", exp): result("TSLA", exp, 1200, 9.0, 0.8),
		key("AMD", exp):  result("AMD", exp, 50, 0.5, 1.0),
	}}
	ff := &fakeFundamentals{}
	r := &Runner{Screener: fs, Fundamentals: ff, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	rs, err := r.RunAll(context.Background(), []string{"AAPL", "AMD", "MSFT", "NVDA", "TSLA"}, exp, opts())
	require.NoError(t, err)

	assert.Equal(t, types.ModeAll, rs.Mode)
	assert.Equal(t, exp, rs.Expiration)
	assert.Equal(t, "bid", rs.SortKey)
	assert.Equal(t, []string{"MSFT", "AAPL", "AMD"}, tickersOf(rs))
	assert.Equal(t, "Buy", rs.Records[0].Recommendation)
	assert.ElementsMatch(t, []string{"AAPL", "AMD", "MSFT"}, ff.calls, "fundamentals only for survivors")

	require.Len(t, rs.Skipped, 2)
	assert.Equal(t, "NVDA", rs.Skipped[0].Ticker)
	assert.True(t, errors.Is(rs.Skipped[0].Err, screener.ErrNoQualifyingStrike))
	assert.Equal(t, "TSLA", rs.Skipped[1].Ticker)
	assert.True(t, errors.Is(rs.Skipped[1].Err, ErrPriceOutOfRange))
}

func TestRunSingle_NextFourFridaysSortedByROI(t *testing.T) {
	fs := &fakeScreener{results: map[string]types.ScreenResult{
		key("AAPL", "2026-10-23"): result("AAPL", "2026-10-23", 200, 2.0, 1.08),
		key("AAPL", "2026-10-30"): result("AAPL", "2026-10-30", 200, 3.1, 1.68),
		key("AAPL", "2026-11-06"): result("AAPL", "2026-11-06", 200, 3.9, 2.11),
		key("AAPL", "2026-11-20"): result("AAPL", "2026-11-20", 200, 9.9, 9.99),
	}}
	r := &Runner{Screener: fs, Fundamentals: &fakeFundamentals{}, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	rs, err := r.RunSingle(context.Background(), " aapl", opts())
	require.NoError(t, err)

	assert.Equal(t, types.ModeSingle, rs.Mode)
	assert.Equal(t, "AAPL", rs.Ticker)
	assert.Equal(t, "roi%", rs.SortKey)
	exps := make([]string, 0, len(rs.Records))
	for _, rec := range rs.Records {
		exps = append(exps, rec.Expiration)
	}
	assert.Equal(t, []string{"2026-11-06", "2026-10-30", "2026-10-23"}, exps)
	require.Len(t, rs.Skipped, 1)
	assert.Equal(t, "2026-11-13", rs.Skipped[0].Expiration)
}

func TestRunSingle_EmptyIsNotAnError(t *testing.T) {
	r := &Runner{Screener: &fakeScreener{}, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	rs, err := r.RunSingle(context.Background(), "AAPL", Options{Moneyness: 5, Price: filter.DefaultPriceRange(), Weeks: 2})
	require.NoError(t, err)
	assert.True(t, rs.Empty())
	assert.Len(t, rs.Skipped, 2)
}

func TestRun_FundamentalsFailureKeepsRecord(t *testing.T) {
	exp := "2026-10-23"
	fs := &fakeScreener{results: map[string]types.ScreenResult{
		key("AAPL", exp): result("AAPL", exp, 200, 2.0, 1.08),
	}}
	ff := &fakeFundamentals{fail: map[string]bool{"AAPL": true}}
	r := &Runner{Screener: fs, Fundamentals: ff, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	rs, err := r.RunAll(context.Background(), []string{"AAPL"}, exp, opts())
	require.NoError(t, err)
	require.Len(t, rs.Records, 1)
	assert.Equal(t, fundamentals.Default(), rs.Records[0].Fundamentals)
}

func TestRun_ConcurrencyPreservesOrder(t *testing.T) {
	exp := "2026-10-23"
	tickers := []string{"T01", "T02", "T03", "T04", "T05", "T06", "T07", "T08", "T09", "T10"}
	results := map[string]types.ScreenResult{}
	for _, tk := range tickers {
		results[key(tk, exp)] = result(tk, exp, 100, 1.0, 1.0)
	}
	r := &Runner{Screener: &fakeScreener{results: results}, Fundamentals: &fakeFundamentals{}, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	seq, err := r.RunAll(context.Background(), tickers, exp, opts())
	require.NoError(t, err)

	o := opts()
	o.Concurrency = 4
	par, err := r.RunAll(context.Background(), tickers, exp, o)
	require.NoError(t, err)

	assert.Equal(t, tickers, tickersOf(seq), "equal bids keep input order")
	assert.Equal(t, tickersOf(seq), tickersOf(par))
}

func TestRun_SortOverride(t *testing.T) {
	exp := "2026-10-23"
	fs := &fakeScreener{results: map[string]types.ScreenResult{
		key("MSFT", exp): result("MSFT", exp, 400, 5.0, 1.3),
		key("AAPL", exp): result("AAPL", exp, 200, 2.0, 1.08),
	}}
	r := &Runner{Screener: fs, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	o := opts()
	o.SortKey = "Ticker"
	rs, err := r.RunAll(context.Background(), []string{"MSFT", "AAPL"}, exp, o)
	require.NoError(t, err)
	assert.Equal(t, "ticker", rs.SortKey)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickersOf(rs))

	o.SortKey = "delta"
	_, err = r.RunAll(context.Background(), []string{"MSFT"}, exp, o)
	var unknown *columns.UnknownColumnError
	assert.True(t, errors.As(err, &unknown))
}

func TestRun_InvalidInputs(t *testing.T) {
	r := &Runner{Screener: &fakeScreener{}, Log: zerolog.Nop(), Now: func() time.Time { return monday }}
	ctx := context.Background()

	_, err := r.RunAll(ctx, []string{"AAPL"}, "Oct 23", opts())
	assert.Error(t, err)

	_, err = r.RunSingle(ctx, "", opts())
	assert.Error(t, err)

	o := opts()
	o.Price = filter.PriceRange{Min: 500, Max: 100}
	_, err = r.RunSingle(ctx, "AAPL", o)
	assert.Error(t, err)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Screener: &fakeScreener{}, Log: zerolog.Nop(), Now: func() time.Time { return monday }}

	_, err := r.RunAll(ctx, []string{"AAPL"}, "2026-10-23", opts())
	assert.True(t, errors.Is(err, context.Canceled))
}
