// Package pipeline runs screening across tickers and expirations, merges
// fundamentals and sorts the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/csp/pkg/csp/columns"
	"github.com/komsit37/csp/pkg/csp/expiry"
	"github.com/komsit37/csp/pkg/csp/filter"
	"github.com/komsit37/csp/pkg/csp/fundamentals"
	"github.com/komsit37/csp/pkg/csp/types"
)

// ErrPriceOutOfRange marks a pair dropped by the price filter.
var ErrPriceOutOfRange = errors.New("price outside range")

// DefaultWeeks is how many weekly expirations a single-ticker run covers.
const DefaultWeeks = 4

// Default sort keys per mode.
const (
	SortAll    = "bid"
	SortSingle = "roi%"
)

// Screener is the per-pair stage; *screener.Screener implements it.
type Screener interface {
	Screen(ctx context.Context, ticker, expiration string, moneynessPct float64, today time.Time) (types.ScreenResult, error)
}

type Runner struct {
	Screener     Screener
	Fundamentals fundamentals.Source
	Log          zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Options struct {
	Moneyness   float64
	Price       filter.PriceRange
	Weeks       int
	SortKey     string
	Concurrency int
}

type pair struct {
	ticker     string
	expiration string
}

type outcome struct {
	rec  *types.Record
	skip *types.Skip
}

// RunSingle screens the next opts.Weeks weekly expirations of one ticker,
// sorted by Abs ROI unless opts.SortKey says otherwise.
func (r *Runner) RunSingle(ctx context.Context, ticker string, opts Options) (types.ResultSet, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return types.ResultSet{}, fmt.Errorf("ticker is required")
	}
	weeks := opts.Weeks
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	sortKey, err := resolveSortKey(opts.SortKey, SortSingle)
	if err != nil {
		return types.ResultSet{}, err
	}
	if err := opts.Price.Validate(); err != nil {
		return types.ResultSet{}, err
	}

	today := r.now()
	var pairs []pair
	for _, exp := range expiry.WeeklyFridays(today, weeks) {
		pairs = append(pairs, pair{ticker: ticker, expiration: exp})
	}

	recs, skipped, err := r.run(ctx, pairs, today, opts)
	if err != nil {
		return types.ResultSet{}, err
	}
	sortRecords(recs, sortKey)
	return types.ResultSet{
		Mode:    types.ModeSingle,
		Ticker:  ticker,
		SortKey: sortKey,
		Records: recs,
		Skipped: skipped,
	}, nil
}

// RunAll screens every ticker for one expiration, sorted by Bid unless
// opts.SortKey says otherwise.
func (r *Runner) RunAll(ctx context.Context, tickers []string, expiration string, opts Options) (types.ResultSet, error) {
	if _, err := expiry.Parse(expiration); err != nil {
		return types.ResultSet{}, err
	}
	sortKey, err := resolveSortKey(opts.SortKey, SortAll)
	if err != nil {
		return types.ResultSet{}, err
	}
	if err := opts.Price.Validate(); err != nil {
		return types.ResultSet{}, err
	}

	pairs := make([]pair, 0, len(tickers))
	for _, t := range tickers {
		pairs = append(pairs, pair{ticker: t, expiration: expiration})
	}

	recs, skipped, err := r.run(ctx, pairs, r.now(), opts)
	if err != nil {
		return types.ResultSet{}, err
	}
	sortRecords(recs, sortKey)
	return types.ResultSet{
		Mode:       types.ModeAll,
		Expiration: expiration,
		SortKey:    sortKey,
		Records:    recs,
		Skipped:    skipped,
	}, nil
}

// run processes pairs on a bounded pool. Outcomes land in indexed slots so
// the result order matches pairs regardless of concurrency.
func (r *Runner) run(ctx context.Context, pairs []pair, today time.Time, opts Options) ([]types.Record, []types.Skip, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	outcomes := make([]outcome, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.process(gctx, p, today, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	recs := make([]types.Record, 0, len(pairs))
	var skipped []types.Skip
	for _, o := range outcomes {
		switch {
		case o.rec != nil:
			recs = append(recs, *o.rec)
		case o.skip != nil:
			skipped = append(skipped, *o.skip)
		}
	}
	return recs, skipped, nil
}

func (r *Runner) process(ctx context.Context, p pair, today time.Time, opts Options) outcome {
	log := r.Log.With().Str("ticker", p.ticker).Str("expiration", p.expiration).Logger()

	res, err := r.Screener.Screen(ctx, p.ticker, p.expiration, opts.Moneyness, today)
	if err != nil {
		log.Debug().Err(err).Msg("pair skipped")
		return outcome{skip: &types.Skip{Ticker: p.ticker, Expiration: p.expiration, Err: err}}
	}
	if !opts.Price.Contains(res.CurrentPrice) {
		err := fmt.Errorf("%s at %.2f not in %s: %w", p.ticker, res.CurrentPrice, opts.Price, ErrPriceOutOfRange)
		log.Debug().Err(err).Msg("pair skipped")
		return outcome{skip: &types.Skip{Ticker: p.ticker, Expiration: p.expiration, Err: err}}
	}

	f := fundamentals.Default()
	if r.Fundamentals != nil {
		f, err = r.Fundamentals.Enrich(ctx, p.ticker)
		if err != nil {
			log.Warn().Err(err).Msg("fundamentals unavailable")
		}
	}
	return outcome{rec: &types.Record{ScreenResult: res, Fundamentals: f}}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func resolveSortKey(key, def string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return def, nil
	}
	c, ok := columns.Lookup(key)
	if !ok {
		return "", &columns.UnknownColumnError{Name: key}
	}
	return c.Key, nil
}

// sortRecords orders numeric columns descending and text ascending.
// The sort is stable, so ties keep screening order.
func sortRecords(recs []types.Record, key string) {
	c := columns.Registry[key]
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := c.Value(recs[i]), c.Value(recs[j])
		switch av := a.(type) {
		case float64:
			return av > b.(float64)
		case int64:
			return av > b.(int64)
		case string:
			return av < b.(string)
		}
		return false
	})
}
