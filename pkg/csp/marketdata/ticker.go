package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/client"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/komsit37/csp/pkg/csp/expiry"
	"github.com/komsit37/csp/pkg/csp/types"
)

// ErrNoChain is returned when Yahoo lists no chain for the requested expiration.
var ErrNoChain = errors.New("no option chain for expiration")

// TickerService implements PriceSource, OptionSource and CompanySource with
// go-yfinance, which handles Yahoo's cookie and crumb authentication.
// The library calls are not context-aware; ctx is only checked up front.
type TickerService struct {
	timeout time.Duration
	log     zerolog.Logger
}

func NewTickerService(timeout time.Duration, log zerolog.Logger) *TickerService {
	return &TickerService{timeout: timeout, log: log.With().Str("client", "yfinance").Logger()}
}

// open creates a ticker on its own client so the configured timeout applies.
// The returned func releases both.
func (s *TickerService) open(ctx context.Context, sym string) (*ticker.Ticker, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	var opts []client.ClientOption
	if secs := int(math.Ceil(s.timeout.Seconds())); secs > 0 {
		opts = append(opts, client.WithTimeout(secs))
	}
	c, err := client.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	t, err := ticker.New(sym, ticker.WithClient(c))
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("create ticker %s: %w", sym, err)
	}
	return t, func() {
		t.Close()
		c.Close()
	}, nil
}

// LatestPrice returns the close of the most recent daily bar.
func (s *TickerService) LatestPrice(ctx context.Context, sym string) (float64, error) {
	t, done, err := s.open(ctx, sym)
	if err != nil {
		return 0, err
	}
	defer done()

	bars, err := t.History(models.HistoryParams{
		Period:     "1d",
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return 0, fmt.Errorf("history %s: %w", sym, err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no daily bars for %s", sym)
	}
	price := bars[len(bars)-1].Close
	if price <= 0 {
		return 0, fmt.Errorf("invalid close %.4f for %s", price, sym)
	}
	return price, nil
}

// Expirations lists the listed expiration dates as YYYY-MM-DD, ascending.
func (s *TickerService) Expirations(ctx context.Context, sym string) ([]string, error) {
	t, done, err := s.open(ctx, sym)
	if err != nil {
		return nil, err
	}
	defer done()

	dates, err := t.Options()
	if err != nil {
		return nil, fmt.Errorf("options %s: %w", sym, err)
	}
	return expirationDates(dates), nil
}

// Puts returns the put side of the chain in the order Yahoo lists it.
func (s *TickerService) Puts(ctx context.Context, sym, expiration string) ([]types.PutQuote, error) {
	if _, err := expiry.Parse(expiration); err != nil {
		return nil, err
	}
	t, done, err := s.open(ctx, sym)
	if err != nil {
		return nil, err
	}
	defer done()

	dates, err := t.Options()
	if err != nil {
		return nil, fmt.Errorf("options %s: %w", sym, err)
	}
	at, ok := findExpiration(dates, expiration)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", sym, expiration, ErrNoChain)
	}
	// go-yfinance keys its chains by the local-time date of the timestamp.
	chain, err := t.OptionChain(at.Format(expiry.Layout))
	if err != nil {
		return nil, fmt.Errorf("option chain %s %s: %w", sym, expiration, err)
	}
	s.log.Debug().Str("symbol", sym).Str("expiration", expiration).Int("puts", len(chain.Puts)).Msg("fetched chain")
	return putQuotes(chain), nil
}

// CompanyInfo reads the info blob and analyst price targets.
// A failing analyst lookup leaves target and recommendation empty.
func (s *TickerService) CompanyInfo(ctx context.Context, sym string) (types.CompanyInfo, error) {
	t, done, err := s.open(ctx, sym)
	if err != nil {
		return types.CompanyInfo{}, err
	}
	defer done()

	info, err := t.Info()
	if err != nil {
		return types.CompanyInfo{}, fmt.Errorf("info %s: %w", sym, err)
	}

	var ci types.CompanyInfo
	if info.DividendYield > 0 {
		dividendYield := info.DividendYield
		ci.DividendYield = &dividendYield
	}
	if info.CurrentPrice > 0 {
		currentPrice := info.CurrentPrice
		ci.CurrentPrice = &currentPrice
	}

	pt, err := t.AnalystPriceTargets()
	if err != nil {
		s.log.Debug().Err(err).Str("symbol", sym).Msg("analyst price targets unavailable")
		return ci, nil
	}
	if pt.Mean > 0 {
		mean := pt.Mean
		ci.TargetMeanPrice = &mean
	}
	if ci.CurrentPrice == nil && pt.Current > 0 {
		current := pt.Current
		ci.CurrentPrice = &current
	}
	ci.RecommendationKey = pt.RecommendationKey
	return ci, nil
}

// NextEarnings returns the earliest scheduled earnings date, or the zero time.
func (s *TickerService) NextEarnings(ctx context.Context, sym string) (time.Time, error) {
	t, done, err := s.open(ctx, sym)
	if err != nil {
		return time.Time{}, err
	}
	defer done()

	cal, err := t.Calendar()
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar %s: %w", sym, err)
	}
	return nextEarnings(cal), nil
}

// EarningsHistory returns reported quarters in the order Yahoo lists them.
func (s *TickerService) EarningsHistory(ctx context.Context, sym string) ([]types.EarningsQuarter, error) {
	t, done, err := s.open(ctx, sym)
	if err != nil {
		return nil, err
	}
	defer done()

	h, err := t.EarningsHistory()
	if err != nil {
		return nil, fmt.Errorf("earnings history %s: %w", sym, err)
	}
	return earningsQuarters(h), nil
}

// expirationDates formats expiration timestamps as UTC dates, sorted.
func expirationDates(dates []time.Time) []string {
	sorted := append([]time.Time(nil), dates...)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	out := make([]string, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, d.UTC().Format(expiry.Layout))
	}
	return out
}

// findExpiration returns the listed timestamp whose UTC date is expiration.
func findExpiration(dates []time.Time, expiration string) (time.Time, bool) {
	for _, d := range dates {
		if d.UTC().Format(expiry.Layout) == expiration {
			return d, true
		}
	}
	return time.Time{}, false
}

func putQuotes(chain *models.OptionChain) []types.PutQuote {
	if chain == nil {
		return nil
	}
	puts := make([]types.PutQuote, 0, len(chain.Puts))
	for _, p := range chain.Puts {
		puts = append(puts, types.PutQuote{
			Strike:            p.Strike,
			Bid:               p.Bid,
			Ask:               p.Ask,
			OpenInterest:      p.OpenInterest,
			ImpliedVolatility: p.ImpliedVolatility,
		})
	}
	return puts
}

func nextEarnings(cal *models.Calendar) time.Time {
	if cal == nil {
		return time.Time{}
	}
	if d := cal.NextEarningsDate(); d != nil {
		return d.UTC()
	}
	return time.Time{}
}

// earningsQuarters maps go-yfinance history items. The library reports a
// missing value as 0, so a quarter with neither actual nor estimate is
// treated as not reported.
func earningsQuarters(h *models.EarningsHistory) []types.EarningsQuarter {
	if h == nil {
		return nil
	}
	out := make([]types.EarningsQuarter, 0, len(h.History))
	for _, item := range h.History {
		if item.EPSActual == 0 && item.EPSEstimate == 0 {
			continue
		}
		actual, estimate := item.EPSActual, item.EPSEstimate
		out = append(out, types.EarningsQuarter{
			Quarter:  item.Quarter.UTC(),
			Actual:   &actual,
			Estimate: &estimate,
		})
	}
	return out
}
