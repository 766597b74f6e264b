// Package screener picks the best cash-secured put for one ticker and
// expiration and derives its return metrics.
package screener

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/csp/pkg/csp/expiry"
	"github.com/komsit37/csp/pkg/csp/marketdata"
	"github.com/komsit37/csp/pkg/csp/types"
)

var (
	ErrNoPrice               = errors.New("no current price")
	ErrExpirationUnavailable = errors.New("expiration not listed")
	ErrChainUnavailable      = errors.New("option chain unavailable")
	ErrNoQualifyingStrike    = errors.New("no strike at or below moneyness threshold")
	ErrExpired               = errors.New("expiration is not in the future")
	ErrInvalidContract       = errors.New("invalid contract")
	ErrInvalidMoneyness      = errors.New("moneyness must be within 0-100")
)

// Screener screens (ticker, expiration) pairs against a market data provider.
type Screener struct {
	prices  marketdata.PriceSource
	options marketdata.OptionSource
	log     zerolog.Logger
}

func New(prices marketdata.PriceSource, options marketdata.OptionSource, log zerolog.Logger) *Screener {
	return &Screener{
		prices:  prices,
		options: options,
		log:     log.With().Str("component", "screener").Logger(),
	}
}

// Screen returns the highest-bid put whose strike is at least moneynessPct
// below the current price. Every error wraps one of the package sentinels.
func (s *Screener) Screen(ctx context.Context, ticker, expiration string, moneynessPct float64, today time.Time) (types.ScreenResult, error) {
	if moneynessPct < 0 || moneynessPct > 100 || math.IsNaN(moneynessPct) {
		return types.ScreenResult{}, fmt.Errorf("%v: %w", moneynessPct, ErrInvalidMoneyness)
	}

	price, err := s.prices.LatestPrice(ctx, ticker)
	if err != nil {
		return types.ScreenResult{}, fmt.Errorf("%s: %w: %v", ticker, ErrNoPrice, err)
	}
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return types.ScreenResult{}, fmt.Errorf("%s: %w: got %v", ticker, ErrNoPrice, price)
	}

	listed, err := s.options.Expirations(ctx, ticker)
	if err != nil {
		return types.ScreenResult{}, fmt.Errorf("%s: %w: %v", ticker, ErrChainUnavailable, err)
	}
	if !slices.Contains(listed, expiration) {
		return types.ScreenResult{}, fmt.Errorf("%s %s: %w", ticker, expiration, ErrExpirationUnavailable)
	}

	puts, err := s.options.Puts(ctx, ticker, expiration)
	if err != nil {
		return types.ScreenResult{}, fmt.Errorf("%s %s: %w: %v", ticker, expiration, ErrChainUnavailable, err)
	}

	maxStrike := price * (1 - moneynessPct/100)
	best, ok := SelectBestPut(puts, maxStrike)
	if !ok {
		return types.ScreenResult{}, fmt.Errorf("%s %s: %w (max strike %.2f)", ticker, expiration, ErrNoQualifyingStrike, maxStrike)
	}
	s.log.Debug().
		Str("ticker", ticker).
		Str("expiration", expiration).
		Float64("max_strike", maxStrike).
		Float64("strike", best.Strike).
		Float64("bid", best.Bid).
		Msg("selected put")

	days, err := expiry.DaysUntil(today, expiration)
	if err != nil {
		return types.ScreenResult{}, err
	}
	return Derive(ticker, expiration, price, best, days)
}

// SelectBestPut returns the max-bid put with strike <= maxStrike.
// Ties keep the earliest row.
func SelectBestPut(puts []types.PutQuote, maxStrike float64) (types.PutQuote, bool) {
	var (
		best  types.PutQuote
		found bool
	)
	for _, p := range puts {
		if p.Strike > maxStrike {
			continue
		}
		if !found || p.Bid > best.Bid {
			best, found = p, true
		}
	}
	return best, found
}

// Derive computes premium, cash required and ROI for a selected put.
func Derive(ticker, expiration string, price float64, p types.PutQuote, days int) (types.ScreenResult, error) {
	if days <= 0 {
		return types.ScreenResult{}, fmt.Errorf("%s %s: %w (%d days)", ticker, expiration, ErrExpired, days)
	}
	if p.Strike <= 0 {
		return types.ScreenResult{}, fmt.Errorf("%s %s: %w: strike %v", ticker, expiration, ErrInvalidContract, p.Strike)
	}

	absROI := p.Bid / p.Strike * 100
	return types.ScreenResult{
		Ticker:           ticker,
		Expiration:       expiration,
		DaysToExpiration: days,
		CurrentPrice:     Round2(price),
		Strike:           Round2(p.Strike),
		Bid:              Round2(p.Bid),
		Ask:              Round2(p.Ask),
		OpenInterest:     p.OpenInterest,
		Premium:          Round2(p.Bid * 100),
		CashRequired:     Round2(p.Strike * 100),
		AbsROIPct:        Round2(absROI),
		AnnualizedROIPct: Round2(absROI / float64(days) * 365),
		IVPct:            Round2(p.ImpliedVolatility * 100),
	}, nil
}

// Round2 rounds half away from zero to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
