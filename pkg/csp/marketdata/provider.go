// Package marketdata fetches prices, option chains and company data for the
// screener. Each concern sits behind a small interface so tests can supply
// fixed data and the CLI can pick a backend from config.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/csp/pkg/csp/types"
)

// PriceSource returns the latest price of the underlying.
type PriceSource interface {
	LatestPrice(ctx context.Context, sym string) (float64, error)
}

// OptionSource lists expirations and put chains.
type OptionSource interface {
	Expirations(ctx context.Context, sym string) ([]string, error)
	Puts(ctx context.Context, sym, expiration string) ([]types.PutQuote, error)
}

// InfoSource returns company-level fields (dividend, analyst target, ...).
type InfoSource interface {
	CompanyInfo(ctx context.Context, sym string) (types.CompanyInfo, error)
}

// EarningsSource returns the earnings calendar and quarterly EPS history.
// NextEarnings returns the zero time when no date is scheduled.
type EarningsSource interface {
	NextEarnings(ctx context.Context, sym string) (time.Time, error)
	EarningsHistory(ctx context.Context, sym string) ([]types.EarningsQuarter, error)
}

// CompanySource is everything the fundamentals enricher needs.
type CompanySource interface {
	InfoSource
	EarningsSource
}

// Composite groups the three sources used by a screening run.
type Composite struct {
	Prices  PriceSource
	Options OptionSource
	Company CompanySource
}

// Price sources selectable from config.
const (
	PriceSourceClose = "close" // last daily close
	PriceSourceQuote = "quote" // live regular-market price
)

// Config selects and tunes the Yahoo-backed sources.
type Config struct {
	PriceSource string
	Timeout     time.Duration
}

// New wires the Yahoo Finance backends into a Composite.
func New(cfg Config, log zerolog.Logger) (*Composite, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	tickers := NewTickerService(cfg.Timeout, log)

	var prices PriceSource
	switch cfg.PriceSource {
	case "", PriceSourceClose:
		prices = tickers
	case PriceSourceQuote:
		prices = NewQuoteService(cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown price source %q (want %s or %s)", cfg.PriceSource, PriceSourceClose, PriceSourceQuote)
	}

	return &Composite{
		Prices:  prices,
		Options: tickers,
		Company: tickers,
	}, nil
}
