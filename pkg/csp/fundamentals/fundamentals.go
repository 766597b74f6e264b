// Package fundamentals derives dividend, earnings and analyst fields for a
// ticker and scores them.
package fundamentals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/csp/pkg/csp/expiry"
	"github.com/komsit37/csp/pkg/csp/marketdata"
	"github.com/komsit37/csp/pkg/csp/types"
)

// Source is implemented by Enricher and Cached.
type Source interface {
	Enrich(ctx context.Context, ticker string) (types.Fundamentals, error)
}

// Enricher fetches company data and summarizes it.
type Enricher struct {
	company marketdata.CompanySource
	log     zerolog.Logger
}

func New(company marketdata.CompanySource, log zerolog.Logger) *Enricher {
	return &Enricher{
		company: company,
		log:     log.With().Str("component", "fundamentals").Logger(),
	}
}

// Enrich always returns a usable record. On any fetch failure it returns
// Default() together with the error.
func (e *Enricher) Enrich(ctx context.Context, ticker string) (types.Fundamentals, error) {
	info, err := e.company.CompanyInfo(ctx, ticker)
	if err != nil {
		return Default(), fmt.Errorf("company info %s: %w", ticker, err)
	}
	next, err := e.company.NextEarnings(ctx, ticker)
	if err != nil {
		return Default(), fmt.Errorf("earnings calendar %s: %w", ticker, err)
	}
	history, err := e.company.EarningsHistory(ctx, ticker)
	if err != nil {
		return Default(), fmt.Errorf("earnings history %s: %w", ticker, err)
	}
	f := Summarize(info, next, history)
	e.log.Debug().Str("ticker", ticker).Int("score", f.Score).Msg("enriched")
	return f, nil
}

// Default is the record used when nothing could be fetched.
func Default() types.Fundamentals {
	return types.Fundamentals{
		EarningsDate:   types.NotAvailable,
		Recommendation: types.NotAvailable,
		EPSLast4:       types.NotAvailable,
		EPSBeats:       types.NotAvailable,
	}
}

// Summarize derives the display fields from raw provider data.
func Summarize(info types.CompanyInfo, nextEarnings time.Time, history []types.EarningsQuarter) types.Fundamentals {
	f := Default()

	if info.DividendYield != nil && *info.DividendYield != 0 {
		f.DividendYieldPct = round2(*info.DividendYield * 100)
	}
	if !nextEarnings.IsZero() {
		f.EarningsDate = nextEarnings.UTC().Format(expiry.Layout)
	}
	if info.TargetMeanPrice != nil {
		f.PriceTarget = round2(*info.TargetMeanPrice)
	}
	if info.RecommendationKey != "" {
		f.Recommendation = capitalize(info.RecommendationKey)
	}

	last := lastQuarters(history, 4)
	var eps []string
	beats, compared := 0, 0
	for _, q := range last {
		if q.Actual == nil {
			continue
		}
		eps = append(eps, fmt.Sprintf("%.2f", *q.Actual))
		if q.Estimate != nil {
			compared++
			if *q.Actual >= *q.Estimate {
				beats++
			}
		}
	}
	if len(eps) > 0 {
		f.EPSLast4 = strings.Join(eps, ", ")
	}
	if compared > 0 {
		f.EPSBeats = fmt.Sprintf("%d/%d", beats, compared)
	}

	f.Score = Score(info)
	return f
}

// Score awards one point each for a "buy" rating, an analyst target above
// the current price and a non-zero dividend.
func Score(info types.CompanyInfo) int {
	score := 0
	if strings.EqualFold(info.RecommendationKey, "buy") {
		score++
	}
	if info.TargetMeanPrice != nil && info.CurrentPrice != nil && *info.TargetMeanPrice > *info.CurrentPrice {
		score++
	}
	if info.DividendYield != nil && *info.DividendYield != 0 {
		score++
	}
	return score
}

// lastQuarters returns the n most recent quarters, oldest first.
func lastQuarters(history []types.EarningsQuarter, n int) []types.EarningsQuarter {
	qs := append([]types.EarningsQuarter(nil), history...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Quarter.Before(qs[j].Quarter) })
	if len(qs) > n {
		qs = qs[len(qs)-n:]
	}
	return qs
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
