package types

import "time"

// NotAvailable is shown wherever a fundamentals field could not be derived.
const NotAvailable = "N/A"

// Screening modes.
const (
	ModeAll    = "ALL"
	ModeSingle = "SINGLE"
)

// PutQuote is one row of a provider's put chain.
// ImpliedVolatility is a fraction (0.25 for 25%).
type PutQuote struct {
	Strike            float64
	Bid               float64
	Ask               float64
	OpenInterest      int64
	ImpliedVolatility float64
}

// ScreenResult is the best qualifying put for one (ticker, expiration) pair.
// All floats are rounded to 2 decimals; IVPct is a percentage.
type ScreenResult struct {
	Ticker           string
	Expiration       string
	DaysToExpiration int
	CurrentPrice     float64
	Strike           float64
	Bid              float64
	Ask              float64
	OpenInterest     int64
	Premium          float64
	CashRequired     float64
	AbsROIPct        float64
	AnnualizedROIPct float64
	IVPct            float64
}

// Fundamentals is the qualitative summary attached to each screen result.
type Fundamentals struct {
	DividendYieldPct float64
	EarningsDate     string
	PriceTarget      float64
	Recommendation   string
	EPSLast4         string
	EPSBeats         string
	Score            int
}

// Record is a ScreenResult merged with the ticker's Fundamentals.
type Record struct {
	ScreenResult
	Fundamentals
}

// Skip records a (ticker, expiration) pair that produced no result and why.
type Skip struct {
	Ticker     string
	Expiration string
	Err        error
}

// ResultSet is the outcome of one screening run.
type ResultSet struct {
	Mode       string
	Ticker     string // single mode only
	Expiration string // ALL mode only
	SortKey    string
	Records    []Record
	Skipped    []Skip
}

// Empty reports whether the run produced no records.
func (rs ResultSet) Empty() bool { return len(rs.Records) == 0 }

// CompanyInfo carries the provider's company fields; nil means absent.
type CompanyInfo struct {
	DividendYield     *float64
	TargetMeanPrice   *float64
	CurrentPrice      *float64
	RecommendationKey string
}

// EarningsQuarter is one quarterly EPS report.
type EarningsQuarter struct {
	Quarter  time.Time
	Actual   *float64
	Estimate *float64
}
