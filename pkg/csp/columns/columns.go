package columns

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/komsit37/csp/pkg/csp/types"
)

// Kind tells renderers how to format and align a column.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

// Column describes one output column. Header is the name used in table
// headers and CSV exports.
type Column struct {
	Key    string
	Header string
	Kind   Kind
	Value  func(r types.Record) any
}

// Order is the canonical column order of an export.
var Order = []string{
	"ticker", "price", "strike", "bid", "ask", "oi", "premium", "cash",
	"roi%", "ann_roi%", "exp", "iv", "div%", "earnings", "target", "rec",
	"eps", "beats", "score",
}

// Registry maps column keys to their definitions.
var Registry = map[string]Column{}

func register(key, header string, kind Kind, v func(r types.Record) any) {
	Registry[key] = Column{Key: key, Header: header, Kind: kind, Value: v}
}

func init() {
	register("ticker", "Ticker", KindString, func(r types.Record) any { return r.Ticker })
	register("price", "Current Price", KindFloat, func(r types.Record) any { return r.CurrentPrice })
	register("strike", "Strike", KindFloat, func(r types.Record) any { return r.Strike })
	register("bid", "Bid", KindFloat, func(r types.Record) any { return r.Bid })
	register("ask", "Ask", KindFloat, func(r types.Record) any { return r.Ask })
	register("oi", "Open Interest", KindInt, func(r types.Record) any { return r.OpenInterest })
	register("premium", "Premium", KindFloat, func(r types.Record) any { return r.Premium })
	register("cash", "Cash Required", KindFloat, func(r types.Record) any { return r.CashRequired })
	register("roi%", "Abs ROI (%)", KindFloat, func(r types.Record) any { return r.AbsROIPct })
	register("ann_roi%", "Annualized ROI (%)", KindFloat, func(r types.Record) any { return r.AnnualizedROIPct })
	register("exp", "Expiration", KindString, func(r types.Record) any { return r.Expiration })
	register("dte", "Days", KindInt, func(r types.Record) any { return int64(r.DaysToExpiration) })
	register("iv", "IV", KindFloat, func(r types.Record) any { return r.IVPct })
	register("div%", "Dividend Yield (%)", KindFloat, func(r types.Record) any { return r.DividendYieldPct })
	register("earnings", "Earnings Date", KindString, func(r types.Record) any { return r.EarningsDate })
	register("target", "Price Target", KindFloat, func(r types.Record) any { return r.PriceTarget })
	register("rec", "Recommendation", KindString, func(r types.Record) any { return r.Recommendation })
	register("eps", "EPS (Last 4)", KindString, func(r types.Record) any { return r.EPSLast4 })
	register("beats", "EPS Beats (4Q)", KindString, func(r types.Record) any { return r.EPSBeats })
	register("score", "Overall Score", KindInt, func(r types.Record) any { return int64(r.Score) })
}

// Lookup finds a column by key or by header, case-insensitively.
func Lookup(name string) (Column, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := Registry[n]; ok {
		return c, true
	}
	for _, c := range Registry {
		if strings.ToLower(c.Header) == n {
			return c, true
		}
	}
	return Column{}, false
}

// UnknownColumnError reports a column name that is not registered.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(keysIncludingExtras(), ", ")
}

// Compute resolves the final column keys. An empty list yields the "all"
// set; explicit names keep their order with duplicates dropped.
func Compute(explicit []string) ([]string, error) {
	if len(explicit) == 0 {
		return append([]string(nil), Sets["all"]...), nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(explicit))
	for _, name := range explicit {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, ok := Lookup(name)
		if !ok {
			return nil, &UnknownColumnError{Name: name}
		}
		if _, ok := seen[c.Key]; ok {
			continue
		}
		seen[c.Key] = struct{}{}
		out = append(out, c.Key)
	}
	return out, nil
}

// Headers maps keys to their header names.
func Headers(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Registry[k].Header
	}
	return out
}

// Raw formats a value for machine-readable output (CSV).
func Raw(key string, r types.Record) string {
	c, ok := Registry[key]
	if !ok {
		return ""
	}
	switch v := c.Value(r).(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Display formats a value for the table, with thousand separators.
func Display(key string, r types.Record) string {
	c, ok := Registry[key]
	if !ok {
		return ""
	}
	switch v := c.Value(r).(type) {
	case float64:
		return formatFloatComma(v, 2)
	case int64:
		return formatIntComma(int(v))
	default:
		return fmt.Sprint(v)
	}
}

func keysIncludingExtras() []string {
	out := append([]string(nil), Order...)
	for k := range Registry {
		if !contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// formatIntComma formats an integer with comma thousand separators.
func formatIntComma(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, s[:rem]...)
	for i := rem; i < len(s); i += 3 {
		out = append(out, ',')
		out = append(out, s[i:i+3]...)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// formatFloatComma formats a float with a fixed number of decimals and comma separators.
func formatFloatComma(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	dot := strings.IndexByte(s, '.')
	if dot == -1 {
		dot = len(s)
	}
	intPart := s[:dot]
	fracPart := s[dot:]
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + fracPart
	}
	out := make([]byte, 0, n+n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, intPart[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + fracPart
}
