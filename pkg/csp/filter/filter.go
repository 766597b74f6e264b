package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Filter matches a ticker symbol.
type Filter interface {
	Match(ticker string) bool
}

// Parse builds a filter from an expression:
// - Comma-separated tickers: "AAPL,MSFT"
// - Glob: "MS*"
// - Regex: "/^G/", matched case-insensitively like the other forms
// Anything else is a case-insensitive substring match.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		body := expr[1 : len(expr)-1]
		re, err := regexp.Compile("(?i)" + body)
		if err != nil {
			return nil, fmt.Errorf("invalid ticker regex %s: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			set[p] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		pattern := strings.ToUpper(expr)
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid ticker glob %s: %w", expr, err)
		}
		return Glob{pattern: pattern}, nil
	}
	return SubstrCI{needle: expr}, nil
}

// Apply keeps the tickers matched by f, in order.
func Apply(f Filter, tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(ticker string) bool {
	_, ok := e.set[strings.ToUpper(ticker)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(ticker string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(ticker))
	return ok
}

func (g Glob) String() string { return fmt.Sprintf("glob:%s", g.pattern) }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(ticker string) bool { return r.re.MatchString(ticker) }

// SubstrCI matches if ticker contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(ticker string) bool {
	if s.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ticker), strings.ToLower(s.needle))
}

func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
