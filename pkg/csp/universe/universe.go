// Package universe builds the list of tickers to screen.
package universe

import (
	"context"
	"sort"
	"strings"
)

// Default is the built-in universe.
var Default = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA"}

// Group is a named set of tickers loaded from a source.
type Group struct {
	Name    string
	Tickers []string
}

// Source loads ticker groups from a location (file, directory, ...).
type Source interface {
	Load(ctx context.Context, location string) ([]Group, error)
}

// ParseExtra splits a comma-separated ticker list, upper-casing and trimming
// each entry and dropping empties.
func ParseExtra(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := normalize(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Merge returns the sorted union of all given ticker lists.
func Merge(lists ...[]string) []string {
	set := map[string]struct{}{}
	for _, l := range lists {
		for _, t := range l {
			if t = normalize(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tickers flattens groups into one list, keeping first occurrences.
func Tickers(groups []Group) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, g := range groups {
		for _, t := range g.Tickers {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func normalize(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
