package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/csp/pkg/csp/types"
)

// symsRenderer prints the distinct tickers of a result set in a single
// comma-separated line.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(w io.Writer, rs types.ResultSet, _ RenderOptions) error {
	tickers := make([]string, 0, len(rs.Records))
	for _, rec := range rs.Records {
		tickers = append(tickers, rec.Ticker)
	}
	return WriteSyms(w, tickers)
}

// WriteSyms prints tickers as one comma-separated line, skipping blanks and
// repeats.
func WriteSyms(w io.Writer, tickers []string) error {
	seen := map[string]struct{}{}
	symbols := make([]string, 0, len(tickers))
	for _, t := range tickers {
		sym := strings.TrimSpace(t)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
