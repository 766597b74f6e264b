package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/csp/pkg/csp/columns"
	"github.com/komsit37/csp/pkg/csp/types"
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, rs types.ResultSet, opts RenderOptions) error {
	cols, err := columns.Compute(opts.Columns)
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if opts.TermWidth > 0 {
		tw.Style().Size.WidthMax = opts.TermWidth
	}

	hdr := make(table.Row, len(cols))
	for i, h := range columns.Headers(cols) {
		hdr[i] = strings.ToUpper(h)
	}
	tw.AppendHeader(hdr)

	// Wrap text to MaxColWidth (default 40), no truncation
	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if columns.Registry[c].Kind != columns.KindString {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	if len(cfgs) > 0 {
		tw.SetColumnConfigs(cfgs)
	}

	for _, rec := range rs.Records {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			v := columns.Display(c, rec)
			if opts.Color {
				v = colorize(c, rec, v)
			}
			row[i] = v
		}
		tw.AppendRow(row)
	}

	tw.Render()
	return nil
}

// colorize highlights the score and the recommendation.
func colorize(col string, rec types.Record, v string) string {
	switch col {
	case "score":
		switch {
		case rec.Score >= 2:
			return text.Colors{text.FgGreen}.Sprint(v)
		case rec.Score == 0:
			return text.Colors{text.FgRed}.Sprint(v)
		}
	case "rec":
		lr := strings.ToLower(rec.Recommendation)
		switch {
		case strings.Contains(lr, "buy"):
			return text.Colors{text.FgGreen}.Sprint(v)
		case strings.Contains(lr, "sell"):
			return text.Colors{text.FgRed}.Sprint(v)
		}
	}
	return v
}

// Banner is the line printed above a table.
func Banner(rs types.ResultSet, weeks int) string {
	if rs.Mode == types.ModeAll {
		return fmt.Sprintf("Showing cash-secured puts for expiration: %s", rs.Expiration)
	}
	return fmt.Sprintf("Showing next %d weekly expirations for %s", weeks, rs.Ticker)
}

// EmptyWarning is printed instead of a table when a run has no records.
func EmptyWarning(rs types.ResultSet) string {
	if rs.Mode == types.ModeAll {
		return "No results found for given filters."
	}
	return "No results found for selected stock."
}
