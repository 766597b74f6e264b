package render

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/komsit37/csp/pkg/csp/universe"
)

// WriteGroups prints one row per universe group with its tickers.
func WriteGroups(w io.Writer, groups []universe.Group) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleDefault)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateHeader = false
	tw.AppendHeader(table.Row{"GROUP", "COUNT", "TICKERS"})
	for _, g := range groups {
		name := g.Name
		if name == "" {
			name = "-"
		}
		tw.AppendRow(table.Row{name, len(g.Tickers), strings.Join(g.Tickers, ",")})
	}
	tw.Render()
	return nil
}
