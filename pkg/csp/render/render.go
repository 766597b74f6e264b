package render

import (
	"fmt"
	"io"

	"github.com/komsit37/csp/pkg/csp/types"
)

// Renderer renders a screening result set to an output writer.
type Renderer interface {
	Render(w io.Writer, rs types.ResultSet, opts RenderOptions) error
}

type RenderOptions struct {
	// Columns are registry keys; empty means every column.
	Columns     []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	// TermWidth caps the table row length; 0 leaves it unbounded.
	TermWidth int
}

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatSyms  = "syms"
)

// New returns the renderer for a format name.
func New(format string) (Renderer, error) {
	switch format {
	case "", FormatTable:
		return NewTableRenderer(), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatCSV:
		return NewCSVRenderer(), nil
	case FormatSyms:
		return NewSymsRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want table, json, csv or syms)", format)
	}
}
