package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/komsit37/csp/pkg/csp/columns"
	"github.com/komsit37/csp/pkg/csp/types"
)

// CSVRenderer writes RFC 4180 CSV with header names as the first row.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

func (r *CSVRenderer) Render(w io.Writer, rs types.ResultSet, opts RenderOptions) error {
	cols, err := columns.Compute(opts.Columns)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns.Headers(cols)); err != nil {
		return err
	}
	for _, rec := range rs.Records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = columns.Raw(c, rec)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names the CSV export for a run.
func ExportFilename(mode, ticker string) string {
	if mode == types.ModeAll {
		return "cash_secured_puts_all.csv"
	}
	return strings.ToUpper(ticker) + "_puts_analysis.csv"
}

// Export writes rs as CSV into dir and returns the file path.
func Export(dir string, rs types.ResultSet, cols []string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFilename(rs.Mode, rs.Ticker))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := NewCSVRenderer().Render(f, rs, RenderOptions{Columns: cols}); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
