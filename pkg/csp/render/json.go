package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/csp/pkg/csp/columns"
	"github.com/komsit37/csp/pkg/csp/types"
)

// jsonModel is the output shape for JSONRenderer.
type jsonModel struct {
	Mode       string           `json:"mode"`
	Ticker     string           `json:"ticker,omitempty"`
	Expiration string           `json:"expiration,omitempty"`
	SortKey    string           `json:"sort"`
	Columns    []string         `json:"columns"`
	Records    []map[string]any `json:"records"`
	Skipped    []jsonSkip       `json:"skipped,omitempty"`
}

type jsonSkip struct {
	Ticker     string `json:"ticker"`
	Expiration string `json:"expiration"`
	Reason     string `json:"reason"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

// Render writes records keyed by column key with typed values.
func (r *JSONRenderer) Render(w io.Writer, rs types.ResultSet, opts RenderOptions) error {
	cols, err := columns.Compute(opts.Columns)
	if err != nil {
		return err
	}
	out := jsonModel{
		Mode:       rs.Mode,
		Ticker:     rs.Ticker,
		Expiration: rs.Expiration,
		SortKey:    rs.SortKey,
		Columns:    cols,
		Records:    make([]map[string]any, 0, len(rs.Records)),
	}
	for _, rec := range rs.Records {
		m := make(map[string]any, len(cols))
		for _, c := range cols {
			m[c] = columns.Registry[c].Value(rec)
		}
		out.Records = append(out.Records, m)
	}
	for _, s := range rs.Skipped {
		reason := ""
		if s.Err != nil {
			reason = s.Err.Error()
		}
		out.Skipped = append(out.Skipped, jsonSkip{Ticker: s.Ticker, Expiration: s.Expiration, Reason: reason})
	}

	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
