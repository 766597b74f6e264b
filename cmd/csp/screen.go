package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/csp/pkg/csp/columns"
	"github.com/komsit37/csp/pkg/csp/config"
	"github.com/komsit37/csp/pkg/csp/expiry"
	"github.com/komsit37/csp/pkg/csp/filter"
	"github.com/komsit37/csp/pkg/csp/fundamentals"
	"github.com/komsit37/csp/pkg/csp/marketdata"
	"github.com/komsit37/csp/pkg/csp/pipeline"
	"github.com/komsit37/csp/pkg/csp/render"
	"github.com/komsit37/csp/pkg/csp/screener"
	"github.com/komsit37/csp/pkg/csp/types"
)

type screenFlags struct {
	stock       string
	only        string
	minPrice    float64
	maxPrice    float64
	moneyness   float64
	expiration  string
	weeks       int
	sortKey     string
	columns     string
	sets        string
	format      string
	export      bool
	outDir      string
	concurrency int
	color       bool
}

func newScreenCmd(a *app) *cobra.Command {
	var f screenFlags
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Find the best cash-secured put per ticker and expiration",
		Long: `Screen one ticker across the next weekly expirations (--stock AAPL), or
every ticker in the universe for one expiration (--stock ALL, the default).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyScreenFlags(cmd, a.cfg, f)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.screen(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.stock, "stock", types.ModeAll, "ticker to screen, or ALL for the whole universe")
	fl.StringVar(&f.only, "only", "", "narrow the ALL universe: list, glob, /regex/ or substring")
	fl.Float64Var(&f.minPrice, "min-price", filter.DefaultMinPrice, "minimum stock price")
	fl.Float64Var(&f.maxPrice, "max-price", filter.DefaultMaxPrice, "maximum stock price")
	fl.Float64Var(&f.moneyness, "moneyness", filter.DefaultMoneyness, fmt.Sprintf("percent out of the money, one of %v", filter.MoneynessChoices))
	fl.StringVar(&f.expiration, "expiration", "", "expiration for ALL mode, YYYY-MM-DD (default next Friday)")
	fl.IntVar(&f.weeks, "weeks", pipeline.DefaultWeeks, "weekly expirations to cover for a single stock")
	fl.StringVar(&f.sortKey, "sort", "", "sort column (default bid for ALL, roi% for a single stock)")
	fl.StringVar(&f.columns, "columns", "", "columns to show, comma separated")
	fl.StringVar(&f.sets, "set", "", "column sets to show: option, roi, fundamentals, all")
	fl.StringVar(&f.format, "format", render.FormatTable, "output format: table, json, csv, syms")
	fl.BoolVar(&f.export, "export", false, "also write the results to a CSV file")
	fl.StringVar(&f.outDir, "out-dir", ".", "directory for --export")
	fl.IntVar(&f.concurrency, "concurrency", 1, "pairs screened in parallel")
	fl.BoolVar(&f.color, "color", true, "colorize the table")
	return cmd
}

// applyScreenFlags copies explicitly set flags over the loaded config.
func applyScreenFlags(cmd *cobra.Command, cfg *config.Config, f screenFlags) {
	changed := cmd.Flags().Changed
	if changed("min-price") {
		cfg.Price.Min = f.minPrice
	}
	if changed("max-price") {
		cfg.Price.Max = f.maxPrice
	}
	if changed("moneyness") {
		cfg.Moneyness = f.moneyness
	}
	if changed("weeks") {
		cfg.Weeks = f.weeks
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("format") {
		cfg.Output.Format = f.format
	}
	if changed("out-dir") {
		cfg.Output.Dir = f.outDir
	}
}

func (a *app) screen(ctx context.Context, stdout, stderr io.Writer, f screenFlags) error {
	cfg := a.cfg
	renderer, err := render.New(cfg.Output.Format)
	if err != nil {
		return err
	}
	cols, err := selectColumns(f.columns, f.sets)
	if err != nil {
		return err
	}

	md, err := marketdata.New(marketdata.Config{
		PriceSource: cfg.Provider.PriceSource,
		Timeout:     cfg.Provider.Timeout,
	}, a.log)
	if err != nil {
		return err
	}
	runner := &pipeline.Runner{
		Screener:     screener.New(md.Prices, md.Options, a.log),
		Fundamentals: fundamentals.NewCached(fundamentals.New(md.Company, a.log), cfg.Cache.TTL, cfg.Cache.Size),
		Log:          a.log.With().Str("component", "pipeline").Logger(),
	}
	opts := pipeline.Options{
		Moneyness:   cfg.Moneyness,
		Price:       cfg.PriceRange(),
		Weeks:       cfg.Weeks,
		SortKey:     f.sortKey,
		Concurrency: cfg.Concurrency,
	}

	var rs types.ResultSet
	if strings.EqualFold(strings.TrimSpace(f.stock), types.ModeAll) {
		tickers, err := a.universe(ctx)
		if err != nil {
			return err
		}
		only, err := filter.Parse(f.only)
		if err != nil {
			return err
		}
		tickers = filter.Apply(only, tickers)

		exp := f.expiration
		if exp == "" {
			exp = expiry.WeeklyFridays(time.Now(), 1)[0]
		}
		a.log.Info().Strs("tickers", tickers).Str("expiration", exp).Msg("screening universe")
		rs, err = runner.RunAll(ctx, tickers, exp, opts)
		if err != nil {
			return err
		}
	} else {
		a.log.Info().Str("ticker", f.stock).Int("weeks", cfg.Weeks).Msg("screening ticker")
		rs, err = runner.RunSingle(ctx, f.stock, opts)
		if err != nil {
			return err
		}
	}
	if len(rs.Skipped) > 0 {
		a.log.Info().Int("skipped", len(rs.Skipped)).Msg("pairs without a qualifying put")
	}

	if rs.Empty() {
		fmt.Fprintln(stdout, render.EmptyWarning(rs))
		return nil
	}

	if cfg.Output.Format == "" || cfg.Output.Format == render.FormatTable {
		fmt.Fprintln(stdout, render.Banner(rs, cfg.Weeks))
	}
	err = renderer.Render(stdout, rs, render.RenderOptions{
		Columns:     cols,
		Color:       f.color,
		PrettyJSON:  true,
		MaxColWidth: cfg.Output.MaxColWidth,
		TermWidth:   terminalWidth(stdout),
	})
	if err != nil {
		return err
	}

	if f.export {
		// Exports always carry every column, like the on-screen default.
		path, err := render.Export(cfg.Output.Dir, rs, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Exported %d rows to %s\n", len(rs.Records), path)
	}
	return nil
}

// selectColumns resolves --columns, else --set, else every column.
func selectColumns(list, sets string) ([]string, error) {
	if strings.TrimSpace(list) != "" {
		return columns.Compute(strings.Split(list, ","))
	}
	if strings.TrimSpace(sets) != "" {
		return columns.ExpandSets(strings.Split(sets, ","))
	}
	return columns.Compute(nil)
}
