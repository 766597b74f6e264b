package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/komsit37/csp/pkg/csp/render"
	"github.com/komsit37/csp/pkg/csp/universe"
)

func newUniverseCmd(a *app) *cobra.Command {
	var groups bool
	cmd := &cobra.Command{
		Use:   "universe",
		Short: "Print the tickers an ALL-mode screen covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := a.groups(cmd.Context())
			if err != nil {
				return err
			}
			if groups {
				return render.WriteGroups(cmd.OutOrStdout(), gs)
			}
			return render.WriteSyms(cmd.OutOrStdout(), universe.Merge(universe.Tickers(gs)))
		},
	}
	cmd.Flags().BoolVar(&groups, "groups", false, "list tickers by the group they come from")
	return cmd
}

// universe merges the built-in tickers with config, --tickers and
// --universe-file into one sorted list.
func (a *app) universe(ctx context.Context) ([]string, error) {
	gs, err := a.groups(ctx)
	if err != nil {
		return nil, err
	}
	return universe.Merge(universe.Tickers(gs)), nil
}

// groups returns every universe source as a named group. Empty sources are
// left out; --universe-file groups keep the names the file gives them.
func (a *app) groups(ctx context.Context) ([]universe.Group, error) {
	gs := []universe.Group{{Name: "default", Tickers: universe.Merge(universe.Default)}}
	if len(a.cfg.Universe) > 0 {
		gs = append(gs, universe.Group{Name: "config", Tickers: universe.Merge(a.cfg.Universe)})
	}
	if extra := universe.ParseExtra(a.tickers); len(extra) > 0 {
		gs = append(gs, universe.Group{Name: "tickers", Tickers: universe.Merge(extra)})
	}
	if a.universeFile != "" {
		var src universe.Source = universe.YAMLSource{}
		loaded, err := src.Load(ctx, a.universeFile)
		if err != nil {
			return nil, err
		}
		a.log.Debug().Int("groups", len(loaded)).Str("path", a.universeFile).Msg("loaded universe file")
		gs = append(gs, loaded...)
	}
	return gs, nil
}
