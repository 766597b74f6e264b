package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/komsit37/csp/pkg/csp/config"
	"github.com/komsit37/csp/pkg/csp/logger"
)

// app holds state shared by subcommands once the root pre-run has loaded it.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	configPath   string
	logLevel     string
	logPretty    bool
	tickers      string
	universeFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "csp",
		Short:        "Screen weekly cash-secured puts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = a.logLevel
			}
			if cmd.Flags().Changed("log-pretty") {
				cfg.Log.Pretty = a.logPretty
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			logger.SetGlobalLogger(a.log)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./csp.yaml or ~/.config/csp/csp.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&a.logPretty, "log-pretty", true, "human-readable logs on stderr")
	pf.StringVar(&a.tickers, "tickers", "", "extra tickers, comma separated (e.g. NFLX,AMD)")
	pf.StringVar(&a.universeFile, "universe-file", "", "YAML file or directory with extra tickers")

	rootCmd.AddCommand(newScreenCmd(a), newExpirationsCmd(a), newUniverseCmd(a))
	return rootCmd
}
