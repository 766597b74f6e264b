package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/csp/pkg/csp/expiry"
)

func newExpirationsCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "expirations",
		Short: "List the upcoming weekly Friday expirations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := a.cfg.Expirations
			if cmd.Flags().Changed("count") {
				n = count
			}
			if n <= 0 {
				return fmt.Errorf("count must be positive, got %d", n)
			}
			for _, d := range expiry.WeeklyFridays(time.Now(), n) {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of Fridays to list")
	return cmd
}
