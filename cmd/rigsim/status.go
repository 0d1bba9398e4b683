package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/rigsim/internal/mining"
	"github.com/talgya/rigsim/internal/persistence"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the wallet, mining power and owned rigs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			st := a.store.Snapshot()
			stats := mining.CalculateStats(st.MiningPower())
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Wallet:         %s\n", formatBTC(st.Currency))
			fmt.Fprintf(out, "Total earned:   %s\n", formatBTC(st.TotalEarnings))
			fmt.Fprintf(out, "Mining power:   %.2f TH/s (%s)\n", st.MiningPower(), mining.FormatHashRate(stats.HashRate))
			fmt.Fprintf(out, "Est. per hour:  %s\n", formatBTC(stats.EstimatedEarnings))
			fmt.Fprintf(out, "Mining:         %t\n", st.Active)
			fmt.Fprintf(out, "Invested:       %s\n", formatBTC(st.Investment()))

			saved, err := a.savedAt(ctx)
			switch {
			case errors.Is(err, persistence.ErrSlotEmpty):
				fmt.Fprintln(out, "Last saved:     never")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Last saved:     %s\n", humanize.Time(saved))
			}

			if len(st.Equipment) == 0 {
				fmt.Fprintln(out, "\nNo rigs owned. See `rigsim catalog`.")
				return nil
			}
			fmt.Fprintf(out, "\nRigs (%d):\n", len(st.Equipment))
			for _, e := range st.Equipment {
				fmt.Fprintf(out, "  %s  %-18s L%-2d %6.2f TH/s  upgrade %s  sells for %s\n",
					e.ID, e.Name, e.Level, e.Efficiency, formatBTC(e.UpgradeCost()), formatBTC(e.SaleValue()))
			}
			return nil
		},
	}
}
