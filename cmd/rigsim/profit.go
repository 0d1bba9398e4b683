package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/rigsim/internal/economy"
	"github.com/talgya/rigsim/internal/mining"
)

func profitCmd() *cobra.Command {
	var electricity float64
	cmd := &cobra.Command{
		Use:   "profit",
		Short: "Estimate daily profit and rig payback times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("electricity") {
				electricity = cfg.ElectricityCost
			}
			if electricity < 0 {
				return errors.New("electricity cost must not be negative")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			p := mining.CalculateProfitability(a.store.MiningPower(), electricity)
			fmt.Fprintf(out, "At %.2f TH/s and %.3f per kWh:\n", a.store.MiningPower(), electricity)
			fmt.Fprintf(out, "  earnings %s  costs %s  profit %s per day\n\n",
				formatBTC(p.DailyEarnings), formatBTC(p.DailyCosts), formatBTC(p.DailyProfit))

			fmt.Fprintln(out, "Payback per catalog rig:")
			for _, r := range economy.Catalog {
				rp := mining.CalculateProfitability(r.Efficiency, electricity)
				fmt.Fprintf(out, "  %-18s profit %s/day  break-even %s\n",
					r.Name, formatBTC(rp.DailyProfit), formatDays(mining.BreakEvenDays(r.Cost, rp.DailyProfit)))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&electricity, "electricity", mining.DefaultElectricityCost, "electricity price per kWh")
	return cmd
}

func planCmd() *cobra.Command {
	var budget float64
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Suggest the rigs that buy the most hash rate for a budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("budget") {
				a, err := openApp(cmd.Context())
				if err != nil {
					return err
				}
				budget = a.store.Snapshot().Currency
				a.Close()
			}
			if budget < 0 {
				return errors.New("budget must not be negative")
			}

			out := cmd.OutOrStdout()
			picks := mining.OptimalRigConfiguration(budget, economy.Catalog)
			if len(picks) == 0 {
				fmt.Fprintf(out, "Nothing in the catalog fits a budget of %s.\n", formatBTC(budget))
				return nil
			}

			var cost, power float64
			counts := make(map[string]int)
			var order []string
			for _, r := range picks {
				if counts[r.Name] == 0 {
					order = append(order, r.Name)
				}
				counts[r.Name]++
				cost += r.Cost
				power += r.Efficiency
			}

			fmt.Fprintf(out, "With %s:\n", formatBTC(budget))
			for _, name := range order {
				fmt.Fprintf(out, "  %dx %s\n", counts[name], name)
			}
			fmt.Fprintf(out, "Spends %s for +%.2f TH/s, leaving %s.\n",
				formatBTC(cost), power, formatBTC(budget-cost))
			return nil
		},
	}
	cmd.Flags().Float64Var(&budget, "budget", 0, "amount to spend (defaults to the wallet)")
	return cmd
}
