package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/rigsim/internal/economy"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the rigs for sale",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, r := range economy.Catalog {
				fmt.Fprintf(out, "%-18s %6.2f TH/s  %s  ~%s/day\n    %s\n",
					r.Name, r.Efficiency, formatBTC(r.Cost), formatBTC(r.Earnings), r.Description)
			}
		},
	}
}

func buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <rig name>",
		Short: "Buy a rig from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			spec, ok := economy.LookupRig(name)
			if !ok {
				return fmt.Errorf("no rig named %q in the catalog", name)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			eq, err := a.store.BuyEquipment(spec)
			if errors.Is(err, economy.ErrInsufficientFunds) {
				return fmt.Errorf("%s costs %s but the wallet holds %s",
					spec.Name, formatBTC(spec.Cost), formatBTC(a.store.Snapshot().Currency))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bought %s (%s). Mining power is now %.2f TH/s.\n",
				eq.Name, eq.ID, a.store.MiningPower())
			return nil
		},
	}
}

func upgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <rig id>",
		Short: "Upgrade an owned rig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			eq, err := a.store.UpgradeEquipment(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now level %d at %.2f TH/s. Next upgrade costs %s.\n",
				eq.Name, eq.Level, eq.Efficiency, formatBTC(eq.UpgradeCost()))
			return nil
		},
	}
}

func sellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <rig id>",
		Short: "Sell an owned rig for 70% of its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			refund, err := a.store.SellEquipment(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sold for %s. Wallet: %s.\n",
				formatBTC(refund), formatBTC(a.store.Snapshot().Currency))
			return nil
		},
	}
}
