// Command rigsim runs the simulated mining economy from the terminal.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/rigsim/internal/config"
)

var (
	configPath string
	cfg        config.Config
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rigsim",
		Short:        "Simulated crypto mining economy",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.Level(),
			}))
			slog.SetDefault(logger)
			return nil
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")

	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(catalogCmd())
	root.AddCommand(buyCmd())
	root.AddCommand(upgradeCmd())
	root.AddCommand(sellCmd())
	root.AddCommand(profitCmd())
	root.AddCommand(planCmd())
	root.AddCommand(clickerCmd())
	root.AddCommand(resetCmd())
	root.AddCommand(versionCmd())
	return root
}
