package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/rigsim/internal/engine"
	"github.com/talgya/rigsim/internal/entropy"
	"github.com/talgya/rigsim/internal/game"
	"github.com/talgya/rigsim/internal/mining"
)

func runCmd() *cobra.Command {
	var reportEvery time.Duration
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mine in real time until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// ── Session ───────────────────────────────────────────────
			eng := engine.NewEngine()
			eng.Speed = cfg.Speed
			sess := game.New(a.store, eng, engine.RealClock{}, entropy.New(cfg.Seed), cfg)

			eng.Do(func() {
				if a.store.Snapshot().Active {
					err = sess.Resume()
				} else {
					err = sess.StartMining()
				}
			})
			if err != nil {
				return fmt.Errorf("start mining: %w", err)
			}

			if reportEvery > 0 {
				eng.Every(reportEvery, func() { logReport(sess.Report()) })
			}

			// ── Start ─────────────────────────────────────────────────
			fmt.Fprintf(cmd.OutOrStdout(), "Mining at %s with %s in the wallet. (Ctrl+C to stop)\n",
				mining.FormatHashRate(a.store.MiningPower()*mining.HashesPerPower),
				formatBTC(a.store.Snapshot().Currency))

			eng.Run(ctx)
			sess.Close()

			r := sess.Report()
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %s ticks. Earned %s this session; wallet %s.\n",
				humanize.Comma(int64(eng.Ticks())),
				formatBTC(r.SessionEarnings),
				formatBTC(r.State.Currency))
			return nil
		},
	}
	cmd.Flags().DurationVar(&reportEvery, "report-every", time.Minute, "simulated time between mining reports (0 disables)")
	return cmd
}

func logReport(r game.Report) {
	slog.Info("mining report",
		"active", r.Mining,
		"power", r.State.MiningPower(),
		"hash_rate", mining.FormatHashRate(r.Stats.HashRate),
		"currency", r.State.Currency,
		"session_earnings", r.SessionEarnings,
		"daily_profit", r.Profitability.DailyProfit,
	)
}
