package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/rigsim/internal/clicker"
	"github.com/talgya/rigsim/internal/engine"
	"github.com/talgya/rigsim/internal/entropy"
	"github.com/talgya/rigsim/internal/game"
)

func clickerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clicker",
		Short: "Play a round of the hash-rate clicker; every line on stdin is a click",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			eng := engine.NewEngine()
			eng.Speed = cfg.Speed
			defer eng.Close()

			sess := game.New(a.store, eng, engine.RealClock{}, entropy.New(cfg.Seed), cfg)
			defer sess.Close()

			finished := make(chan clicker.Record, 1)
			sess.Clicker.OnFinish = func(rec clicker.Record) { finished <- rec }

			clicks := make(chan struct{})
			go func() {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case clicks <- struct{}{}:
					case <-ctx.Done():
						return
					}
				}
			}()

			eng.Do(func() { err = sess.Clicker.Start() })
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Round started: %d seconds. Press Enter to click.\n", sess.Clicker.Snapshot().SecondsRemaining)

			for {
				select {
				case <-ctx.Done():
					fmt.Fprintln(out, "Round abandoned.")
					return nil

				case <-clicks:
					var points int
					var clickErr error
					eng.Do(func() { points, clickErr = sess.Clicker.Click() })
					if clickErr != nil {
						slog.Debug("click ignored", "error", clickErr)
						continue
					}
					s := sess.Clicker.Snapshot()
					fmt.Fprintf(out, "+%d  score %d  x%.2f  %ds left\n",
						points, s.Score, sess.Clicker.CurrentMultiplier(), s.SecondsRemaining)

				case rec := <-finished:
					s := sess.Clicker.Snapshot()
					fmt.Fprintf(out, "Time! %d clicks (%.2f/s) for %d points.\n",
						s.Clicks, sess.Clicker.ClicksPerSecond(), s.Score)
					fmt.Fprintf(out, "Rewards: +%.1f TH/s, +%s. Finished %s.\n",
						s.PowerBonus, formatBTC(s.CurrencyBonus), humanize.Time(rec.At))
					return nil
				}
			}
		},
	}
}
