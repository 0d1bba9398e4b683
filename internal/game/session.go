// Package game ties the economy store to the earnings generator and the
// clicker mini-game for one player.
package game

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/talgya/rigsim/internal/clicker"
	"github.com/talgya/rigsim/internal/config"
	"github.com/talgya/rigsim/internal/economy"
	"github.com/talgya/rigsim/internal/engine"
	"github.com/talgya/rigsim/internal/entropy"
	"github.com/talgya/rigsim/internal/mining"
)

var (
	ErrAlreadyMining = errors.New("mining already active")
	ErrNotMining     = errors.New("mining not active")
)

// Session owns the timers that feed one store.
type Session struct {
	Store     *economy.Store
	Generator *mining.Generator
	Clicker   *clicker.Game

	electricityCost float64

	mu        sync.Mutex
	earned    float64 // Generator earnings since the session opened
	lastStats mining.Stats
	hasStats  bool
}

// Report summarizes the session for display.
type Report struct {
	State           economy.State
	Mining          bool
	Stats           mining.Stats
	HasStats        bool
	SessionEarnings float64
	Profitability   mining.Profitability
	Clicker         clicker.Session
}

// New builds a session over store. Timers run on sched; rnd drives earnings jitter.
func New(store *economy.Store, sched engine.Scheduler, clk engine.Clock, rnd entropy.Source, cfg config.Config) *Session {
	s := &Session{
		Store:           store,
		electricityCost: cfg.ElectricityCost,
	}
	s.Generator = mining.NewGenerator(sched, rnd, s.onEarnings, s.onStats)
	if cfg.GeneratorInterval > 0 {
		s.Generator.Interval = cfg.GeneratorInterval
	}
	s.Clicker = clicker.NewGame(sched, clk, store)
	if cfg.ClickerDuration > 0 {
		s.Clicker.Duration = cfg.ClickerDuration
	}
	return s
}

// StartMining starts the generator at the store's current mining power.
func (s *Session) StartMining() error {
	if s.Generator.Running() {
		return ErrAlreadyMining
	}
	if err := s.Generator.Start(s.Store.MiningPower()); err != nil {
		return err
	}
	s.Store.SetActive(true)
	return nil
}

// StopMining stops the generator and clears the active flag. A generator
// that stopped itself after a failure still counts as mining until then.
func (s *Session) StopMining() error {
	if !s.Generator.Running() && !s.Store.Snapshot().Active {
		return ErrNotMining
	}
	s.Generator.Stop()
	s.Store.SetActive(false)
	return nil
}

// Resume restarts the generator when the loaded state was saved mid-mining.
// Only the flag is persisted, not the generator.
func (s *Session) Resume() error {
	if !s.Store.Snapshot().Active || s.Generator.Running() {
		return nil
	}
	slog.Info("resuming mining from saved state", "power", s.Store.MiningPower())
	return s.Generator.Start(s.Store.MiningPower())
}

// SessionEarnings is what the generator has paid out since New.
func (s *Session) SessionEarnings() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.earned
}

// LastStats returns the stats of the most recent tick, if any.
func (s *Session) LastStats() (mining.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats, s.hasStats
}

// Report gathers the store, the timers and the derived figures.
func (s *Session) Report() Report {
	st := s.Store.Snapshot()
	stats, ok := s.LastStats()
	return Report{
		State:           st,
		Mining:          s.Generator.Running(),
		Stats:           stats,
		HasStats:        ok,
		SessionEarnings: s.SessionEarnings(),
		Profitability:   mining.CalculateProfitability(st.MiningPower(), s.electricityCost),
		Clicker:         s.Clicker.Snapshot(),
	}
}

// Close stops every timer. The active flag is left as saved so the next
// session can resume.
func (s *Session) Close() {
	s.Generator.Stop()
	s.Clicker.Reset()
}

func (s *Session) onStats(stats mining.Stats) {
	s.mu.Lock()
	s.lastStats = stats
	s.hasStats = true
	s.mu.Unlock()
}

func (s *Session) onEarnings(amount float64) {
	if amount <= 0 {
		return
	}
	if err := s.Store.AddEarnings(amount); err != nil {
		slog.Error("failed to credit mining earnings", "amount", amount, "error", err)
		return
	}
	s.mu.Lock()
	s.earned += amount
	s.mu.Unlock()
}
