package mining

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/rigsim/internal/engine"
	"github.com/talgya/rigsim/internal/entropy"
)

// ErrInvalidPower is returned for negative or non-finite mining power.
var ErrInvalidPower = errors.New("mining power must be a non-negative finite number")

// Generator periodically reports stats and earnings for a fixed mining power.
// At most one run is live per generator; a tick that fails stops the run.
type Generator struct {
	Interval time.Duration // Simulated time between ticks; read on Start

	sched      engine.Scheduler
	rnd        entropy.Source
	onEarnings func(amount float64)
	onStats    func(Stats)

	mu  sync.Mutex
	cur *run
}

// run is one Start..Stop lifetime. Ticks from a run that is no longer
// current are discarded.
type run struct {
	power    float64
	task     engine.Task
	ticks    uint64
	inflight sync.WaitGroup // Ticks past the current-run check
}

// NewGenerator creates a stopped generator. onStats fires before onEarnings
// on every tick.
func NewGenerator(sched engine.Scheduler, rnd entropy.Source, onEarnings func(float64), onStats func(Stats)) *Generator {
	if onEarnings == nil {
		onEarnings = func(float64) {}
	}
	if onStats == nil {
		onStats = func(Stats) {}
	}
	return &Generator{
		Interval:   DefaultInterval,
		sched:      sched,
		rnd:        rnd,
		onEarnings: onEarnings,
		onStats:    onStats,
	}
}

// Start begins ticking at the given power, replacing any run in progress.
// Like Stop, it must not be called from onStats or onEarnings.
func (g *Generator) Start(power float64) error {
	if math.IsNaN(power) || math.IsInf(power, 0) || power < 0 {
		return fmt.Errorf("start generator at %v: %w", power, ErrInvalidPower)
	}

	g.Stop()

	g.mu.Lock()
	defer g.mu.Unlock()

	r := &run{power: power}
	g.cur = r
	r.task = g.sched.Every(g.Interval, func() { g.tick(r) })

	slog.Info("mining generator started", "power", power, "interval", g.Interval)
	return nil
}

// Stop cancels the current run and waits for a tick already in progress, so
// no callback fires after it returns. Safe to call when not running. Must not
// be called from onStats or onEarnings.
func (g *Generator) Stop() {
	g.mu.Lock()
	r := g.cur
	g.cur = nil
	var ticks uint64
	if r != nil {
		ticks = r.ticks
	}
	g.mu.Unlock()

	if r == nil {
		return
	}
	r.task.Stop()
	r.inflight.Wait()
	slog.Info("mining generator stopped", "power", r.power, "ticks", ticks)
}

// Running reports whether a run is live.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cur != nil
}

// Power returns the mining power of the live run, or 0 when stopped.
func (g *Generator) Power() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cur == nil {
		return 0
	}
	return g.cur.power
}

func (g *Generator) tick(r *run) {
	g.mu.Lock()
	if g.cur != r {
		g.mu.Unlock()
		return
	}
	r.ticks++
	r.inflight.Add(1)
	g.mu.Unlock()
	defer r.inflight.Done()

	if err := g.step(r.power); err != nil {
		slog.Error("mining tick failed, stopping generator", "error", err, "power", r.power)
		g.mu.Lock()
		if g.cur == r {
			g.cur = nil
		}
		task := r.task
		g.mu.Unlock()
		if task != nil {
			task.Stop()
		}
	}
}

func (g *Generator) step(power float64) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tick panicked: %v", p)
		}
	}()

	stats := CalculateStats(power)
	earnings := CalculateEarnings(power, g.rnd)
	if math.IsNaN(earnings) || math.IsInf(earnings, 0) || earnings < 0 {
		return fmt.Errorf("earnings %v not a valid amount", earnings)
	}

	g.onStats(stats)
	g.onEarnings(earnings)
	return nil
}
