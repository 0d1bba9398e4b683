// Package clicker runs the timed hash-rate clicker mini-game.
//
// A round lasts a fixed number of simulated seconds. Each click scores
// floor(multiplier) points, where the combo multiplier grows by 1 for every 50
// clicks already made and is capped at 3. When time runs out the score is
// converted into bonus mining power and currency.
package clicker

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/rigsim/internal/engine"
)

// Game tuning.
const (
	DefaultDuration = 30 // Seconds per round
	HistoryLimit    = 10

	comboClicks   = 50  // Clicks per +1 multiplier
	maxMultiplier = 3.0
	basePoints    = 1

	pointsPerPowerStep    = 10
	powerPerStep          = 0.1 // TH/s per 10 points
	pointsPerCurrencyStep = 20
	currencyPerStep       = 0.001 // BTC per 20 points
)

var (
	ErrAlreadyRunning = errors.New("round already running")
	ErrNotRunning     = errors.New("no round running")
)

// Phase is the game's state.
type Phase int

const (
	Idle Phase = iota
	Running
	Ended
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Rewarder receives the bonuses of a finished round.
type Rewarder interface {
	IncreaseMiningPower(amount float64) error
	AddEarnings(amount float64) error
}

// Session is a snapshot of the current round.
type Session struct {
	Phase            Phase
	Clicks           int
	Score            int
	SecondsRemaining int
	PowerBonus       float64 // Awarded by the last finished round
	CurrencyBonus    float64
}

// Record is one finished round in the history.
type Record struct {
	At    time.Time
	Score int
	Bonus float64 // Mining power awarded
}

// Game is the clicker state machine: Idle → Running → Ended.
type Game struct {
	Duration int              // Seconds per round; read on Start
	OnFinish func(rec Record) // Optional; called after rewards are granted

	sched    engine.Scheduler
	clock    engine.Clock
	rewarder Rewarder

	mu       sync.Mutex
	s        Session
	round    *round
	settling *round // Last round to end; its rewards may still be going out
	length   int    // Seconds in the current or last round
	history  []Record
}

type round struct {
	task     engine.Task
	duration int
	payout   sync.WaitGroup // Held while rewards and OnFinish run
}

// NewGame creates an idle game that pays out to rewarder.
func NewGame(sched engine.Scheduler, clock engine.Clock, rewarder Rewarder) *Game {
	return &Game{
		Duration: DefaultDuration,
		sched:    sched,
		clock:    clock,
		rewarder: rewarder,
		s:        Session{SecondsRemaining: DefaultDuration},
	}
}

// Start begins a new round from Idle or Ended.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.s.Phase == Running {
		return ErrAlreadyRunning
	}

	r := &round{duration: g.configured()}
	g.round = r
	g.length = r.duration
	g.s = Session{Phase: Running, SecondsRemaining: r.duration}
	r.task = g.sched.Every(time.Second, func() { g.tick(r) })
	return nil
}

// Click registers one click and returns the points it scored.
func (g *Game) Click() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.s.Phase != Running || g.s.SecondsRemaining <= 0 {
		return 0, ErrNotRunning
	}

	points := int(math.Floor(basePoints * multiplier(g.s.Clicks)))
	g.s.Clicks++
	g.s.Score += points
	return points, nil
}

// Reset abandons any round and returns to Idle without a reward. A round
// that has already ended finishes paying out before Reset returns, so it must
// not be called from OnFinish.
func (g *Game) Reset() {
	g.mu.Lock()
	r := g.round
	settling := g.settling
	g.round = nil
	g.length = g.configured()
	g.s = Session{Phase: Idle, SecondsRemaining: g.length}
	g.mu.Unlock()

	if r != nil {
		r.task.Stop()
	}
	if settling != nil {
		settling.payout.Wait()
	}
}

// Snapshot returns the current round.
func (g *Game) Snapshot() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s
}

// History returns finished rounds, newest first.
func (g *Game) History() []Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Record, len(g.history))
	copy(out, g.history)
	return out
}

// CurrentMultiplier returns the combo multiplier the next click would get.
func (g *Game) CurrentMultiplier() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return multiplier(g.s.Clicks)
}

// ClicksPerSecond is the click rate over the elapsed part of the round.
func (g *Game) ClicksPerSecond() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	elapsed := g.duration() - g.s.SecondsRemaining
	if elapsed <= 0 {
		return 0
	}
	return float64(g.s.Clicks) / float64(elapsed)
}

// Progress is the elapsed fraction of the round, 0 to 1.
func (g *Game) Progress() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.duration()
	if d <= 0 {
		return 0
	}
	return float64(d-g.s.SecondsRemaining) / float64(d)
}

// configured is the length the next round will have.
func (g *Game) configured() int {
	if g.Duration <= 0 {
		return DefaultDuration
	}
	return g.Duration
}

// duration is the length of the current or last round. Caller holds g.mu.
func (g *Game) duration() int {
	if g.length > 0 {
		return g.length
	}
	return g.configured()
}

func (g *Game) tick(r *round) {
	g.mu.Lock()
	if g.round != r || g.s.Phase != Running {
		g.mu.Unlock()
		return
	}

	g.s.SecondsRemaining--
	if g.s.SecondsRemaining > 0 {
		g.mu.Unlock()
		return
	}

	rec, power, currency := g.finish()
	g.settling = r
	r.payout.Add(1)
	g.mu.Unlock()
	defer r.payout.Done()

	r.task.Stop()
	g.reward(power, currency)

	slog.Info("clicker round finished",
		"score", rec.Score,
		"power_bonus", power,
		"currency_bonus", currency,
	)
	if g.OnFinish != nil {
		g.OnFinish(rec)
	}
}

// finish closes the round and records it. Caller holds g.mu.
func (g *Game) finish() (Record, float64, float64) {
	power, currency := Bonuses(g.s.Score)

	g.s.Phase = Ended
	g.s.SecondsRemaining = 0
	g.s.PowerBonus = power
	g.s.CurrencyBonus = currency
	g.round = nil

	rec := Record{At: g.clock.Now(), Score: g.s.Score, Bonus: power}
	g.history = append([]Record{rec}, g.history...)
	if len(g.history) > HistoryLimit {
		g.history = g.history[:HistoryLimit]
	}
	return rec, power, currency
}

func (g *Game) reward(power, currency float64) {
	if g.rewarder == nil {
		return
	}
	if power > 0 {
		if err := g.rewarder.IncreaseMiningPower(power); err != nil {
			slog.Warn("clicker power bonus not applied", "amount", power, "error", err)
		}
	}
	if currency > 0 {
		if err := g.rewarder.AddEarnings(currency); err != nil {
			slog.Warn("clicker currency bonus not applied", "amount", currency, "error", err)
		}
	}
}

// Bonuses converts a final score into mining power and currency rewards.
func Bonuses(score int) (power, currency float64) {
	power = float64(score/pointsPerPowerStep) * powerPerStep
	currency = float64(score/pointsPerCurrencyStep) * currencyPerStep
	return power, currency
}

func multiplier(clicks int) float64 {
	return math.Min(1+float64(clicks)/comboClicks, maxMultiplier)
}
