// Package engine schedules the simulation's periodic tasks.
// Callbacks from every task run one at a time on a single logical loop, so
// the economy never observes two timer callbacks interleaving.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a handle to a repeating callback. Stop is idempotent; once it
// returns, the callback is never dispatched again. Stop does not wait for a
// callback that is already running; components that need that wait for their
// own in-flight work, and Engine.Close waits for the loop to drain.
type Task interface {
	Stop()
}

// Scheduler starts repeating callbacks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// Engine drives periodic tasks in real time.
type Engine struct {
	Speed float64 // Multiplier: 1.0 = real-time, 2.0 = sim-seconds pass twice as fast. Set before scheduling.

	loop  sync.Mutex // Held for the whole of every callback
	ticks atomic.Uint64

	mu     sync.Mutex
	tasks  map[*task]struct{}
	closed bool
}

// NewEngine creates an engine running at real-time speed.
func NewEngine() *Engine {
	return &Engine{
		Speed: 1.0,
		tasks: make(map[*task]struct{}),
	}
}

type task struct {
	eng     *Engine
	fn      func()
	stopped atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// Every schedules fn every interval of simulated time. A closed engine
// returns a task that never fires.
func (e *Engine) Every(interval time.Duration, fn func()) Task {
	t := &task{eng: e, fn: fn, done: make(chan struct{})}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		t.Stop()
		return t
	}
	e.tasks[t] = struct{}{}
	e.mu.Unlock()

	go t.run(e.realInterval(interval))
	return t
}

// Do runs fn on the loop, serialized with every task callback.
// Must not be called from inside a callback.
func (e *Engine) Do(fn func()) {
	e.loop.Lock()
	defer e.loop.Unlock()
	fn()
}

// Ticks returns the number of callbacks dispatched so far.
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// Run blocks until ctx is done, then stops every task.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "speed", e.Speed)
	<-ctx.Done()
	e.Close()
	slog.Info("simulation engine stopped", "ticks", e.Ticks())
}

// Close stops all tasks, rejects new ones and waits for a running callback
// to return. Must not be called from inside a callback.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	pending := make([]*task, 0, len(e.tasks))
	for t := range e.tasks {
		pending = append(pending, t)
	}
	e.mu.Unlock()

	for _, t := range pending {
		t.Stop()
	}

	e.loop.Lock()
	e.loop.Unlock()
}

func (e *Engine) realInterval(d time.Duration) time.Duration {
	if e.Speed > 0 {
		d = time.Duration(float64(d) / e.Speed)
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}

func (e *Engine) dispatch(t *task) {
	e.loop.Lock()
	defer e.loop.Unlock()

	// Stop may have landed while this tick waited for the loop.
	if t.stopped.Load() {
		return
	}
	e.ticks.Add(1)
	t.fn()
}

func (e *Engine) forget(t *task) {
	e.mu.Lock()
	delete(e.tasks, t)
	e.mu.Unlock()
}

func (t *task) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.eng.dispatch(t)
		}
	}
}

// Stop cancels the task. Safe to call from inside its own callback.
func (t *task) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.done)
		t.eng.forget(t)
	})
}
