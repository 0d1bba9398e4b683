package engine

import (
	"sync"
	"time"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns the current time using the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Manual is a Scheduler and Clock whose time only moves when Advance is called.
// Due callbacks fire in time order (ties in scheduling order) on the caller's
// goroutine, so everything they do is finished when Advance returns.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	m        *Manual
	interval time.Duration
	next     time.Time
	seq      uint64
	fn       func()
	stopped  bool
}

// NewManual creates a manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the scheduler's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every schedules fn every interval, first firing one interval from now.
func (m *Manual) Every(interval time.Duration, fn func()) Task {
	if interval <= 0 {
		interval = time.Nanosecond
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{
		m:        m,
		interval: interval,
		next:     m.now.Add(interval),
		seq:      m.seq,
		fn:       fn,
	}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves time forward by d, firing every callback that falls due.
// It returns the number of callbacks fired.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	fired := 0
	for {
		t := m.popDue(target)
		if t == nil {
			break
		}
		t.fn()
		fired++
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
	return fired
}

// Pending returns the number of live tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// popDue finds the earliest task due at or before target, moves the clock to
// its deadline and schedules its next firing.
func (m *Manual) popDue(target time.Time) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due *manualTask
	for _, t := range m.tasks {
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.seq < due.seq) {
			due = t
		}
	}
	if due == nil {
		return nil
	}

	m.now = due.next
	due.next = due.next.Add(due.interval)
	return due
}

// Stop removes the task from the schedule.
func (t *manualTask) Stop() {
	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	for i, other := range m.tasks {
		if other == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			break
		}
	}
}
