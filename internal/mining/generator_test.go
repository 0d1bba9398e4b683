package mining

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/rigsim/internal/engine"
	"github.com/talgya/rigsim/internal/entropy"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type recorder struct {
	events   []string
	stats    []Stats
	earnings []float64
}

func (r *recorder) onStats(s Stats) {
	r.events = append(r.events, "stats")
	r.stats = append(r.stats, s)
}

func (r *recorder) onEarnings(v float64) {
	r.events = append(r.events, "earnings")
	r.earnings = append(r.earnings, v)
}

func newTestGenerator(rnd entropy.Source) (*Generator, *engine.Manual, *recorder) {
	sched := engine.NewManual(epoch)
	rec := &recorder{}
	return NewGenerator(sched, rnd, rec.onEarnings, rec.onStats), sched, rec
}

func TestGeneratorThreeTicks(t *testing.T) {
	gen, sched, rec := newTestGenerator(entropy.NewSeeded(42))
	require.NoError(t, gen.Start(10))

	// Nothing fires before the first full interval.
	sched.Advance(4 * time.Second)
	assert.Empty(t, rec.events)

	sched.Advance(11 * time.Second)
	require.Len(t, rec.stats, 3)
	require.Len(t, rec.earnings, 3)
	assert.Equal(t, []string{"stats", "earnings", "stats", "earnings", "stats", "earnings"}, rec.events)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1e13, rec.stats[i].HashRate)
		assert.GreaterOrEqual(t, rec.earnings[i], 0.008-1e-12)
		assert.LessOrEqual(t, rec.earnings[i], 0.012+1e-12)
	}
}

func TestGeneratorStopIsIdempotent(t *testing.T) {
	t.Run("never started", func(t *testing.T) {
		gen, sched, _ := newTestGenerator(entropy.Constant(0.5))
		assert.NotPanics(t, gen.Stop)
		assert.NotPanics(t, gen.Stop)
		assert.False(t, gen.Running())
		assert.Zero(t, sched.Pending())
	})

	t.Run("twice after start", func(t *testing.T) {
		gen, sched, rec := newTestGenerator(entropy.Constant(0.5))
		require.NoError(t, gen.Start(10))
		sched.Advance(5 * time.Second)

		gen.Stop()
		gen.Stop()
		assert.False(t, gen.Running())
		assert.Zero(t, sched.Pending())

		sched.Advance(time.Minute)
		assert.Len(t, rec.earnings, 1)
	})
}

func TestGeneratorRestartReplacesRun(t *testing.T) {
	gen, sched, rec := newTestGenerator(entropy.Constant(0.5))
	require.NoError(t, gen.Start(10))
	require.NoError(t, gen.Start(20))
	assert.Equal(t, 1, sched.Pending())
	assert.Equal(t, 20.0, gen.Power())

	sched.Advance(10 * time.Second)
	require.Len(t, rec.stats, 2)
	assert.Equal(t, 2e13, rec.stats[0].HashRate)
	assert.InDelta(t, 0.02, rec.earnings[0], 1e-12)
}

func TestGeneratorCustomInterval(t *testing.T) {
	gen, sched, rec := newTestGenerator(entropy.Constant(0.5))
	gen.Interval = time.Second
	require.NoError(t, gen.Start(1))

	sched.Advance(5 * time.Second)
	assert.Len(t, rec.earnings, 5)
}

func TestGeneratorRejectsInvalidPower(t *testing.T) {
	for _, p := range []float64{-1, math.NaN(), math.Inf(1)} {
		gen, sched, _ := newTestGenerator(entropy.Constant(0.5))
		assert.ErrorIs(t, gen.Start(p), ErrInvalidPower)
		assert.False(t, gen.Running())
		assert.Zero(t, sched.Pending())
	}
}

func TestGeneratorStopsItselfOnFailure(t *testing.T) {
	sched := engine.NewManual(epoch)
	calls := 0
	gen := NewGenerator(sched, entropy.Constant(0.5), func(float64) {
		calls++
		panic("store exploded")
	}, nil)
	require.NoError(t, gen.Start(10))

	assert.NotPanics(t, func() { sched.Advance(time.Minute) })
	assert.Equal(t, 1, calls)
	assert.False(t, gen.Running())
	assert.Zero(t, sched.Pending())

	// A fresh Start recovers.
	require.NoError(t, gen.Start(10))
	assert.True(t, gen.Running())
}

func TestGeneratorStopWaitsForRunningTick(t *testing.T) {
	eng := engine.NewEngine()
	defer eng.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var stopped bool
	var lateEarnings int

	var once sync.Once
	gen := NewGenerator(eng, entropy.Constant(0.5), func(float64) {
		mu.Lock()
		if stopped {
			lateEarnings++
		}
		mu.Unlock()
	}, func(Stats) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})
	gen.Interval = 10 * time.Millisecond
	require.NoError(t, gen.Start(10))
	<-entered

	done := make(chan struct{})
	go func() {
		gen.Stop()
		mu.Lock()
		stopped = true
		mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while a tick was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, lateEarnings)
	assert.False(t, gen.Running())
}

func TestGeneratorRealEngine(t *testing.T) {
	eng := engine.NewEngine()
	eng.Speed = 1000
	defer eng.Close()

	earned := make(chan float64, 16)
	gen := NewGenerator(eng, entropy.NewSeeded(1), func(v float64) {
		select {
		case earned <- v:
		default:
		}
	}, nil)
	require.NoError(t, gen.Start(10))

	select {
	case v := <-earned:
		assert.InDelta(t, 0.01, v, 0.002+1e-12)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick within 2s")
	}

	eng.Do(gen.Stop)
	assert.False(t, gen.Running())
}
