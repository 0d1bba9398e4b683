package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineSerializesCallbacks(t *testing.T) {
	eng := NewEngine()
	defer eng.Close()

	var inside, overlaps, calls atomic.Int32
	cb := func() {
		if inside.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		calls.Add(1)
		inside.Add(-1)
	}

	eng.Every(2*time.Millisecond, cb)
	eng.Every(3*time.Millisecond, cb)

	require.Eventually(t, func() bool { return calls.Load() >= 20 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, overlaps.Load())
}

func TestEngineStopPreventsDispatch(t *testing.T) {
	eng := NewEngine()
	defer eng.Close()

	var calls atomic.Int32
	task := eng.Every(time.Millisecond, func() { calls.Add(1) })
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	eng.Do(task.Stop)
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load())

	// Second stop is a no-op.
	task.Stop()
}

func TestEngineTaskStopsItself(t *testing.T) {
	eng := NewEngine()
	defer eng.Close()

	var calls atomic.Int32
	var task Task
	ready := make(chan struct{})
	task = eng.Every(time.Millisecond, func() {
		<-ready
		calls.Add(1)
		task.Stop()
	})
	close(ready)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEngineSpeedScalesInterval(t *testing.T) {
	eng := NewEngine()
	eng.Speed = 1000
	defer eng.Close()

	var calls atomic.Int32
	// Five sim-seconds at 1000x is 5ms of wall time.
	eng.Every(5*time.Second, func() { calls.Add(1) })
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestEngineRunClosesOnCancel(t *testing.T) {
	eng := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	eng.Every(time.Millisecond, func() { calls.Add(1) })

	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	<-done

	after := calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
	assert.GreaterOrEqual(t, eng.Ticks(), uint64(after))

	// Tasks scheduled after Close never fire.
	var late atomic.Int32
	eng.Every(time.Millisecond, func() { late.Add(1) })
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, late.Load())
}

func TestEngineCloseWaitsForRunningCallback(t *testing.T) {
	eng := NewEngine()

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	var once atomic.Bool
	eng.Every(time.Millisecond, func() {
		if once.CompareAndSwap(false, true) {
			close(entered)
			<-release
			finished.Store(true)
		}
	})
	<-entered

	closed := make(chan struct{})
	go func() {
		eng.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a callback was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-closed
	assert.True(t, finished.Load())
}
