package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_RepeatingFires(t *testing.T) {
	timer := NewRepeatingTimer(100 * time.Millisecond)
	assert.Equal(t, 0, timer.Tick(time.Second), "stopped timer never fires")

	timer.Start()
	assert.Equal(t, 0, timer.Tick(60*time.Millisecond))
	assert.Equal(t, 1, timer.Tick(60*time.Millisecond))
	assert.Equal(t, 80*time.Millisecond, timer.Remaining())
	assert.Equal(t, 3, timer.Tick(300*time.Millisecond))
	assert.False(t, timer.Finished())
	assert.Equal(t, TimerRunning, timer.State())
}

func TestTimer_PausePreservesElapsed(t *testing.T) {
	timer := NewRepeatingTimer(100 * time.Millisecond)
	timer.Start()
	timer.Tick(70 * time.Millisecond)

	timer.Pause()
	assert.Equal(t, TimerPaused, timer.State())
	assert.Equal(t, 0, timer.Tick(time.Second))

	timer.Resume()
	assert.Equal(t, 1, timer.Tick(30*time.Millisecond))
}

func TestTimer_StopResets(t *testing.T) {
	timer := NewRepeatingTimer(100 * time.Millisecond)
	timer.Start()
	timer.Tick(90 * time.Millisecond)

	timer.Stop()
	assert.Equal(t, TimerStopped, timer.State())

	timer.Resume()
	assert.Equal(t, TimerRunning, timer.State())
	assert.Equal(t, 0, timer.Tick(90*time.Millisecond))
	assert.Equal(t, 1, timer.Tick(10*time.Millisecond))
}

func TestTimer_CountedStopsAtBudget(t *testing.T) {
	timer := NewCountedTimer(10*time.Millisecond, 3)
	timer.Start()

	assert.Equal(t, 2, timer.Tick(25*time.Millisecond))
	assert.False(t, timer.Finished())

	assert.Equal(t, 1, timer.Tick(time.Second))
	assert.True(t, timer.Finished())
	assert.Equal(t, TimerStopped, timer.State())
	assert.Equal(t, 3, timer.Count())
	assert.Equal(t, 0, timer.Tick(time.Second))

	timer.Start()
	assert.False(t, timer.Finished())
	assert.Equal(t, 0, timer.Count())
}

func TestTimer_InvalidInterval(t *testing.T) {
	assert.Panics(t, func() { NewRepeatingTimer(0) })
}

func TestTimerState_String(t *testing.T) {
	assert.Equal(t, "running", TimerRunning.String())
	assert.Equal(t, "paused", TimerPaused.String())
	assert.Equal(t, "stopped", TimerStopped.String())
}
