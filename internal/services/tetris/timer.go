package tetris

import "time"

// TimerState はタイマーの状態です。
type TimerState int

const (
	TimerStopped TimerState = iota
	TimerRunning
	TimerPaused
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Timer は経過時間を積算して一定間隔ごとに発火するカウンタです。
// 実時間には依存せず、Tick で渡された dt だけ進みます。
// MaxCount が0より大きい場合、その回数だけ発火すると停止します。
type Timer struct {
	Interval time.Duration
	MaxCount int

	elapsed time.Duration
	count   int
	state   TimerState
}

// NewRepeatingTimer は回数制限のないタイマーを作成します（自動落下用）。
func NewRepeatingTimer(interval time.Duration) *Timer {
	return NewCountedTimer(interval, 0)
}

// NewCountedTimer は maxCount 回発火すると止まるタイマーを作成します（高速落下・点滅用）。
func NewCountedTimer(interval time.Duration, maxCount int) *Timer {
	if interval <= 0 {
		panic("tetris: timer interval must be positive")
	}
	return &Timer{Interval: interval, MaxCount: maxCount}
}

// State は現在の状態を返します。
func (t *Timer) State() TimerState { return t.state }

// Count はリセット後の発火回数を返します。
func (t *Timer) Count() int { return t.count }

// Start は経過時間と発火回数をリセットして動作を開始します。
func (t *Timer) Start() {
	t.reset()
	t.state = TimerRunning
}

// Stop はタイマーを止めてリセットします。
func (t *Timer) Stop() {
	t.reset()
	t.state = TimerStopped
}

// Pause は経過時間を保持したまま止めます。動作中でなければ何もしません。
func (t *Timer) Pause() {
	if t.state == TimerRunning {
		t.state = TimerPaused
	}
}

// Resume は一時停止中のタイマーを再開します。停止中のタイマーは Start と同じく最初から動きます。
func (t *Timer) Resume() {
	switch t.state {
	case TimerPaused:
		t.state = TimerRunning
	case TimerStopped:
		t.Start()
	}
}

// Tick は dt だけ時間を進め、このティックで発火した回数を返します。
// 回数制限に達したタイマーはそれ以上発火せず、Finished が true になります。
func (t *Timer) Tick(dt time.Duration) int {
	if t.state != TimerRunning || dt <= 0 {
		return 0
	}

	t.elapsed += dt
	fired := int(t.elapsed / t.Interval)
	t.elapsed -= time.Duration(fired) * t.Interval

	if t.MaxCount > 0 && t.count+fired >= t.MaxCount {
		fired = t.MaxCount - t.count
		t.elapsed = 0
		t.state = TimerStopped
	}
	t.count += fired
	return fired
}

// Finished は回数制限付きタイマーが規定回数に達したかを返します。
func (t *Timer) Finished() bool {
	return t.MaxCount > 0 && t.count >= t.MaxCount
}

// Remaining は次の発火までの時間を返します。
func (t *Timer) Remaining() time.Duration {
	return t.Interval - t.elapsed
}

func (t *Timer) reset() {
	t.elapsed = 0
	t.count = 0
}
