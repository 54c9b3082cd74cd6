package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

const frameInterval = 16 * time.Millisecond

// App は端末上で1セッションを動かすメインループです。
type App struct {
	screen   tcell.Screen
	session  *game.GameSession
	renderer *Renderer
	sound    *SoundPlayer // nil の場合は無音
}

// NewApp は初期化済みの screen でセッションを動かす App を作ります。
func NewApp(screen tcell.Screen, session *game.GameSession, sound *SoundPlayer) *App {
	return &App{
		screen:   screen,
		session:  session,
		renderer: NewRenderer(screen),
		sound:    sound,
	}
}

// Run は終了キーが押されるか ctx がキャンセルされるまでセッションを進めて描画します。
// セッションが終了しても画面は閉じず、終了キーを待ちます。
func (a *App) Run(ctx context.Context) {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				cmd, stop := KeyCommand(ev.Key(), ev.Rune())
				if stop {
					return
				}
				a.session.Input(cmd)
			case *tcell.EventResize:
				a.screen.Sync()
			}

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			a.Step(dt)
			a.draw()
		}
	}
}

// Step はセッションを dt だけ進め、起きた出来事に応じて効果音を鳴らします。
func (a *App) Step(dt time.Duration) {
	if a.session.Stopped() {
		return
	}
	before := a.session.Stats()
	a.session.Tick(dt)
	after := a.session.Stats()

	for _, s := range soundsFor(before, after, a.session.Stopped()) {
		if a.sound != nil {
			a.sound.Play(s)
		}
	}
}

// soundsFor は1フレームの前後の集計値から鳴らす効果音を決めます。
func soundsFor(before, after game.Stats, stopped bool) []Sound {
	var out []Sound
	if after.PiecesLocked > before.PiecesLocked {
		out = append(out, SoundLock)
	}
	if after.RowsCleared > before.RowsCleared {
		out = append(out, SoundClear)
	}
	if stopped {
		out = append(out, SoundGameOver)
	}
	return out
}

func (a *App) draw() {
	a.screen.Clear()
	a.renderer.Draw(a.session)
	a.screen.Show()
}
