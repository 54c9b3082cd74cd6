package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

type fakeCanvas struct {
	cells map[[2]int]rune
}

func newFakeCanvas() *fakeCanvas {
	return &fakeCanvas{cells: make(map[[2]int]rune)}
}

func (c *fakeCanvas) SetContent(x, y int, primary rune, _ []rune, _ tcell.Style) {
	c.cells[[2]int{x, y}] = primary
}

func (c *fakeCanvas) Size() (int, int) { return 80, 30 }

func (c *fakeCanvas) at(x, y int) rune { return c.cells[[2]int{x, y}] }

func (c *fakeCanvas) contains(s string) bool {
	for y := 0; y < 30; y++ {
		var line strings.Builder
		for x := 0; x < 80; x++ {
			ch := c.at(x, y)
			if ch == 0 {
				ch = ' '
			}
			line.WriteRune(ch)
		}
		if strings.Contains(line.String(), s) {
			return true
		}
	}
	return false
}

func newTestSession(t *testing.T, rows, cols, mainRows int) *game.GameSession {
	t.Helper()
	var o tetris.Bitmap
	o[0][0], o[0][1], o[1][0], o[1][1] = true, true, true, true
	catalog, err := tetris.NewCatalog([]tetris.PieceType{{
		Name:    "O",
		Bitmaps: [tetris.RotationCount]tetris.Bitmap{o, o, o, o},
		Color:   tetris.Color{255, 255, 0, 255},
	}})
	require.NoError(t, err)

	s, err := game.NewGameSession(game.Settings{
		Rows:             rows,
		Cols:             cols,
		MainRows:         mainRows,
		DropInterval:     100 * time.Millisecond,
		FastDropInterval: 10 * time.Millisecond,
		FastDropSteps:    3,
		FlashInterval:    50 * time.Millisecond,
		FlashToggles:     4,
	}, catalog, 1, nil)
	require.NoError(t, err)
	return s
}

func TestRenderer_DrawsBoardAndPiece(t *testing.T) {
	s := newTestSession(t, 8, 4, 6)
	s.Tick(0)

	canvas := newFakeCanvas()
	NewRenderer(canvas).Draw(s)

	// ピースは行4-5・列1-2、行5は画面の最上段 (y=1)
	x, y := screenPos(6, 5, 1)
	assert.Equal(t, 5, x)
	assert.Equal(t, 1, y)
	assert.Equal(t, blockRune, canvas.at(x, y))
	assert.Equal(t, blockRune, canvas.at(x+1, y))

	ex, ey := screenPos(6, 0, 0)
	assert.Equal(t, emptyRune, canvas.at(ex, ey))
	assert.Equal(t, borderRune, canvas.at(boardLeft, boardTop))

	assert.True(t, canvas.contains("NEXT"))
	assert.True(t, canvas.contains("pieces 0"))
	assert.True(t, canvas.contains("playing"))
	assert.False(t, canvas.contains("GAME OVER"))
}

func TestRenderer_GameOver(t *testing.T) {
	s := newTestSession(t, 6, 4, 4)
	for i := 0; i < 10 && !s.Stopped(); i++ {
		s.Tick(10 * time.Second)
	}
	require.True(t, s.Stopped())

	canvas := newFakeCanvas()
	NewRenderer(canvas).Draw(s)
	assert.True(t, canvas.contains("GAME OVER"))
	assert.True(t, canvas.contains("stopped"))
}

func TestKeyCommand(t *testing.T) {
	cases := []struct {
		key  tcell.Key
		ch   rune
		cmd  game.Command
		quit bool
	}{
		{tcell.KeyLeft, 0, game.CmdMoveLeft, false},
		{tcell.KeyRight, 0, game.CmdMoveRight, false},
		{tcell.KeyUp, 0, game.CmdRotate, false},
		{tcell.KeyDown, 0, game.CmdFastDrop, false},
		{tcell.KeyRune, 'h', game.CmdMoveLeft, false},
		{tcell.KeyRune, ' ', game.CmdFastDrop, false},
		{tcell.KeyRune, 'q', 0, true},
		{tcell.KeyEscape, 0, 0, true},
		{tcell.KeyRune, 'x', 0, false},
		{tcell.KeyEnter, 0, 0, false},
	}

	for _, tc := range cases {
		cmd, quit := KeyCommand(tc.key, tc.ch)
		assert.Equal(t, tc.cmd, cmd, "key %v %q", tc.key, tc.ch)
		assert.Equal(t, tc.quit, quit, "key %v %q", tc.key, tc.ch)
	}
}

func TestSoundsFor(t *testing.T) {
	assert.Empty(t, soundsFor(game.Stats{}, game.Stats{Ticks: 1}, false))
	assert.Equal(t, []Sound{SoundLock}, soundsFor(game.Stats{}, game.Stats{PiecesLocked: 1}, false))
	assert.Equal(t, []Sound{SoundLock, SoundClear, SoundGameOver},
		soundsFor(game.Stats{}, game.Stats{PiecesLocked: 1, RowsCleared: 2}, true))
}

func TestApp_StepStopsAdvancingWhenStopped(t *testing.T) {
	s := newTestSession(t, 6, 4, 4)
	app := &App{session: s}

	for i := 0; i < 10 && !s.Stopped(); i++ {
		app.Step(10 * time.Second)
	}
	require.True(t, s.Stopped())

	ticks := s.Stats().Ticks
	app.Step(time.Second)
	assert.Equal(t, ticks, s.Stats().Ticks)
}

func TestSequence(t *testing.T) {
	streamer, err := sequence(sounds[SoundClear])
	require.NoError(t, err)

	buf := make([][2]float64, 512)
	total := 0
	for {
		n, ok := streamer.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	assert.Equal(t, sampleRate.N(60*time.Millisecond)+sampleRate.N(80*time.Millisecond), total)
}
