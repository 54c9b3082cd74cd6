package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// bitmapOf は上の行から順に書いた "#" / "." の文字列からビットマップを作ります。
func bitmapOf(rows ...string) tetris.Bitmap {
	var bmp tetris.Bitmap
	for i, line := range rows {
		r := tetris.BitmapSize - 1 - i
		for c, ch := range line {
			if ch == '#' {
				bmp[r][c] = true
			}
		}
	}
	return bmp
}

var (
	oBitmap = bitmapOf(
		"....",
		"....",
		"##..",
		"##..",
	)
	iHorizontal = bitmapOf(
		"....",
		"####",
		"....",
		"....",
	)
	iVertical = bitmapOf(
		".#..",
		".#..",
		".#..",
		".#..",
	)
)

func oCatalog(t *testing.T) *tetris.Catalog {
	t.Helper()
	c, err := tetris.NewCatalog([]tetris.PieceType{{
		Name:    "O",
		Bitmaps: [tetris.RotationCount]tetris.Bitmap{oBitmap, oBitmap, oBitmap, oBitmap},
		Color:   tetris.Color{255, 255, 0, 255},
	}})
	require.NoError(t, err)
	return c
}

func iCatalog(t *testing.T) *tetris.Catalog {
	t.Helper()
	c, err := tetris.NewCatalog([]tetris.PieceType{{
		Name:    "I",
		Bitmaps: [tetris.RotationCount]tetris.Bitmap{iHorizontal, iVertical, iHorizontal, iVertical},
		Color:   tetris.Color{0, 255, 255, 255},
	}})
	require.NoError(t, err)
	return c
}

func testSettings(rows, cols, mainRows int) Settings {
	return Settings{
		Rows:             rows,
		Cols:             cols,
		MainRows:         mainRows,
		DropInterval:     100 * time.Millisecond,
		FastDropInterval: 10 * time.Millisecond,
		FastDropSteps:    3,
		FlashInterval:    50 * time.Millisecond,
		FlashToggles:     4,
	}
}

// longTick は自動落下タイマーが何度も発火するのに十分な時間です。
const longTick = 10 * time.Second

func newSession(t *testing.T, settings Settings, catalog *tetris.Catalog) *GameSession {
	t.Helper()
	s, err := NewGameSession(settings, catalog, 42, nil)
	require.NoError(t, err)
	return s
}

// placePiece は落下中のピースを指定した位置・回転に置き直します。
func placePiece(s *GameSession, rotation int, pos tetris.Position) {
	s.piece.Clear()
	s.piece.Spawn(s.piece.TypeIndex, rotation, pos)
}
