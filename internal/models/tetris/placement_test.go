package tetris

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanPlace_Bounds(t *testing.T) {
	b := NewBoard(6, 4, 4)

	assert.True(t, CanPlace(b, &bmpI, Position{Row: 0, Col: 0}))
	assert.False(t, CanPlace(b, &bmpI, Position{Row: 0, Col: 1}), "right wall")
	assert.False(t, CanPlace(b, &bmpIVertical, Position{Row: 0, Col: -2}), "left wall")
	assert.False(t, CanPlace(b, &bmpO, Position{Row: -1, Col: 0}), "floor")

	// 横向きIのセルはローカル2行目なので、アンカーが-2でも床より上にある
	assert.True(t, CanPlace(b, &bmpI, Position{Row: -2, Col: 0}))

	// グリッドより上は空として扱う
	assert.True(t, CanPlace(b, &bmpIVertical, Position{Row: 5, Col: 0}))
	assert.True(t, CanPlace(b, &bmpO, Position{Row: 40, Col: 2}))
}

func TestCanPlace_Collision(t *testing.T) {
	b := NewBoard(6, 4, 4)
	b.Lock([]CellEntry{{Row: 1, Col: 1, ID: 1}})

	assert.False(t, CanPlace(b, &bmpO, Position{Row: 0, Col: 0}))
	assert.False(t, CanPlace(b, &bmpO, Position{Row: 1, Col: 1}))
	assert.True(t, CanPlace(b, &bmpO, Position{Row: 2, Col: 1}))
	assert.True(t, CanPlace(b, &bmpO, Position{Row: 0, Col: 2}))
}

// canPlaceOracle はセル座標の集合から直接判定する参照実装です。
func canPlaceOracle(b *Board, bmp *Bitmap, anchor Position) bool {
	for r := 0; r < BitmapSize; r++ {
		for c := 0; c < BitmapSize; c++ {
			if !bmp[r][c] {
				continue
			}
			row, col := anchor.Row+r, anchor.Col+c
			if col < 0 || col >= b.Cols() || row < 0 {
				return false
			}
			if b.IsInside(row, col) && b.Cell(row, col) != NoCell {
				return false
			}
		}
	}
	return true
}

func TestCanPlace_MatchesOracleOnRandomBoards(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	bitmaps := []Bitmap{bmpI, bmpIVertical, bmpO, bmpDot, bmpFull}

	for round := 0; round < 200; round++ {
		b := NewBoard(8, 6, 6)
		id := CellID(1)
		for row := 0; row < 8; row++ {
			for col := 0; col < 6; col++ {
				if rng.IntN(3) == 0 {
					b.Lock([]CellEntry{{Row: row, Col: col, ID: id}})
					id++
				}
			}
		}

		for _, bmp := range bitmaps {
			for row := -4; row <= 10; row++ {
				for col := -4; col <= 8; col++ {
					pos := Position{Row: row, Col: col}
					require.Equal(t, canPlaceOracle(b, &bmp, pos), CanPlace(b, &bmp, pos),
						"round %d anchor %+v", round, pos)
				}
			}
		}
	}
}

func TestSpawnPosition_Centered(t *testing.T) {
	c := mustCatalog(t, pieceI(), PieceType{Name: "O", Bitmaps: sameRotations(bmpO)})
	b := NewBoard(24, 10, 20)

	pos, ok := SpawnPosition(b, c, 0, 0)
	require.True(t, ok)
	// 幅4 → 左端は列3、セルはローカル2行目なので下端が19行目に来る
	assert.Equal(t, Position{Row: 17, Col: 3}, pos)

	pos, ok = SpawnPosition(b, c, 0, 1)
	require.True(t, ok)
	// 縦向きは MinCol=1 を打ち消して列4にセルが来る
	assert.Equal(t, Position{Row: 16, Col: 3}, pos)

	pos, ok = SpawnPosition(b, c, 1, 0)
	require.True(t, ok)
	assert.Equal(t, Position{Row: 18, Col: 4}, pos)
}

func TestSpawnPosition_ProbesUpward(t *testing.T) {
	c := mustCatalog(t, PieceType{Name: "O", Bitmaps: sameRotations(bmpO)})
	b := NewBoard(8, 4, 4)
	b.Lock([]CellEntry{{Row: 2, Col: 1, ID: 1}, {Row: 3, Col: 2, ID: 2}})

	pos, ok := SpawnPosition(b, c, 0, 0)
	require.True(t, ok)
	assert.Equal(t, Position{Row: 4, Col: 1}, pos)
}

func TestSpawnPosition_NoRoom(t *testing.T) {
	c := mustCatalog(t, PieceType{Name: "O", Bitmaps: sameRotations(bmpO)})
	b := NewBoard(6, 4, 4)
	for row := 2; row < 6; row++ {
		b.Lock([]CellEntry{{Row: row, Col: 1, ID: CellID(row)}})
	}

	_, ok := SpawnPosition(b, c, 0, 0)
	assert.False(t, ok)
}
