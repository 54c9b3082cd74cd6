package tetris

import "testing"

// bitmapOf は上の行から順に書いた "#" / "." の文字列からビットマップを作ります。
func bitmapOf(rows ...string) Bitmap {
	var bmp Bitmap
	for i, line := range rows {
		r := BitmapSize - 1 - i
		for c, ch := range line {
			if ch == '#' {
				bmp[r][c] = true
			}
		}
	}
	return bmp
}

func sameRotations(bmp Bitmap) [RotationCount]Bitmap {
	return [RotationCount]Bitmap{bmp, bmp, bmp, bmp}
}

func mustCatalog(t *testing.T, types ...PieceType) *Catalog {
	t.Helper()
	c, err := NewCatalog(types)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return c
}

var (
	bmpI = bitmapOf(
		"....",
		"####",
		"....",
		"....",
	)
	bmpIVertical = bitmapOf(
		".#..",
		".#..",
		".#..",
		".#..",
	)
	bmpO = bitmapOf(
		"....",
		"....",
		"##..",
		"##..",
	)
	bmpFull = bitmapOf(
		"####",
		"####",
		"####",
		"####",
	)
	bmpDot = bitmapOf(
		"....",
		"....",
		"....",
		"#...",
	)
)

func pieceI() PieceType {
	return PieceType{
		Name:    "I",
		Bitmaps: [RotationCount]Bitmap{bmpI, bmpIVertical, bmpI, bmpIVertical},
		Color:   Color{0, 255, 255, 255},
	}
}

// fillRow は except に含まれる列以外を id で埋めます。
func fillRow(b *Board, row int, id CellID, except ...int) {
	skip := make(map[int]bool, len(except))
	for _, c := range except {
		skip[c] = true
	}
	var entries []CellEntry
	for col := 0; col < b.Cols(); col++ {
		if !skip[col] {
			entries = append(entries, CellEntry{Row: row, Col: col, ID: id})
		}
	}
	b.Lock(entries)
}
