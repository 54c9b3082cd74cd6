package tetris

import (
	"errors"
	"fmt"
)

const (
	BitmapSize    = 4 // ビットマップの一辺のセル数
	RotationCount = 4 // 各ピースタイプが持つ回転状態の数
)

var (
	// ErrEmptyCatalog はピースタイプが1つも定義されていないカタログを表します。
	ErrEmptyCatalog = errors.New("piece catalog has no piece types")
	// ErrEmptyBitmap はセルが1つも立っていないビットマップを表します。
	ErrEmptyBitmap = errors.New("piece bitmap has no occupied cells")
)

// Bitmap はピースの1回転状態を表す4x4の占有マスクです。
// Bitmap[row][col] でアクセスし、row 0 がローカル座標系の最下段です（上に向かって増加）。
type Bitmap [BitmapSize][BitmapSize]bool

// Color はRGBAの色トークンです。描画側が解釈します。
type Color [4]uint8

// Hex は "#rrggbbaa" 形式の文字列を返します。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c[0], c[1], c[2], c[3])
}

// BoundingBox はビットマップの占有セルを囲む最小の矩形です。
// MinRow/MinCol はビットマップ内のオフセット、Width/Height はセル数です。
type BoundingBox struct {
	MinRow int `json:"min_row"`
	MinCol int `json:"min_col"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PieceType はカタログの1エントリです。読み込み後は変更されません。
type PieceType struct {
	Name    string                `json:"name"`
	Bitmaps [RotationCount]Bitmap `json:"-"`
	Color   Color                 `json:"color"`
}

// Catalog はピースタイプの一覧と、各回転状態のバウンディングボックスのキャッシュを保持します。
type Catalog struct {
	types []PieceType
	boxes [][RotationCount]BoundingBox
}

// NewCatalog はピースタイプの一覧からカタログを構築します。
// ピースタイプが空の場合、または空のビットマップを含む場合は設定エラーを返します。
//
// Parameters:
//   types : ピースタイプの一覧（コピーされます）
// Returns:
//   *Catalog: 構築されたカタログ
//   error   : 設定エラー
func NewCatalog(types []PieceType) (*Catalog, error) {
	if len(types) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		types: make([]PieceType, len(types)),
		boxes: make([][RotationCount]BoundingBox, len(types)),
	}
	copy(c.types, types)

	for t := range c.types {
		for r := 0; r < RotationCount; r++ {
			box := computeBoundingBox(&c.types[t].Bitmaps[r])
			if box.Width == 0 || box.Height == 0 {
				return nil, fmt.Errorf("piece %d (%q) rotation %d: %w", t, c.types[t].Name, r, ErrEmptyBitmap)
			}
			c.boxes[t][r] = box
		}
	}

	return c, nil
}

// TypeCount はピースタイプの数を返します。
func (c *Catalog) TypeCount() int {
	return len(c.types)
}

// PieceType は指定したインデックスのピースタイプを返します。範囲外はpanicします。
func (c *Catalog) PieceType(typeIndex int) PieceType {
	return c.types[typeIndex]
}

// Bitmap は指定したピースタイプ・回転状態のビットマップを返します。
func (c *Catalog) Bitmap(typeIndex, rotation int) *Bitmap {
	return &c.types[typeIndex].Bitmaps[rotation]
}

// BoundingBox は指定したピースタイプ・回転状態のキャッシュ済みバウンディングボックスを返します。
func (c *Catalog) BoundingBox(typeIndex, rotation int) BoundingBox {
	return c.boxes[typeIndex][rotation]
}

// Color は指定したピースタイプの色を返します。
func (c *Catalog) Color(typeIndex int) Color {
	return c.types[typeIndex].Color
}

// computeBoundingBox はビットマップを走査して占有セルの最小/最大の行・列を求めます。
// 空のビットマップは幅・高さ0になります。
func computeBoundingBox(bmp *Bitmap) BoundingBox {
	minRow, minCol := BitmapSize, BitmapSize
	maxRow, maxCol := -1, -1

	for r := 0; r < BitmapSize; r++ {
		for c := 0; c < BitmapSize; c++ {
			if !bmp[r][c] {
				continue
			}
			minRow = min(minRow, r)
			maxRow = max(maxRow, r)
			minCol = min(minCol, c)
			maxCol = max(maxCol, c)
		}
	}

	if maxRow < 0 {
		return BoundingBox{}
	}
	return BoundingBox{
		MinRow: minRow,
		MinCol: minCol,
		Width:  maxCol - minCol + 1,
		Height: maxRow - minRow + 1,
	}
}
