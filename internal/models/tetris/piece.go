package tetris

import "fmt"

// ActivePiece は現在落下中のピースです。ピースが無い状態（absent）と有る状態（present）を持ちます。
// 移動・回転の妥当性検証は呼び出し側が CanPlace で事前に行います。
type ActivePiece struct {
	present   bool
	Anchor    Position `json:"anchor"`
	TypeIndex int      `json:"type"`
	Rotation  int      `json:"rotation"`
}

// Present はピースが存在するかを返します。
func (p ActivePiece) Present() bool {
	return p.present
}

// Spawn はピースを出現させます。既にピースが存在する場合は何もしません。
func (p *ActivePiece) Spawn(typeIndex, rotation int, pos Position) {
	if p.present {
		return
	}
	p.present = true
	p.Anchor = pos
	p.TypeIndex = typeIndex
	p.Rotation = rotation
}

// MoveTo はアンカーを更新します。
func (p *ActivePiece) MoveTo(pos Position) {
	p.mustBePresent("move")
	p.Anchor = pos
}

// Rotate は回転状態を1つ進めます。壁蹴りは行いません。
func (p *ActivePiece) Rotate() {
	p.mustBePresent("rotate")
	p.Rotation = (p.Rotation + 1) % RotationCount
}

// Bitmap は現在の回転状態のビットマップを返します。
func (p *ActivePiece) Bitmap(catalog *Catalog) *Bitmap {
	return catalog.Bitmap(p.TypeIndex, p.Rotation)
}

// RotatedBitmap は次の回転状態のビットマップを返します（回転前の検証用）。
func (p *ActivePiece) RotatedBitmap(catalog *Catalog) *Bitmap {
	return catalog.Bitmap(p.TypeIndex, (p.Rotation+1)%RotationCount)
}

// Cells はピースが占めるボード上の絶対座標を返します。ピースが無い場合は nil です。
func (p *ActivePiece) Cells(catalog *Catalog) []Position {
	if !p.present {
		return nil
	}
	bmp := p.Bitmap(catalog)
	cells := make([]Position, 0, BitmapSize)
	for r := 0; r < BitmapSize; r++ {
		for c := 0; c < BitmapSize; c++ {
			if bmp[r][c] {
				cells = append(cells, Position{Row: p.Anchor.Row + r, Col: p.Anchor.Col + c})
			}
		}
	}
	return cells
}

// Lock はピースをボードに固定し、ピースの無い状態に戻ります。
// acquire は各セルの識別子を発行する関数で、通常は描画側のレジストリです。
//
// Parameters:
//   board   : 固定先のボード
//   catalog : ピースカタログ
//   acquire : ピースタイプから識別子を発行する関数
// Returns:
//   []CellEntry: ボードに書き込まれたエントリ
func (p *ActivePiece) Lock(board *Board, catalog *Catalog, acquire func(typeIndex int) CellID) []CellEntry {
	p.mustBePresent("lock")

	cells := p.Cells(catalog)
	entries := make([]CellEntry, 0, len(cells))
	for _, cell := range cells {
		entries = append(entries, CellEntry{Row: cell.Row, Col: cell.Col, ID: acquire(p.TypeIndex)})
	}
	board.Lock(entries)

	p.present = false
	return entries
}

// FitsInside はピースの全セルがグリッド内に収まっているかを返します。
func (p *ActivePiece) FitsInside(board *Board, catalog *Catalog) bool {
	for _, cell := range p.Cells(catalog) {
		if !board.IsInside(cell.Row, cell.Col) {
			return false
		}
	}
	return true
}

// Clear はピースを固定せずに取り除きます。
func (p *ActivePiece) Clear() {
	p.present = false
}

func (p *ActivePiece) mustBePresent(op string) {
	if !p.present {
		panic(fmt.Sprintf("tetris: %s on absent piece", op))
	}
}
