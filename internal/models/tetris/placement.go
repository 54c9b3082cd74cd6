package tetris

// Position はボード上の座標です。ピースの場合はビットマップ左下隅の位置（アンカー）を表します。
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Down / Left / Right は1マス移動した位置を返します。
func (p Position) Down() Position  { return Position{Row: p.Row - 1, Col: p.Col} }
func (p Position) Left() Position  { return Position{Row: p.Row, Col: p.Col - 1} }
func (p Position) Right() Position { return Position{Row: p.Row, Col: p.Col + 1} }

// CanPlace はビットマップを anchor に置けるかを判定します。
// ビットマップの (r, c) はボードの (anchor.Row + r, anchor.Col + c) に対応します。
// 列が [0, cols) の外、行が負、または既に占有されているマスに重なる場合は false です。
// 行の上限はありません（グリッドより上のセルは常に空として扱います）。
//
// Parameters:
//   board  : 判定対象のボード
//   bmp    : ピースのビットマップ
//   anchor : 配置先のアンカー座標
// Returns:
//   bool: 配置可能な場合は true
func CanPlace(board *Board, bmp *Bitmap, anchor Position) bool {
	for r := 0; r < BitmapSize; r++ {
		for c := 0; c < BitmapSize; c++ {
			if !bmp[r][c] {
				continue
			}
			row := anchor.Row + r
			col := anchor.Col + c

			if col < 0 || col >= board.Cols() || row < 0 {
				return false
			}
			if row < board.Rows() && board.Occupied(row, col) {
				return false
			}
		}
	}
	return true
}

// SpawnPosition は新しいピースの出現位置を求めます。
// バウンディングボックスを水平方向の中央に置き、下端が mainRows - 高さ の行に来る位置から始めて、
// 衝突する場合はバウンディングボックスの上端がグリッドの上端に達するまで1行ずつ上を試します。
//
// Returns:
//   Position: 出現位置（アンカー）
//   bool    : 置ける位置が見つからなかった場合（ゲームオーバー）は false
func SpawnPosition(board *Board, catalog *Catalog, typeIndex, rotation int) (Position, bool) {
	box := catalog.BoundingBox(typeIndex, rotation)
	bmp := catalog.Bitmap(typeIndex, rotation)

	col := (board.Cols()-box.Width)/2 - box.MinCol
	firstRow := board.MainRows() - box.Height - box.MinRow
	lastRow := board.Rows() - box.Height - box.MinRow

	for row := firstRow; row <= lastRow; row++ {
		pos := Position{Row: row, Col: col}
		if CanPlace(board, bmp, pos) {
			return pos, true
		}
	}
	return Position{}, false
}
