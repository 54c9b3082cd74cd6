package tetris

import (
	"fmt"
)

// CellID はボードに固定されたピース断片の識別子です。
// 値の意味は描画側のレジストリが決め、ボードは保存して返すだけです。
type CellID uint64

// NoCell は空のマスを表します。
const NoCell CellID = 0

// CellEntry はロック時にボードへ書き込む1マス分の情報です。
type CellEntry struct {
	Row int
	Col int
	ID  CellID
}

// Board はゲームボードを表す2次元グリッドです。
// 行 0 が最下段で、mainRows 以上の行は画面に表示されないスポーン用のバッファです。
// rows と cols はボードの生存期間中は変化しません。
type Board struct {
	rows     int
	cols     int
	mainRows int
	height   int      // 占有セルを含む最も高い行 + 1（空なら0）
	cells    []CellID // 行優先: index = row*cols + col
}

// NewBoard は全マスが空のボードを作成します。
//
// Parameters:
//   rows     : グリッド全体の行数（非表示バッファを含む）
//   cols     : 列数
//   mainRows : 表示される行数（rows 以下）
// Returns:
//   *Board: 新しいボード
func NewBoard(rows, cols, mainRows int) *Board {
	if rows <= 0 || cols <= 0 || mainRows <= 0 || mainRows > rows {
		panic(fmt.Sprintf("tetris: invalid board dimensions rows=%d cols=%d main_rows=%d", rows, cols, mainRows))
	}
	return &Board{
		rows:     rows,
		cols:     cols,
		mainRows: mainRows,
		cells:    make([]CellID, rows*cols),
	}
}

func (b *Board) Rows() int     { return b.rows }
func (b *Board) Cols() int     { return b.cols }
func (b *Board) MainRows() int { return b.mainRows }
func (b *Board) Height() int   { return b.height }

// IsInside は (row, col) がグリッド内にあるかを返します。
func (b *Board) IsInside(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// IsVisible は (row, col) が表示領域内にあるかを返します。描画判定専用で、衝突判定には使いません。
func (b *Board) IsVisible(row, col int) bool {
	return row >= 0 && row < b.mainRows && col >= 0 && col < b.cols
}

// Occupied は (row, col) が占有されているかを返します。グリッド外の指定はpanicします。
func (b *Board) Occupied(row, col int) bool {
	return b.Cell(row, col) != NoCell
}

// Cell は (row, col) の識別子を返します。グリッド外の指定はpanicします。
func (b *Board) Cell(row, col int) CellID {
	if !b.IsInside(row, col) {
		panic(fmt.Sprintf("tetris: cell (%d, %d) is outside the %dx%d grid", row, col, b.rows, b.cols))
	}
	return b.cells[row*b.cols+col]
}

// Lock はエントリをボードに書き込み、height を更新します。
// 書き込み先がグリッド外、または既に占有されている場合は衝突判定のバグなのでpanicします。
// 書き込みは全エントリの検証後に行うため、panic時にボードは変更されません。
func (b *Board) Lock(entries []CellEntry) {
	for _, e := range entries {
		if b.Occupied(e.Row, e.Col) {
			panic(fmt.Sprintf("tetris: lock into occupied cell (%d, %d)", e.Row, e.Col))
		}
		if e.ID == NoCell {
			panic(fmt.Sprintf("tetris: lock of empty identity at (%d, %d)", e.Row, e.Col))
		}
	}

	for _, e := range entries {
		b.cells[e.Row*b.cols+e.Col] = e.ID
		b.height = max(b.height, e.Row+1)
	}
}

// FullRows は [from, to) の範囲で全列が占有されている行を昇順で返します。
// 範囲はグリッドの行数に切り詰められます。
func (b *Board) FullRows(from, to int) []int {
	from = max(from, 0)
	to = min(to, b.rows)

	var full []int
	for row := from; row < to; row++ {
		if b.rowFull(row) {
			full = append(full, row)
		}
	}
	return full
}

func (b *Board) rowFull(row int) bool {
	base := row * b.cols
	for col := 0; col < b.cols; col++ {
		if b.cells[base+col] == NoCell {
			return false
		}
	}
	return true
}

// ClearRows は揃った行を取り除き、上の行を下に詰めます。
// full は昇順で、すべて height 未満でなければなりません。
// 隣り合う2つの揃った行の間（最後は揃った行から height まで）の区間を、
// その区間より下にある揃った行の数だけ下にずらします。
//
// Parameters:
//   full : 揃った行のインデックス（昇順）
// Returns:
//   []CellID: 取り除かれたセルの識別子（描画側のレジストリで解放するため）
func (b *Board) ClearRows(full []int) []CellID {
	if len(full) == 0 {
		return nil
	}
	for i, row := range full {
		if row < 0 || row >= b.height || (i > 0 && row <= full[i-1]) {
			panic(fmt.Sprintf("tetris: invalid full row list %v (height %d)", full, b.height))
		}
	}

	removed := make([]CellID, 0, len(full)*b.cols)
	for _, row := range full {
		removed = append(removed, b.cells[row*b.cols:(row+1)*b.cols]...)
	}

	for i, row := range full {
		end := b.height
		if i+1 < len(full) {
			end = full[i+1]
		}
		shift := i + 1
		for src := row + 1; src < end; src++ {
			dst := src - shift
			copy(b.cells[dst*b.cols:(dst+1)*b.cols], b.cells[src*b.cols:(src+1)*b.cols])
		}
	}

	newHeight := b.height - len(full)
	clear(b.cells[newHeight*b.cols : b.height*b.cols])
	b.height = newHeight

	return removed
}

// ReachedTop はスタックが表示領域の上端に達したかを返します。
func (b *Board) ReachedTop() bool {
	return b.height >= b.mainRows
}
