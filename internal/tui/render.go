// Package tui はゲームセッションを端末に描画するフロントエンドです。
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// Canvas は描画先です。tcell.Screen がそのまま満たします。
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

const (
	cellWidth  = 2 // 1マスを横2文字で描く
	boardLeft  = 2
	boardTop   = 1
	sidePad    = 4
	blockRune  = '█'
	emptyRune  = '·'
	borderRune = '│'
)

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	emptyStyle  = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	alertStyle  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// styleFor はピースの色を前景色にしたスタイルを返します。
func styleFor(c tetris.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c[0]), int32(c[1]), int32(c[2])))
}

// Renderer はセッションの表示領域・次のピース・集計値を描きます。
type Renderer struct {
	canvas Canvas
}

// NewRenderer は canvas に描く Renderer を作ります。
func NewRenderer(canvas Canvas) *Renderer {
	return &Renderer{canvas: canvas}
}

// screenPos はボード座標（row 0 が最下段）を画面座標に変換します。
func screenPos(mainRows, row, col int) (x, y int) {
	return boardLeft + 1 + col*cellWidth, boardTop + mainRows - 1 - row
}

func (r *Renderer) setCell(x, y int, ch rune, style tcell.Style) {
	for i := 0; i < cellWidth; i++ {
		r.canvas.SetContent(x+i, y, ch, nil, style)
	}
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for i, ch := range []rune(s) {
		r.canvas.SetContent(x+i, y, ch, nil, style)
	}
}

// Draw はセッションの現在の状態を描きます。画面のクリアと Show は呼び出し側で行います。
func (r *Renderer) Draw(s *game.GameSession) {
	board := s.Board()
	mainRows, cols := board.MainRows(), board.Cols()

	flashing := make(map[int]bool)
	if !s.FlashVisible() {
		for _, row := range s.FullRows() {
			flashing[row] = true
		}
	}

	// 枠
	right := boardLeft + 1 + cols*cellWidth
	for y := boardTop; y < boardTop+mainRows; y++ {
		r.canvas.SetContent(boardLeft, y, borderRune, nil, borderStyle)
		r.canvas.SetContent(right, y, borderRune, nil, borderStyle)
	}
	for x := boardLeft; x <= right; x++ {
		r.canvas.SetContent(x, boardTop+mainRows, '─', nil, borderStyle)
	}

	// 固定済みのセル
	for row := 0; row < mainRows; row++ {
		for col := 0; col < cols; col++ {
			x, y := screenPos(mainRows, row, col)
			color, ok := s.CellColor(row, col)
			if !ok || flashing[row] {
				r.setCell(x, y, emptyRune, emptyStyle)
				continue
			}
			r.setCell(x, y, blockRune, styleFor(color))
		}
	}

	// 落下中のピース（非表示バッファ内のセルは描かない）
	for _, c := range s.ActiveCells() {
		if !board.IsVisible(c.Row, c.Col) {
			continue
		}
		x, y := screenPos(mainRows, c.Row, c.Col)
		r.setCell(x, y, blockRune, styleFor(c.Color))
	}

	r.drawSidebar(s, right+sidePad)
}

func (r *Renderer) drawSidebar(s *game.GameSession, left int) {
	y := boardTop
	r.text(left, y, "NEXT", textStyle)
	y++

	next := s.Next()
	bmp := s.PreviewBitmap()
	style := styleFor(s.Catalog().Color(next.TypeIndex))
	for line := 0; line < tetris.BitmapSize; line++ {
		row := tetris.BitmapSize - 1 - line
		for col := 0; col < tetris.BitmapSize; col++ {
			ch := ' '
			if bmp[row][col] {
				ch = blockRune
			}
			r.setCell(left+col*cellWidth, y+line, ch, style)
		}
	}
	y += tetris.BitmapSize + 1

	stats := s.Stats()
	r.text(left, y, fmt.Sprintf("pieces %d", stats.PiecesLocked), textStyle)
	r.text(left, y+1, fmt.Sprintf("rows   %d", stats.RowsCleared), textStyle)
	r.text(left, y+2, fmt.Sprintf("seed   %d", s.Seed()), textStyle)
	r.text(left, y+4, s.Phase().String(), textStyle)

	if s.Stopped() {
		r.text(left, y+6, "GAME OVER", alertStyle)
		r.text(left, y+7, "q: quit", textStyle)
	}
}
