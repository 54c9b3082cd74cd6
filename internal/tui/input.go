package tui

import (
	"github.com/gdamore/tcell/v2"

	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// KeyCommand はキー入力をゲームの操作に変換します。
// quit が true の場合は終了要求で、cmd は 0 です。対応しないキーは両方ゼロ値です。
func KeyCommand(key tcell.Key, ch rune) (cmd game.Command, quit bool) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return 0, true
	case tcell.KeyLeft:
		return game.CmdMoveLeft, false
	case tcell.KeyRight:
		return game.CmdMoveRight, false
	case tcell.KeyUp:
		return game.CmdRotate, false
	case tcell.KeyDown:
		return game.CmdFastDrop, false
	case tcell.KeyRune:
		switch ch {
		case 'q', 'Q':
			return 0, true
		case 'h', 'a':
			return game.CmdMoveLeft, false
		case 'l', 'd':
			return game.CmdMoveRight, false
		case 'k', 'w':
			return game.CmdRotate, false
		case 'j', 's', ' ':
			return game.CmdFastDrop, false
		}
	}
	return 0, false
}
