package tetris

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// Command はプレイヤーの操作です。1ティック内の同じ操作はまとめて1回として扱います。
type Command uint8

const (
	CmdMoveLeft Command = 1 << iota
	CmdMoveRight
	CmdRotate
	CmdFastDrop
)

// ErrUnknownAction は未知の操作名を表します。
var ErrUnknownAction = errors.New("unknown action")

var actionNames = []struct {
	name string
	cmd  Command
}{
	{"move_left", CmdMoveLeft},
	{"move_right", CmdMoveRight},
	{"rotate", CmdRotate},
	{"fast_drop", CmdFastDrop},
}

// ParseCommand はクライアントから送られる操作名を Command に変換します。
//
// Parameters:
//   action : 操作名（"move_left", "move_right", "rotate", "fast_drop"）
// Returns:
//   Command: 対応する操作
//   error  : 未知の操作名の場合は ErrUnknownAction
func ParseCommand(action string) (Command, error) {
	for _, a := range actionNames {
		if a.name == action {
			return a.cmd, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func (c Command) String() string {
	var names []string
	for _, a := range actionNames {
		if c&a.cmd != 0 {
			names = append(names, a.name)
		}
	}
	return strings.Join(names, "|")
}

// Input は次の Tick で処理する操作を積みます。
// 操作は Playing の間だけ反映され、それ以外の段階では Tick で捨てられます。
func (s *GameSession) Input(cmd Command) {
	if s.phase == PhaseStopped {
		return
	}
	s.pending |= cmd
}

// Tick はセッションを dt だけ進めます。
// タイマーを先に進め、発火したタイマーによる遷移は同じティック内で処理します。
// Stopped に達した後は何もしません。
func (s *GameSession) Tick(dt time.Duration) {
	if s.phase == PhaseStopped {
		return
	}

	cmds := s.pending
	s.pending = 0
	if s.recording != nil {
		s.recording.Frames = append(s.recording.Frames, Frame{DT: dt, Commands: cmds})
	}
	s.stats.Ticks++

	if s.phase == PhaseLoading {
		s.phase = PhaseInitBox
	}
	if s.phase == PhaseInitBox {
		s.spawn()
	}

	switch s.phase {
	case PhasePlaying:
		s.applyCommands(cmds)
		if s.phase == PhasePlaying {
			s.advanceDrop(dt)
		}
	case PhaseFastDown:
		s.advanceFastDown(dt)
	case PhaseFlashing:
		s.advanceFlash(dt)
	}

	if s.phase == PhaseInitBox {
		s.spawn()
	}
}

// spawn は次のピースを出現させます。置ける位置が無ければセッションを終了します。
func (s *GameSession) spawn() {
	pos, ok := tetris.SpawnPosition(s.board, s.catalog, s.next.TypeIndex, s.next.Rotation)
	if !ok {
		s.stop()
		return
	}

	s.piece.Spawn(s.next.TypeIndex, s.next.Rotation, pos)
	s.next = s.drawPreview()
	s.dropTimer.Resume()
	s.phase = PhasePlaying
}

// applyCommands は積まれた操作を固定の順序（左、右、回転、高速落下）で適用します。
// 衝突する操作は何もせずに無視します。
func (s *GameSession) applyCommands(cmds Command) {
	if cmds&CmdMoveLeft != 0 {
		s.tryMove(s.piece.Anchor.Left())
	}
	if cmds&CmdMoveRight != 0 {
		s.tryMove(s.piece.Anchor.Right())
	}
	if cmds&CmdRotate != 0 {
		if tetris.CanPlace(s.board, s.piece.RotatedBitmap(s.catalog), s.piece.Anchor) {
			s.piece.Rotate()
		}
	}
	if cmds&CmdFastDrop != 0 {
		if tetris.CanPlace(s.board, s.piece.Bitmap(s.catalog), s.piece.Anchor.Down()) {
			s.dropTimer.Pause()
			s.fastTimer.Start()
			s.phase = PhaseFastDown
		}
	}
}

func (s *GameSession) tryMove(pos tetris.Position) bool {
	if !tetris.CanPlace(s.board, s.piece.Bitmap(s.catalog), pos) {
		return false
	}
	s.piece.MoveTo(pos)
	return true
}

// advanceDrop は自動落下タイマーの発火回数だけピースを1段ずつ下げ、着地したら固定します。
func (s *GameSession) advanceDrop(dt time.Duration) {
	fired := s.dropTimer.Tick(dt)
	for i := 0; i < fired && s.phase == PhasePlaying; i++ {
		if !s.tryMove(s.piece.Anchor.Down()) {
			s.lockPiece()
		}
	}
}

// advanceFastDown は高速落下タイマーの発火ごとに1段下げます。
// 段数を使い切ったら Playing に戻り、途中で着地した場合は固定します。
func (s *GameSession) advanceFastDown(dt time.Duration) {
	fired := s.fastTimer.Tick(dt)
	for i := 0; i < fired; i++ {
		if !s.tryMove(s.piece.Anchor.Down()) {
			s.lockPiece()
			return
		}
	}

	if s.fastTimer.Finished() {
		s.fastTimer.Stop()
		s.dropTimer.Resume()
		s.phase = PhasePlaying
	}
}

// advanceFlash は揃った行の表示を切り替え、規定回数に達したら行を消去します。
func (s *GameSession) advanceFlash(dt time.Duration) {
	fired := s.flashTimer.Tick(dt)
	for i := 0; i < fired; i++ {
		s.flashVisible = !s.flashVisible
	}
	if !s.flashTimer.Finished() {
		return
	}

	s.flashTimer.Stop()
	for _, id := range s.board.ClearRows(s.fullRows) {
		s.registry.Release(id)
	}
	s.stats.RowsCleared += len(s.fullRows)
	s.fullRows = nil
	s.flashVisible = true

	if s.board.ReachedTop() {
		s.stop()
		return
	}
	s.phase = PhaseInitBox
}

// lockPiece は落下中のピースをボードに固定し、次の段階を決めます。
// 揃った行があれば点滅を始め、無ければ上端到達で終了、それ以外は次のピースへ進みます。
func (s *GameSession) lockPiece() {
	if !s.piece.FitsInside(s.board, s.catalog) {
		// グリッドより上に出たまま着地した場合は書き込めないので終了扱い
		log.Printf("[GameSession] Piece landed above the grid at row %d; stopping", s.piece.Anchor.Row)
		s.piece.Clear()
		s.stop()
		return
	}

	s.dropTimer.Pause()
	s.fastTimer.Stop()

	box := s.catalog.BoundingBox(s.piece.TypeIndex, s.piece.Rotation)
	from := s.piece.Anchor.Row + box.MinRow
	s.piece.Lock(s.board, s.catalog, s.registry.Acquire)
	s.stats.PiecesLocked++

	if full := s.board.FullRows(from, from+box.Height); len(full) > 0 {
		s.fullRows = full
		s.flashVisible = true
		s.flashTimer.Start()
		s.phase = PhaseFlashing
		return
	}

	if s.board.ReachedTop() {
		s.stop()
		return
	}
	s.phase = PhaseInitBox
}

func (s *GameSession) stop() {
	s.dropTimer.Stop()
	s.fastTimer.Stop()
	s.flashTimer.Stop()
	s.pending = 0
	s.phase = PhaseStopped
}
