package tetris

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// Frame は1ティック分の入力です。
type Frame struct {
	DT       time.Duration
	Commands Command
}

// Playthrough はシードとティックごとの入力履歴です。
// ピース生成はシードだけで決まるため、同じ設定で再生すれば同じ盤面になります。
type Playthrough struct {
	Seed   uint64
	Frames []Frame
}

// playthroughFile は YAML に保存する形式です。時間はナノ秒で持ちます。
type playthroughFile struct {
	Seed   uint64      `yaml:"seed"`
	Frames []frameFile `yaml:"frames"`
}

type frameFile struct {
	DTNanos  int64 `yaml:"dt_ns"`
	Commands uint8 `yaml:"cmd,omitempty"`
}

// StartRecording は以降の Tick の入力を記録し始めます。
func (s *GameSession) StartRecording() {
	s.recording = &Playthrough{Seed: s.Seed()}
}

// Recording は記録済みの入力履歴のコピーを返します。記録していなければ false です。
func (s *GameSession) Recording() (Playthrough, bool) {
	if s.recording == nil {
		return Playthrough{}, false
	}
	return Playthrough{
		Seed:   s.recording.Seed,
		Frames: append([]Frame(nil), s.recording.Frames...),
	}, true
}

// Replay は入力履歴を新しいセッションで再生し、最後の状態のセッションを返します。
//
// Parameters:
//   settings : 記録時と同じ設定
//   catalog  : 記録時と同じピースカタログ
//   p        : 入力履歴
// Returns:
//   *GameSession: 再生後のセッション
//   error       : 設定が不正な場合
func Replay(settings Settings, catalog *tetris.Catalog, p Playthrough) (*GameSession, error) {
	s, err := NewGameSession(settings, catalog, p.Seed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create replay session: %w", err)
	}
	for _, f := range p.Frames {
		s.Input(f.Commands)
		s.Tick(f.DT)
	}
	return s, nil
}

// WritePlaythrough は入力履歴を YAML で書き出します。
func WritePlaythrough(w io.Writer, p Playthrough) error {
	file := playthroughFile{Seed: p.Seed, Frames: make([]frameFile, 0, len(p.Frames))}
	for _, f := range p.Frames {
		file.Frames = append(file.Frames, frameFile{
			DTNanos:  f.DT.Nanoseconds(),
			Commands: uint8(f.Commands),
		})
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode playthrough: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write playthrough: %w", err)
	}
	return nil
}

// ReadPlaythrough は YAML の入力履歴を読み込みます。
func ReadPlaythrough(r io.Reader) (Playthrough, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Playthrough{}, fmt.Errorf("failed to read playthrough: %w", err)
	}

	var file playthroughFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Playthrough{}, fmt.Errorf("failed to decode playthrough: %w", err)
	}

	p := Playthrough{Seed: file.Seed, Frames: make([]Frame, 0, len(file.Frames))}
	for _, f := range file.Frames {
		p.Frames = append(p.Frames, Frame{
			DT:       time.Duration(f.DTNanos),
			Commands: Command(f.Commands),
		})
	}
	return p, nil
}
