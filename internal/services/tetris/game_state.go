package tetris

import (
	"errors"
	"fmt"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// Phase はゲームセッションの進行段階です。
type Phase int

const (
	PhaseLoading  Phase = iota // ボード・カタログ・タイマーの構築中
	PhaseInitBox               // 次のピースを出現させる段階
	PhasePlaying               // 通常落下と操作を受け付ける段階
	PhaseFastDown              // 高速落下中
	PhaseFlashing              // 揃った行の点滅中
	PhaseStopped               // 終了（以降は何も処理しない）
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseInitBox:
		return "init_box"
	case PhasePlaying:
		return "playing"
	case PhaseFastDown:
		return "fast_down"
	case PhaseFlashing:
		return "flashing"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText は JSON / YAML での表現を文字列にします。
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText は MarshalText の逆変換です。
func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseLoading; candidate <= PhaseStopped; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// ErrInvalidSettings はゲーム設定の値が不正な場合のエラーです。
var ErrInvalidSettings = errors.New("invalid game settings")

// Settings はゲームセッションが必要とする設定値です。
// ファイル形式は持たず、config パッケージが読み込んだ値をここに詰めます。
type Settings struct {
	Rows     int // 非表示バッファを含むグリッド全体の行数
	Cols     int
	MainRows int // 表示される行数

	DropInterval     time.Duration // 自動落下の間隔
	FastDropInterval time.Duration // 高速落下1段あたりの間隔
	FastDropSteps    int           // 高速落下で進む最大段数
	FlashInterval    time.Duration // 点滅の切り替え間隔
	FlashToggles     int           // 行消去までの点滅切り替え回数
}

// Validate は設定値の整合性を検証します。
//
// Returns:
//   error: 不正な値がある場合は ErrInvalidSettings をラップしたエラー
func (s Settings) Validate() error {
	switch {
	case s.Cols <= 0:
		return fmt.Errorf("%w: cols must be positive (got %d)", ErrInvalidSettings, s.Cols)
	case s.MainRows <= 0:
		return fmt.Errorf("%w: main rows must be positive (got %d)", ErrInvalidSettings, s.MainRows)
	case s.Rows < s.MainRows:
		return fmt.Errorf("%w: rows (%d) must not be less than main rows (%d)", ErrInvalidSettings, s.Rows, s.MainRows)
	case s.DropInterval <= 0, s.FastDropInterval <= 0, s.FlashInterval <= 0:
		return fmt.Errorf("%w: timer intervals must be positive", ErrInvalidSettings)
	case s.FastDropSteps <= 0:
		return fmt.Errorf("%w: fast drop steps must be positive (got %d)", ErrInvalidSettings, s.FastDropSteps)
	case s.FlashToggles <= 0:
		return fmt.Errorf("%w: flash toggles must be positive (got %d)", ErrInvalidSettings, s.FlashToggles)
	}
	return nil
}

// Preview は次に出現するピースです。
type Preview struct {
	TypeIndex int `json:"type"`
	Rotation  int `json:"rotation"`
}

// Stats はセッションの集計値です。スコアではなく単純なカウンタです。
type Stats struct {
	PiecesLocked int `json:"pieces_locked"`
	RowsCleared  int `json:"rows_cleared"`
	Ticks        int `json:"ticks"`
}

// ColoredCell は描画用のセル座標と色です。
type ColoredCell struct {
	Row   int          `json:"row"`
	Col   int          `json:"col"`
	Color tetris.Color `json:"-"`
}

// GameSession は1プレイ分のゲーム状態です。
// ボード・落下中のピース・タイマーをすべて所有し、Tick で1フレームずつ進めます。
// 並行アクセスは想定していません（ホスト側でロックしてください）。
type GameSession struct {
	settings Settings
	catalog  *tetris.Catalog
	board    *tetris.Board
	piece    tetris.ActivePiece
	gen      *tetris.IndexGen
	registry CellRegistry

	dropTimer  *Timer
	fastTimer  *Timer
	flashTimer *Timer

	phase        Phase
	pending      Command
	next         Preview
	fullRows     []int
	flashVisible bool
	stats        Stats

	recording *Playthrough
}

// NewGameSession は新しいゲームセッションを作成します。最初の Tick で InitBox に進みます。
//
// Parameters:
//   settings : グリッドとタイマーの設定
//   catalog  : ピースカタログ
//   seed     : ピース生成のシード
//   registry : セル識別子のレジストリ（nil の場合は TypeRegistry を使います）
// Returns:
//   *GameSession: 初期化されたセッション
//   error       : 設定が不正な場合
func NewGameSession(settings Settings, catalog *tetris.Catalog, seed uint64, registry CellRegistry) (*GameSession, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, tetris.ErrEmptyCatalog
	}
	if registry == nil {
		registry = NewTypeRegistry()
	}

	s := &GameSession{
		settings:     settings,
		catalog:      catalog,
		board:        tetris.NewBoard(settings.Rows, settings.Cols, settings.MainRows),
		gen:          tetris.NewIndexGen(catalog.TypeCount(), seed),
		registry:     registry,
		dropTimer:    NewRepeatingTimer(settings.DropInterval),
		fastTimer:    NewCountedTimer(settings.FastDropInterval, settings.FastDropSteps),
		flashTimer:   NewCountedTimer(settings.FlashInterval, settings.FlashToggles),
		phase:        PhaseLoading,
		flashVisible: true,
	}
	s.next = s.drawPreview()
	return s, nil
}

// Phase は現在の進行段階を返します。
func (s *GameSession) Phase() Phase { return s.phase }

// Stopped はセッションが終了しているかを返します。
func (s *GameSession) Stopped() bool { return s.phase == PhaseStopped }

// Board はボードを返します。呼び出し側は読み取りのみに使ってください。
func (s *GameSession) Board() *tetris.Board { return s.board }

// Catalog はピースカタログを返します。
func (s *GameSession) Catalog() *tetris.Catalog { return s.catalog }

// Settings は設定値を返します。
func (s *GameSession) Settings() Settings { return s.settings }

// Piece は落下中のピースのコピーを返します。
func (s *GameSession) Piece() tetris.ActivePiece { return s.piece }

// Next は次に出現するピースを返します。
func (s *GameSession) Next() Preview { return s.next }

// Stats は集計値を返します。
func (s *GameSession) Stats() Stats { return s.stats }

// Seed はピース生成のシードを返します。
func (s *GameSession) Seed() uint64 { return s.gen.Seed() }

// FullRows は点滅中の揃った行を返します。点滅中でなければ空です。
func (s *GameSession) FullRows() []int {
	return append([]int(nil), s.fullRows...)
}

// FlashVisible は点滅中の行を描画するかを返します。
func (s *GameSession) FlashVisible() bool { return s.flashVisible }

// ActiveCells は落下中のピースが占めるセルと色を返します。ピースが無い場合は nil です。
func (s *GameSession) ActiveCells() []ColoredCell {
	positions := s.piece.Cells(s.catalog)
	if positions == nil {
		return nil
	}
	color := s.catalog.Color(s.piece.TypeIndex)
	cells := make([]ColoredCell, 0, len(positions))
	for _, p := range positions {
		cells = append(cells, ColoredCell{Row: p.Row, Col: p.Col, Color: color})
	}
	return cells
}

// CellColor は固定済みセルの色を返します。空のマスは false です。
func (s *GameSession) CellColor(row, col int) (tetris.Color, bool) {
	id := s.board.Cell(row, col)
	if id == tetris.NoCell {
		return tetris.Color{}, false
	}
	typeIndex, ok := s.registry.TypeOf(id)
	if !ok {
		return tetris.Color{}, false
	}
	return s.catalog.Color(typeIndex), true
}

// PreviewBitmap は次のピースのビットマップを返します。
func (s *GameSession) PreviewBitmap() *tetris.Bitmap {
	return s.catalog.Bitmap(s.next.TypeIndex, s.next.Rotation)
}

func (s *GameSession) drawPreview() Preview {
	return Preview{TypeIndex: s.gen.RandType(), Rotation: s.gen.RandRotation()}
}
