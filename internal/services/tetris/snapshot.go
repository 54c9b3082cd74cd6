package tetris

// SnapshotCell は色付きの1マスです。色は "#rrggbbaa" 形式です。
type SnapshotCell struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Color string `json:"color"`
}

// Snapshot はクライアントへ送るセッションの表示用の状態です。
// 表示領域（mainRows 未満の行）のセルだけを含みます。
type Snapshot struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Phase        Phase          `json:"phase"`
	Rows         int            `json:"rows"`
	Cols         int            `json:"cols"`
	MainRows     int            `json:"main_rows"`
	Height       int            `json:"height"`
	Cells        [][]string     `json:"cells"` // [row][col]、row 0 が最下段、空のマスは ""
	Active       []SnapshotCell `json:"active"`
	Next         Preview        `json:"next"`
	NextColor    string         `json:"next_color"`
	FullRows     []int          `json:"full_rows"`
	FlashVisible bool           `json:"flash_visible"`
	Stats        Stats          `json:"stats"`
	Seed         uint64         `json:"seed,string"`
}

// BuildSnapshot はセッションの現在の状態からスナップショットを作ります。
//
// Parameters:
//   id     : セッションID
//   userID : プレイヤーのユーザーID
//   s      : 対象のゲームセッション
// Returns:
//   *Snapshot: JSON に変換できる表示用の状態
func BuildSnapshot(id, userID string, s *GameSession) *Snapshot {
	board := s.Board()

	cells := make([][]string, board.MainRows())
	for row := range cells {
		cells[row] = make([]string, board.Cols())
		for col := range cells[row] {
			if color, ok := s.CellColor(row, col); ok {
				cells[row][col] = color.Hex()
			}
		}
	}

	active := []SnapshotCell{}
	for _, c := range s.ActiveCells() {
		if board.IsVisible(c.Row, c.Col) {
			active = append(active, SnapshotCell{Row: c.Row, Col: c.Col, Color: c.Color.Hex()})
		}
	}

	fullRows := s.FullRows()
	if fullRows == nil {
		fullRows = []int{}
	}

	return &Snapshot{
		ID:           id,
		UserID:       userID,
		Phase:        s.Phase(),
		Rows:         board.Rows(),
		Cols:         board.Cols(),
		MainRows:     board.MainRows(),
		Height:       board.Height(),
		Cells:        cells,
		Active:       active,
		Next:         s.Next(),
		NextColor:    s.Catalog().Color(s.Next().TypeIndex).Hex(),
		FullRows:     fullRows,
		FlashVisible: s.FlashVisible(),
		Stats:        s.Stats(),
		Seed:         s.Seed(),
	}
}
