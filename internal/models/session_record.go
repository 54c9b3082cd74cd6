package models

import (
	"time"
)

// SessionRecord は session_records テーブルのレコードに対応する構造体です。
// 終了したセッションの集計だけを保存し、盤面は保存しません。
type SessionRecord struct {
	ID           string    `json:"id"`      // セッションID (UUID)
	UserID       string    `json:"user_id"` // UUID
	Seed         uint64    `json:"seed,string"`
	PiecesLocked int       `json:"pieces_locked"`
	RowsCleared  int       `json:"rows_cleared"`
	Ticks        int       `json:"ticks"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// Duration はセッションのプレイ時間を返します。
func (r *SessionRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// CreateSessionRequest はセッション作成リクエスト用の構造体です。
type CreateSessionRequest struct {
	Seed *uint64 `json:"seed,string,omitempty"`
}

// CreateSessionResponse はセッション作成レスポンス用の構造体です。
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// InputRequest はプレイヤー操作のリクエスト用の構造体です。
type InputRequest struct {
	Action string `json:"action"` // "move_left", "move_right", "rotate", "fast_drop"
}
