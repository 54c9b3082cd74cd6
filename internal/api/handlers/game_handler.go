package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

const authTimeout = 10 * time.Second

// upgrader はHTTP接続をWebSocketプロトコルにアップグレードするための設定です。
// Origin の制限は CORS ミドルウェアと認証メッセージに任せます。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameHandler はゲームセッション関連のHTTPリクエスト（作成、状態取得、操作、終了、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager
	auth           *middleware.Authenticator
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm   : セッションマネージャーへのポインタ
//   auth : WebSocket の認証メッセージを検証する Authenticator
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, auth *middleware.Authenticator) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		auth:           auth,
	}
}

// ExtractUserIDFromContext はリクエストのコンテキストからユーザーIDを抽出します。
func ExtractUserIDFromContext(r *http.Request) (string, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return "", fmt.Errorf("ユーザーIDがコンテキストに見つかりません")
	}
	return userID, nil
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeSessionError はセッションマネージャーのエラーをHTTPステータスに変換します。
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tetris.ErrSessionNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
	case errors.Is(err, tetris.ErrNotSessionOwner):
		WriteErrorResponse(w, http.StatusForbidden, "他のユーザーのセッションは操作できません")
	case errors.Is(err, tetris.ErrUnknownAction):
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tetris.ErrSessionStopped):
		WriteErrorResponse(w, http.StatusConflict, "セッションは既に終了しています")
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("セッションの処理に失敗しました: %v", err))
	}
}

// authorizeSession はURLのセッションIDを取り出し、認証済みユーザーが所有者か確認します。
// 失敗した場合はレスポンスを書き込み、ok=false を返します。
func (h *GameHandler) authorizeSession(w http.ResponseWriter, r *http.Request) (sessionID string, ok bool) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return "", false
	}

	sessionID = mux.Vars(r)["sessionID"]
	if sessionID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "セッションIDが必要です")
		return "", false
	}

	owner, err := h.sessionManager.SessionOwner(sessionID)
	if err != nil {
		writeSessionError(w, err)
		return "", false
	}
	if owner != userID {
		log.Printf("[GameHandler] User %s tried to access session %s owned by %s", userID, sessionID, owner)
		writeSessionError(w, tetris.ErrNotSessionOwner)
		return "", false
	}
	return sessionID, true
}

// CreateSession は新しいゲームセッションを作成します。
// POST /api/sessions  body: {"seed": "123"}（省略可）
func (h *GameHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}

	sessionID, err := h.sessionManager.CreateSession(userID, req.Seed)
	if err != nil {
		log.Printf("[GameHandler] Failed to create session for user %s: %v", userID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("セッションの作成に失敗しました: %v", err))
		return
	}

	WriteJSONResponse(w, http.StatusCreated, models.CreateSessionResponse{SessionID: sessionID})
}

// GetSession はセッションの現在のスナップショットを返します。
// GET /api/sessions/{sessionID}
func (h *GameHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorizeSession(w, r)
	if !ok {
		return
	}

	snap, err := h.sessionManager.Snapshot(sessionID)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, snap)
}

// PostInput はプレイヤー操作を1つ受け付けます。操作は次のフレームでまとめて適用されます。
// POST /api/sessions/{sessionID}/input  body: {"action": "rotate"}
func (h *GameHandler) PostInput(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorizeSession(w, r)
	if !ok {
		return
	}

	var req models.InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
		return
	}

	if err := h.sessionManager.HandleInput(sessionID, req.Action); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// EndSession はセッションを終了し、記録を保存します。
// DELETE /api/sessions/{sessionID}
func (h *GameHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.authorizeSession(w, r)
	if !ok {
		return
	}

	if err := h.sessionManager.EndSession(sessionID); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証メッセージを受け取った後、接続をセッションマネージャーに引き渡します。
// GET /api/sessions/{sessionID}/ws
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if sessionID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "WebSocket接続にはセッションIDが必要です")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for session %s: %v", sessionID, err)
		return
	}

	userID, err := h.awaitAuth(conn)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for session %s: %v", sessionID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
		return
	}

	// SessionManager に新しいWebSocket接続を登録
	if err := h.sessionManager.RegisterClient(sessionID, userID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client %s to session %s: %v", userID, sessionID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
		return
	}
	// readPump と writePump は RegisterClient 内で開始される
}

// awaitAuth は最初のメッセージとして {"type":"auth","token":"..."} を待ち、ユーザーIDを返します。
func (h *GameHandler) awaitAuth(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, message, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("failed to read auth message: %w", err)
	}

	var authMsg struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(message, &authMsg); err != nil {
		return "", fmt.Errorf("failed to parse auth message: %w", err)
	}
	if authMsg.Type != "auth" {
		return "", fmt.Errorf("expected auth message, got %q", authMsg.Type)
	}

	userID, err := h.auth.ParseUserID(authMsg.Token)
	if err != nil {
		return "", err
	}

	conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})
	log.Printf("[GameHandler] Successfully authenticated user via WebSocket: %s", userID)
	return userID, nil
}
