package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

var (
	// ErrSessionNotFound は指定したIDのセッションが存在しないことを表します。
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionStopped は終了したセッションへの操作を表します。
	ErrSessionStopped = errors.New("session already stopped")
	// ErrNotSessionOwner はセッションの所有者以外からの接続を表します。
	ErrNotSessionOwner = errors.New("user does not own this session")
)

const (
	minBroadcastInterval = 50 * time.Millisecond // 状態変化が無い間のブロードキャスト間隔
	recordWriteTimeout   = 5 * time.Second
	clientSendBuffer     = 64
)

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID    string          // このクライアントに紐づくユーザーのID
	SessionID string          // 操作対象のセッションID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool            // チャネルが閉じられたかどうかのフラグ
	mu        sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// PlayerInputEvent はWebSocketで受け取るプレイヤー操作です。
type PlayerInputEvent struct {
	SessionID string `json:"-"`
	Action    string `json:"action"`
}

// hostedSession はサーバー上で動いている1セッションです。
type hostedSession struct {
	ID        string
	UserID    string
	Game      *GameSession
	StartedAt time.Time

	lastPhase      Phase
	sinceBroadcast time.Duration
}

// SessionManager はゲームセッションとWebSocketクライアント接続の全体を管理します。
// セッションの状態はすべて mu で保護され、時間を進めるのは Step（通常は Run）だけです。
type SessionManager struct {
	settings Settings
	catalog  *tetris.Catalog
	records  database.RecordRepository // nil の場合は記録を保存しない
	tick     time.Duration

	sessions    map[string]*hostedSession // sessionID -> セッション
	clients     map[string]*Client        // sessionID -> 操作中のクライアント
	inputEvents chan PlayerInputEvent     // WebSocketからのプレイヤー操作
	quit        chan struct{}
	quitOnce    sync.Once
	mu          sync.Mutex
	writes      sync.WaitGroup // 保存中の記録
}

// NewSessionManager は新しい SessionManager を作成します。時間を進めるには Run を呼んでください。
//
// Parameters:
//   settings : ゲーム設定
//   catalog  : ピースカタログ
//   records  : セッション記録のリポジトリ（nil 可）
//   tick     : Run が Step を呼ぶ間隔
// Returns:
//   *SessionManager: 初期化されたセッションマネージャー
func NewSessionManager(settings Settings, catalog *tetris.Catalog, records database.RecordRepository, tick time.Duration) *SessionManager {
	return &SessionManager{
		settings:    settings,
		catalog:     catalog,
		records:     records,
		tick:        tick,
		sessions:    make(map[string]*hostedSession),
		clients:     make(map[string]*Client),
		inputEvents: make(chan PlayerInputEvent, 256),
		quit:        make(chan struct{}),
	}
}

// Run は SessionManager のメインイベントループです。
// 一定間隔で Step を呼び、WebSocket からの入力を処理します。ctx がキャンセルされるか Shutdown で終了します。
func (sm *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(sm.tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			sm.Step(now.Sub(last))
			last = now

		case event := <-sm.inputEvents:
			if err := sm.HandleInput(event.SessionID, event.Action); err != nil {
				log.Printf("[SessionManager] Ignored input %q for session %s: %v", event.Action, event.SessionID, err)
			}

		case <-ctx.Done():
			log.Printf("[SessionManager] Context cancelled, stopping main loop")
			return

		case <-sm.quit:
			log.Printf("[SessionManager] シャットダウンシグナルを受信、メインループを終了します")
			return
		}
	}
}

// CreateSession は新しいゲームセッションを作成します。
//
// Parameters:
//   userID : プレイヤーのユーザーID
//   seed   : ピース生成のシード（nil の場合は現在時刻）
// Returns:
//   string: 作成されたセッションのID
//   error : エラーが発生した場合
func (sm *SessionManager) CreateSession(userID string, seed *uint64) (string, error) {
	s := tetris.EntropySeed()
	if seed != nil {
		s = *seed
	}

	game, err := NewGameSession(sm.settings, sm.catalog, s, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create game session: %w", err)
	}

	hs := &hostedSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		Game:      game,
		StartedAt: time.Now(),
		lastPhase: game.Phase(),
	}

	sm.mu.Lock()
	sm.sessions[hs.ID] = hs
	sm.mu.Unlock()

	log.Printf("[SessionManager] Session %s created for user %s (seed %d)", hs.ID, userID, s)
	return hs.ID, nil
}

// HandleInput はプレイヤーの操作を次の Step で処理するように積みます。
//
// Parameters:
//   sessionID : 対象のセッションID
//   action    : 操作名（"move_left", "move_right", "rotate", "fast_drop"）
// Returns:
//   error: セッションが無い、終了済み、または未知の操作名の場合
func (sm *SessionManager) HandleInput(sessionID, action string) error {
	cmd, err := ParseCommand(action)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	hs, ok := sm.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if hs.Game.Stopped() {
		return ErrSessionStopped
	}
	hs.Game.Input(cmd)
	return nil
}

// Step は全セッションを dt だけ進め、接続中のクライアントに状態を送り、終了したセッションを片付けます。
func (sm *SessionManager) Step(dt time.Duration) {
	type outgoing struct {
		client  *Client
		payload []byte
	}
	var sends []outgoing
	var finished []*hostedSession
	var closing []*Client

	sm.mu.Lock()
	for id, hs := range sm.sessions {
		hs.Game.Tick(dt)
		hs.sinceBroadcast += dt

		phase := hs.Game.Phase()
		changed := phase != hs.lastPhase
		hs.lastPhase = phase

		if client, ok := sm.clients[id]; ok && (changed || hs.sinceBroadcast >= minBroadcastInterval) {
			hs.sinceBroadcast = 0
			if payload, err := json.Marshal(BuildSnapshot(hs.ID, hs.UserID, hs.Game)); err != nil {
				log.Printf("[SessionManager] Error marshaling snapshot for session %s: %v", id, err)
			} else {
				sends = append(sends, outgoing{client: client, payload: payload})
			}
		}

		if hs.Game.Stopped() {
			finished = append(finished, hs)
			if client := sm.detachLocked(id); client != nil {
				closing = append(closing, client)
			}
		}
	}
	sm.mu.Unlock()

	for _, o := range sends {
		if !o.client.SafeSend(o.payload) {
			log.Printf("[SessionManager] Failed to send to client %s (channel closed or full)", o.client.UserID)
		}
	}
	// 最後の状態を送ってから閉じる
	for _, client := range closing {
		client.SafeClose()
	}
	// 保存が遅くてもティックを止めない
	for _, hs := range finished {
		sm.writes.Add(1)
		go func(hs *hostedSession) {
			defer sm.writes.Done()
			sm.finish(hs)
		}(hs)
	}
}

// Snapshot は指定したセッションの現在の状態を返します。
func (sm *SessionManager) Snapshot(sessionID string) (*Snapshot, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	hs, ok := sm.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return BuildSnapshot(hs.ID, hs.UserID, hs.Game), nil
}

// SessionOwner は指定したセッションの所有者を返します。
func (sm *SessionManager) SessionOwner(sessionID string) (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	hs, ok := sm.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return hs.UserID, nil
}

// SessionCount は管理中のセッション数を返します。
func (sm *SessionManager) SessionCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// EndSession はセッションを終了させ、記録を保存してクリーンアップします。
//
// Parameters:
//   sessionID : 終了するセッションのID
// Returns:
//   error: セッションが存在しない場合は ErrSessionNotFound
func (sm *SessionManager) EndSession(sessionID string) error {
	sm.mu.Lock()
	hs, ok := sm.sessions[sessionID]
	if !ok {
		sm.mu.Unlock()
		return ErrSessionNotFound
	}
	if !hs.Game.Stopped() {
		hs.Game.stop()
	}
	var final []byte
	client := sm.detachLocked(sessionID)
	if client != nil {
		payload, err := json.Marshal(BuildSnapshot(hs.ID, hs.UserID, hs.Game))
		if err != nil {
			log.Printf("[SessionManager] Error marshaling final snapshot for session %s: %v", sessionID, err)
		} else {
			final = payload
		}
	}
	sm.mu.Unlock()

	if client != nil {
		if final != nil && !client.SafeSend(final) {
			log.Printf("[SessionManager] Failed to send final state to client %s", client.UserID)
		}
		client.SafeClose()
	}
	sm.finish(hs)
	return nil
}

// detachLocked はセッションと、接続中であればそのクライアントをマップから外します。
// クライアントのチャネルは閉じないので、最後の状態を送ってから呼び出し側で SafeClose してください。
// mu を保持して呼んでください。
func (sm *SessionManager) detachLocked(sessionID string) *Client {
	delete(sm.sessions, sessionID)

	client, ok := sm.clients[sessionID]
	if !ok {
		return nil
	}
	delete(sm.clients, sessionID)
	log.Printf("[SessionManager] Cleaned up client %s from ended session %s", client.UserID, sessionID)
	return client
}

// finish は終了したセッションの記録をデータベースに保存します。
func (sm *SessionManager) finish(hs *hostedSession) {
	stats := hs.Game.Stats()
	log.Printf("[SessionManager] Game session %s ended (pieces %d, rows %d, ticks %d)",
		hs.ID, stats.PiecesLocked, stats.RowsCleared, stats.Ticks)

	if sm.records == nil {
		return
	}

	record := &models.SessionRecord{
		ID:           hs.ID,
		UserID:       hs.UserID,
		Seed:         hs.Game.Seed(),
		PiecesLocked: stats.PiecesLocked,
		RowsCleared:  stats.RowsCleared,
		Ticks:        stats.Ticks,
		StartedAt:    hs.StartedAt,
		EndedAt:      time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
	defer cancel()
	if err := sm.records.CreateRecord(ctx, record); err != nil {
		log.Printf("[SessionManager] Failed to save record for session %s: %v", hs.ID, err)
	}
}

// RegisterClient はWebSocket接続をセッションの操作クライアントとして登録します。
// 1セッションにつきクライアントは1つで、再接続時は古い接続を閉じます。
//
// Parameters:
//   sessionID : 対象のセッションID
//   userID    : 認証済みのユーザーID
//   conn      : WebSocketコネクション
// Returns:
//   error: セッションが無い、または所有者でない場合
func (sm *SessionManager) RegisterClient(sessionID, userID string, conn *websocket.Conn) error {
	sm.mu.Lock()
	hs, ok := sm.sessions[sessionID]
	if !ok {
		sm.mu.Unlock()
		return ErrSessionNotFound
	}
	if hs.UserID != userID {
		sm.mu.Unlock()
		return ErrNotSessionOwner
	}

	if existing, exists := sm.clients[sessionID]; exists {
		log.Printf("[SessionManager] Replacing existing connection for session %s", sessionID)
		existing.SafeClose()
	}

	client := &Client{
		UserID:    userID,
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, clientSendBuffer),
	}
	sm.clients[sessionID] = client

	initial, err := json.Marshal(BuildSnapshot(hs.ID, hs.UserID, hs.Game))
	sm.mu.Unlock()
	if err == nil {
		client.SafeSend(initial)
	}

	conn.SetReadLimit(1024)

	go sm.readPump(client)
	go client.writePump()

	log.Printf("[SessionManager] Client %s registered for session %s", userID, sessionID)
	return nil
}

// unregister はクライアントを外します。既に別のクライアントに置き換わっている場合は何もしません。
func (sm *SessionManager) unregister(client *Client) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if registered, ok := sm.clients[client.SessionID]; ok && registered == client {
		delete(sm.clients, client.SessionID)
		log.Printf("[SessionManager] Client unregistered: %s (Session: %s)", client.UserID, client.SessionID)
	}
	client.SafeClose()
}

// readPump はクライアントからのWebSocketメッセージを読み込み、 inputEvents チャネルに送信します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in readPump for user %s: %v", client.UserID, r)
		}
		sm.unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(300 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(300 * time.Second))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for user %s: %v", client.UserID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var event PlayerInputEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from %s: %v", client.UserID, err)
			continue
		}
		event.SessionID = client.SessionID // 受信したメッセージのセッションIDは信用しない

		select {
		case sm.inputEvents <- event:
		default:
			log.Printf("[SessionManager] Input events channel is full, dropping message from user %s", client.UserID)
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(60 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// セッション終了時などにチャネルが閉じられた
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for user %s: %v", c.UserID, err)
				return
			}
		}
	}
}

// Shutdown はSessionManagerを安全にシャットダウンします。進行中のセッションは記録せずに破棄します。
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] シャットダウン開始...")
	sm.quitOnce.Do(func() { close(sm.quit) })

	sm.mu.Lock()
	for sessionID, client := range sm.clients {
		log.Printf("[SessionManager] セッション %s のクライアントを切断中...", sessionID)
		client.SafeClose()
	}
	sm.clients = make(map[string]*Client)
	sm.sessions = make(map[string]*hostedSession)
	sm.mu.Unlock()

	sm.writes.Wait()
	log.Printf("[SessionManager] シャットダウン完了")
}
