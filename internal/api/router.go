// Package api は HTTP ルーティングを組み立てます。
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// Dependencies はルーターが使うサービスです。
type Dependencies struct {
	SessionManager *tetris.SessionManager
	Auth           *middleware.Authenticator
	Database       *database.DatabaseService // nil 可
	Records        database.RecordRepository // nil の場合 /api/records は登録しない
	AllowedOrigins []string
}

// NewRouter はすべてのエンドポイントを登録し、CORS を適用したハンドラーを返します。
func NewRouter(deps Dependencies) http.Handler {
	gameHandler := handlers.NewGameHandler(deps.SessionManager, deps.Auth)
	publicHandler := handlers.NewPublicHandler(deps.Database, deps.SessionManager)

	r := mux.NewRouter()

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/health", publicHandler.Health).Methods("GET")
	if deps.Records != nil {
		recordHandler := handlers.NewRecordHandler(deps.Records)
		r.HandleFunc("/api/records", recordHandler.GetRecentRecords).Methods("GET")
		r.HandleFunc("/api/records/{recordID}", recordHandler.GetRecord).Methods("GET")
	}

	// WebSocket は接続後の最初のメッセージで認証するので、ミドルウェアの外に置く
	r.HandleFunc("/api/sessions/{sessionID}/ws", gameHandler.HandleWebSocketConnection).Methods("GET")

	protectedRouter := r.PathPrefix("/api/sessions").Subrouter()
	protectedRouter.Use(deps.Auth.Middleware)
	protectedRouter.HandleFunc("", gameHandler.CreateSession).Methods("POST")
	protectedRouter.HandleFunc("/{sessionID}", gameHandler.GetSession).Methods("GET")
	protectedRouter.HandleFunc("/{sessionID}", gameHandler.EndSession).Methods("DELETE")
	protectedRouter.HandleFunc("/{sessionID}/input", gameHandler.PostInput).Methods("POST")

	return middleware.CORSHandler(deps.AllowedOrigins)(r)
}
