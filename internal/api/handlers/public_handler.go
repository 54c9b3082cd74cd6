package handlers

import (
	"log"
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

// PublicHandler handles public API endpoints
type PublicHandler struct {
	DatabaseService *database.DatabaseService // nil の場合はデータベース無しで動作中
	SessionManager  *tetris.SessionManager
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(dbService *database.DatabaseService, sm *tetris.SessionManager) *PublicHandler {
	return &PublicHandler{
		DatabaseService: dbService,
		SessionManager:  sm,
	}
}

// Health はサーバーの状態を返します。
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":   "ok",
		"sessions": h.SessionManager.SessionCount(),
		"database": "disabled",
	}

	if h.DatabaseService != nil {
		version, err := h.DatabaseService.ServerVersion()
		if err != nil {
			log.Printf("Health: データベースの確認に失敗しました: %v", err)
			response["status"] = "degraded"
			response["database"] = "unreachable"
			WriteJSONResponse(w, http.StatusServiceUnavailable, response)
			return
		}
		response["database"] = version
	}

	WriteJSONResponse(w, http.StatusOK, response)
}
