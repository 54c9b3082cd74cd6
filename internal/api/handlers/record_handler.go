package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 100
)

// RecordHandler は終了したセッションの記録を返すハンドラーです。
type RecordHandler struct {
	records database.RecordRepository
}

// NewRecordHandler は新しいRecordHandlerインスタンスを作成します。
func NewRecordHandler(records database.RecordRepository) *RecordHandler {
	return &RecordHandler{records: records}
}

// GetRecentRecords は新しい順にセッション記録を返します。
// GET /api/records?limit=50
func (h *RecordHandler) GetRecentRecords(w http.ResponseWriter, r *http.Request) {
	// limitパラメータを取得（デフォルト50、最大100）
	limit := defaultRecordLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= maxRecordLimit {
			limit = parsed
		}
	}

	records, err := h.records.GetRecentRecords(r.Context(), limit)
	if err != nil {
		log.Printf("セッション記録取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "セッション記録の取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": records,
	})
}

// GetRecord は1件のセッション記録を返します。
// GET /api/records/{recordID}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["recordID"]
	if recordID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "記録IDが指定されていません")
		return
	}

	record, err := h.records.GetRecordByID(r.Context(), recordID)
	if errors.Is(err, database.ErrRecordNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, "記録が見つかりません")
		return
	}
	if err != nil {
		log.Printf("セッション記録取得エラー (%s): %v", recordID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "セッション記録の取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  record,
	})
}
