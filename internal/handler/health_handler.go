package handler

import (
	"database/sql"
	"net/http"
)

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check はアプリとデータベースの疎通を確認する。
// GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	statusCode := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, map[string]string{"status": status})
}
