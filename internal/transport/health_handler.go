package transport

import (
	"net/http"

	"store-api/internal/database"
	"store-api/internal/middleware"
)

// HealthResponse reports API liveness and database connectivity
type HealthResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Database string `json:"database"`
}

// HealthHandler handles GET /health
type HealthHandler struct {
	db database.Service
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db database.Service) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disconnected"
	if health := h.db.Health(); health["status"] == "up" {
		dbStatus = "connected"
	}

	middleware.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Message:  "Store API is running",
		Database: dbStatus,
	})
}
