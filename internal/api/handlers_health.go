package api

import (
	"net/http"

	"github.com/iammorganparry/feel/internal/engine"
)

// HealthResponse reports whether the engine is ready to take messages.
type HealthResponse struct {
	Status       string `json:"status"`
	Initialized  bool   `json:"initialized"`
	HistoryCount int    `json:"historyCount"`
	Model        string `json:"model"`
	Language     string `json:"language"`
}

type HealthHandler struct {
	eng *engine.Engine
}

func NewHealthHandler(eng *engine.Engine) *HealthHandler {
	return &HealthHandler{eng: eng}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	settings := h.eng.Settings()
	resp := HealthResponse{
		Status:       "ok",
		Initialized:  h.eng.Initialized(),
		HistoryCount: len(h.eng.History()),
		Model:        settings.Model,
		Language:     string(settings.Language),
	}

	status := http.StatusOK
	if !resp.Initialized {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
