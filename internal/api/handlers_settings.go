package api

import (
	"net/http"

	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/models"
)

// SettingsRequest is the body of PUT /settings. Omitted fields are left
// unchanged.
type SettingsRequest struct {
	Language *models.Language `json:"language"`
	Model    *string          `json:"model"`
}

// ModelsResponse lists the selectable models.
type ModelsResponse struct {
	Models  []models.ModelInfo `json:"models"`
	Current string             `json:"current"`
}

type SettingsHandler struct {
	eng    *engine.Engine
	models []models.ModelInfo
}

func NewSettingsHandler(eng *engine.Engine, available []models.ModelInfo) *SettingsHandler {
	return &SettingsHandler{eng: eng, models: available}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Settings())
}

// Update handles PUT /settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Language != nil {
		if err := h.eng.SetLanguage(*req.Language); err != nil {
			writeAppError(w, err, h.eng.Language())
			return
		}
	}
	if req.Model != nil {
		if err := h.eng.SetModel(*req.Model); err != nil {
			writeAppError(w, err, h.eng.Language())
			return
		}
	}
	writeJSON(w, http.StatusOK, h.eng.Settings())
}

// Models handles GET /models
func (h *SettingsHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelsResponse{Models: h.models, Current: h.eng.Model()})
}

// Stats handles GET /stats
func (h *SettingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Statistics())
}

// Reset handles POST /reset
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.eng.Reset()
	writeJSON(w, http.StatusOK, h.eng.Statistics())
}
