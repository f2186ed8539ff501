package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/storage"
)

// HistoryResponse lists conversation entries, newest first.
type HistoryResponse struct {
	Entries []models.ConversationEntry `json:"entries"`
	Total   int                        `json:"total"`
}

// CleanupRequest is the body of POST /cleanup.
type CleanupRequest struct {
	KeepCount *int `json:"keepCount"`
}

// CleanupResponse reports how many entries were dropped.
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// ResultResponse reports a boolean outcome.
type ResultResponse struct {
	OK bool `json:"ok"`
}

type HistoryHandler struct {
	eng *engine.Engine
}

func NewHistoryHandler(eng *engine.Engine) *HistoryHandler {
	return &HistoryHandler{eng: eng}
}

// List handles GET /history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.eng.History()
	total := len(entries)
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < total {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Total: total})
}

// Clear handles DELETE /history
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ok := h.eng.ClearHistory()
	if !ok {
		writeError(w, http.StatusInternalServerError, "failed to clear persisted history")
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{OK: true})
}

// Export handles GET /export
func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.eng.ExportData()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="feel-history.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, data)
}

// Import handles POST /import. The body is a payload produced by GET /export.
func (h *HistoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if _, err := storage.ParseImport(string(body)); err != nil {
		writeAppError(w, err, h.eng.Language())
		return
	}
	if !h.eng.ImportData(string(body)) {
		writeError(w, http.StatusInternalServerError, "failed to persist imported history")
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: h.eng.History(), Total: len(h.eng.History())})
}

// Cleanup handles POST /cleanup
func (h *HistoryHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	keep := storage.DefaultKeepCount
	var req CleanupRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.KeepCount != nil {
		if *req.KeepCount < 0 {
			writeError(w, http.StatusBadRequest, "keepCount must not be negative")
			return
		}
		keep = *req.KeepCount
	}
	writeJSON(w, http.StatusOK, CleanupResponse{Removed: h.eng.Cleanup(keep)})
}
