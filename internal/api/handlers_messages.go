package api

import (
	"net/http"

	"github.com/iammorganparry/feel/internal/engine"
)

// MessageRequest is the body of POST /messages.
type MessageRequest struct {
	Message string `json:"message"`
}

type MessageHandler struct {
	eng *engine.Engine
}

func NewMessageHandler(eng *engine.Engine) *MessageHandler {
	return &MessageHandler{eng: eng}
}

// Send handles POST /messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	turn, err := h.eng.ProcessMessage(r.Context(), req.Message)
	if err != nil {
		writeAppError(w, err, h.eng.Language())
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

// State handles GET /state
func (h *MessageHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.State())
}

// ContextResponse carries the rolling context summary.
type ContextResponse struct {
	Summary string `json:"summary"`
}

// Context handles GET /context
func (h *MessageHandler) Context(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ContextResponse{Summary: h.eng.CurrentContext()})
}
