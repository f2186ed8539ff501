package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/i18n"
	"github.com/iammorganparry/feel/internal/models"
)

const maxBodyBytes = 5 << 20

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error       string `json:"error"`
	UserMessage string `json:"userMessage,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeAppError maps a classified error onto an HTTP status.
func writeAppError(w http.ResponseWriter, err error, lang models.Language) {
	kind := apperr.KindOf(err)
	writeJSON(w, statusForKind(kind), ErrorResponse{
		Error:       err.Error(),
		UserMessage: apperr.UserMessage(err, i18n.T(lang, "error.fallback")),
		Kind:        kind.String(),
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.Busy:
		return http.StatusConflict
	case apperr.InvalidInput, apperr.ImportValidation:
		return http.StatusBadRequest
	case apperr.NotInitialized:
		return http.StatusServiceUnavailable
	case apperr.HTTPStatus, apperr.Network, apperr.SchemaValidation:
		return http.StatusBadGateway
	case apperr.StorageQuota:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// errEmptyBody is returned by decodeJSON when the request carries no JSON
// value, whatever its Content-Length says.
var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
