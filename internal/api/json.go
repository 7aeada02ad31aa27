package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/vaultview/internal/apperr"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error   string `json:"error" validate:"required"`
	Kind    string `json:"kind" validate:"required"`
	Details string `json:"details,omitempty"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnsupportedType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the client-facing error. The cause is only attached for
// server-side kinds and only when withDetails is set.
func errorBody(err error, withDetails bool) (int, errResponse) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	body := errResponse{Error: apperr.Message(err), Kind: string(kind)}
	if withDetails && status >= http.StatusInternalServerError {
		body.Details = err.Error()
		var e *apperr.Error
		if errors.As(err, &e) && e.Err != nil {
			body.Details = e.Err.Error()
		}
	}
	return status, body
}
