package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pvandermeer/luma/internal/domain"
)

// statusFromCode maps domain error codes to HTTP statuses.
func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// respondError translates a domain error into a JSON error response.
// ValidationErrors come back as a field map so the form can show inline
// messages; everything else is a code plus a user-safe message.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if fields := domain.GetValidationFields(err); fields != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation_failed",
			"fields": fields,
		})
		return
	}

	code := domain.ErrorCode(err)
	status := statusFromCode(code)
	if status >= 500 {
		h.logger.Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	}

	respondJSON(w, status, map[string]string{
		"error":   code,
		"message": domain.ErrorMessage(err),
	})
}
