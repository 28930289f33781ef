package api

import (
	"encoding/json"
	"net/http"

	"github.com/rustsol114/velirion-presale/internal/presale"
)

// Envelope is the body of every response.
type Envelope struct {
	Status    string     `json:"status"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorBody describes a failed request. Code is the presale error code
// for rejected operations.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	writeJSON(w, statusCode, Envelope{
		Status:    "success",
		Data:      data,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details map[string]string) {
	writeJSON(w, statusCode, Envelope{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeEngineError maps a presale error to its HTTP status by category.
// Anything else is an internal error and its text is not exposed.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg, details := mapDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, r, status, code, msg, details)
}

func mapDomainError(err error) (int, string, string, map[string]string) {
	code := presale.CodeOf(err)
	if code == "" {
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil
	}
	msg := err.Error()
	var details map[string]string
	if pe, ok := asPresaleError(err); ok {
		msg = pe.Message
		details = pe.Details
	}

	if code == presale.CodePurchaseNotFound {
		return http.StatusNotFound, string(code), msg, details
	}
	switch presale.CategoryOf(err) {
	case presale.CategoryAuthorization:
		return http.StatusForbidden, string(code), msg, details
	case presale.CategoryState:
		return http.StatusConflict, string(code), msg, details
	case presale.CategoryLimit, presale.CategoryAccounting:
		return http.StatusUnprocessableEntity, string(code), msg, details
	default:
		return http.StatusBadRequest, string(code), msg, details
	}
}
