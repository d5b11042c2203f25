package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"fleetcheck/internal/bootstrap/logging"
	domainnc "fleetcheck/internal/domain/nc"
	"fleetcheck/internal/errs"
	"fleetcheck/internal/ports"
)

// errorResponse is the uniform error envelope. Code is a stable reason
// string clients can switch on; CorrelationID is set on internal errors
// only, to pair the response with the server log line.
type errorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	CorrelationID string `json:"correlationId,omitempty"`
}

const (
	codeBadRequest        = "bad_request"
	codeNotFound          = "not_found"
	codeResolutionGate    = "resolution_gate"
	codeInvalidTransition = "invalid_transition"
	codeInternal          = "internal"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message, Code: codeBadRequest})
}

// writeError maps domain and port sentinels to HTTP statuses. Anything
// unrecognized becomes a 500 carrying a correlation id that is also logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrNCNotFound),
		errors.Is(err, ports.ErrMachineNotFound),
		errors.Is(err, ports.ErrTemplateNotFound),
		errors.Is(err, ports.ErrSubmissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: codeNotFound})

	case errors.Is(err, domainnc.ErrMissingCorrectiveClosure),
		errors.Is(err, domainnc.ErrMissingRootCause),
		errors.Is(err, domainnc.ErrMissingEffectivePreventive):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: codeResolutionGate})

	case errors.Is(err, domainnc.ErrResolvedImmutable),
		errors.Is(err, domainnc.ErrInvalidStatus),
		errors.Is(err, domainnc.ErrInvalidSeverity):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: codeInvalidTransition})

	default:
		correlationID := uuid.NewString()
		logging.Error(r.Context(), "request failed",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:         "internal error",
			Code:          codeInternal,
			CorrelationID: correlationID,
		})
	}
}
