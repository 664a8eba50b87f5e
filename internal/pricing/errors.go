package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atmx/exotics-engine/internal/analytic"
	"github.com/atmx/exotics-engine/internal/budget"
	"github.com/atmx/exotics-engine/internal/contract"
	"github.com/atmx/exotics-engine/internal/correlation"
	"github.com/atmx/exotics-engine/internal/exotic"
	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/store"
)

// Machine-readable error codes in the JSON error body.
const (
	CodeInvalidRequest        = "invalid_request"
	CodeInvalidParameters     = "invalid_parameters"
	CodeInvalidVariant        = "invalid_variant"
	CodeInvalidBarrier        = "invalid_barrier"
	CodeUnsupportedAnalytical = "unsupported_analytical"
	CodeBudgetExceeded        = "budget_exceeded"
	CodeInvalidMatrix         = "invalid_matrix"
	CodeNotFound              = "not_found"
	CodeDuplicate             = "duplicate"
	CodeTimeout               = "timeout"
	CodeInternal              = "internal"
)

// classify maps an error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, contract.ErrInvalidVariant):
		return http.StatusBadRequest, CodeInvalidVariant
	case errors.Is(err, exotic.ErrInvalidBarrier):
		return http.StatusBadRequest, CodeInvalidBarrier
	case errors.Is(err, model.ErrInvalidParameters):
		return http.StatusBadRequest, CodeInvalidParameters
	case errors.Is(err, analytic.ErrUnsupported):
		return http.StatusUnprocessableEntity, CodeUnsupportedAnalytical
	case errors.Is(err, budget.ErrPathLimitExceeded),
		errors.Is(err, budget.ErrStepLimitExceeded),
		errors.Is(err, budget.ErrWorkloadExceeded):
		return http.StatusUnprocessableEntity, CodeBudgetExceeded
	case errors.Is(err, correlation.ErrNotSquare),
		errors.Is(err, correlation.ErrNotSymmetric),
		errors.Is(err, correlation.ErrInvalidEntry),
		errors.Is(err, correlation.ErrNotPositiveDefinite),
		errors.Is(err, correlation.ErrDimensionMismatch):
		return http.StatusBadRequest, CodeInvalidMatrix
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, CodeDuplicate
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeFailure classifies err and writes it. Internal errors do not leak
// their message.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "internal error"
	}
	writeError(w, msg, code, status)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
