package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/drazba/internal/auction"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// engineError maps an auction outcome onto an HTTP status. Anything that is
// not a known rejection is logged and reported as an internal error.
func engineError(w http.ResponseWriter, op string, err error) {
	var quota *auction.QuotaError
	switch {
	case errors.Is(err, auction.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auction.ErrInsufficientBudget):
		jsonError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &quota):
		jsonResponse(w, http.StatusForbidden, map[string]any{
			"error": err.Error(),
			"quota": quota.Quota,
			"used":  quota.Used,
			"limit": quota.Limit,
		})
	case errors.Is(err, auction.ErrQuotaExceeded), errors.Is(err, auction.ErrSquadFull):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auction.ErrStaleNegotiation):
		jsonError(w, http.StatusGone, err.Error())
	case errors.Is(err, auction.ErrAlreadySettled),
		errors.Is(err, auction.ErrInvalidTransition),
		errors.Is(err, auction.ErrOutbid):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("auction operation failed", "op", op, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
