package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// RecordsHandler serves the auction's results.
type RecordsHandler struct {
	DB *sql.DB
}

// Sales handles GET /api/sales, optionally filtered by ?team_id=.
func (h *RecordsHandler) Sales(w http.ResponseWriter, r *http.Request) {
	var teamID int64
	if v := r.URL.Query().Get("team_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid team id")
			return
		}
		teamID = id
	}

	sales, err := store.ListSales(r.Context(), h.DB, teamID)
	if err != nil {
		slog.Error("failed to list sales", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list sales")
		return
	}
	if sales == nil {
		sales = []model.Sale{}
	}
	jsonResponse(w, http.StatusOK, sales)
}

// Unsold handles GET /api/unsold.
func (h *RecordsHandler) Unsold(w http.ResponseWriter, r *http.Request) {
	unsold, err := store.ListUnsold(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list unsold items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list unsold items")
		return
	}
	if unsold == nil {
		unsold = []model.Unsold{}
	}
	jsonResponse(w, http.StatusOK, unsold)
}
