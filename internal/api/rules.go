package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// RulesHandler reads and replaces the auction rules.
type RulesHandler struct {
	DB *sql.DB
}

// Get handles GET /api/rules.
func (h *RulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	rules, err := store.LoadRules(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to load rules", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load rules")
		return
	}
	jsonResponse(w, http.StatusOK, rules)
}

// Put handles PUT /api/rules. The body replaces the rules wholesale and
// applies from the next auction operation.
func (h *RulesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var rules model.Rules
	if err := decodeJSON(r, &rules); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := rules.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SaveRules(r.Context(), h.DB, rules); err != nil {
		slog.Error("failed to save rules", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save rules")
		return
	}

	slog.Info("rules updated", "user", caller(r.Context()), "tiers", len(rules.Tiers), "rtm_enabled", rules.RTMEnabled)
	jsonResponse(w, http.StatusOK, rules)
}
