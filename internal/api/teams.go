package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/drazba/internal/auction"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// TeamsHandler handles team endpoints.
type TeamsHandler struct {
	DB     *sql.DB
	Engine *auction.Engine
}

type createTeamRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	LogoURL  string `json:"logo_url"`
	// Budget defaults to the rules' initial purse.
	Budget *int64 `json:"budget"`
}

type teamPasswordRequest struct {
	Password string `json:"password"`
}

// List handles GET /api/teams.
func (h *TeamsHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := store.ListTeams(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	if teams == nil {
		teams = []model.Team{}
	}
	jsonResponse(w, http.StatusOK, teams)
}

// Create handles POST /api/teams.
func (h *TeamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	budget := int64(0)
	if req.Budget != nil {
		budget = *req.Budget
	} else {
		rules, err := h.Engine.Rules(r.Context())
		if err != nil {
			slog.Error("failed to load rules", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		budget = rules.InitialPurse
	}
	if budget < 0 {
		jsonError(w, http.StatusBadRequest, "budget must not be negative")
		return
	}

	var hash string
	if req.Password != "" {
		if err := model.ValidatePassword(req.Password); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		b, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		hash = string(b)
	}

	team, err := store.CreateTeam(r.Context(), h.DB, req.Name, hash, req.LogoURL, budget)
	if err != nil {
		jsonError(w, http.StatusConflict, "team already exists")
		return
	}

	slog.Info("team created", "user", caller(r.Context()), "team", team.Name, "budget", model.FormatAmount(budget))
	jsonResponse(w, http.StatusCreated, team)
}

// Get handles GET /api/teams/{id}.
func (h *TeamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	team, err := store.GetTeam(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get team", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get team")
		return
	}
	if team == nil {
		jsonError(w, http.StatusNotFound, "team not found")
		return
	}
	jsonResponse(w, http.StatusOK, team)
}

// SetPassword handles PUT /api/teams/{id}/password.
func (h *TeamsHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	var req teamPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := store.GetTeam(r.Context(), h.DB, id)
	if err != nil || team == nil {
		jsonError(w, http.StatusNotFound, "team not found")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := store.UpdateTeamPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		slog.Error("failed to set team password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to set password")
		return
	}

	slog.Info("team password set", "user", caller(r.Context()), "team", team.Name)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password set"})
}

// Squad handles GET /api/teams/{id}/squad.
func (h *TeamsHandler) Squad(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid team id")
		return
	}

	rules, err := h.Engine.Rules(r.Context())
	if err != nil {
		slog.Error("failed to load rules", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	squad, err := store.TeamSquad(r.Context(), h.DB, id, rules)
	if err != nil {
		slog.Error("failed to build squad", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get squad")
		return
	}
	if squad == nil {
		jsonError(w, http.StatusNotFound, "team not found")
		return
	}
	jsonResponse(w, http.StatusOK, squad)
}

// Ledger handles GET /api/teams/{id}/ledger. Teams may only read their own.
func (h *TeamsHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	if claims := GetClaims(r.Context()); claims.Principal.IsTeam() && claims.Principal.ID != id {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	entries, err := store.ListLedger(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to list ledger", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// RTMEligibility handles GET /api/teams/{id}/rtm?domestic=true.
func (h *TeamsHandler) RTMEligibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	team, err := store.GetTeam(r.Context(), h.DB, id)
	if err != nil || team == nil {
		jsonError(w, http.StatusNotFound, "team not found")
		return
	}
	domestic := r.URL.Query().Get("domestic") == "true"

	err = h.Engine.Eligible(r.Context(), id, domestic)
	if err != nil && !auction.IsRejection(err) {
		engineError(w, "rtm eligibility", err)
		return
	}

	resp := map[string]any{"team_id": id, "domestic": domestic, "eligible": err == nil}
	if err != nil {
		resp["reason"] = err.Error()
	}
	jsonResponse(w, http.StatusOK, resp)
}
