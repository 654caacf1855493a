// Package api is the HTTP JSON interface to the auction floor.
package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/drazba/internal/auction"
	"github.com/erazemk/drazba/internal/model"
)

// NewRouter creates the API router with all endpoints registered. live
// serves the websocket event feed and may be nil.
func NewRouter(db *sql.DB, engine *auction.Engine, live http.Handler, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	floorHandler := &FloorHandler{Engine: engine}
	itemsHandler := &ItemsHandler{DB: db, Engine: engine}
	teamsHandler := &TeamsHandler{DB: db, Engine: engine}
	recordsHandler := &RecordsHandler{DB: db}
	rulesHandler := &RulesHandler{DB: db}
	usersHandler := &UsersHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireOperator := RequireRole(model.RoleOperator)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/team-login", authHandler.TeamLogin)

	// Any authenticated caller.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /api/state", authMW(http.HandlerFunc(floorHandler.State)))
	if live != nil {
		mux.Handle("GET /api/live", authMW(live))
	}

	// Bidding: teams bid as themselves, staff on a team's behalf.
	mux.Handle("POST /api/bids", authMW(http.HandlerFunc(floorHandler.Bid)))

	// Floor control (operator+).
	mux.Handle("POST /api/floor/activate/{id}", authMW(requireOperator(http.HandlerFunc(floorHandler.Activate))))
	mux.Handle("POST /api/floor/stop", authMW(requireOperator(http.HandlerFunc(floorHandler.Stop))))
	mux.Handle("POST /api/floor/sell", authMW(requireOperator(http.HandlerFunc(floorHandler.Sell))))
	mux.Handle("POST /api/floor/rtm/accept", authMW(requireOperator(http.HandlerFunc(floorHandler.AcceptRTM))))
	mux.Handle("POST /api/floor/rtm/decline", authMW(requireOperator(http.HandlerFunc(floorHandler.DeclineRTM))))
	mux.Handle("POST /api/items/{id}/unsold", authMW(requireOperator(http.HandlerFunc(floorHandler.MarkUnsold))))

	// Corrections (admin only).
	mux.Handle("POST /api/items/{id}/reset", authMW(requireAdmin(http.HandlerFunc(floorHandler.ResetItem))))
	mux.Handle("POST /api/auction/reset", authMW(requireAdmin(http.HandlerFunc(floorHandler.ResetAuction))))

	// Catalog: read (all), write (admin).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireAdmin(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("GET /api/items/{id}/bids", authMW(http.HandlerFunc(itemsHandler.Bids)))

	// Teams: read (all), write (admin).
	mux.Handle("GET /api/teams", authMW(http.HandlerFunc(teamsHandler.List)))
	mux.Handle("POST /api/teams", authMW(requireAdmin(http.HandlerFunc(teamsHandler.Create))))
	mux.Handle("GET /api/teams/{id}", authMW(http.HandlerFunc(teamsHandler.Get)))
	mux.Handle("PUT /api/teams/{id}/password", authMW(requireAdmin(http.HandlerFunc(teamsHandler.SetPassword))))
	mux.Handle("GET /api/teams/{id}/squad", authMW(http.HandlerFunc(teamsHandler.Squad)))
	mux.Handle("GET /api/teams/{id}/ledger", authMW(http.HandlerFunc(teamsHandler.Ledger)))
	mux.Handle("GET /api/teams/{id}/rtm", authMW(http.HandlerFunc(teamsHandler.RTMEligibility)))

	// Results.
	mux.Handle("GET /api/sales", authMW(http.HandlerFunc(recordsHandler.Sales)))
	mux.Handle("GET /api/unsold", authMW(http.HandlerFunc(recordsHandler.Unsold)))

	// Rules: read (all), replace (admin).
	mux.Handle("GET /api/rules", authMW(http.HandlerFunc(rulesHandler.Get)))
	mux.Handle("PUT /api/rules", authMW(requireAdmin(http.HandlerFunc(rulesHandler.Put))))

	// Staff accounts (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
