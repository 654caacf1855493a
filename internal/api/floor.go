package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/drazba/internal/auction"
)

// FloorHandler drives the live auction floor.
type FloorHandler struct {
	Engine *auction.Engine
}

type bidRequest struct {
	ItemID int64 `json:"item_id"`
	TeamID int64 `json:"team_id"`
	// Amount is optional; zero means the next legal amount.
	Amount int64 `json:"amount"`
}

type floorItemRequest struct {
	ItemID int64 `json:"item_id"`
}

type sellRequest struct {
	ItemID int64  `json:"item_id"`
	TeamID *int64 `json:"team_id"`
}

type rtmRequest struct {
	ItemID        int64  `json:"item_id"`
	NegotiationID string `json:"negotiation_id"`
}

type refundResponse struct {
	Refund *auction.RefundNotice `json:"refund"`
}

// State handles GET /api/state.
func (h *FloorHandler) State(w http.ResponseWriter, r *http.Request) {
	s, err := h.Engine.State(r.Context())
	if err != nil {
		engineError(w, "state", err)
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Bid handles POST /api/bids. Teams always bid as themselves; staff may bid
// on behalf of a team from the room.
func (h *FloorHandler) Bid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID <= 0 || req.Amount < 0 {
		jsonError(w, http.StatusBadRequest, "item_id required and amount must not be negative")
		return
	}

	claims := GetClaims(r.Context())
	teamID := req.TeamID
	if claims.Principal.IsTeam() {
		teamID = claims.Principal.ID
	}
	if teamID <= 0 {
		jsonError(w, http.StatusBadRequest, "team_id required")
		return
	}

	bid, err := h.Engine.PlaceBid(r.Context(), req.ItemID, teamID, req.Amount)
	if err != nil {
		engineError(w, "place bid", err)
		return
	}
	jsonResponse(w, http.StatusCreated, bid)
}

// Activate handles POST /api/floor/activate/{id}.
func (h *FloorHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	notice, err := h.Engine.Activate(r.Context(), id)
	if err != nil {
		engineError(w, "activate", err)
		return
	}

	slog.Info("item put on floor", "user", caller(r.Context()), "item", id)
	jsonResponse(w, http.StatusOK, refundResponse{Refund: notice})
}

// activeItemID returns the requested item, or the one on the floor when the
// request names none.
func (h *FloorHandler) activeItemID(r *http.Request, requested int64) (int64, error) {
	if requested > 0 {
		return requested, nil
	}
	s, err := h.Engine.State(r.Context())
	if err != nil {
		return 0, err
	}
	if s.ActiveItem == nil {
		return 0, auction.ErrInvalidTransition
	}
	return s.ActiveItem.ID, nil
}

// Stop handles POST /api/floor/stop. The body may name the item; otherwise
// the item on the floor is stopped.
func (h *FloorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	var req floorItemRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	id, err := h.activeItemID(r, req.ItemID)
	if err != nil {
		engineError(w, "stop", err)
		return
	}

	out, err := h.Engine.StopBidding(r.Context(), id)
	if err != nil {
		engineError(w, "stop", err)
		return
	}

	slog.Info("bidding stopped", "user", caller(r.Context()), "item", id, "resolution", out.Resolution)
	jsonResponse(w, http.StatusOK, out)
}

// Sell handles POST /api/floor/sell: the operator closes the item now, to
// the named team at the current bid or to the highest bidder.
func (h *FloorHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.activeItemID(r, req.ItemID)
	if err != nil {
		engineError(w, "sell", err)
		return
	}

	sale, err := h.Engine.Finalize(r.Context(), id, req.TeamID, false)
	if err != nil {
		engineError(w, "sell", err)
		return
	}
	if sale == nil {
		jsonError(w, http.StatusConflict, "item was not sold")
		return
	}

	slog.Info("item sold from the floor", "user", caller(r.Context()), "item", id, "team", sale.TeamName)
	jsonResponse(w, http.StatusOK, sale)
}

// AcceptRTM handles POST /api/floor/rtm/accept.
func (h *FloorHandler) AcceptRTM(w http.ResponseWriter, r *http.Request) {
	h.answerRTM(w, r, true)
}

// DeclineRTM handles POST /api/floor/rtm/decline.
func (h *FloorHandler) DeclineRTM(w http.ResponseWriter, r *http.Request) {
	h.answerRTM(w, r, false)
}

func (h *FloorHandler) answerRTM(w http.ResponseWriter, r *http.Request, accept bool) {
	var req rtmRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID <= 0 || req.NegotiationID == "" {
		jsonError(w, http.StatusBadRequest, "item_id and negotiation_id required")
		return
	}

	answer := h.Engine.DeclineRTM
	if accept {
		answer = h.Engine.AcceptRTM
	}
	sale, err := answer(r.Context(), req.ItemID, req.NegotiationID)
	if err != nil {
		engineError(w, "answer rtm", err)
		return
	}
	jsonResponse(w, http.StatusOK, sale)
}

// MarkUnsold handles POST /api/items/{id}/unsold.
func (h *FloorHandler) MarkUnsold(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	notice, err := h.Engine.MarkUnsold(r.Context(), id)
	if err != nil {
		engineError(w, "mark unsold", err)
		return
	}

	slog.Info("item marked unsold", "user", caller(r.Context()), "item", id)
	jsonResponse(w, http.StatusOK, refundResponse{Refund: notice})
}

// ResetItem handles POST /api/items/{id}/reset.
func (h *FloorHandler) ResetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	notice, err := h.Engine.ResetItem(r.Context(), id)
	if err != nil {
		engineError(w, "reset item", err)
		return
	}

	slog.Info("item reset", "user", caller(r.Context()), "item", id)
	jsonResponse(w, http.StatusOK, refundResponse{Refund: notice})
}

// ResetAuction handles POST /api/auction/reset.
func (h *FloorHandler) ResetAuction(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.ResetAuction(r.Context()); err != nil {
		engineError(w, "reset auction", err)
		return
	}

	slog.Warn("auction reset", "user", caller(r.Context()))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "auction reset"})
}
