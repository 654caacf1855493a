package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/drazba/internal/auction"
	"github.com/erazemk/drazba/internal/imaging"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// ItemsHandler handles the player catalog.
type ItemsHandler struct {
	DB     *sql.DB
	Engine *auction.Engine
}

type itemRequest struct {
	Name          string `json:"name"`
	Rating        int    `json:"rating"`
	Category      string `json:"category"`
	Nationality   string `json:"nationality"`
	BasePrice     int64  `json:"base_price"`
	PreviousOwner string `json:"previous_owner"`
}

func (req itemRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name required")
	}
	if req.BasePrice < 0 {
		return errors.New("base_price must not be negative")
	}
	return nil
}

func (req itemRequest) item() model.Item {
	return model.Item{
		Name:          req.Name,
		Rating:        req.Rating,
		Category:      strings.TrimSpace(req.Category),
		Nationality:   strings.TrimSpace(req.Nationality),
		BasePrice:     req.BasePrice,
		PreviousOwner: req.PreviousOwner,
	}
}

// List handles GET /api/items, optionally filtered by ?state=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	state := model.ItemState(r.URL.Query().Get("state"))
	if state != "" && !state.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid state")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, state)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.item())
	if err != nil {
		jsonError(w, http.StatusConflict, "item already exists")
		return
	}

	slog.Info("item created", "user", caller(r.Context()), "item", item.Name, "base", model.FormatAmount(item.BasePrice))
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Items on the floor cannot be edited.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if existing.State == model.ItemActive {
		jsonError(w, http.StatusConflict, "item is on the floor")
		return
	}

	item := req.item()
	item.ID = id
	if err := store.UpdateItem(r.Context(), h.DB, item); err != nil {
		jsonError(w, http.StatusConflict, "failed to update item")
		return
	}

	updated, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	notice, err := h.Engine.DeleteItem(r.Context(), id)
	if err != nil {
		engineError(w, "delete item", err)
		return
	}

	slog.Info("item deleted", "user", caller(r.Context()), "item", id)
	jsonResponse(w, http.StatusOK, refundResponse{Refund: notice})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	slog.Info("portrait uploaded", "user", caller(r.Context()), "item", item.Name, "width", result.Width, "height", result.Height)
	jsonResponse(w, http.StatusOK, map[string]any{"width": result.Width, "height": result.Height})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Bids handles GET /api/items/{id}/bids, newest first.
func (h *ItemsHandler) Bids(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	bids, err := store.ListBids(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to list bids", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	jsonResponse(w, http.StatusOK, bids)
}
