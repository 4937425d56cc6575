package handlers

import (
	"errors"
	"net/http"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/cart"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

type CartHandler struct{ c *cart.Sync }

func NewCartHandler(c *cart.Sync) *CartHandler { return &CartHandler{c: c} }

// writeCart answers with the local cart as last read from the server.
func (h *CartHandler) writeCart(w http.ResponseWriter, status int) {
	c := h.c.Snapshot()
	if c == nil {
		c = &model.Cart{Items: []model.CartItem{}}
	}
	writeJSON(w, status, c)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.c.GetCart(r.Context())
	if errors.Is(err, cart.ErrFetchInProgress) {
		h.writeCart(w, http.StatusOK)
		return
	}
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// addItemBody leaves quantity optional; an absent quantity adds one unit.
type addItemBody struct {
	ProductID int64 `json:"product"`
	Quantity  *int  `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		WriteError(w, r, http.StatusBadRequest, "product is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if err := h.c.AddToCart(r.Context(), req.ProductID, qty); err != nil {
		writeFailure(w, r, err)
		return
	}
	h.writeCart(w, http.StatusCreated)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.UpdateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.c.UpdateCartItem(r.Context(), id, req.Quantity); err != nil {
		writeFailure(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.c.RemoveFromCart(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.c.ClearCart(r.Context()); err != nil {
		writeFailure(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK)
}
