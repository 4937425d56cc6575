package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/cart"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/storefront"
)

type OrderHandler struct {
	m      *storefront.Manager
	orders *clients.OrderClient
}

func NewOrderHandler(m *storefront.Manager, orders *clients.OrderClient) *OrderHandler {
	return &OrderHandler{m: m, orders: orders}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.m.Checkout(r.Context(), req.ShippingAddress)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Estimate prices the current cart for display, fetching it first if it
// was never loaded.
func (h *OrderHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	c := h.m.Cart().Snapshot()
	if c == nil {
		var err error
		c, err = h.m.Cart().GetCart(r.Context())
		if errors.Is(err, cart.ErrFetchInProgress) {
			WriteError(w, r, http.StatusConflict, "cart is loading, try again")
			return
		}
		if err != nil {
			writeFailure(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, storefront.EstimateFor(c.Subtotal))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := 0
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, r, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	orders, err := h.orders.ListOrders(r.Context(), page)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if orders.Results == nil {
		orders.Results = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
