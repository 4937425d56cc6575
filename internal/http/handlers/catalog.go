package handlers

import (
	"net/http"
	"strconv"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

type CatalogHandler struct{ c *clients.CatalogClient }

func NewCatalogHandler(c *clients.CatalogClient) *CatalogHandler { return &CatalogHandler{c: c} }

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := model.ProductQuery{Search: q.Get("search"), Category: q.Get("category")}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, r, http.StatusBadRequest, "invalid page")
			return
		}
		query.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = n
	}

	page, err := h.c.ListProducts(r.Context(), query)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.c.Categories(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, model.Categories{Categories: cats})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.c.GetProduct(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Admin panel. The backend enforces staff permissions.

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.c.CreateProduct(r.Context(), in)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in model.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.c.UpdateProduct(r.Context(), id, in)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.c.DeleteProduct(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
