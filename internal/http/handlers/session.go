package handlers

import (
	"net/http"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/storefront"
)

type SessionHandler struct{ m *storefront.Manager }

func NewSessionHandler(m *storefront.Manager) *SessionHandler { return &SessionHandler{m: m} }

func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.m.Status(r.Context()))
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := h.m.Login(r.Context(), req.Email, req.Password); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.m.Status(r.Context()))
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := h.m.Register(r.Context(), req); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.m.Status(r.Context()))
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.m.Logout(r.Context()); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.m.Status(r.Context()))
}
