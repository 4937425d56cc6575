package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/cart"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/middleware"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/storefront"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

// writeFailure maps an error from the storefront layers onto a response.
// Backend answers keep their status; no answer at all is a 502.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, storefront.ErrEmptyAddress):
		WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, storefront.ErrNotAuthenticated):
		WriteError(w, r, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, storefront.ErrAlreadyAuthenticated), errors.Is(err, cart.ErrFetchInProgress):
		WriteError(w, r, http.StatusConflict, err.Error())
		return
	case errors.Is(err, model.ErrCartOwnership):
		WriteError(w, r, http.StatusBadGateway, err.Error())
		return
	}

	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		WriteError(w, r, apiErr.StatusCode, msg)
		return
	}
	if clients.IsNetwork(err) {
		WriteError(w, r, http.StatusBadGateway, "storefront backend request failed: "+err.Error())
		return
	}
	WriteError(w, r, http.StatusInternalServerError, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
