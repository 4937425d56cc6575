package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/session"
)

// backend fakes the remote API: one known user, opaque tokens, and carts
// keyed by "user" or "session:<key>".
type backend struct {
	mu sync.Mutex

	validAccess map[string]bool
	refreshOK   bool
	nextAccess  string
	mergeStatus int

	loginCalls   int
	refreshCalls int
	mergeKeys    []string
	carts        map[string][]model.CartItem
	orders       int
	// calls logs cart writes in the order the backend applied them.
	calls []string

	// mergeGate, when set, holds POST /cart/merge/ until it is closed.
	mergeEntered chan struct{}
	mergeGate    chan struct{}
}

var mug = model.Product{ID: 5, Title: "Ceramic Mug", Price: decimal.RequireFromString("12.50"), InventoryCount: 10}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{
		validAccess: map[string]bool{"acc-1": true},
		refreshOK:   true,
		nextAccess:  "acc-2",
		carts:       map[string][]model.CartItem{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token/{$}", b.login)
	mux.HandleFunc("POST /auth/signup/{$}", b.signup)
	mux.HandleFunc("GET /auth/me/{$}", b.me)
	mux.HandleFunc("POST /auth/token/refresh/{$}", b.refresh)
	mux.HandleFunc("GET /cart/{$}", b.getCart)
	mux.HandleFunc("POST /cart/add/{$}", b.addItem)
	mux.HandleFunc("POST /cart/merge/{$}", b.merge)
	mux.HandleFunc("POST /orders/{$}", b.placeOrder)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) with(f func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f()
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var user42 = model.User{ID: 42, Email: "ann@example.com", Username: "ann"}

func (b *backend) tokens() map[string]any {
	return map[string]any{"access": "acc-1", "refresh": "ref-1", "user": user42}
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginCalls++
	if req.Email != user42.Email || req.Password != "secret" {
		reply(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	reply(w, http.StatusOK, b.tokens())
}

func (b *backend) signup(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Email == user42.Email {
		reply(w, http.StatusBadRequest, map[string][]string{"email": {"user with this email already exists."}})
		return
	}
	reply(w, http.StatusCreated, map[string]any{"access": "acc-1", "refresh": "ref-1"})
}

// owner returns "user", "session:<key>", or "" for a rejected bearer token.
func (b *backend) owner(r *http.Request) string {
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if b.validAccess[tok] {
			return "user"
		}
		return ""
	}
	if key := r.Header.Get(session.HeaderSessionKey); key != "" {
		return "session:" + key
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	reply(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
}

func (b *backend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner(r) != "user" {
		unauthorized(w)
		return
	}
	reply(w, http.StatusOK, user42)
}

func (b *backend) refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if !b.refreshOK || req.Refresh != "ref-1" {
		reply(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	b.validAccess[b.nextAccess] = true
	reply(w, http.StatusOK, map[string]string{"access": b.nextAccess})
}

func (b *backend) cartJSON(owner string) model.Cart {
	c := model.Cart{ID: 1, Items: b.carts[owner], Subtotal: decimal.Zero}
	if owner == "user" {
		id := user42.ID
		c.UserID = &id
	} else {
		key := strings.TrimPrefix(owner, "session:")
		c.SessionKey = &key
	}
	for _, it := range c.Items {
		c.TotalItems += it.Quantity
		c.Subtotal = c.Subtotal.Add(it.Subtotal())
	}
	c.Total = c.Subtotal
	return c
}

func (b *backend) getCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	owner := b.owner(r)
	if owner == "" {
		unauthorized(w)
		return
	}
	reply(w, http.StatusOK, b.cartJSON(owner))
}

func (b *backend) addItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddCartItemRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	owner := b.owner(r)
	if owner == "" {
		unauthorized(w)
		return
	}
	it := model.CartItem{ID: int64(len(b.carts[owner]) + 100), ProductID: req.ProductID, Product: mug, Quantity: req.Quantity}
	b.carts[owner] = append(b.carts[owner], it)
	b.calls = append(b.calls, "add:"+owner)
	reply(w, http.StatusCreated, it)
}

func (b *backend) merge(w http.ResponseWriter, r *http.Request) {
	var req model.MergeCartsRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	entered, gate := b.mergeEntered, b.mergeGate
	b.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "merge")
	b.mergeKeys = append(b.mergeKeys, req.SessionKey)
	if b.mergeStatus != 0 {
		reply(w, b.mergeStatus, map[string]string{"detail": "merge unavailable"})
		return
	}
	if b.owner(r) != "user" {
		unauthorized(w)
		return
	}
	if req.SessionKey != "" {
		b.carts["user"] = append(b.carts["user"], b.carts["session:"+req.SessionKey]...)
		delete(b.carts, "session:"+req.SessionKey)
	}
	reply(w, http.StatusOK, b.cartJSON("user"))
}

func (b *backend) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner(r) != "user" {
		unauthorized(w)
		return
	}
	if len(b.carts["user"]) == 0 {
		reply(w, http.StatusBadRequest, map[string]string{"error": "Cart is empty"})
		return
	}
	b.orders++
	delete(b.carts, "user")
	reply(w, http.StatusCreated, model.Order{ID: 77, Status: model.OrderPending, ShippingAddress: req.ShippingAddress})
}
