package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/session"
)

// fakeBackend is an in-memory stand-in for the remote cart API. Bearer
// tokens of the form "tok-<userID>" authenticate as that user.
type fakeBackend struct {
	mu       sync.Mutex
	carts    map[string]*model.Cart
	products map[int64]model.Product
	nextID   int64

	getCalls   atomic.Int32
	mergeCalls atomic.Int32
	mergeBody  []string

	// getGate, when set, holds every GET /cart/ until it is closed.
	getGate     chan struct{}
	getEntered  chan struct{}
	getStatus   int
	mergeStatus int
	failRemove  map[int64]bool
	// brokenOwner makes GET /cart/ return a cart with both owners set.
	brokenOwner bool
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		carts: map[string]*model.Cart{},
		products: map[int64]model.Product{
			5: {ID: 5, Title: "Ceramic Mug", Price: decimal.RequireFromString("12.50"), InventoryCount: 10},
			7: {ID: 7, Title: "Tea Towel", Price: decimal.RequireFromString("4.00"), InventoryCount: 3},
		},
		failRemove: map[int64]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart/{$}", fb.get)
	mux.HandleFunc("POST /cart/add/{$}", fb.add)
	mux.HandleFunc("PATCH /cart/items/{id}/update/{$}", fb.update)
	mux.HandleFunc("DELETE /cart/items/{id}/remove/{$}", fb.remove)
	mux.HandleFunc("POST /cart/merge/{$}", fb.merge)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

// set mutates the backend's knobs under its lock.
func (fb *fakeBackend) set(f func()) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	f()
}

func (fb *fakeBackend) mergedKeys() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.mergeBody...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fb *fakeBackend) owner(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer tok-") {
		return "user:" + strings.TrimPrefix(auth, "Bearer tok-"), true
	}
	if key := r.Header.Get(session.HeaderSessionKey); key != "" {
		return "session:" + key, true
	}
	return "", false
}

// cartFor returns the owner's cart, creating it. Caller holds mu.
func (fb *fakeBackend) cartFor(owner string) *model.Cart {
	if c, ok := fb.carts[owner]; ok {
		return c
	}
	fb.nextID++
	c := &model.Cart{ID: fb.nextID, CreatedAt: time.Now()}
	kind, value, _ := strings.Cut(owner, ":")
	if kind == "user" {
		id, _ := strconv.ParseInt(value, 10, 64)
		c.UserID = &id
	} else {
		c.SessionKey = &value
	}
	fb.carts[owner] = c
	return c
}

func recompute(c *model.Cart) {
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].ID < c.Items[j].ID })
	c.TotalItems = 0
	c.Subtotal = decimal.Zero
	for _, it := range c.Items {
		c.TotalItems += it.Quantity
		c.Subtotal = c.Subtotal.Add(it.Subtotal())
	}
	c.Total = c.Subtotal
}

func (fb *fakeBackend) get(w http.ResponseWriter, r *http.Request) {
	fb.getCalls.Add(1)
	fb.mu.Lock()
	entered, gate := fb.getEntered, fb.getGate
	fb.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.getStatus != 0 {
		writeJSON(w, fb.getStatus, map[string]string{"detail": "boom"})
		return
	}
	owner, ok := fb.owner(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session key required"})
		return
	}
	c := fb.cartFor(owner).Clone()
	if fb.brokenOwner {
		uid, key := int64(1), "web_999"
		c.UserID, c.SessionKey = &uid, &key
	}
	writeJSON(w, http.StatusOK, c)
}

func (fb *fakeBackend) add(w http.ResponseWriter, r *http.Request) {
	owner, ok := fb.owner(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session key required"})
		return
	}
	var req model.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	p, ok := fb.products[req.ProductID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	c := fb.cartFor(owner)
	for i := range c.Items {
		if c.Items[i].ProductID == req.ProductID {
			if c.Items[i].Quantity+req.Quantity > p.InventoryCount {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Insufficient inventory"})
				return
			}
			c.Items[i].Quantity += req.Quantity
			recompute(c)
			writeJSON(w, http.StatusOK, c.Items[i])
			return
		}
	}
	if req.Quantity > p.InventoryCount {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Insufficient inventory"})
		return
	}
	fb.nextID++
	it := model.CartItem{ID: fb.nextID, CartID: c.ID, ProductID: p.ID, Product: p, Quantity: req.Quantity}
	c.Items = append(c.Items, it)
	recompute(c)
	writeJSON(w, http.StatusCreated, it)
}

func (fb *fakeBackend) update(w http.ResponseWriter, r *http.Request) {
	owner, _ := fb.owner(r)
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var req model.UpdateCartItemRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	c := fb.cartFor(owner)
	for i := range c.Items {
		if c.Items[i].ID != id {
			continue
		}
		if req.Quantity == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			recompute(c)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		c.Items[i].Quantity = req.Quantity
		recompute(c)
		writeJSON(w, http.StatusOK, c.Items[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (fb *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	owner, _ := fb.owner(r)
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.failRemove[id] {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "database is locked"})
		return
	}
	c := fb.cartFor(owner)
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			recompute(c)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (fb *fakeBackend) merge(w http.ResponseWriter, r *http.Request) {
	fb.mergeCalls.Add(1)
	var req model.MergeCartsRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.mergeBody = append(fb.mergeBody, req.SessionKey)
	if fb.mergeStatus != 0 {
		writeJSON(w, fb.mergeStatus, map[string]string{"detail": "merge unavailable"})
		return
	}

	owner, ok := fb.owner(r)
	if !ok || !strings.HasPrefix(owner, "user:") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	userCart := fb.cartFor(owner)
	if anon, ok := fb.carts["session:"+req.SessionKey]; ok && req.SessionKey != "" {
		for _, it := range anon.Items {
			it.CartID = userCart.ID
			userCart.Items = append(userCart.Items, it)
		}
		delete(fb.carts, "session:"+req.SessionKey)
	}
	recompute(userCart)
	writeJSON(w, http.StatusOK, userCart)
}
