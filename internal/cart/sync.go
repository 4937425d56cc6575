// Package cart keeps the device's local copy of the cart in step with the
// server. Local state is only ever replaced by a fresh server read, never
// patched by arithmetic.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/events"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/middleware"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/notify"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/session"
)

var (
	// ErrFetchInProgress is returned by GetCart when another fetch is
	// running. No request was sent.
	ErrFetchInProgress = errors.New("cart fetch already in progress")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// API is the remote cart endpoint set.
type API interface {
	Get(ctx context.Context, headers http.Header) (*model.Cart, error)
	Add(ctx context.Context, productID int64, quantity int, headers http.Header) error
	Update(ctx context.Context, itemID int64, quantity int, headers http.Header) error
	Remove(ctx context.Context, itemID int64, headers http.Header) error
	Merge(ctx context.Context, sessionKey string, headers http.Header) error
}

// Credentials resolves who a cart request is made for.
type Credentials interface {
	Resolve(ctx context.Context) (session.Credential, error)
	Bearer(ctx context.Context) (session.Credential, bool, error)
	SessionKey(ctx context.Context) (string, bool, error)
	Forget(ctx context.Context) error
}

type Sync struct {
	api       API
	creds     Credentials
	notifier  notify.Notifier
	publisher events.Publisher
	logger    *log.Logger

	fetching atomic.Bool
	// gate is write-held during a sign-in merge; GetCart and mutations
	// read-hold it so none of them run between token save and merge.
	gate sync.RWMutex

	mu   sync.RWMutex
	cart *model.Cart
}

func New(api API, creds Credentials, notifier notify.Notifier, publisher events.Publisher, logger *log.Logger) *Sync {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Sync{api: api, creds: creds, notifier: notifier, publisher: publisher, logger: logger}
}

// HoldForMerge blocks new GetCart calls and mutations until release is
// called, after waiting for running ones to finish. MergeCarts stays usable
// while held.
func (s *Sync) HoldForMerge() (release func()) {
	s.gate.Lock()
	var once sync.Once
	return func() { once.Do(s.gate.Unlock) }
}

// GetCart fetches the cart for the current credential and replaces local
// state with it. A call made while another fetch is running is a no-op that
// returns ErrFetchInProgress.
func (s *Sync) GetCart(ctx context.Context) (*model.Cart, error) {
	s.gate.RLock()
	defer s.gate.RUnlock()
	return s.fetch(ctx)
}

func (s *Sync) fetch(ctx context.Context) (*model.Cart, error) {
	if !s.fetching.CompareAndSwap(false, true) {
		return nil, ErrFetchInProgress
	}
	defer s.fetching.Store(false)

	cred, err := s.creds.Resolve(ctx)
	if err != nil {
		s.logger.Printf("cart: resolve credential: %v", err)
		return nil, err
	}

	c, err := s.api.Get(ctx, cred.Header())
	if err != nil {
		if clients.IsNetwork(err) {
			s.logger.Printf("cart: fetch failed (network): %v", err)
			return nil, err
		}
		s.fail(ctx, "Failed to load cart", "fetch", err)
		return nil, err
	}
	if err := c.Validate(); err != nil {
		s.logger.Printf("cart: rejecting cart %d: %v", c.ID, err)
		return nil, fmt.Errorf("cart %d: %w", c.ID, err)
	}

	s.mu.Lock()
	s.cart = c
	s.mu.Unlock()
	return c.Clone(), nil
}

// refresh re-reads the cart after a mutation. A concurrent fetch already
// running counts as the refresh.
func (s *Sync) refresh(ctx context.Context) *model.Cart {
	c, err := s.fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrFetchInProgress) {
			s.logger.Printf("cart: refresh after mutation: %v", err)
		}
		return s.Snapshot()
	}
	return c
}

func (s *Sync) AddToCart(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d, must be at least 1", ErrInvalidQuantity, quantity)
	}
	s.gate.RLock()
	defer s.gate.RUnlock()

	cred, err := s.creds.Resolve(ctx)
	if err != nil {
		return err
	}
	if err := s.api.Add(ctx, productID, quantity, cred.Header()); err != nil {
		s.fail(ctx, "Failed to Add", "add", err)
		return err
	}

	c := s.refresh(ctx)
	msg := "Item has been added to your cart."
	if it, ok := findProduct(c, productID); ok && it.Product.Title != "" {
		msg = it.Product.Title + " has been added to your cart."
	}
	s.succeed(ctx, "Added to Cart", msg)
	s.publish(ctx, events.EventCartItemAdded, c, events.CartActivity{ProductID: productID, Quantity: quantity})
	return nil
}

// UpdateCartItem sets an item's quantity. Zero removes the item.
func (s *Sync) UpdateCartItem(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: %d, must not be negative", ErrInvalidQuantity, quantity)
	}
	s.gate.RLock()
	defer s.gate.RUnlock()

	cred, err := s.creds.Resolve(ctx)
	if err != nil {
		return err
	}
	if err := s.api.Update(ctx, itemID, quantity, cred.Header()); err != nil {
		s.fail(ctx, "Update Failed", "update", err)
		return err
	}

	c := s.refresh(ctx)
	if quantity == 0 {
		s.succeed(ctx, "Item removed", "The item has been removed from your cart.")
		s.publish(ctx, events.EventCartItemRemoved, c, events.CartActivity{ItemID: itemID})
		return nil
	}
	s.succeed(ctx, "Quantity updated", fmt.Sprintf("Quantity set to %d.", quantity))
	s.publish(ctx, events.EventCartItemUpdated, c, events.CartActivity{ItemID: itemID, Quantity: quantity})
	return nil
}

func (s *Sync) RemoveFromCart(ctx context.Context, itemID int64) error {
	s.gate.RLock()
	defer s.gate.RUnlock()

	cred, err := s.creds.Resolve(ctx)
	if err != nil {
		return err
	}
	if err := s.api.Remove(ctx, itemID, cred.Header()); err != nil {
		s.fail(ctx, "Remove Failed", "remove", err)
		return err
	}

	c := s.refresh(ctx)
	s.succeed(ctx, "Item removed", "The item has been removed from your cart.")
	s.publish(ctx, events.EventCartItemRemoved, c, events.CartActivity{ItemID: itemID})
	return nil
}

// ClearCart deletes every item currently held locally, in parallel, then
// refreshes once. It is not atomic: on partial failure some items stay and
// the joined errors are returned.
func (s *Sync) ClearCart(ctx context.Context) error {
	s.gate.RLock()
	defer s.gate.RUnlock()

	items := s.Items()
	if len(items) == 0 {
		return nil
	}

	cred, err := s.creds.Resolve(ctx)
	if err != nil {
		return err
	}
	headers := cred.Header()

	errs := make([]error, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i := range items {
		go func(i int) {
			defer wg.Done()
			if err := s.api.Remove(ctx, items[i].ID, headers); err != nil {
				errs[i] = fmt.Errorf("remove item %d: %w", items[i].ID, err)
			}
		}(i)
	}
	wg.Wait()

	c := s.refresh(ctx)
	if err := errors.Join(errs...); err != nil {
		s.logger.Printf("cart: clear failed: %v", err)
		s.notifier.Notify(ctx, notify.Notice{Level: notify.Error, Title: "Clear Failed", Message: "Some items could not be removed."})
		return err
	}
	s.succeed(ctx, "Cart cleared", "All items have been removed.")
	s.publish(ctx, events.EventCartCleared, c, events.CartActivity{})
	return nil
}

// MergeCarts folds the anonymous cart into the authenticated user's cart.
// It sends the stored session key, or none if there is no key, and purges
// the key once the server accepts the merge. It does not wait on
// HoldForMerge.
func (s *Sync) MergeCarts(ctx context.Context) error {
	cred, ok, err := s.creds.Bearer(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return session.ErrNotAuthenticated
	}

	key, _, err := s.creds.SessionKey(ctx)
	if err != nil {
		return err
	}

	if err := s.api.Merge(ctx, key, cred.Header()); err != nil {
		s.logger.Printf("cart: merge failed (%s): %v", clients.Classify(err), err)
		return err
	}
	if err := s.creds.Forget(ctx); err != nil {
		s.logger.Printf("cart: purge session key after merge: %v", err)
		return fmt.Errorf("purge session key: %w", err)
	}

	c := s.refresh(ctx)
	s.publish(ctx, events.EventCartMerged, c, events.CartActivity{})
	return nil
}

// Reset drops the local cart.
func (s *Sync) Reset() {
	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()
}

// Loading reports whether a fetch is running.
func (s *Sync) Loading() bool { return s.fetching.Load() }

// Snapshot returns a copy of the last fetched cart, or nil.
func (s *Sync) Snapshot() *model.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil {
		return nil
	}
	return s.cart.Clone()
}

// Items returns a copy of the last fetched items.
func (s *Sync) Items() []model.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart == nil {
		return nil
	}
	out := make([]model.CartItem, len(s.cart.Items))
	copy(out, s.cart.Items)
	return out
}

func findProduct(c *model.Cart, productID int64) (model.CartItem, bool) {
	if c == nil {
		return model.CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return model.CartItem{}, false
}

func (s *Sync) publish(ctx context.Context, eventName string, c *model.Cart, activity events.CartActivity) {
	meta := events.EventMeta{CorrelationID: middleware.GetCorrelationID(ctx)}
	if c != nil {
		activity.CartID = c.ID
		activity.Owner = c.Owner()
		activity.TotalItems = c.TotalItems
		activity.Subtotal = c.Subtotal
		meta.PartitionKey = c.Owner()
	}
	if meta.PartitionKey == "" {
		return
	}
	if err := s.publisher.PublishCartActivity(ctx, eventName, meta, activity); err != nil {
		s.logger.Printf("cart: publish %s: %v", eventName, err)
	}
}
