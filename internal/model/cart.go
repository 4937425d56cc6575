package model

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var ErrCartOwnership = errors.New("cart must belong to exactly one of user or session key")

// CartItem is one line of a cart. The product is a denormalized snapshot;
// the subtotal is always derived from it and never stored.
type CartItem struct {
	ID        int64     `json:"id"`
	CartID    int64     `json:"cart,omitempty"`
	ProductID int64     `json:"product"`
	Product   Product   `json:"product_detail"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is owned either by a user or by an anonymous session key. The
// aggregate fields are read-only projections of the server's computation.
type Cart struct {
	ID         int64           `json:"id"`
	UserID     *int64          `json:"user"`
	SessionKey *string         `json:"session_key"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (c *Cart) hasUser() bool    { return c.UserID != nil }
func (c *Cart) hasSession() bool { return c.SessionKey != nil && *c.SessionKey != "" }

// Validate checks the ownership invariant.
func (c *Cart) Validate() error {
	if c.hasUser() == c.hasSession() {
		return ErrCartOwnership
	}
	return nil
}

// Owner returns a stable identifier of whoever owns the cart.
func (c *Cart) Owner() string {
	switch {
	case c.hasUser():
		return "user:" + strconv.FormatInt(*c.UserID, 10)
	case c.hasSession():
		return "session:" + *c.SessionKey
	default:
		return ""
	}
}

// Clone returns a deep copy safe to hand out to callers.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.UserID != nil {
		id := *c.UserID
		out.UserID = &id
	}
	if c.SessionKey != nil {
		key := *c.SessionKey
		out.SessionKey = &key
	}
	out.Items = append([]CartItem(nil), c.Items...)
	return &out
}

// AddCartItemRequest is the body of POST /cart/add/.
type AddCartItemRequest struct {
	ProductID int64 `json:"product"`
	Quantity  int   `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type MergeCartsRequest struct {
	SessionKey string `json:"session_key,omitempty"`
}
