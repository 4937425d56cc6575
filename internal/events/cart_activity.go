package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventCartItemAdded   = "CartItemAdded"
	EventCartItemUpdated = "CartItemUpdated"
	EventCartItemRemoved = "CartItemRemoved"
	EventCartCleared     = "CartCleared"
	EventCartMerged      = "CartMerged"
)

var routingKeys = map[string]string{
	EventCartItemAdded:   "cart.item_added.v1",
	EventCartItemUpdated: "cart.item_updated.v1",
	EventCartItemRemoved: "cart.item_removed.v1",
	EventCartCleared:     "cart.cleared.v1",
	EventCartMerged:      "cart.merged.v1",
}

// RoutingKey returns the topic routing key of a cart event name.
func RoutingKey(eventName string) (string, bool) {
	k, ok := routingKeys[eventName]
	return k, ok
}

func schemaOf(eventName string) string {
	return "storefront://events/" + routingKeys[eventName]
}

// CartActivity is the payload of every cart event. It reflects the cart as
// re-fetched after the mutation.
type CartActivity struct {
	CartID     int64           `json:"cartId"`
	Owner      string          `json:"owner"`
	ProductID  int64           `json:"productId,omitempty"`
	ItemID     int64           `json:"itemId,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
	TotalItems int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Timestamp  time.Time       `json:"timestamp"`
}

type EventMeta struct {
	CorrelationID string
	PartitionKey  string
}
