package clients

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

// CartClient calls the cart endpoints. Every call takes the caller's
// credential headers (bearer token or session key).
type CartClient struct{ c *Client }

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c} }

func (cc *CartClient) Get(ctx context.Context, headers http.Header) (*model.Cart, error) {
	var out model.Cart
	if err := cc.c.DoJSON(ctx, http.MethodGet, "/cart/", "", nil, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (cc *CartClient) Add(ctx context.Context, productID int64, quantity int, headers http.Header) error {
	body := model.AddCartItemRequest{ProductID: productID, Quantity: quantity}
	return cc.c.DoJSON(ctx, http.MethodPost, "/cart/add/", "", body, headers, nil)
}

func (cc *CartClient) Update(ctx context.Context, itemID int64, quantity int, headers http.Header) error {
	path := "/cart/items/" + strconv.FormatInt(itemID, 10) + "/update/"
	return cc.c.DoJSON(ctx, http.MethodPatch, path, "", model.UpdateCartItemRequest{Quantity: quantity}, headers, nil)
}

func (cc *CartClient) Remove(ctx context.Context, itemID int64, headers http.Header) error {
	path := "/cart/items/" + strconv.FormatInt(itemID, 10) + "/remove/"
	return cc.c.DoJSON(ctx, http.MethodDelete, path, "", nil, headers, nil)
}

func (cc *CartClient) Merge(ctx context.Context, sessionKey string, headers http.Header) error {
	return cc.c.DoJSON(ctx, http.MethodPost, "/cart/merge/", "", model.MergeCartsRequest{SessionKey: sessionKey}, headers, nil)
}
