package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

// PlaceOrder turns the authenticated user's cart into an order. The backend
// empties the cart on success.
func (oc *OrderClient) PlaceOrder(ctx context.Context, shippingAddress string) (model.Order, error) {
	var out model.Order
	err := oc.c.DoJSON(ctx, http.MethodPost, "/orders/", "", model.PlaceOrderRequest{ShippingAddress: shippingAddress}, nil, &out)
	return out, err
}

// ListOrders returns one page of the user's order history, newest first.
// A page below 1 asks for the backend's default first page.
func (oc *OrderClient) ListOrders(ctx context.Context, page int) (model.Page[model.Order], error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	var out model.Page[model.Order]
	err := oc.c.DoJSON(ctx, http.MethodGet, "/orders/", v.Encode(), nil, nil, &out)
	return out, err
}

func (oc *OrderClient) GetOrder(ctx context.Context, id int64) (model.Order, error) {
	var out model.Order
	err := oc.c.DoJSON(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(id, 10)+"/", "", nil, nil, &out)
	return out, err
}
