package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/model"
)

type CatalogClient struct{ c *Client }

func NewCatalogClient(c *Client) *CatalogClient { return &CatalogClient{c: c} }

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10) + "/"
}

func encodeProductQuery(q model.ProductQuery) string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	return v.Encode()
}

func (cc *CatalogClient) ListProducts(ctx context.Context, q model.ProductQuery) (model.Page[model.Product], error) {
	var out model.Page[model.Product]
	err := cc.c.DoJSON(ctx, http.MethodGet, "/products/", encodeProductQuery(q), nil, nil, &out)
	return out, err
}

func (cc *CatalogClient) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	var out model.Product
	err := cc.c.DoJSON(ctx, http.MethodGet, productPath(id), "", nil, nil, &out)
	return out, err
}

func (cc *CatalogClient) Categories(ctx context.Context) ([]string, error) {
	var out model.Categories
	if err := cc.c.DoJSON(ctx, http.MethodGet, "/products/categories/list/", "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Admin operations. The backend rejects them for non-staff users.

func (cc *CatalogClient) CreateProduct(ctx context.Context, in model.ProductInput) (model.Product, error) {
	var out model.Product
	err := cc.c.DoJSON(ctx, http.MethodPost, "/products/", "", in, nil, &out)
	return out, err
}

func (cc *CatalogClient) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (model.Product, error) {
	var out model.Product
	err := cc.c.DoJSON(ctx, http.MethodPut, productPath(id), "", in, nil, &out)
	return out, err
}

func (cc *CatalogClient) DeleteProduct(ctx context.Context, id int64) error {
	return cc.c.DoJSON(ctx, http.MethodDelete, productPath(id), "", nil, nil, nil)
}
