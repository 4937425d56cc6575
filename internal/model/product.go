package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry as served by the backend. Cart items embed a
// snapshot of it under product_detail.
type Product struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Price          decimal.Decimal `json:"price"`
	InventoryCount int             `json:"inventory_count"`
	Category       string          `json:"category,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	IsActive       *bool           `json:"is_active,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	InventoryCount int             `json:"inventory_count"`
	Category       string          `json:"category"`
	ImageURL       string          `json:"image_url,omitempty"`
}

// ProductQuery holds the list filters understood by /products/.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

type Categories struct {
	Categories []string `json:"categories"`
}
