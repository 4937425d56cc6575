package storefront

import "github.com/shopspring/decimal"

var (
	FreeShippingOver = decimal.NewFromInt(50)
	FlatShipping     = decimal.RequireFromString("9.99")
	TaxRate          = decimal.RequireFromString("0.08")
)

// Estimate is a display-only breakdown of what checkout will cost. The
// server prices the actual order.
type Estimate struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func (e Estimate) FreeShipping() bool { return e.Shipping.IsZero() }

// EstimateFor derives the estimate from the server-provided subtotal.
// Shipping is free strictly above FreeShippingOver.
func EstimateFor(subtotal decimal.Decimal) Estimate {
	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingOver) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Estimate{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
