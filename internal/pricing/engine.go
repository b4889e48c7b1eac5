// Package pricing turns a product, a rental length and a quantity into money.
//
// Rental prices follow a per-product exponential decay of the daily rate,
// rate(d) = A*exp(-k*d) + B, which approaches the floor B for long rentals.
// In-cart day edits use a separate linear tier (base price × days × quantity).
package pricing

import (
	"math"

	"github.com/imrishuroy/go-rental-cart/internal/catalog"
)

const (
	// DecayConstant is the regression discount k of the daily-rate curve.
	DecayConstant = 0.0608

	MinRentalDays = 1
	MaxRentalDays = 365
)

// Engine prices one catalog snapshot. It is immutable after construction.
type Engine struct {
	constants map[string]catalog.PricingConstants
	base      map[string]float64
	sale      map[string]float64
}

// NewEngine indexes a product snapshot. Coefficients come from each product's
// Pricing record; overrides replace or add coefficients per product id.
func NewEngine(products []catalog.Product, overrides map[string]catalog.PricingConstants) *Engine {
	e := &Engine{
		constants: make(map[string]catalog.PricingConstants, len(products)+len(overrides)),
		base:      make(map[string]float64, len(products)),
		sale:      make(map[string]float64, len(products)),
	}
	for _, p := range products {
		e.base[p.ID] = p.BasePrice
		e.sale[p.ID] = p.SalePrice
		if p.Pricing != nil {
			e.constants[p.ID] = *p.Pricing
		}
	}
	for id, c := range overrides {
		e.constants[id] = c
	}
	return e
}

// DailyRate is the per-day rate for a rental of the given length.
func (e *Engine) DailyRate(days int, productID string) (float64, error) {
	c, ok := e.constants[productID]
	if !ok {
		return 0, &UnknownProductError{ProductID: productID}
	}
	return c.A*math.Exp(-DecayConstant*float64(days)) + c.B, nil
}

// TotalPrice prices a whole rental. Days outside [MinRentalDays, MaxRentalDays]
// are clamped, not rejected. The result is rounded to the nearest 0.5.
func (e *Engine) TotalPrice(days int, productID string) (float64, error) {
	d := ClampDays(days)
	rate, err := e.DailyRate(d, productID)
	if err != nil {
		return 0, err
	}
	return RoundHalf(rate * float64(d)), nil
}

// RentalPrice is the rental-calculator entry point: a non-positive day count
// prices to 0 instead of being clamped.
func (e *Engine) RentalPrice(days int, productID string) (float64, error) {
	if days <= 0 {
		return 0, nil
	}
	return e.TotalPrice(days, productID)
}

// SalePrice returns the flat sale price. 0 means the product is not for sale.
func (e *Engine) SalePrice(productID string) (float64, error) {
	p, ok := e.sale[productID]
	if !ok {
		return 0, &UnknownProductError{ProductID: productID}
	}
	return p, nil
}

// BasePrice returns the catalog rental base price used by the linear tier.
func (e *Engine) BasePrice(productID string) (float64, error) {
	p, ok := e.base[productID]
	if !ok {
		return 0, &UnknownProductError{ProductID: productID}
	}
	return p, nil
}

// LinearRentalPrice is the in-cart day-edit tier: basePrice * days * quantity.
func LinearRentalPrice(basePrice float64, days, quantity int) float64 {
	return basePrice * float64(days) * float64(quantity)
}

// ClampDays bounds a day count to [MinRentalDays, MaxRentalDays].
func ClampDays(days int) int {
	if days < MinRentalDays {
		return MinRentalDays
	}
	if days > MaxRentalDays {
		return MaxRentalDays
	}
	return days
}

// RoundHalf rounds to the nearest 0.5, halves rounding up.
func RoundHalf(x float64) float64 {
	return math.Floor(x*2+0.5) / 2
}

// ForSale keeps the products with a non-zero sale price, in order.
func ForSale(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if p.SalePrice > 0 {
			out = append(out, p)
		}
	}
	return out
}
