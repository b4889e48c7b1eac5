// Package cart holds the pending line items of an order and reconciles them as
// quantities and rental lengths are edited.
//
// A Cart is not safe for concurrent use; callers serialize writes (see Registry).
package cart

import (
	"github.com/imrishuroy/go-rental-cart/internal/pricing"
)

// Key identifies a line item. An empty Size is the sizeless line of a product.
type Key struct {
	ProductID string
	Size      string
}

// LineItem is one rental or sale line.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Size      string  `json:"size,omitempty"`
	Quantity  int     `json:"quantity"`
	Days      int     `json:"days"`
	Total     float64 `json:"total"`
	IsSale    bool    `json:"is_sale"`

	// UnitSalePrice is the sale price captured when the line was added. Sale lines only.
	UnitSalePrice float64 `json:"unit_sale_price,omitempty"`
	// BasePrice is the catalog base price captured by the caller; it prices day edits.
	BasePrice float64 `json:"base_price,omitempty"`
}

// FromItems rebuilds a cart from lines previously returned by Items. Lines
// sharing a key are merged in order.
func FromItems(items []LineItem) *Cart {
	c := New()
	for _, it := range items {
		c.AddItem(it)
	}
	return c
}

// Key returns the merge key of the line.
func (li LineItem) Key() Key {
	return Key{ProductID: li.ProductID, Size: li.Size}
}

// Cart is an ordered set of line items with no duplicate keys.
type Cart struct {
	items []LineItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem appends candidate, or merges it into the line with the same key and
// returns the resulting line. Stock is not checked here.
//
// On merge the quantity and days of candidate win and the total is recomputed:
//   - sale line: unit sale price × quantity;
//   - rental line, same days: the stored unit price (total / quantity) × quantity;
//   - rental line, days changed: base price × days × quantity.
//
// A candidate whose sale flag differs from the existing line replaces it as given.
func (c *Cart) AddItem(candidate LineItem) LineItem {
	i := c.index(candidate.Key())
	if i < 0 {
		c.items = append(c.items, candidate)
		return candidate
	}

	merged := merge(c.items[i], candidate)
	c.items[i] = merged
	return merged
}

func merge(existing, candidate LineItem) LineItem {
	if existing.IsSale != candidate.IsSale {
		return candidate
	}

	out := existing
	out.Quantity = candidate.Quantity
	out.Days = candidate.Days

	if existing.IsSale {
		out.Total = existing.UnitSalePrice * float64(candidate.Quantity)
		return out
	}

	if candidate.Days != existing.Days {
		if candidate.BasePrice > 0 {
			out.BasePrice = candidate.BasePrice
		}
		out.Total = pricing.LinearRentalPrice(out.BasePrice, candidate.Days, candidate.Quantity)
		return out
	}

	if existing.Quantity <= 0 {
		out.Total = candidate.Total
		return out
	}
	out.Total = existing.Total / float64(existing.Quantity) * float64(candidate.Quantity)
	return out
}

// RemoveItem deletes the line with the given key. Removing a missing line is a no-op.
func (c *Cart) RemoveItem(productID, size string) {
	i := c.index(Key{ProductID: productID, Size: size})
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the line with the given key.
func (c *Cart) Get(productID, size string) (LineItem, bool) {
	i := c.index(Key{ProductID: productID, Size: size})
	if i < 0 {
		return LineItem{}, false
	}
	return c.items[i], true
}

// Len is the number of lines.
func (c *Cart) Len() int { return len(c.items) }

// Subtotal sums the line totals.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, it := range c.items {
		sum += it.Total
	}
	return sum
}

func (c *Cart) index(k Key) int {
	for i, it := range c.items {
		if it.Key() == k {
			return i
		}
	}
	return -1
}
