// Package inventory computes how many units of a (product, size) pair can still be handed out.
package inventory

import (
	"fmt"

	"github.com/imrishuroy/go-rental-cart/internal/catalog"
)

// AvailableQuantity returns total minus rented for the record matching
// (productID, size) exactly. An empty size only matches sizeless records.
// A missing record, or one with rented above total, yields 0.
func AvailableQuantity(records []catalog.InventoryRecord, productID, size string) int {
	for _, r := range records {
		if r.ProductID != productID || r.Size != size {
			continue
		}
		if avail := r.TotalQuantity - r.RentedQuantity; avail > 0 {
			return avail
		}
		return 0
	}
	return 0
}

// InsufficientStockError reports a quantity request above what is available.
type InsufficientStockError struct {
	ProductID string
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Size == "" {
		return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.ProductID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %q size %q: requested %d, available %d", e.ProductID, e.Size, e.Requested, e.Available)
}

// CheckStock returns an *InsufficientStockError when requested exceeds availability.
func CheckStock(records []catalog.InventoryRecord, productID, size string, requested int) error {
	avail := AvailableQuantity(records, productID, size)
	if requested > avail {
		return &InsufficientStockError{
			ProductID: productID,
			Size:      size,
			Requested: requested,
			Available: avail,
		}
	}
	return nil
}
