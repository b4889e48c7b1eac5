package catalog

import (
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// NewValidator returns the validator used at the provider boundary.
func NewValidator() *validatorv10.Validate {
	return validatorv10.New()
}

// ValidateProducts rejects a snapshot with malformed records or duplicate ids.
func ValidateProducts(v *validatorv10.Validate, products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if err := v.Struct(p); err != nil {
			return fmt.Errorf("product[%d] %q: %w", i, p.ID, err)
		}
		for _, size := range p.Sizes {
			if err := checkSize(size); err != nil {
				return fmt.Errorf("product[%d] %q: %w", i, p.ID, err)
			}
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("product[%d]: duplicate product_id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// ValidateInventory rejects a snapshot with malformed records or more than one
// record per (product, size). Sizes are matched exactly, so padded sizes are
// rejected rather than rewritten.
func ValidateInventory(v *validatorv10.Validate, records []InventoryRecord) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := v.Struct(r); err != nil {
			return fmt.Errorf("inventory[%d] %q: %w", i, r.ProductID, err)
		}
		if err := checkSize(r.Size); err != nil {
			return fmt.Errorf("inventory[%d] %q: %w", i, r.ProductID, err)
		}
		key := InventoryKey(r.ProductID, r.Size)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("inventory[%d]: duplicate record for product %q size %q", i, r.ProductID, r.Size)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func checkSize(size string) error {
	if strings.TrimSpace(size) != size {
		return fmt.Errorf("size %q has surrounding whitespace", size)
	}
	return nil
}
