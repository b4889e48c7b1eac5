package catalog

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML shape loaded by cmd/seed:
//
//	products:
//	  - product_id: muletas-axilares
//	    base_price: 4
//	    pricing: {a: 3.72, b: 1.89}
//	inventory:
//	  - product_id: muletas-axilares
//	    total_quantity: 10
type SeedFile struct {
	Products  []Product         `yaml:"products"`
	Inventory []InventoryRecord `yaml:"inventory"`
}

// ParseSeed decodes a seed file and validates it as a snapshot.
func ParseSeed(raw []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	v := NewValidator()
	if err := ValidateProducts(v, f.Products); err != nil {
		return nil, fmt.Errorf("seed products: %w", err)
	}
	if err := ValidateInventory(v, f.Inventory); err != nil {
		return nil, fmt.Errorf("seed inventory: %w", err)
	}
	return &f, nil
}

// Seed writes every product, then every inventory record. Existing records
// with the same key are overwritten.
func (s *Store) Seed(ctx context.Context, f *SeedFile) error {
	for _, p := range f.Products {
		if err := s.PutProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, r := range f.Inventory {
		if err := s.PutInventory(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
