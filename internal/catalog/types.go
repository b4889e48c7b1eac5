package catalog

import "context"

// SpecialPrice is a fixed price for an exact rental length. Carried with the
// product record; the decay model does not read it.
type SpecialPrice struct {
	Days  int     `dynamodbav:"days" yaml:"days" json:"days" validate:"min=1"`
	Price float64 `dynamodbav:"price" yaml:"price" json:"price" validate:"min=0"`
}

// PricingConstants holds the per-product decay coefficients: rate(d) = A*exp(-k*d) + B.
type PricingConstants struct {
	A       float64        `dynamodbav:"a" yaml:"a" json:"a" validate:"min=0"`
	B       float64        `dynamodbav:"b" yaml:"b" json:"b" validate:"min=0"`
	Special []SpecialPrice `dynamodbav:"special,omitempty" yaml:"special,omitempty" json:"special,omitempty" validate:"dive"`
}

// Product is a catalog entry as stored in the products table.
type Product struct {
	ID        string            `dynamodbav:"product_id" yaml:"product_id" json:"product_id" validate:"required,excludes=#"`
	Name      string            `dynamodbav:"name" yaml:"name" json:"name"`
	BasePrice float64           `dynamodbav:"base_price" yaml:"base_price" json:"base_price" validate:"min=0"`
	SalePrice float64           `dynamodbav:"sale_price" yaml:"sale_price" json:"sale_price" validate:"min=0"` // 0 = not for sale
	Sizes     []string          `dynamodbav:"sizes,omitempty" yaml:"sizes,omitempty" json:"sizes,omitempty" validate:"dive,required"`
	Pricing   *PricingConstants `dynamodbav:"pricing,omitempty" yaml:"pricing,omitempty" json:"pricing,omitempty"`
}

// Sized reports whether the product is tracked per size.
func (p Product) Sized() bool { return len(p.Sizes) > 0 }

// InventoryRecord is the stock of one (product, size) pair. An empty Size is the
// sizeless record of a product. RentedQuantity <= TotalQuantity is expected but
// not guaranteed.
type InventoryRecord struct {
	Key            string `dynamodbav:"inventory_key" yaml:"-" json:"-"`
	ProductID      string `dynamodbav:"product_id" yaml:"product_id" json:"product_id" validate:"required,excludes=#"`
	Size           string `dynamodbav:"size,omitempty" yaml:"size,omitempty" json:"size,omitempty"`
	TotalQuantity  int    `dynamodbav:"total_quantity" yaml:"total_quantity" json:"total_quantity" validate:"min=0"`
	RentedQuantity int    `dynamodbav:"rented_quantity" yaml:"rented_quantity" json:"rented_quantity" validate:"min=0"`
}

// InventoryKey builds the table key for a (product, size) pair. Product ids
// never contain '#', so keys of different pairs never collide.
func InventoryKey(productID, size string) string {
	if size == "" {
		return productID
	}
	return productID + "#" + size
}

// CatalogProvider supplies product snapshots.
type CatalogProvider interface {
	GetProducts(ctx context.Context) ([]Product, error)
}

// InventoryProvider supplies inventory snapshots.
type InventoryProvider interface {
	GetInventory(ctx context.Context) ([]InventoryRecord, error)
}
