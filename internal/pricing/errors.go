package pricing

import "fmt"

// UnknownProductError is returned when a product has no registered pricing data.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %q", e.ProductID)
}
