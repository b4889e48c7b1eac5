package validation

// QuoteRequest is the payload for POST /quote.
type QuoteRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Days      int    `json:"days"` // out-of-range values are clamped or zeroed by the engine
}

// AddItemRequest is the payload for POST /carts/:cart_id/items.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Days      int    `json:"days" validate:"min=0,max=3650"`
	IsSale    bool   `json:"is_sale"`
}

// UpdateItemRequest is the payload for PATCH /carts/:cart_id/items. Exactly one
// of Quantity and Days is set.
type UpdateItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size,omitempty"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Days      *int   `json:"days,omitempty" validate:"omitempty,min=1"`
}

// CheckoutRequest is the payload for POST /carts/:cart_id/checkout.
type CheckoutRequest struct {
	ClientID string `json:"client_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Document string `json:"document,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}
