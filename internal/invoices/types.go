package invoices

import (
	"time"

	"github.com/imrishuroy/go-rental-cart/internal/cart"
)

// Invoice statuses
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Client is the customer an invoice is issued to.
type Client struct {
	ClientID string `dynamodbav:"client_id" json:"client_id"`
	Name     string `dynamodbav:"name" json:"name"`
	Document string `dynamodbav:"document,omitempty" json:"document,omitempty"`
	Phone    string `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Address  string `dynamodbav:"address,omitempty" json:"address,omitempty"`
}

// Line is a cart line frozen onto an invoice.
type Line struct {
	ProductID     string  `dynamodbav:"product_id" json:"product_id"`
	Size          string  `dynamodbav:"size,omitempty" json:"size,omitempty"`
	Quantity      int     `dynamodbav:"quantity" json:"quantity"`
	Days          int     `dynamodbav:"days" json:"days"`
	Total         float64 `dynamodbav:"total" json:"total"`
	IsSale        bool    `dynamodbav:"is_sale" json:"is_sale"`
	UnitSalePrice float64 `dynamodbav:"unit_sale_price,omitempty" json:"unit_sale_price,omitempty"`
}

// Invoice is the item stored in the invoices table.
type Invoice struct {
	InvoiceID string    `dynamodbav:"invoice_id" json:"invoice_id"` // PK
	CartID    string    `dynamodbav:"cart_id,omitempty" json:"cart_id,omitempty"`
	Client    Client    `dynamodbav:"client" json:"client"`
	Status    string    `dynamodbav:"status" json:"status"`
	Amount    float64   `dynamodbav:"amount" json:"amount"`
	Lines     []Line    `dynamodbav:"lines" json:"lines"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
	Attempts  int       `dynamodbav:"attempts,omitempty" json:"attempts,omitempty"`
}

// LinesFromCart copies cart items onto invoice lines and returns their sum.
func LinesFromCart(items []cart.LineItem) ([]Line, float64) {
	lines := make([]Line, 0, len(items))
	var amount float64
	for _, it := range items {
		lines = append(lines, Line{
			ProductID:     it.ProductID,
			Size:          it.Size,
			Quantity:      it.Quantity,
			Days:          it.Days,
			Total:         it.Total,
			IsSale:        it.IsSale,
			UnitSalePrice: it.UnitSalePrice,
		})
		amount += it.Total
	}
	return lines, amount
}

// Message is the payload published for every created invoice.
type Message struct {
	InvoiceID      string `json:"invoice_id"`
	IdempotencyKey string `json:"idempotency_key"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}
