// Package checkout drives a cart from product selection to invoice. It is the
// caller the core expects: stock is checked before every cart mutation and
// prices are computed before items are added.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/cart"
	"github.com/imrishuroy/go-rental-cart/internal/catalog"
	"github.com/imrishuroy/go-rental-cart/internal/inventory"
	"github.com/imrishuroy/go-rental-cart/internal/invoices"
	"github.com/imrishuroy/go-rental-cart/internal/pricing"
)

var (
	ErrNotForSale   = errors.New("product is not for sale")
	ErrLineNotFound = errors.New("cart line not found")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidInput = errors.New("invalid input")

	// ErrIdempotencyKeyReused means the key already issued an invoice for
	// different cart contents.
	ErrIdempotencyKeyReused = errors.New("idempotency key was used for a different cart")
)

// InvoiceGenerator turns a cart into a persisted invoice.
type InvoiceGenerator interface {
	Generate(ctx context.Context, req invoices.Request) (*invoices.Invoice, error)
}

// Service reads fresh catalog and inventory snapshots on every call.
type Service struct {
	catalog   catalog.CatalogProvider
	inventory catalog.InventoryProvider
	invoices  InvoiceGenerator
	overrides map[string]catalog.PricingConstants
	logger    *zap.Logger
}

// NewService wires a Service. overrides may be nil.
func NewService(cp catalog.CatalogProvider, ip catalog.InventoryProvider, gen InvoiceGenerator, overrides map[string]catalog.PricingConstants, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   cp,
		inventory: ip,
		invoices:  gen,
		overrides: overrides,
		logger:    logger,
	}
}

// Quote is the price of renting one unit of a product.
type Quote struct {
	ProductID   string  `json:"product_id"`
	Days        int     `json:"days"`
	BilledDays  int     `json:"billed_days"`
	DailyRate   float64 `json:"daily_rate"`
	Total       float64 `json:"total"`
	RentalPrice float64 `json:"rental_price"`
}

// AddRequest selects a product for the cart. Days is ignored for sales.
type AddRequest struct {
	ProductID string
	Size      string
	Quantity  int
	Days      int
}

func (s *Service) engine(ctx context.Context) (*pricing.Engine, error) {
	products, err := s.catalog.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return pricing.NewEngine(products, s.overrides), nil
}

func (s *Service) checkStock(ctx context.Context, productID, size string, qty int) error {
	records, err := s.inventory.GetInventory(ctx)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	return inventory.CheckStock(records, productID, size, qty)
}

// Quote prices a rental of days for one unit.
func (s *Service) Quote(ctx context.Context, productID string, days int) (Quote, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return Quote{}, err
	}
	billed := pricing.ClampDays(days)
	rate, err := e.DailyRate(billed, productID)
	if err != nil {
		return Quote{}, err
	}
	total, err := e.TotalPrice(days, productID)
	if err != nil {
		return Quote{}, err
	}
	rental, err := e.RentalPrice(days, productID)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		ProductID:   productID,
		Days:        days,
		BilledDays:  billed,
		DailyRate:   rate,
		Total:       total,
		RentalPrice: rental,
	}, nil
}

// SaleListing lists the products that can be bought outright.
func (s *Service) SaleListing(ctx context.Context) ([]catalog.Product, error) {
	products, err := s.catalog.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return pricing.ForSale(products), nil
}

// AddRental prices a rental line with the decay model and adds it to c.
func (s *Service) AddRental(ctx context.Context, c *cart.Cart, req AddRequest) (cart.LineItem, error) {
	if req.Quantity < 1 || req.Days < 1 {
		return cart.LineItem{}, fmt.Errorf("%w: quantity and days must be positive", ErrInvalidInput)
	}
	e, err := s.engine(ctx)
	if err != nil {
		return cart.LineItem{}, err
	}
	unit, err := e.TotalPrice(req.Days, req.ProductID)
	if err != nil {
		return cart.LineItem{}, err
	}
	base, err := e.BasePrice(req.ProductID)
	if err != nil {
		return cart.LineItem{}, err
	}
	if err := s.checkStock(ctx, req.ProductID, req.Size, req.Quantity); err != nil {
		return cart.LineItem{}, err
	}

	line := c.AddItem(cart.LineItem{
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
		Days:      req.Days,
		Total:     unit * float64(req.Quantity),
		BasePrice: base,
	})
	s.logger.Debug("rental line added",
		zap.String("product_id", line.ProductID),
		zap.String("size", line.Size),
		zap.Int("quantity", line.Quantity),
		zap.Int("days", line.Days),
		zap.Float64("total", line.Total))
	return line, nil
}

// AddSale adds an outright purchase line priced at the product's sale price.
func (s *Service) AddSale(ctx context.Context, c *cart.Cart, req AddRequest) (cart.LineItem, error) {
	if req.Quantity < 1 {
		return cart.LineItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	e, err := s.engine(ctx)
	if err != nil {
		return cart.LineItem{}, err
	}
	price, err := e.SalePrice(req.ProductID)
	if err != nil {
		return cart.LineItem{}, err
	}
	if price <= 0 {
		return cart.LineItem{}, fmt.Errorf("%q: %w", req.ProductID, ErrNotForSale)
	}
	if err := s.checkStock(ctx, req.ProductID, req.Size, req.Quantity); err != nil {
		return cart.LineItem{}, err
	}

	days := req.Days
	if days < 1 {
		days = 1
	}
	line := c.AddItem(cart.LineItem{
		ProductID:     req.ProductID,
		Size:          req.Size,
		Quantity:      req.Quantity,
		Days:          days,
		Total:         price * float64(req.Quantity),
		IsSale:        true,
		UnitSalePrice: price,
	})
	s.logger.Debug("sale line added",
		zap.String("product_id", line.ProductID),
		zap.String("size", line.Size),
		zap.Int("quantity", line.Quantity),
		zap.Float64("total", line.Total))
	return line, nil
}

// UpdateQuantity changes the quantity of an existing line. The line keeps its
// unit price; stock is checked against the new quantity.
func (s *Service) UpdateQuantity(ctx context.Context, c *cart.Cart, productID, size string, qty int) (cart.LineItem, error) {
	if qty < 1 {
		return cart.LineItem{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	existing, ok := c.Get(productID, size)
	if !ok {
		return cart.LineItem{}, ErrLineNotFound
	}
	if err := s.checkStock(ctx, productID, size, qty); err != nil {
		return cart.LineItem{}, err
	}
	candidate := existing
	candidate.Quantity = qty
	return c.AddItem(candidate), nil
}

// UpdateDays changes the rental length of an existing rental line. The new
// total uses the linear tier with the current catalog base price.
func (s *Service) UpdateDays(ctx context.Context, c *cart.Cart, productID, size string, days int) (cart.LineItem, error) {
	if days < 1 {
		return cart.LineItem{}, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	existing, ok := c.Get(productID, size)
	if !ok {
		return cart.LineItem{}, ErrLineNotFound
	}
	if existing.IsSale {
		return cart.LineItem{}, fmt.Errorf("%w: sale lines have no rental length", ErrInvalidInput)
	}
	e, err := s.engine(ctx)
	if err != nil {
		return cart.LineItem{}, err
	}
	base, err := e.BasePrice(productID)
	if err != nil {
		return cart.LineItem{}, err
	}
	if err := s.checkStock(ctx, productID, size, existing.Quantity); err != nil {
		return cart.LineItem{}, err
	}
	candidate := existing
	candidate.Days = days
	candidate.BasePrice = base
	return c.AddItem(candidate), nil
}

// Remove drops a line. Missing lines are ignored.
func (s *Service) Remove(c *cart.Cart, productID, size string) {
	c.RemoveItem(productID, size)
}

// Checkout issues an invoice for the cart and clears it on success.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, cartID string, client invoices.Client, idempotencyKey, correlationID string) (*invoices.Invoice, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}
	items := c.Items()
	inv, err := s.invoices.Generate(ctx, invoices.Request{
		CartID:         cartID,
		Client:         client,
		Items:          items,
		IdempotencyKey: idempotencyKey,
		CorrelationID:  correlationID,
	})
	if err != nil {
		s.logger.Warn("checkout failed", zap.String("cart_id", cartID), zap.Error(err))
		return nil, err
	}
	// a replayed key returns the invoice it issued before; only clear the
	// cart if that invoice billed exactly these lines
	lines, _ := invoices.LinesFromCart(items)
	if inv.CartID != cartID || !sameLines(inv.Lines, lines) {
		s.logger.Warn("idempotency key reused",
			zap.String("cart_id", cartID),
			zap.String("invoice_id", inv.InvoiceID),
			zap.String("invoice_cart_id", inv.CartID))
		return nil, fmt.Errorf("invoice %s: %w", inv.InvoiceID, ErrIdempotencyKeyReused)
	}
	c.Clear()
	s.logger.Info("checkout completed",
		zap.String("cart_id", cartID),
		zap.String("invoice_id", inv.InvoiceID),
		zap.Float64("amount", inv.Amount))
	return inv, nil
}

func sameLines(a, b []invoices.Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
