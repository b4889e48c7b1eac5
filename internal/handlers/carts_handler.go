package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/cart"
	"github.com/imrishuroy/go-rental-cart/internal/cartstore"
	"github.com/imrishuroy/go-rental-cart/internal/checkout"
	"github.com/imrishuroy/go-rental-cart/internal/inventory"
	"github.com/imrishuroy/go-rental-cart/internal/invoices"
	"github.com/imrishuroy/go-rental-cart/internal/pricing"
	"github.com/imrishuroy/go-rental-cart/internal/validation"
)

// CartSessions gives serialized access to session carts. Implemented in
// memory by cart.Registry and on DynamoDB by cartstore.Store. A cart left
// empty by fn stops existing.
type CartSessions interface {
	WithCart(ctx context.Context, id string, fn func(*cart.Cart) error) error
	WithExistingCart(ctx context.Context, id string, fn func(*cart.Cart) error) (bool, error)
}

// HandlerConfig groups dependencies for the cart handlers.
type HandlerConfig struct {
	Service *checkout.Service
	Carts   CartSessions
	Logger  *zap.Logger
}

type cartHandler struct {
	svc    *checkout.Service
	carts  CartSessions
	v      *validatorv10.Validate
	logger *zap.Logger
}

type lineView struct {
	cart.LineItem
	TotalDisplay string `json:"total_display"`
}

type cartView struct {
	CartID          string     `json:"cart_id"`
	Items           []lineView `json:"items"`
	Subtotal        float64    `json:"subtotal"`
	SubtotalDisplay string     `json:"subtotal_display"`
}

// RegisterCartRoutes registers the quote, sale listing and cart routes.
func RegisterCartRoutes(r *gin.Engine, cfg HandlerConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &cartHandler{
		svc:    cfg.Service,
		carts:  cfg.Carts,
		v:      validation.New(),
		logger: logger,
	}

	r.GET("/products/sale", h.saleListing)
	r.POST("/quote", h.quote)

	carts := r.Group("/carts/:cart_id")
	carts.GET("", h.getCart)
	carts.DELETE("", h.clearCart)
	carts.POST("/items", h.addItem)
	carts.PATCH("/items", h.updateItem)
	carts.DELETE("/items", h.removeItem)
	carts.POST("/checkout", h.checkout)
}

func (h *cartHandler) saleListing(c *gin.Context) {
	products, err := h.svc.SaleListing(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *cartHandler) quote(c *gin.Context) {
	var req validation.QuoteRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	q, err := h.svc.Quote(c.Request.Context(), req.ProductID, req.Days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quote":         q,
		"total_display": pricing.FormatAmount(q.Total),
	})
}

func (h *cartHandler) getCart(c *gin.Context) {
	id := c.Param("cart_id")
	view := newCartView(id, cart.New())
	_, err := h.carts.WithExistingCart(c.Request.Context(), id, func(ct *cart.Cart) error {
		view = newCartView(id, ct)
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *cartHandler) clearCart(c *gin.Context) {
	_, err := h.carts.WithExistingCart(c.Request.Context(), c.Param("cart_id"), func(ct *cart.Cart) error {
		ct.Clear()
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *cartHandler) addItem(c *gin.Context) {
	var req validation.AddItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	id := c.Param("cart_id")
	ctx := c.Request.Context()
	add := checkout.AddRequest{
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
		Days:      req.Days,
	}

	var (
		line cart.LineItem
		view cartView
	)
	err := h.carts.WithCart(ctx, id, func(ct *cart.Cart) error {
		var err error
		if req.IsSale {
			line, err = h.svc.AddSale(ctx, ct, add)
		} else {
			line, err = h.svc.AddRental(ctx, ct, add)
		}
		view = newCartView(id, ct)
		return err
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": newLineView(line), "cart": view})
}

func (h *cartHandler) updateItem(c *gin.Context) {
	var req validation.UpdateItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	id := c.Param("cart_id")
	ctx := c.Request.Context()

	var (
		line cart.LineItem
		view cartView
	)
	found, err := h.carts.WithExistingCart(ctx, id, func(ct *cart.Cart) error {
		var err error
		if req.Quantity != nil {
			line, err = h.svc.UpdateQuantity(ctx, ct, req.ProductID, req.Size, *req.Quantity)
		} else {
			line, err = h.svc.UpdateDays(ctx, ct, req.ProductID, req.Size, *req.Days)
		}
		view = newCartView(id, ct)
		return err
	})
	if err == nil && !found {
		err = checkout.ErrLineNotFound
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": newLineView(line), "cart": view})
}

func (h *cartHandler) removeItem(c *gin.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_product_id"})
		return
	}
	id := c.Param("cart_id")
	view := newCartView(id, cart.New())
	_, err := h.carts.WithExistingCart(c.Request.Context(), id, func(ct *cart.Cart) error {
		h.svc.Remove(ct, productID, c.Query("size"))
		view = newCartView(id, ct)
		return nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *cartHandler) checkout(c *gin.Context) {
	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
		return
	}
	id := c.Param("cart_id")
	client := invoices.Client{
		ClientID: req.ClientID,
		Name:     req.Name,
		Document: req.Document,
		Phone:    req.Phone,
		Address:  req.Address,
	}

	var inv *invoices.Invoice
	found, err := h.carts.WithExistingCart(c.Request.Context(), id, func(ct *cart.Cart) error {
		var err error
		inv, err = h.svc.Checkout(c.Request.Context(), ct, id, client, idempKey, c.GetHeader("X-Request-Id"))
		return err
	})
	if err == nil && !found {
		err = checkout.ErrEmptyCart
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/invoices/"+inv.InvoiceID)
	c.JSON(http.StatusCreated, gin.H{
		"invoice_id":     inv.InvoiceID,
		"status":         inv.Status,
		"amount":         inv.Amount,
		"amount_display": pricing.FormatAmount(inv.Amount),
	})
}

func (h *cartHandler) writeError(c *gin.Context, err error) {
	var (
		upe *pricing.UnknownProductError
		ise *inventory.InsufficientStockError
	)
	switch {
	case errors.As(err, &upe):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_product", "product_id": upe.ProductID})
	case errors.As(err, &ise):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "insufficient_stock",
			"product_id": ise.ProductID,
			"size":       ise.Size,
			"requested":  ise.Requested,
			"available":  ise.Available,
		})
	case errors.Is(err, checkout.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "line_not_found"})
	case errors.Is(err, checkout.ErrNotForSale):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not_for_sale"})
	case errors.Is(err, checkout.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "detail": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "empty_cart"})
	case errors.Is(err, checkout.ErrIdempotencyKeyReused):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused"})
	case errors.Is(err, cartstore.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": "cart_modified_concurrently"})
	case errors.Is(err, invoices.ErrRequestInProgress):
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	case errors.Is(err, invoices.ErrPreviousAttemptFailed):
		c.JSON(http.StatusConflict, gin.H{"error": "previous_attempt_failed"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func newLineView(li cart.LineItem) lineView {
	return lineView{LineItem: li, TotalDisplay: pricing.FormatAmount(li.Total)}
}

func newCartView(id string, ct *cart.Cart) cartView {
	items := ct.Items()
	view := cartView{
		CartID:          id,
		Items:           make([]lineView, 0, len(items)),
		Subtotal:        ct.Subtotal(),
		SubtotalDisplay: pricing.FormatAmount(ct.Subtotal()),
	}
	for _, it := range items {
		view.Items = append(view.Items, newLineView(it))
	}
	return view
}
