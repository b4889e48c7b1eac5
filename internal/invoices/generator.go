package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/cart"
	"github.com/imrishuroy/go-rental-cart/internal/idempotency"
)

var (
	ErrMissingIdempotencyKey = errors.New("missing idempotency key")
	ErrRequestInProgress     = errors.New("request already in progress")
	ErrPreviousAttemptFailed = errors.New("previous attempt failed")
)

// Publisher sends invoice events.
type Publisher interface {
	SendInvoiceMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Request is everything needed to issue an invoice from a cart.
type Request struct {
	CartID         string
	Client         Client
	Items          []cart.LineItem
	IdempotencyKey string
	CorrelationID  string
}

// Generator persists invoices and announces them on the queue.
type Generator struct {
	store     *Store
	idemp     *idempotency.Store
	publisher Publisher
	logger    *zap.Logger
	newID     func() string
}

// NewGenerator wires a Generator.
func NewGenerator(store *Store, idemp *idempotency.Store, publisher Publisher, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:     store,
		idemp:     idemp,
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Generate writes the invoice and its idempotency record atomically, publishes
// an invoice-created message and marks the key done. Replaying a completed key
// returns the stored invoice without writing anything.
func (g *Generator) Generate(ctx context.Context, req Request) (*Invoice, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	lines, amount := LinesFromCart(req.Items)
	inv := Invoice{
		InvoiceID: g.newID(),
		CartID:    req.CartID,
		Client:    req.Client,
		Status:    StatusPending,
		Amount:    amount,
		Lines:     lines,
	}
	rec := g.idemp.NewRecord(req.IdempotencyKey, inv.InvoiceID, req.CartID)

	err := g.store.CreateWithIdempotencyTransaction(ctx, g.idemp.TableName(), rec, inv)
	if err != nil {
		if !errors.Is(err, ErrKeyExists) {
			return nil, fmt.Errorf("create invoice: %w", err)
		}
		return g.replay(ctx, req.IdempotencyKey)
	}

	body, err := json.Marshal(Message{
		InvoiceID:      inv.InvoiceID,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  req.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal invoice message: %w", err)
	}
	attrs := map[string]string{
		"invoice_id":      inv.InvoiceID,
		"idempotency_key": req.IdempotencyKey,
		"correlation_id":  req.CorrelationID,
	}
	if err := g.publisher.SendInvoiceMessage(ctx, string(body), attrs); err != nil {
		if markErr := g.idemp.MarkFailed(ctx, req.IdempotencyKey, fmt.Sprintf("sqs_send_failed: %v", err)); markErr != nil {
			g.logger.Warn("mark idempotency failed", zap.String("idempotency_key", req.IdempotencyKey), zap.Error(markErr))
		}
		return nil, fmt.Errorf("enqueue invoice: %w", err)
	}

	resp, _ := json.Marshal(map[string]string{"invoice_id": inv.InvoiceID, "status": StatusPending})
	if err := g.idemp.MarkDone(ctx, req.IdempotencyKey, string(resp), http.StatusCreated); err != nil {
		g.logger.Warn("mark idempotency done", zap.String("idempotency_key", req.IdempotencyKey), zap.Error(err))
	}

	g.logger.Info("invoice created",
		zap.String("invoice_id", inv.InvoiceID),
		zap.String("cart_id", req.CartID),
		zap.Int("lines", len(lines)),
		zap.Float64("amount", amount))
	return &inv, nil
}

func (g *Generator) replay(ctx context.Context, key string) (*Invoice, error) {
	rec, err := g.idemp.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("transaction failed with no idempotency record for %q", key)
	}

	switch rec.Status {
	case idempotency.StatusDone:
		inv, err := g.store.Get(ctx, rec.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("load replayed invoice: %w", err)
		}
		if inv == nil {
			return nil, fmt.Errorf("invoice %s of key %q not found", rec.InvoiceID, key)
		}
		g.logger.Info("invoice replayed", zap.String("invoice_id", inv.InvoiceID), zap.String("idempotency_key", key))
		return inv, nil
	case idempotency.StatusInProgress:
		return nil, fmt.Errorf("invoice %s: %w", rec.InvoiceID, ErrRequestInProgress)
	case idempotency.StatusFailed:
		return nil, fmt.Errorf("invoice %s: %w", rec.InvoiceID, ErrPreviousAttemptFailed)
	default:
		return nil, fmt.Errorf("unknown idempotency status %q", rec.Status)
	}
}
