package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
	"github.com/imrishuroy/go-rental-cart/internal/invoices"
)

// Metric names published per processed invoice.
const (
	MetricInvoicesCompleted = "InvoicesCompleted"
	MetricInvoicesFailed    = "InvoicesFailed"
	MetricInvoiceAmount     = "InvoiceAmount"
)

// InventoryAdjuster applies stock movements. Implemented by catalog.Store.
type InventoryAdjuster interface {
	AdjustInventory(ctx context.Context, productID, size string, rentedDelta, totalDelta int) error
}

// Processor moves invoices through their lifecycle and books the stock
// movements of their lines.
type Processor struct {
	invoices  *invoices.Store
	inventory InventoryAdjuster
	metrics   *aws.Metrics
	logger    *zap.Logger
}

// NewProcessor creates a worker processor. metrics may be nil.
func NewProcessor(store *invoices.Store, inventory InventoryAdjuster, metrics *aws.Metrics, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		invoices:  store,
		inventory: inventory,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle processes an SQS batch. The first failing message fails the batch so
// the runtime retries it.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.Debug("received batch", zap.Int("records", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("worker error", zap.String("message_id", rec.MessageId), zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg invoices.Message
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	log := p.logger.With(
		zap.String("invoice_id", msg.InvoiceID),
		zap.String("idempotency_key", msg.IdempotencyKey),
		zap.String("correlation_id", msg.CorrelationID))

	inv, err := p.invoices.Get(ctx, msg.InvoiceID)
	if err != nil {
		return fmt.Errorf("fetch invoice: %w", err)
	}
	if inv == nil {
		return fmt.Errorf("invoice not found: %s", msg.InvoiceID)
	}

	err = p.invoices.UpdateStatus(ctx, inv.InvoiceID, invoices.StatusPending, invoices.StatusProcessing)
	if errors.Is(err, invoices.ErrStatusMismatch) {
		current, getErr := p.invoices.Get(ctx, inv.InvoiceID)
		if getErr != nil {
			return fmt.Errorf("reload invoice: %w", getErr)
		}
		if current == nil {
			return fmt.Errorf("invoice vanished: %s", inv.InvoiceID)
		}
		switch current.Status {
		case invoices.StatusCompleted:
			log.Info("invoice already completed")
			return nil
		case invoices.StatusProcessing:
			log.Info("duplicate delivery for invoice in progress")
			return nil
		case invoices.StatusFailed:
			return fmt.Errorf("invoice %s is already FAILED", inv.InvoiceID)
		default:
			return fmt.Errorf("unexpected status for invoice %s: %s", inv.InvoiceID, current.Status)
		}
	}
	if err != nil {
		return fmt.Errorf("update status to PROCESSING: %w", err)
	}

	if err := p.invoices.IncrementAttempts(ctx, inv.InvoiceID); err != nil {
		log.Warn("increment attempts", zap.Error(err))
	}

	if err := p.applyMovements(ctx, inv.Lines); err != nil {
		if failErr := p.invoices.UpdateStatus(ctx, inv.InvoiceID, invoices.StatusProcessing, invoices.StatusFailed); failErr != nil {
			log.Warn("mark invoice failed", zap.Error(failErr))
		}
		p.emit(ctx, log, MetricInvoicesFailed, 1, false)
		return fmt.Errorf("apply inventory movements: %w", err)
	}

	if err := p.invoices.UpdateStatus(ctx, inv.InvoiceID, invoices.StatusProcessing, invoices.StatusCompleted); err != nil {
		return fmt.Errorf("update status to COMPLETED: %w", err)
	}

	p.emit(ctx, log, MetricInvoicesCompleted, 1, false)
	p.emit(ctx, log, MetricInvoiceAmount, inv.Amount, true)
	log.Info("invoice completed", zap.Int("lines", len(inv.Lines)), zap.Float64("amount", inv.Amount))
	return nil
}

// applyMovements rents out rental lines and removes sold units from stock.
func (p *Processor) applyMovements(ctx context.Context, lines []invoices.Line) error {
	for _, l := range lines {
		rented, total := l.Quantity, 0
		if l.IsSale {
			rented, total = 0, -l.Quantity
		}
		if err := p.inventory.AdjustInventory(ctx, l.ProductID, l.Size, rented, total); err != nil {
			return err
		}
	}
	return nil
}

// emit never fails the message; metrics are best effort.
func (p *Processor) emit(ctx context.Context, log *zap.Logger, name string, value float64, amount bool) {
	var err error
	if amount {
		err = p.metrics.Amount(ctx, name, value)
	} else {
		err = p.metrics.Count(ctx, name, value)
	}
	if err != nil {
		log.Warn("publish metric", zap.String("metric", name), zap.Error(err))
	}
}
