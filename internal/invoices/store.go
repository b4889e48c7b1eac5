package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
)

var (
	// ErrStatusMismatch is returned by UpdateStatus when the current status is not the expected one.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrKeyExists is returned when the idempotency record of a create already exists.
	ErrKeyExists = errors.New("idempotency key already exists")
)

// Store encapsulates operations on the invoices table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new invoices Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// CreateWithIdempotencyTransaction atomically writes the idempotency record
// (guarded by attribute_not_exists(idempotency_key)) and the invoice.
// idempotencyItem must marshal with an idempotency_key attribute.
func (s *Store) CreateWithIdempotencyTransaction(ctx context.Context, idempotencyTable string, idempotencyItem interface{}, inv Invoice) error {
	idempMap, err := attributevalue.MarshalMap(idempotencyItem)
	if err != nil {
		return fmt.Errorf("marshal idempotency item: %w", err)
	}

	now := s.nowFunc()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now

	invMap, err := attributevalue.MarshalMap(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice item: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           &idempotencyTable,
					Item:                idempMap,
					ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           &s.tableName,
					Item:                invMap,
					ConditionExpression: awsString("attribute_not_exists(invoice_id)"),
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("transaction canceled: %w: %v", ErrKeyExists, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches an invoice by id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, invoiceID string) (*Invoice, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"invoice_id": &types.AttributeValueMemberS{Value: invoiceID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var inv Invoice
	if err := attributevalue.UnmarshalMap(out.Item, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invoice: %w", err)
	}
	return &inv, nil
}

// UpdateStatus conditionally moves an invoice from expectedStatus to newStatus.
// Returns ErrStatusMismatch if the condition failed.
func (s *Store) UpdateStatus(ctx context.Context, invoiceID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"invoice_id": &types.AttributeValueMemberS{Value: invoiceID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
		},
		ConditionExpression: awsString("#s = :expected"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// IncrementAttempts increases the attempts counter by 1.
func (s *Store) IncrementAttempts(ctx context.Context, invoiceID string) error {
	now := s.nowFunc()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"invoice_id": &types.AttributeValueMemberS{Value: invoiceID},
		},
		UpdateExpression: awsString("SET attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
