// Package cartstore keeps session carts in a DynamoDB table so every API
// instance sees the same cart. Writes are guarded by a version number: a cart
// changed by someone else between read and write fails with
// ErrConcurrentUpdate and nothing is written.
package cartstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
	"github.com/imrishuroy/go-rental-cart/internal/cart"
)

// ErrConcurrentUpdate means the cart changed after it was read.
var ErrConcurrentUpdate = errors.New("cart was modified concurrently")

// record is the item stored per cart. Line items reuse their json field names.
type record struct {
	CartID    string          `json:"cart_id"`
	Items     []cart.LineItem `json:"items"`
	Version   int64           `json:"version"`
	UpdatedAt string          `json:"updated_at"`
	ExpiresAt int64           `json:"expires_at"`
}

func useJSONTags(o *attributevalue.EncoderOptions) { o.TagKey = "json" }
func readJSONTags(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

// Store reads and writes carts in one table keyed by cart_id.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a Store. ttlWindow sets expires_at on every write, so idle
// carts are removed by the table's TTL.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// WithCart loads the cart of id (empty if absent), runs fn and saves the
// result if fn changed it. A cart left empty is deleted.
func (s *Store) WithCart(ctx context.Context, id string, fn func(*cart.Cart) error) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.apply(ctx, id, rec, fn)
}

// WithExistingCart is WithCart for carts that already have lines. Missing
// carts are reported with false and fn is not called.
func (s *Store) WithExistingCart(ctx context.Context, id string, fn func(*cart.Cart) error) (bool, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	return true, s.apply(ctx, id, rec, fn)
}

func (s *Store) apply(ctx context.Context, id string, rec *record, fn func(*cart.Cart) error) error {
	c := cart.New()
	if rec != nil {
		c = cart.FromItems(rec.Items)
	}
	before := c.Items()
	if err := fn(c); err != nil {
		return err
	}
	after := c.Items()
	if sameItems(before, after) {
		return nil
	}
	if len(after) == 0 {
		return s.delete(ctx, id, rec)
	}
	return s.save(ctx, id, rec, after)
}

func (s *Store) load(ctx context.Context, id string) (*record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"cart_id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get cart %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMapWithOptions(out.Item, &rec, readJSONTags); err != nil {
		return nil, fmt.Errorf("unmarshal cart %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) save(ctx context.Context, id string, prev *record, items []cart.LineItem) error {
	now := s.nowFunc().UTC()
	next := record{
		CartID:    id,
		Items:     items,
		Version:   1,
		UpdatedAt: now.Format(time.RFC3339),
		ExpiresAt: now.Add(s.ttlWindow).Unix(),
	}
	input := &dyn.PutItemInput{TableName: &s.tableName}
	if prev == nil {
		input.ConditionExpression = awsString("attribute_not_exists(cart_id)")
	} else {
		next.Version = prev.Version + 1
		input.ConditionExpression = awsString("#ver = :v")
		input.ExpressionAttributeNames = versionName
		input.ExpressionAttributeValues = versionValue(prev.Version)
	}

	item, err := attributevalue.MarshalMapWithOptions(next, useJSONTags)
	if err != nil {
		return fmt.Errorf("marshal cart %s: %w", id, err)
	}
	input.Item = item

	if _, err := s.client.PutItem(ctx, input); err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("cart %s: %w", id, ErrConcurrentUpdate)
		}
		return fmt.Errorf("put cart %s: %w", id, err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, id string, prev *record) error {
	if prev == nil {
		return nil
	}
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"cart_id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       awsString("#ver = :v"),
		ExpressionAttributeNames:  versionName,
		ExpressionAttributeValues: versionValue(prev.Version),
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("cart %s: %w", id, ErrConcurrentUpdate)
		}
		return fmt.Errorf("delete cart %s: %w", id, err)
	}
	return nil
}

func sameItems(a, b []cart.LineItem) bool {
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

var versionName = map[string]string{"#ver": "version"}

func versionValue(v int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)},
	}
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
