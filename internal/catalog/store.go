package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
)

// Store reads product and inventory snapshots from DynamoDB. It implements
// both CatalogProvider and InventoryProvider.
type Store struct {
	client         aws.DynamoDBAPI
	productsTable  string
	inventoryTable string
	validate       *validatorv10.Validate
}

// NewStore creates a catalog Store over the two tables.
func NewStore(client aws.DynamoDBAPI, productsTable, inventoryTable string) *Store {
	return &Store{
		client:         client,
		productsTable:  productsTable,
		inventoryTable: inventoryTable,
		validate:       NewValidator(),
	}
}

// GetProducts scans the products table and validates the snapshot.
func (s *Store) GetProducts(ctx context.Context) ([]Product, error) {
	items, err := s.scanAll(ctx, s.productsTable)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	var products []Product
	if err := attributevalue.UnmarshalListOfMaps(items, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products: %w", err)
	}
	if err := ValidateProducts(s.validate, products); err != nil {
		return nil, fmt.Errorf("invalid product snapshot: %w", err)
	}
	return products, nil
}

// GetInventory scans the inventory table and validates the snapshot.
func (s *Store) GetInventory(ctx context.Context) ([]InventoryRecord, error) {
	items, err := s.scanAll(ctx, s.inventoryTable)
	if err != nil {
		return nil, fmt.Errorf("scan inventory: %w", err)
	}
	var records []InventoryRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("unmarshal inventory: %w", err)
	}
	if err := ValidateInventory(s.validate, records); err != nil {
		return nil, fmt.Errorf("invalid inventory snapshot: %w", err)
	}
	return records, nil
}

// AdjustInventory adds the deltas to the rented and total quantities of one
// (product, size) record, creating the record if it does not exist.
func (s *Store) AdjustInventory(ctx context.Context, productID, size string, rentedDelta, totalDelta int) error {
	key := InventoryKey(productID, size)
	values := map[string]types.AttributeValue{
		":pid": &types.AttributeValueMemberS{Value: productID},
		":r":   &types.AttributeValueMemberN{Value: strconv.Itoa(rentedDelta)},
		":t":   &types.AttributeValueMemberN{Value: strconv.Itoa(totalDelta)},
	}
	var names map[string]string
	updateExpr := "SET product_id = :pid ADD rented_quantity :r, total_quantity :t"
	if size != "" {
		// size is a reserved word
		updateExpr = "SET product_id = :pid, #sz = :sz ADD rented_quantity :r, total_quantity :t"
		names = map[string]string{"#sz": "size"}
		values[":sz"] = &types.AttributeValueMemberS{Value: size}
	}
	input := &dyn.UpdateItemInput{
		TableName: &s.inventoryTable,
		Key: map[string]types.AttributeValue{
			"inventory_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("adjust inventory %s: %w", key, err)
	}
	return nil
}

// PutProduct writes a product record.
func (s *Store) PutProduct(ctx context.Context, p Product) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("invalid product %q: %w", p.ID, err)
	}
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{TableName: &s.productsTable, Item: item}); err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// PutInventory writes an inventory record. The table key is derived from product and size.
func (s *Store) PutInventory(ctx context.Context, r InventoryRecord) error {
	if err := s.validate.Struct(r); err != nil {
		return fmt.Errorf("invalid inventory record %q: %w", r.ProductID, err)
	}
	r.Key = InventoryKey(r.ProductID, r.Size)
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("marshal inventory record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dyn.PutItemInput{TableName: &s.inventoryTable, Item: item}); err != nil {
		return fmt.Errorf("put inventory record: %w", err)
	}
	return nil
}

func (s *Store) scanAll(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	var (
		items []map[string]types.AttributeValue
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &table,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		start = out.LastEvaluatedKey
	}
}
