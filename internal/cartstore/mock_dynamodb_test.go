package cartstore

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cartsMock is an in-memory carts table keyed by cart_id that honours the
// two condition expressions the store writes with.
type cartsMock struct {
	mu      sync.Mutex
	items   map[string]map[string]types.AttributeValue
	puts    int
	deletes int
	// beforeWrite runs ahead of every conditional write, outside the lock.
	beforeWrite func()
}

func newCartsMock() *cartsMock {
	return &cartsMock{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["cart_id"].(*types.AttributeValueMemberS).Value
}

func (m *cartsMock) conditionHolds(id, cond string, vals map[string]types.AttributeValue) bool {
	cur, exists := m.items[id]
	switch cond {
	case "attribute_not_exists(cart_id)":
		return !exists
	case "#ver = :v":
		if !exists {
			return false
		}
		v, ok := cur["version"].(*types.AttributeValueMemberN)
		return ok && v.Value == vals[":v"].(*types.AttributeValueMemberN).Value
	}
	return true
}

func (m *cartsMock) hook() {
	if m.beforeWrite != nil {
		f := m.beforeWrite
		m.beforeWrite = nil
		f()
	}
}

func (m *cartsMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := keyOf(params.Item)
	if params.ConditionExpression != nil && !m.conditionHolds(id, *params.ConditionExpression, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.puts++
	m.items[id] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *cartsMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[keyOf(params.Key)]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *cartsMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.hook()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := keyOf(params.Key)
	if params.ConditionExpression != nil && !m.conditionHolds(id, *params.ConditionExpression, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.deletes++
	delete(m.items, id)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *cartsMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("update not supported by cartsMock")
}

func (m *cartsMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("transact not supported by cartsMock")
}

func (m *cartsMock) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	return nil, errors.New("scan not supported by cartsMock")
}
