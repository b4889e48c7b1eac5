package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// scanMock serves Scan from per-table item slices, splitting results into pages of pageSize.
type scanMock struct {
	mu       sync.Mutex
	tables   map[string][]map[string]types.AttributeValue
	pageSize int
	scans    int
	updates  []*dyn.UpdateItemInput
	puts     []*dyn.PutItemInput
	scanErr  error
}

func newScanMock(pageSize int) *scanMock {
	return &scanMock{
		tables:   map[string][]map[string]types.AttributeValue{},
		pageSize: pageSize,
	}
}

func (m *scanMock) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	items := m.tables[*params.TableName]
	start := 0
	if v, ok := params.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(v.Value)
	}
	end := start + m.pageSize
	if end >= len(items) {
		return &dyn.ScanOutput{Items: items[start:]}, nil
	}
	next := map[string]types.AttributeValue{
		"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
	}
	return &dyn.ScanOutput{Items: items[start:end], LastEvaluatedKey: next}, nil
}

func (m *scanMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, params)
	m.tables[*params.TableName] = append(m.tables[*params.TableName], params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *scanMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *scanMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, params)
	return &dyn.UpdateItemOutput{}, nil
}

func (m *scanMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	return &dyn.DeleteItemOutput{}, nil
}

func (m *scanMock) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	return nil, errors.New("not implemented")
}
