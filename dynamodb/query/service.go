// Package query executes the explorer's collaborator operations (query,
// update and delete) against the tables described by a catalog.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/ddbiface"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/logger"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

var (
	// ErrHashKeyRequired is returned when a query has no hash key value.
	ErrHashKeyRequired = errors.New("hash key is required")
	// ErrPrimaryKeyMismatch is returned when a delete names a key attribute
	// other than the table's primary key.
	ErrPrimaryKeyMismatch = errors.New("invalid primary key")
)

// Params selects what to query.
type Params struct {
	Environment string            `json:"environment"`
	Table       string            `json:"table"`
	IndexName   string            `json:"indexName"`
	Values      map[string]string `json:"values"`
}

// Service runs explorer operations through a DynamoDB client.
type Service struct {
	client  ddbiface.Client
	catalog *catalog.Catalog
}

// NewService returns a service resolving tables through cat.
func NewService(client ddbiface.Client, cat *catalog.Catalog) *Service {
	return &Service{client: client, catalog: cat}
}

// Catalog returns the catalog the service resolves tables through.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Execute runs a query. A primary index lookup without a range key is a
// GetItem; everything else is a Query on the hash key and, when given, the
// range key.
func (s *Service) Execute(ctx context.Context, p Params) ([]record.Record, error) {
	t, err := s.catalog.Table(p.Environment, p.Table)
	if err != nil {
		return nil, err
	}
	idx, err := s.catalog.Index(p.Environment, p.Table, p.IndexName)
	if err != nil {
		return nil, err
	}

	hashValue := strings.TrimSpace(p.Values[idx.HashKey])
	if hashValue == "" {
		return nil, fmt.Errorf("%w: %s", ErrHashKeyRequired, idx.HashKey)
	}
	rangeValue := ""
	if idx.RangeKey != "" {
		rangeValue = strings.TrimSpace(p.Values[idx.RangeKey])
	}

	log := logger.FromContext(ctx).WithValues("table", t.Name, "index", idx.Name)

	if idx.IsPrimary() && idx.RangeKey == "" {
		log.V(1).Info("get item", idx.HashKey, hashValue)
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(t.Name),
			Key: map[string]types.AttributeValue{
				idx.HashKey: &types.AttributeValueMemberS{Value: hashValue},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get item: %w", err)
		}
		if out.Item == nil {
			return []record.Record{}, nil
		}
		return ToRecords([]map[string]types.AttributeValue{out.Item})
	}

	cond := expression.Key(idx.HashKey).Equal(expression.Value(hashValue))
	if rangeValue != "" {
		cond = cond.And(expression.Key(idx.RangeKey).Equal(expression.Value(rangeValue)))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	in := &dynamodb.QueryInput{
		TableName:                 aws.String(t.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if !idx.IsPrimary() {
		in.IndexName = aws.String(idx.Name)
	}
	log.V(1).Info("query", idx.HashKey, hashValue, "range", rangeValue)
	out, err := s.client.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return ToRecords(out.Items)
}

// Update writes item to the table, replacing the stored item with the same
// key.
func (s *Service) Update(ctx context.Context, env, table string, item record.Record) error {
	t, err := s.catalog.Table(env, table)
	if err != nil {
		return err
	}
	for _, key := range []string{t.PrimaryKey, t.SortKey} {
		if key == "" {
			continue
		}
		if _, ok := item[key]; !ok {
			return fmt.Errorf("item is missing key attribute %s", key)
		}
	}

	av, err := FromRecord(item)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("put item", "table", t.Name, t.PrimaryKey, record.ScalarText(item[t.PrimaryKey]))
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.Name),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// Delete removes one item after re-verifying its confirmation token and
// that the key attribute is the table's primary key.
func (s *Service) Delete(ctx context.Context, req deletion.Request) error {
	if req.Table == "" || req.PrimaryKey == "" || req.PrimaryValue == "" {
		return fmt.Errorf("missing required fields: table, primaryKey, and primaryValue are required")
	}
	if err := deletion.Verify(req.Environment, req.Table, req.PrimaryValue, req.ConfirmationToken); err != nil {
		return err
	}
	t, err := s.catalog.Table(req.Environment, req.Table)
	if err != nil {
		return err
	}
	if t.PrimaryKey != req.PrimaryKey {
		return fmt.Errorf("%w: expected %s, got %s", ErrPrimaryKeyMismatch, t.PrimaryKey, req.PrimaryKey)
	}

	logger.FromContext(ctx).Info("delete item", "environment", req.Environment, "table", t.Name, req.PrimaryKey, req.PrimaryValue)
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.Name),
		Key: map[string]types.AttributeValue{
			req.PrimaryKey: &types.AttributeValueMemberS{Value: req.PrimaryValue},
		},
	}); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}
