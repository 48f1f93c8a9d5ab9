package ddbstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
)

// keyEquality matches one "name = :value" term of a key condition, as
// produced by the expression builder ("#0 = :0") or written by hand.
var keyEquality = regexp.MustCompile(`^\(?\s*(#?[A-Za-z0-9_.-]+)\s*=\s*(:[A-Za-z0-9_]+)\s*\)?$`)

var andSeparator = regexp.MustCompile(`(?i)\s+AND\s+`)

// parseKeyCondition resolves an equality-only key condition into attribute
// name to value.
func parseKeyCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue)
	for _, term := range andSeparator.Split(strings.TrimSpace(expr), -1) {
		m := keyEquality.FindStringSubmatch(strings.TrimSpace(term))
		if m == nil {
			return nil, fmt.Errorf("unsupported key condition %q: only equality conditions are supported", term)
		}
		name := m[1]
		if strings.HasPrefix(name, "#") {
			resolved, ok := names[name]
			if !ok {
				return nil, fmt.Errorf("expression attribute name %s is not defined", name)
			}
			name = resolved
		}
		v, ok := values[m[2]]
		if !ok {
			return nil, fmt.Errorf("expression attribute value %s is not defined", m[2])
		}
		out[name] = v
	}
	return out, nil
}

// Query returns the items whose key attributes equal the key condition. On
// the table itself a single partition is scanned; on a secondary index the
// whole table is scanned and filtered, since index entries are not
// materialized.
func (s *Store) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.KeyConditionExpression == nil {
		return nil, fmt.Errorf("key condition expression is required")
	}
	def, err := s.table(params.TableName)
	if err != nil {
		return nil, err
	}

	partitionKey, sortKey := def.PartitionKey, def.SortKey
	indexName := aws.ToString(params.IndexName)
	if indexName != "" {
		idx, ok := def.Indexes[indexName]
		if !ok {
			return nil, fmt.Errorf("index not found: %s", indexName)
		}
		partitionKey, sortKey = idx.PartitionKey, idx.SortKey
	}

	cond, err := parseKeyCondition(*params.KeyConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, fmt.Errorf("parse key condition: %w", err)
	}
	pk, ok := cond[partitionKey]
	if !ok {
		return nil, fmt.Errorf("key condition must specify partition key %s", partitionKey)
	}
	for name := range cond {
		if name != partitionKey && name != sortKey {
			return nil, fmt.Errorf("%s is not a key attribute", name)
		}
	}

	prefix := tablePrefix(def.Name)
	if indexName == "" {
		if prefix, err = partitionPrefix(def.Name, pk); err != nil {
			return nil, err
		}
	}

	limit := int(aws.ToInt32(params.Limit))
	var items []map[string]types.AttributeValue
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var item map[string]types.AttributeValue
			if err := it.Item().Value(func(val []byte) error {
				var err error
				item, err = deserializeItem(val)
				return err
			}); err != nil {
				return err
			}
			if !matches(item, cond) {
				continue
			}
			items = append(items, item)
			if limit > 0 && len(items) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{
		Items:        items,
		Count:        int32(len(items)),
		ScannedCount: int32(len(items)),
	}, nil
}

func matches(item map[string]types.AttributeValue, cond map[string]types.AttributeValue) bool {
	for name, want := range cond {
		got, ok := item[name]
		if !ok || !equalKeyValue(got, want) {
			return false
		}
	}
	return true
}

func equalKeyValue(a, b types.AttributeValue) bool {
	ea, err := encodeKeyValue(a)
	if err != nil {
		return false
	}
	eb, err := encodeKeyValue(b)
	if err != nil {
		return false
	}
	return string(ea) == string(eb)
}
