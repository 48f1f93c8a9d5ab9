// Package ddbstore is a local, BadgerDB-backed stand-in for the DynamoDB
// operations in ddbiface.Client. It is meant for offline development of the
// explorer: it supports key lookups, puts, deletes and equality key
// conditions on the table and its secondary indexes.
package ddbstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/ddbiface"
)

var _ ddbiface.Client = (*Store)(nil)

// TableDefinition is the key schema of a table.
type TableDefinition struct {
	Name         string
	PartitionKey string
	SortKey      string
	// Indexes maps a secondary index name to its key schema.
	Indexes map[string]IndexDefinition
}

// IndexDefinition is the key schema of a secondary index.
type IndexDefinition struct {
	PartitionKey string
	SortKey      string
}

// Definitions derives the table definitions of every table in cat.
func Definitions(cat *catalog.Catalog) []TableDefinition {
	var defs []TableDefinition
	for _, env := range cat.Environments {
		for _, key := range cat.TableKeys(env.Name) {
			t := env.Tables[key]
			def := TableDefinition{
				Name:         t.Name,
				PartitionKey: t.PrimaryKey,
				SortKey:      t.SortKey,
				Indexes:      make(map[string]IndexDefinition),
			}
			for _, idx := range t.Indexes {
				if idx.IsPrimary() {
					continue
				}
				def.Indexes[idx.Name] = IndexDefinition{PartitionKey: idx.HashKey, SortKey: idx.RangeKey}
			}
			defs = append(defs, def)
		}
	}
	return defs
}

// Store is a DynamoDB-compatible item store backed by BadgerDB.
type Store struct {
	db     *badger.DB
	tables map[string]TableDefinition
}

// StoreOptions configures the BadgerDB store.
type StoreOptions struct {
	// Path to the database directory. If empty, the store is in-memory.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// New opens a store serving the given tables.
func New(opts StoreOptions, defs ...TableDefinition) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	tables := make(map[string]TableDefinition, len(defs))
	for _, def := range defs {
		tables[def.Name] = def
	}
	return &Store{db: db, tables: tables}, nil
}

// Close closes the BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) table(name *string) (TableDefinition, error) {
	if name == nil {
		return TableDefinition{}, fmt.Errorf("table name is required")
	}
	def, ok := s.tables[*name]
	if !ok {
		return TableDefinition{}, &types.ResourceNotFoundException{
			Message: aws.String("Requested resource not found: Table: " + *name + " not found"),
		}
	}
	return def, nil
}

// keyOf encodes the primary key of item, which may be a full item or a key.
func (def TableDefinition) keyOf(item map[string]types.AttributeValue) ([]byte, error) {
	pk, ok := item[def.PartitionKey]
	if !ok {
		return nil, fmt.Errorf("missing partition key %s", def.PartitionKey)
	}
	var sk types.AttributeValue
	if def.SortKey != "" {
		if sk, ok = item[def.SortKey]; !ok {
			return nil, fmt.Errorf("missing sort key %s", def.SortKey)
		}
	}
	return encodeKey(def.Name, pk, sk)
}

// GetItem returns the item with the given key, or no item.
func (s *Store) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	def, err := s.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := def.keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	var item map[string]types.AttributeValue
	err = s.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			item, err = deserializeItem(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

// PutItem creates or replaces an item.
func (s *Store) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	if params.Item == nil {
		return nil, fmt.Errorf("item is required")
	}
	def, err := s.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := def.keyOf(params.Item)
	if err != nil {
		return nil, fmt.Errorf("extract primary key: %w", err)
	}
	val, err := serializeItem(params.Item)
	if err != nil {
		return nil, fmt.Errorf("serialize item: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	}); err != nil {
		return nil, err
	}
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem removes the item with the given key. Deleting a missing item
// is not an error.
func (s *Store) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	def, err := s.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := def.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}); err != nil {
		return nil, err
	}
	return &dynamodb.DeleteItemOutput{}, nil
}
