// Package ddbiface declares the DynamoDB operations the explorer uses. The
// interface is satisfied by the AWS SDK v2 *dynamodb.Client and by
// ddbstore.Store, so the explorer runs against real DynamoDB or a local
// BadgerDB-backed store.
package ddbiface

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Client mirrors the method signatures of the AWS SDK v2 *dynamodb.Client.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)
