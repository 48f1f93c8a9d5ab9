package ddbstore

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
)

var progressTable = TableDefinition{
	Name:         "progress",
	PartitionKey: "onboard_id",
	Indexes: map[string]IndexDefinition{
		"phone_number_device_id": {PartitionKey: "phone_number", SortKey: "device_id"},
	},
}

var eventsTable = TableDefinition{
	Name:         "events",
	PartitionKey: "pk",
	SortKey:      "sk",
}

func newTestStore(t *testing.T, defs ...TableDefinition) *Store {
	store, err := New(StoreOptions{InMemory: true}, defs...)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func str(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func num(v string) types.AttributeValue { return &types.AttributeValueMemberN{Value: v} }

func put(t *testing.T, store *Store, table string, item map[string]types.AttributeValue) {
	t.Helper()
	_, err := store.PutItem(context.Background(), &dynamodb.PutItemInput{TableName: aws.String(table), Item: item})
	require.NoError(t, err)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions(catalog.Default())
	require.Len(t, defs, 4)

	byName := make(map[string]TableDefinition)
	for _, d := range defs {
		byName[d.Name] = d
	}
	progress := byName["prod-onboarding-progress"]
	assert.Equal(t, "onboard_id", progress.PartitionKey)
	assert.Equal(t, IndexDefinition{PartitionKey: "phone_number", SortKey: "device_id"}, progress.Indexes["phone_number_device_id"])
	assert.NotContains(t, progress.Indexes, "")
}

func TestPutGetDelete(t *testing.T) {
	store := newTestStore(t, progressTable)
	ctx := context.Background()

	item := map[string]types.AttributeValue{
		"onboard_id": str("OB-1"),
		"step":       num("3"),
		"done":       &types.AttributeValueMemberBOOL{Value: false},
		"tags":       &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		"meta": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"source": str("app"),
			"none":   &types.AttributeValueMemberNULL{Value: true},
		}},
		"codes": &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
	}
	put(t, store, "progress", item)

	key := map[string]types.AttributeValue{"onboard_id": str("OB-1")}
	out, err := store.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String("progress"), Key: key})
	require.NoError(t, err)
	assert.Equal(t, item, out.Item)

	_, err = store.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String("progress"), Key: key})
	require.NoError(t, err)

	out, err = store.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String("progress"), Key: key})
	require.NoError(t, err)
	assert.Nil(t, out.Item)
}

func TestUnknownTable(t *testing.T) {
	store := newTestStore(t, progressTable)
	_, err := store.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String("missing"),
		Key:       map[string]types.AttributeValue{"onboard_id": str("x")},
	})
	var rnf *types.ResourceNotFoundException
	assert.ErrorAs(t, err, &rnf)
}

func TestPutItem_MissingKey(t *testing.T) {
	store := newTestStore(t, eventsTable)
	_, err := store.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String("events"),
		Item:      map[string]types.AttributeValue{"pk": str("a")},
	})
	assert.ErrorContains(t, err, "missing sort key sk")
}

func TestQuery_Partition(t *testing.T) {
	store := newTestStore(t, eventsTable)
	put(t, store, "events", map[string]types.AttributeValue{"pk": str("a"), "sk": str("2")})
	put(t, store, "events", map[string]types.AttributeValue{"pk": str("a"), "sk": str("1")})
	put(t, store, "events", map[string]types.AttributeValue{"pk": str("ab"), "sk": str("1")})

	out, err := store.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String("events"),
		KeyConditionExpression:    aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":pk": str("a")},
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, str("1"), out.Items[0]["sk"])
	assert.Equal(t, str("2"), out.Items[1]["sk"])
}

func TestQuery_IndexWithBuilder(t *testing.T) {
	store := newTestStore(t, progressTable)
	put(t, store, "progress", map[string]types.AttributeValue{"onboard_id": str("1"), "phone_number": str("0901"), "device_id": str("d1")})
	put(t, store, "progress", map[string]types.AttributeValue{"onboard_id": str("2"), "phone_number": str("0901"), "device_id": str("d2")})
	put(t, store, "progress", map[string]types.AttributeValue{"onboard_id": str("3"), "phone_number": str("0902"), "device_id": str("d1")})

	query := func(t *testing.T, cond expression.KeyConditionBuilder) []map[string]types.AttributeValue {
		expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
		require.NoError(t, err)
		out, err := store.Query(context.Background(), &dynamodb.QueryInput{
			TableName:                 aws.String("progress"),
			IndexName:                 aws.String("phone_number_device_id"),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		require.NoError(t, err)
		return out.Items
	}

	phone := expression.Key("phone_number").Equal(expression.Value("0901"))
	assert.Len(t, query(t, phone), 2)

	both := query(t, phone.And(expression.Key("device_id").Equal(expression.Value("d2"))))
	require.Len(t, both, 1)
	assert.Equal(t, str("2"), both[0]["onboard_id"])
}

func TestQuery_Errors(t *testing.T) {
	store := newTestStore(t, progressTable)
	ctx := context.Background()
	values := map[string]types.AttributeValue{":v": str("x")}

	tests := []struct {
		name  string
		index string
		expr  string
		want  string
	}{
		{"range condition", "", "onboard_id > :v", "only equality"},
		{"undefined value", "", "onboard_id = :w", ":w is not defined"},
		{"undefined name", "", "#n = :v", "#n is not defined"},
		{"wrong partition key", "", "phone_number = :v", "partition key onboard_id"},
		{"unknown index", "nope", "onboard_id = :v", "index not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &dynamodb.QueryInput{
				TableName:                 aws.String("progress"),
				KeyConditionExpression:    aws.String(tt.expr),
				ExpressionAttributeValues: values,
			}
			if tt.index != "" {
				in.IndexName = aws.String(tt.index)
			}
			_, err := store.Query(ctx, in)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseKeyCondition(t *testing.T) {
	cond, err := parseKeyCondition("(#0 = :0) and (#1 = :1)",
		map[string]string{"#0": "a", "#1": "b"},
		map[string]types.AttributeValue{":0": str("x"), ":1": num("2")},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.AttributeValue{"a": str("x"), "b": num("2")}, cond)
}
