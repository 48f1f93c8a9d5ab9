package query

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/catalog"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/ddbstore"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/deletion"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

const env = catalog.NonProdUAT

func newTestService(t *testing.T, seed ...record.Record) *Service {
	t.Helper()
	cat := catalog.Default()
	store, err := ddbstore.New(ddbstore.StoreOptions{InMemory: true}, ddbstore.Definitions(cat)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})

	svc := NewService(store, cat)
	for _, r := range seed {
		require.NoError(t, svc.Update(context.Background(), env, "progress", r))
	}
	return svc
}

func progress(id, phone, device string) record.Record {
	return record.Record{
		"onboard_id":   id,
		"phone_number": phone,
		"device_id":    device,
		"step":         json.Number("84901234567890123"),
		"payload":      `{"a":1}`,
	}
}

func TestExecute_PrimaryGetItem(t *testing.T) {
	svc := newTestService(t, progress("OB-1", "0901", "d1"))
	ctx := context.Background()

	items, err := svc.Execute(ctx, Params{Environment: env, Table: "progress", Values: map[string]string{"onboard_id": " OB-1 "}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, json.Number("84901234567890123"), items[0]["step"], "large numbers keep their exact text")
	assert.Equal(t, `{"a":1}`, items[0]["payload"])

	items, err = svc.Execute(ctx, Params{Environment: env, Table: "progress", Values: map[string]string{"onboard_id": "nope"}})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExecute_IndexQuery(t *testing.T) {
	svc := newTestService(t,
		progress("OB-1", "0901", "d1"),
		progress("OB-2", "0901", "d2"),
		progress("OB-3", "0902", "d1"),
	)
	ctx := context.Background()

	items, err := svc.Execute(ctx, Params{
		Environment: env, Table: "progress", IndexName: "phone_number_device_id",
		Values: map[string]string{"phone_number": "0901"},
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.Execute(ctx, Params{
		Environment: env, Table: "progress", IndexName: "phone_number_device_id",
		Values: map[string]string{"phone_number": "0901", "device_id": "d2"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "OB-2", items[0]["onboard_id"])
}

func TestExecute_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Execute(ctx, Params{Environment: env, Table: "nope"})
	assert.ErrorIs(t, err, catalog.ErrTableNotFound)

	_, err = svc.Execute(ctx, Params{Environment: env, Table: "progress", IndexName: "nope"})
	assert.ErrorIs(t, err, catalog.ErrIndexNotFound)

	_, err = svc.Execute(ctx, Params{Environment: env, Table: "progress", Values: map[string]string{"onboard_id": "  "}})
	assert.ErrorIs(t, err, ErrHashKeyRequired)
	assert.ErrorContains(t, err, "onboard_id")
}

func TestUpdate_ReplacesItem(t *testing.T) {
	svc := newTestService(t, progress("OB-1", "0901", "d1"))
	ctx := context.Background()

	edited := record.Record{
		"onboard_id": "OB-1",
		"payload":    map[string]any{"a": json.Number("2"), "list": []any{true, nil}},
	}
	require.NoError(t, svc.Update(ctx, env, "progress", edited))

	items, err := svc.Execute(ctx, Params{Environment: env, Table: "progress", Values: map[string]string{"onboard_id": "OB-1"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, record.Equal(edited, items[0]), "got %#v", items[0])
}

func TestUpdate_MissingKey(t *testing.T) {
	svc := newTestService(t)
	err := svc.Update(context.Background(), env, "progress", record.Record{"name": "x"})
	assert.ErrorContains(t, err, "missing key attribute onboard_id")
}

func TestDelete(t *testing.T) {
	svc := newTestService(t, progress("OB-1", "0901", "d1"))
	ctx := context.Background()

	req := deletion.Request{
		Environment:  env,
		Table:        "progress",
		PrimaryKey:   "onboard_id",
		PrimaryValue: "OB-1",
	}

	bad := req
	bad.ConfirmationToken = deletion.Token(env, "progress", "OB-2")
	assert.ErrorIs(t, svc.Delete(ctx, bad), deletion.ErrInvalidToken)

	wrongKey := req
	wrongKey.PrimaryKey = "phone_number"
	wrongKey.ConfirmationToken = deletion.Token(env, "progress", "OB-1")
	assert.ErrorIs(t, svc.Delete(ctx, wrongKey), ErrPrimaryKeyMismatch)

	req.ConfirmationToken = deletion.Token(env, "progress", "OB-1")
	require.NoError(t, svc.Delete(ctx, req))

	items, err := svc.Execute(ctx, Params{Environment: env, Table: "progress", Values: map[string]string{"onboard_id": "OB-1"}})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDelete_MissingFields(t *testing.T) {
	svc := newTestService(t)
	err := svc.Delete(context.Background(), deletion.Request{Environment: env, Table: "progress"})
	assert.ErrorContains(t, err, "missing required fields")
}

func TestConvert(t *testing.T) {
	item := map[string]types.AttributeValue{
		"s":   &types.AttributeValueMemberS{Value: "x"},
		"n":   &types.AttributeValueMemberN{Value: "1.50"},
		"ss":  &types.AttributeValueMemberSS{Value: []string{"a"}},
		"ns":  &types.AttributeValueMemberNS{Value: []string{"7"}},
		"b":   &types.AttributeValueMemberB{Value: []byte("hi")},
		"nul": &types.AttributeValueMemberNULL{Value: true},
		"m": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"l": &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberN{Value: "3"}}},
		}},
	}

	r, err := ToRecord(item)
	require.NoError(t, err)
	assert.Equal(t, record.Record{
		"s":   "x",
		"n":   json.Number("1.50"),
		"ss":  []any{"a"},
		"ns":  []any{json.Number("7")},
		"b":   "aGk=",
		"nul": nil,
		"m":   map[string]any{"l": []any{json.Number("3")}},
	}, r)

	back, err := FromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1.50"}, back["n"])
	assert.Equal(t, &types.AttributeValueMemberNULL{Value: true}, back["nul"])
}
