package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

var decoder = attributevalue.NewDecoder(func(o *attributevalue.DecoderOptions) {
	o.UseNumber = true
})

// ToRecord converts a DynamoDB item into a record. Numbers become
// json.Number so their exact text survives an edit; sets become lists and
// binary values become base64 strings.
func ToRecord(item map[string]types.AttributeValue) (record.Record, error) {
	var m map[string]any
	if err := decoder.Decode(&types.AttributeValueMemberM{Value: item}, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	out := make(record.Record, len(m))
	for k, v := range m {
		out[k] = fromDynamo(v)
	}
	return out, nil
}

// ToRecords converts a page of items.
func ToRecords(items []map[string]types.AttributeValue) ([]record.Record, error) {
	out := make([]record.Record, 0, len(items))
	for _, item := range items {
		r, err := ToRecord(item)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FromRecord converts a record into a DynamoDB item.
func FromRecord(r record.Record) (map[string]types.AttributeValue, error) {
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = toDynamo(v)
	}
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return nil, fmt.Errorf("marshal item: %w", err)
	}
	return item, nil
}

func fromDynamo(v any) any {
	switch v := v.(type) {
	case attributevalue.Number:
		return json.Number(v)
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = fromDynamo(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = fromDynamo(e)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out
	case []attributevalue.Number:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = json.Number(e)
		}
		return out
	case []float64:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out
	case [][]byte:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = base64.StdEncoding.EncodeToString(e)
		}
		return out
	default:
		return v
	}
}

func toDynamo(v any) any {
	switch v := v.(type) {
	case json.Number:
		return attributevalue.Number(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = toDynamo(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = toDynamo(e)
		}
		return out
	default:
		return v
	}
}
