package ddbstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Badger keys are laid out as
//
//	[table]\x00[partition key]\x00[sort key]
//
// where each key component is its type marker followed by its text, so a
// partition prefix scan returns one partition in sort key order.
const keySeparator byte = 0x00

func tablePrefix(table string) []byte {
	return append([]byte(table), keySeparator)
}

func partitionPrefix(table string, pk types.AttributeValue) ([]byte, error) {
	enc, err := encodeKeyValue(pk)
	if err != nil {
		return nil, fmt.Errorf("encode partition key: %w", err)
	}
	buf := bytes.NewBuffer(tablePrefix(table))
	buf.Write(enc)
	buf.WriteByte(keySeparator)
	return buf.Bytes(), nil
}

func encodeKey(table string, pk, sk types.AttributeValue) ([]byte, error) {
	prefix, err := partitionPrefix(table, pk)
	if err != nil {
		return nil, err
	}
	if sk == nil {
		return prefix, nil
	}
	enc, err := encodeKeyValue(sk)
	if err != nil {
		return nil, fmt.Errorf("encode sort key: %w", err)
	}
	return append(prefix, enc...), nil
}

func encodeKeyValue(av types.AttributeValue) ([]byte, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		if strings.IndexByte(v.Value, keySeparator) >= 0 {
			return nil, fmt.Errorf("key value contains a NUL byte")
		}
		return append([]byte{'S'}, v.Value...), nil
	case *types.AttributeValueMemberN:
		return append([]byte{'N'}, v.Value...), nil
	default:
		return nil, fmt.Errorf("unsupported key attribute type %T", av)
	}
}

// storedAV is the JSON form of an attribute value. Exactly one field is set.
type storedAV struct {
	S    *string              `json:"S,omitempty"`
	N    *string              `json:"N,omitempty"`
	B    []byte               `json:"B,omitempty"`
	BOOL *bool                `json:"BOOL,omitempty"`
	NULL bool                 `json:"NULL,omitempty"`
	SS   []string             `json:"SS,omitempty"`
	NS   []string             `json:"NS,omitempty"`
	BS   [][]byte             `json:"BS,omitempty"`
	L    []storedAV           `json:"L,omitempty"`
	M    map[string]storedAV  `json:"M,omitempty"`
	// EmptyL and EmptyM distinguish empty containers from absent fields.
	EmptyL bool `json:"EL,omitempty"`
	EmptyM bool `json:"EM,omitempty"`
}

// serializeItem encodes an item for storage.
func serializeItem(item map[string]types.AttributeValue) ([]byte, error) {
	out := make(map[string]storedAV, len(item))
	for k, v := range item {
		s, err := toStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		out[k] = s
	}
	return json.Marshal(out)
}

// deserializeItem decodes a stored item.
func deserializeItem(data []byte) (map[string]types.AttributeValue, error) {
	var stored map[string]storedAV
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	item := make(map[string]types.AttributeValue, len(stored))
	for k, v := range stored {
		item[k] = fromStored(v)
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedAV, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedAV{S: &v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedAV{N: &v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedAV{B: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedAV{BOOL: &v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedAV{NULL: true}, nil
	case *types.AttributeValueMemberSS:
		return storedAV{SS: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedAV{NS: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedAV{BS: v.Value}, nil
	case *types.AttributeValueMemberL:
		if len(v.Value) == 0 {
			return storedAV{EmptyL: true}, nil
		}
		l := make([]storedAV, len(v.Value))
		for i, e := range v.Value {
			s, err := toStored(e)
			if err != nil {
				return storedAV{}, err
			}
			l[i] = s
		}
		return storedAV{L: l}, nil
	case *types.AttributeValueMemberM:
		if len(v.Value) == 0 {
			return storedAV{EmptyM: true}, nil
		}
		m := make(map[string]storedAV, len(v.Value))
		for k, e := range v.Value {
			s, err := toStored(e)
			if err != nil {
				return storedAV{}, err
			}
			m[k] = s
		}
		return storedAV{M: m}, nil
	default:
		return storedAV{}, fmt.Errorf("unsupported attribute type %T", av)
	}
}

func fromStored(s storedAV) types.AttributeValue {
	switch {
	case s.S != nil:
		return &types.AttributeValueMemberS{Value: *s.S}
	case s.N != nil:
		return &types.AttributeValueMemberN{Value: *s.N}
	case s.B != nil:
		return &types.AttributeValueMemberB{Value: s.B}
	case s.BOOL != nil:
		return &types.AttributeValueMemberBOOL{Value: *s.BOOL}
	case s.SS != nil:
		return &types.AttributeValueMemberSS{Value: s.SS}
	case s.NS != nil:
		return &types.AttributeValueMemberNS{Value: s.NS}
	case s.BS != nil:
		return &types.AttributeValueMemberBS{Value: s.BS}
	case s.L != nil || s.EmptyL:
		l := make([]types.AttributeValue, len(s.L))
		for i, e := range s.L {
			l[i] = fromStored(e)
		}
		return &types.AttributeValueMemberL{Value: l}
	case s.M != nil || s.EmptyM:
		m := make(map[string]types.AttributeValue, len(s.M))
		for k, e := range s.M {
			m[k] = fromStored(e)
		}
		return &types.AttributeValueMemberM{Value: m}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}
