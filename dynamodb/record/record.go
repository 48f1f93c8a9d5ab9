// Package record defines the value model shared by the explorer: records of
// unknown shape decoded from DynamoDB items or user-edited JSON text.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Record is a single table item keyed by attribute name.
type Record = map[string]any

// Kind tags the JSON value union a Record can hold.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "array"
	case KindMap:
		return "object"
	default:
		return "unknown"
	}
}

// KindOf classifies v. Values outside the JSON union (which cannot come from
// decoded JSON) are reported as strings and rendered with fmt.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number, float64, float32, int, int32, int64, uint, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindList
	case map[string]any:
		return KindMap
	default:
		return KindString
	}
}

// Decode parses a single JSON document, keeping numbers as json.Number so that
// large integers survive a round trip.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid character after top-level value")
	}
	return v, nil
}

// DecodeRecord parses data and requires a JSON object at the top level.
func DecodeRecord(data []byte) (Record, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	r, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", KindOf(v))
	}
	return r, nil
}

// NumberText returns the canonical decimal text of a number value.
func NumberText(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	default:
		return fmt.Sprint(n)
	}
}

// ScalarText formats a scalar for display without quoting strings.
func ScalarText(v any) string {
	switch KindOf(v) {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.(bool))
	case KindNumber:
		return NumberText(v)
	case KindString:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// Equal reports structural equality. Numbers compare by their numeric value
// so that json.Number("7") equals float64(7).
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindNumber:
		if NumberText(a) == NumberText(b) {
			return true
		}
		fa, errA := strconv.ParseFloat(NumberText(a), 64)
		fb, errB := strconv.ParseFloat(NumberText(b), 64)
		return errA == nil && errB == nil && fa == fb
	case KindString:
		return ScalarText(a) == ScalarText(b)
	case KindList:
		la, lb := a.([]any), b.([]any)
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	case KindMap:
		ma, mb := a.(map[string]any), b.(map[string]any)
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalIndent encodes v with two-space indentation and without HTML
// escaping, which would otherwise mangle values containing <, > or &.
func MarshalIndent(v any) (string, error) {
	return marshal(v, "  ")
}

// MarshalCompact encodes v on a single line.
func MarshalCompact(v any) (string, error) {
	return marshal(v, "")
}

func marshal(v any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
