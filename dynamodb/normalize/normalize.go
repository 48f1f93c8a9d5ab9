// Package normalize expands string attributes that hold serialized JSON
// objects or arrays into their structured form.
//
// Items written by other services frequently store nested documents as JSON
// text inside a plain S attribute. Normalizing an item replaces each such
// string with the parsed value, recursively, so the explorer can render and
// search the nested structure. Anything that fails to parse stays a string.
package normalize

import (
	"strings"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/record"
)

// MaxDepth bounds recursion. Values nested deeper are returned unchanged.
const MaxDepth = 32

// Value returns v with every string-encoded JSON object or array replaced by
// its parsed, normalized form. v is not modified.
func Value(v any) any {
	return value(v, 0)
}

// Record normalizes every attribute of r. All keys are preserved.
func Record(r record.Record) record.Record {
	if r == nil {
		return nil
	}
	return value(r, 0).(map[string]any)
}

// All normalizes each record of a result set, preserving order.
func All(records []record.Record) []record.Record {
	out := make([]record.Record, len(records))
	for i, r := range records {
		out[i] = Record(r)
	}
	return out
}

func value(v any, depth int) any {
	if depth > MaxDepth {
		return v
	}

	switch record.KindOf(v) {
	case record.KindMap:
		m := v.(map[string]any)
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = value(val, depth+1)
		}
		return out

	case record.KindList:
		l := v.([]any)
		out := make([]any, len(l))
		for i, val := range l {
			out[i] = value(val, depth+1)
		}
		return out

	case record.KindString:
		s, ok := v.(string)
		if !ok {
			return v
		}
		parsed, ok := decodeEmbedded(s)
		if !ok {
			return s
		}
		// The parsed container takes the string's place in the tree.
		return value(parsed, depth)

	case record.KindNull, record.KindBool, record.KindNumber:
		return v
	}
	return v
}

// LooksLikeJSON reports whether the trimmed string is wrapped in braces or
// brackets. It is a cheap filter, not a grammar check: "{not json}" passes.
func LooksLikeJSON(s string) bool {
	t := strings.TrimSpace(s)
	if len(t) < 2 {
		return false
	}
	return (t[0] == '{' && t[len(t)-1] == '}') || (t[0] == '[' && t[len(t)-1] == ']')
}

func decodeEmbedded(s string) (any, bool) {
	if !LooksLikeJSON(s) {
		return nil, false
	}
	parsed, err := record.Decode([]byte(strings.TrimSpace(s)))
	if err != nil {
		return nil, false
	}
	switch record.KindOf(parsed) {
	case record.KindMap, record.KindList:
		return parsed, true
	default:
		return nil, false
	}
}
