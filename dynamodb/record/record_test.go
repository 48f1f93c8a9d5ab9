package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   any
		want Kind
	}{
		{nil, KindNull},
		{false, KindBool},
		{json.Number("1"), KindNumber},
		{1.5, KindNumber},
		{int64(3), KindNumber},
		{"s", KindString},
		{[]any{}, KindList},
		{map[string]any{}, KindMap},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.in), "%#v", tt.in)
	}
}

func TestDecode_PreservesLargeIntegers(t *testing.T) {
	v, err := Decode([]byte(`{"phone": 84901234567890123}`))
	require.NoError(t, err)

	out, err := MarshalCompact(v)
	require.NoError(t, err)
	assert.Equal(t, `{"phone":84901234567890123}`, out)
}

func TestDecode_RejectsTrailingData(t *testing.T) {
	_, err := Decode([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)

	_, err = Decode([]byte("{\"a\":1}\n  "))
	assert.NoError(t, err)
}

func TestDecodeRecord_RequiresObject(t *testing.T) {
	_, err := DecodeRecord([]byte(`[1,2]`))
	assert.ErrorContains(t, err, "expected a JSON object")

	r, err := DecodeRecord([]byte(`{"id":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "x", r["id"])
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(json.Number("7"), float64(7)))
	assert.True(t, Equal(map[string]any{"a": []any{nil, true}}, map[string]any{"a": []any{nil, true}}))
	assert.False(t, Equal(map[string]any{"a": 1.0}, map[string]any{"b": 1.0}))
	assert.False(t, Equal("7", json.Number("7")))
	assert.False(t, Equal([]any{1.0}, []any{1.0, 2.0}))
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCompact(map[string]any{"html": "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>&</b>"}`, out)

	out, err = MarshalIndent(map[string]any{"a": []any{json.Number("1")}})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}", out)
}

func TestScalarText(t *testing.T) {
	assert.Equal(t, "null", ScalarText(nil))
	assert.Equal(t, "true", ScalarText(true))
	assert.Equal(t, "12.5", ScalarText(12.5))
	assert.Equal(t, "abc", ScalarText("abc"))
}
