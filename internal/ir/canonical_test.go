package ir

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"column name", "ca", `"ca"`},
		{"empty string", "", `""`},
		{"limit", int64(10), "10"},
		{"plain int", 42, "42"},
		{"negative literal", int64(-3), "-3"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"ascending flag", true, "true"},
		{"empty list", []any{}, "[]"},
		{"empty node", map[string]any{}, "{}"},
		{"filter columns keep order", []string{"cb", "ca"}, `["cb","ca"]`},
		{"mixed list", []any{int64(1), "INDEX", false}, `[1,"INDEX",false]`},
		{"schema columns sorted", map[string]string{"cc": "long", "ca": "double"}, `{"ca":"double","cc":"long"}`},
		{
			name: "nested node sorted",
			input: map[string]any{
				"op": "&&",
				"args": []any{
					map[string]any{"column": "cb", "value": "1", "op": "=="},
				},
			},
			want: `{"args":[{"column":"cb","op":"==","value":"1"}],"op":"&&"}`,
		},
		{"no html escaping", "a < b && c > d", `"a < b && c > d"`},
		{"standard escapes", "a\n\t\"b\\", `"a\n\t\"b\\"`},
		{"line separators literal", "x\u2028y\u2029z", "\"x\u2028y\u2029z\""},
		{"escaped separator text kept", `path\u2028`, `"path\\u2028"`},
		{"mixed separator text", "lit \\u2028 real \u2028", "\"lit \\\\u2028 real \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"null", nil, "null"},
		{"float64", 3.14, "float"},
		{"float32", float32(1.5), "float"},
		{"struct", struct{}{}, "unsupported type"},
		{"nested float path", map[string]any{"k": []any{1.5}}, `object["k"]: array[0]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalCanonicalKeyOrderIsUTF16(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, below U+E000.
	obj := map[string]any{
		"\uE000":     int64(1),
		"\U00010000": int64(2),
	}

	got, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(got))
}

func TestMarshalCanonicalNormalizesNFC(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	a, err := MarshalCanonical(map[string]any{composed: decomposed})
	require.NoError(t, err)
	b, err := MarshalCanonical(map[string]any{decomposed: composed})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMarshalCanonicalIgnoresInsertionOrder(t *testing.T) {
	build := func(cols ...string) map[string]any {
		m := make(map[string]any)
		for _, c := range cols {
			m[c] = map[string]any{"type": "double", "width": int64(len(c))}
		}
		return m
	}

	a, err := MarshalCanonical(build("zeta", "alpha", "mid"))
	require.NoError(t, err)
	b, err := MarshalCanonical(build("mid", "zeta", "alpha"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, `{"alpha":{"type":"double","width":5},"mid":{"type":"double","width":3},"zeta":{"type":"double","width":4}}`, string(a))
	assert.NotContains(t, string(a), " ")
}

// FuzzMarshalCanonicalStringRoundTrip checks that canonical strings decode
// back to the NFC form of their input.
func FuzzMarshalCanonicalStringRoundTrip(f *testing.F) {
	f.Add("ta.csv")
	f.Add("( cb == 1 ) && ( ca == 2 )")
	f.Add("cafe\u0301")
	f.Add("a\u2028b\u2029c")
	f.Add(`back\slash \u2028`)

	f.Fuzz(func(t *testing.T, s string) {
		if !utf8.ValidString(s) {
			t.Skip()
		}

		canonical, err := MarshalCanonical(s)
		require.NoError(t, err)

		var decoded string
		require.NoError(t, json.Unmarshal(canonical, &decoded))
		assert.Equal(t, norm.NFC.String(s), decoded)
	})
}
