package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := map[string]interface{}{"name": "User", "fields": []interface{}{"a", "b"}}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, "User", out["name"])
}

func TestDecoderUsesNumber(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"n": 9007199254740993}`))

	var out map[string]interface{}
	require.NoError(t, dec.Decode(&out))

	n, ok := out["n"].(interface{ String() string })
	require.True(t, ok, "expected json.Number, got %T", out["n"])
	assert.Equal(t, "9007199254740993", n.String())
}

func TestMarshalToWriterNoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalToWriter(&buf, map[string]string{"q": "a<b>c"}))
	assert.Contains(t, buf.String(), "a<b>c")
}

func TestBufferPoolReuse(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("scratch")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Zero(t, again.Len())
	PutBuffer(again)
}
