package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
)

func TestIsBatch(t *testing.T) {
	assert.True(t, IsBatch([]byte(`[{"jsonrpc":"2.0"}]`)))
	assert.True(t, IsBatch([]byte("  \n\t[1]")))
	assert.False(t, IsBatch([]byte(`{"jsonrpc":"2.0"}`)))
	assert.False(t, IsBatch([]byte("")))
}

func TestParseBatchIsolatesMalformedEntries(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	data := []byte(`[
		{"jsonrpc":"2.0","id":1,"method":"tools/list"},
		"garbage",
		{"jsonrpc":"2.0","method":"notifications/progress"},
		{"jsonrpc":"1.0","id":2,"method":"ping"}
	]`)

	entries, err := codec.ParseBatch(data)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	require.NotNil(t, entries[0].Message)
	assert.Equal(t, KindRequest, entries[0].Message.Kind())

	require.NotNil(t, entries[1].Err)
	assert.Equal(t, protoerrors.CodeParseError, entries[1].Err.Code())

	require.NotNil(t, entries[2].Message)
	assert.Equal(t, KindNotification, entries[2].Message.Kind())

	// Version enforcement applies per entry under strict mode.
	require.NotNil(t, entries[3].Err)
	assert.Equal(t, protoerrors.CodeInvalidRequest, entries[3].Err.Code())
}

func TestParseBatchEmpty(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	_, err := codec.ParseBatch([]byte(`[]`))
	require.Error(t, err)
	assert.True(t, protoerrors.IsCode(err, protoerrors.CodeInvalidRequest))
}

func TestParseBatchSizeLimit(t *testing.T) {
	codec := NewCodec(CodecConfig{StrictMode: true, AllowExtensions: true, MaxMessageSize: 16})

	_, err := codec.ParseBatch([]byte(`[{"jsonrpc":"2.0","id":1,"method":"ping"}]`))
	require.Error(t, err)
	assert.True(t, protoerrors.IsCode(err, protoerrors.CodeMessageTooLarge))
}

func TestSerializeBatchPreservesOrder(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	first, err := NewResponse(NumberID(1), map[string]bool{"ok": true})
	require.NoError(t, err)
	second, err := NewErrorResponse(NumberID(2), protoerrors.CodeMethodNotFound, "Method not found", nil)
	require.NoError(t, err)

	data, err := codec.SerializeBatch([]Message{first, second})
	require.NoError(t, err)

	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Contains(t, string(raw[0]), `"result"`)
	assert.Contains(t, string(raw[1]), `"error"`)

	_, err = codec.SerializeBatch(nil)
	assert.Error(t, err)
}
