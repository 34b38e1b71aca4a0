package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
)

func TestParseMessageClassification(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	tests := []struct {
		name string
		data string
		kind MessageKind
	}{
		{
			name: "request with number id",
			data: `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
			kind: KindRequest,
		},
		{
			name: "request with string id and params",
			data: `{"jsonrpc":"2.0","id":"r-1","method":"tools/call","params":{"name":"echo"}}`,
			kind: KindRequest,
		},
		{
			name: "notification",
			data: `{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			kind: KindNotification,
		},
		{
			name: "response",
			data: `{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`,
			kind: KindResponse,
		},
		{
			name: "response with null result",
			data: `{"jsonrpc":"2.0","id":1,"result":null}`,
			kind: KindResponse,
		},
		{
			name: "error response",
			data: `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`,
			kind: KindErrorResponse,
		},
		{
			name: "error response with null id",
			data: `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`,
			kind: KindErrorResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := codec.ParseMessage([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, msg.Kind())
		})
	}
}

func TestParseMessageRejections(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	tests := []struct {
		name string
		data string
		code int
	}{
		{"not json", `{`, protoerrors.CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, protoerrors.CodeInvalidRequest},
		{"missing version", `{"id":1,"method":"ping"}`, protoerrors.CodeInvalidRequest},
		{"empty method", `{"jsonrpc":"2.0","id":1,"method":""}`, protoerrors.CodeInvalidRequest},
		{"non-string method", `{"jsonrpc":"2.0","id":1,"method":42}`, protoerrors.CodeInvalidRequest},
		{"null request id", `{"jsonrpc":"2.0","id":null,"method":"ping"}`, protoerrors.CodeInvalidRequest},
		{"object id", `{"jsonrpc":"2.0","id":{"a":1},"method":"ping"}`, protoerrors.CodeInvalidRequest},
		{"method with result", `{"jsonrpc":"2.0","id":1,"method":"ping","result":{}}`, protoerrors.CodeInvalidRequest},
		{"neither method nor id", `{"jsonrpc":"2.0"}`, protoerrors.CodeInvalidRequest},
		{"result and error", `{"jsonrpc":"2.0","id":1,"result":{},"error":{"code":1,"message":"x"}}`, protoerrors.CodeInvalidRequest},
		{"neither result nor error", `{"jsonrpc":"2.0","id":1}`, protoerrors.CodeInvalidRequest},
		{"error without code", `{"jsonrpc":"2.0","id":1,"error":{"message":"x"}}`, protoerrors.CodeInvalidRequest},
		{"non-integer error code", `{"jsonrpc":"2.0","id":1,"error":{"code":"x","message":"x"}}`, protoerrors.CodeInvalidRequest},
		{"scalar params", `{"jsonrpc":"2.0","id":1,"method":"ping","params":42}`, protoerrors.CodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ParseMessage([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, protoerrors.IsCode(err, tt.code),
				"expected code %d, got %v", tt.code, err)
		})
	}
}

func TestLenientModeTolerance(t *testing.T) {
	codec := NewCodec(LenientCodecConfig())

	// A wrong or missing version parses; the envelope keeps what it saw.
	msg, err := codec.ParseMessage([]byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	req, ok := msg.(*Request)
	require.True(t, ok)
	assert.Equal(t, "1.0", req.JSONRPC)

	// A null request id parses leniently.
	msg, err = codec.ParseMessage([]byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	require.NoError(t, err)
	req, ok = msg.(*Request)
	require.True(t, ok)
	assert.True(t, req.ID.IsNull())

	// Scalar params pass through.
	_, err = codec.ParseMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping","params":42}`))
	assert.NoError(t, err)
}

func TestStrictExtensionFields(t *testing.T) {
	// Default strict config tolerates unknown fields.
	tolerant := NewCodec(DefaultCodecConfig())
	_, err := tolerant.ParseMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping","vendor":"x"}`))
	assert.NoError(t, err)

	// The fully strict config rejects them.
	strict := NewCodec(StrictCodecConfig())
	_, err = strict.ParseMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping","vendor":"x"}`))
	require.Error(t, err)
	assert.True(t, protoerrors.IsCode(err, protoerrors.CodeInvalidRequest))
}

func TestMessageSizeLimit(t *testing.T) {
	codec := NewCodec(CodecConfig{StrictMode: true, AllowExtensions: true, MaxMessageSize: 64})

	small := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	_, err := codec.ParseMessage(small)
	assert.NoError(t, err)

	big := append([]byte(`{"jsonrpc":"2.0","id":1,"method":"`), bytes.Repeat([]byte("a"), 100)...)
	big = append(big, []byte(`"}`)...)
	_, err = codec.ParseMessage(big)
	require.Error(t, err)
	assert.True(t, protoerrors.IsCode(err, protoerrors.CodeMessageTooLarge))
}

func TestSerializeParseRoundTrip(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	req, err := NewRequest(StringID("round-1"), "resources/read",
		map[string]string{"uri": "file:///tmp/x"})
	require.NoError(t, err)

	data, err := codec.SerializeRequest(req)
	require.NoError(t, err)

	msg, err := codec.ParseMessage(data)
	require.NoError(t, err)

	parsed, ok := msg.(*Request)
	require.True(t, ok)
	assert.True(t, parsed.ID.Equal(req.ID))
	assert.Equal(t, req.Method, parsed.Method)
	assert.JSONEq(t, string(req.Params), string(parsed.Params))
}

func TestSerializeError(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	data, err := codec.SerializeError(RequestID{}, protoerrors.CodeParseError, "Parse error", nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":null`)
	assert.Contains(t, string(data), `-32700`)

	msg, err := codec.ParseMessage(data)
	require.NoError(t, err)
	errResp, ok := msg.(*ErrorResponse)
	require.True(t, ok)
	assert.True(t, errResp.ID.IsNull())
	assert.Equal(t, protoerrors.CodeParseError, errResp.Err.Code)
}

func TestSerializeRejectsInvalidUnderStrictMode(t *testing.T) {
	strict := NewCodec(DefaultCodecConfig())
	lenient := NewCodec(LenientCodecConfig())

	bad := &Request{Envelope: Envelope{JSONRPC: "1.0"}, ID: NumberID(1), Method: "ping"}
	_, err := strict.SerializeMessage(bad)
	assert.Error(t, err)

	_, err = lenient.SerializeMessage(bad)
	assert.NoError(t, err)
}

func TestCodecCounters(t *testing.T) {
	codec := NewCodec(DefaultCodecConfig())

	_, err := codec.ParseMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	require.NoError(t, err)
	_, err = codec.ParseMessage([]byte(`not json`))
	require.Error(t, err)

	assert.Equal(t, uint64(1), codec.MessagesParsed())
	assert.Equal(t, uint64(1), codec.ParseErrors())
}
