package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b RequestID
		want bool
	}{
		{"same string", StringID("abc"), StringID("abc"), true},
		{"different string", StringID("abc"), StringID("xyz"), false},
		{"same number", NumberID(42), NumberID(42), true},
		{"different number", NumberID(42), NumberID(43), false},
		{"number vs equivalent string", NumberID(1), StringID("1"), false},
		{"null vs null", NullID(), NullID(), true},
		{"null vs absent", NullID(), RequestID{}, false},
		{"absent vs absent", RequestID{}, RequestID{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestRequestIDJSON(t *testing.T) {
	tests := []struct {
		name string
		id   RequestID
		wire string
	}{
		{"string", StringID("req-1"), `"req-1"`},
		{"number", NumberID(7), `7`},
		{"null", NullID(), `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, string(data))

			var parsed RequestID
			require.NoError(t, json.Unmarshal(data, &parsed))
			assert.True(t, parsed.Equal(tt.id) || (tt.id.IsNull() && parsed.IsNull()))
		})
	}
}

func TestRequestIDRejectsStructuredValues(t *testing.T) {
	var id RequestID
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestMessageValidate(t *testing.T) {
	req, err := NewRequest(NumberID(1), "tools/list", nil)
	require.NoError(t, err)
	assert.True(t, req.Validate())
	assert.Equal(t, KindRequest, req.Kind())

	// A request must carry a string or number identifier.
	badReq := &Request{Envelope: Envelope{JSONRPC: JSONRPCVersion}, ID: NullID(), Method: "x"}
	assert.False(t, badReq.Validate())

	n, err := NewNotification("notifications/initialized", nil)
	require.NoError(t, err)
	assert.True(t, n.Validate())
	assert.Equal(t, KindNotification, n.Kind())

	emptyMethod := &Notification{Envelope: Envelope{JSONRPC: JSONRPCVersion}}
	assert.False(t, emptyMethod.Validate())

	resp, err := NewResponse(StringID("a"), map[string]bool{"ok": true})
	require.NoError(t, err)
	assert.True(t, resp.Validate())

	wrongVersion := &Response{Envelope: Envelope{JSONRPC: "1.0"}, ID: NumberID(1), Result: json.RawMessage(`1`)}
	assert.False(t, wrongVersion.Validate())
}

func TestNewResponseNilResult(t *testing.T) {
	resp, err := NewResponse(NumberID(3), nil)
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result":null`)
	assert.True(t, resp.Validate())
}

func TestNewErrorResponseCollapsesAbsentID(t *testing.T) {
	resp, err := NewErrorResponse(RequestID{}, -32700, "Parse error", nil)
	require.NoError(t, err)
	assert.True(t, resp.ID.IsNull())

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":null`)
	assert.True(t, resp.Validate())
}

func TestErrorObjectError(t *testing.T) {
	obj := &ErrorObject{Code: -32601, Message: "Method not found"}
	assert.Contains(t, obj.Error(), "-32601")
	assert.Contains(t, obj.Error(), "Method not found")
}
