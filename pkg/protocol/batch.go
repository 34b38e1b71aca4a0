package protocol

import (
	"bytes"
	"encoding/json"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
)

// BatchEntry is one position of a parsed batch. Exactly one of Message
// and Err is set: a malformed entry carries the per-position error (to
// be answered with a null-id error response) without disturbing its
// siblings.
type BatchEntry struct {
	Message Message
	Err     protoerrors.ProtocolError
}

// IsBatch reports whether raw input is array-shaped and should be fed
// to ParseBatch instead of ParseMessage.
func IsBatch(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// ParseBatch decodes an ordered batch. Each entry parses independently;
// a malformed entry yields a BatchEntry with Err set while well-formed
// siblings parse normally. An empty batch is itself an invalid-request
// condition.
func (c *Codec) ParseBatch(data []byte) ([]BatchEntry, error) {
	if len(data) > c.config.MaxMessageSize {
		c.parseErrors.Add(1)
		return nil, protoerrors.NewMessageTooLargeError(len(data), c.config.MaxMessageSize)
	}

	var rawEntries []json.RawMessage
	if err := json.Unmarshal(data, &rawEntries); err != nil {
		c.parseErrors.Add(1)
		return nil, protoerrors.NewParseError(err.Error())
	}
	if len(rawEntries) == 0 {
		c.parseErrors.Add(1)
		return nil, protoerrors.NewInvalidRequestError("empty batch")
	}

	entries := make([]BatchEntry, len(rawEntries))
	for i, raw := range rawEntries {
		msg, err := c.ParseMessage(raw)
		if err != nil {
			perr, _ := protoerrors.AsProtocolError(err)
			entries[i] = BatchEntry{Err: perr}
			continue
		}
		entries[i] = BatchEntry{Message: msg}
	}
	return entries, nil
}

// SerializeBatch re-emits messages as a JSON array in their original
// order.
func (c *Codec) SerializeBatch(messages []Message) ([]byte, error) {
	if len(messages) == 0 {
		return nil, protoerrors.NewInvalidRequestError("empty batch")
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, msg := range messages {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := c.SerializeMessage(msg)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
