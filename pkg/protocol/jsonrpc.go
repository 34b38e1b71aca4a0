package protocol

import (
	"bytes"
	"encoding/json"
	"sync/atomic"

	protoerrors "github.com/mcpwire/mcpwire/pkg/errors"
)

// CodecConfig controls envelope compliance checking.
type CodecConfig struct {
	// StrictMode enforces the "2.0" version literal and full envelope
	// legality. Lenient mode tolerates version mismatches and
	// classifies best-effort.
	StrictMode bool

	// AllowExtensions permits unknown top-level fields under strict
	// mode. Lenient mode never rejects them.
	AllowExtensions bool

	// MaxMessageSize is the input size ceiling in bytes, checked
	// before structural parsing.
	MaxMessageSize int
}

// DefaultCodecConfig returns the configuration used by most servers:
// strict compliance with extension fields tolerated.
func DefaultCodecConfig() CodecConfig {
	return CodecConfig{
		StrictMode:      true,
		AllowExtensions: true,
		MaxMessageSize:  1024 * 1024,
	}
}

// StrictCodecConfig returns a configuration that rejects anything the
// JSON-RPC 2.0 specification does not name.
func StrictCodecConfig() CodecConfig {
	return CodecConfig{
		StrictMode:      true,
		AllowExtensions: false,
		MaxMessageSize:  512 * 1024,
	}
}

// LenientCodecConfig returns a configuration for interoperating with
// noncompliant peers.
func LenientCodecConfig() CodecConfig {
	return CodecConfig{
		StrictMode:      false,
		AllowExtensions: true,
		MaxMessageSize:  2 * 1024 * 1024,
	}
}

// Codec parses raw bytes into messages and serializes messages back to
// bytes. Parse and serialize allocate fresh outputs and share no
// mutable state beyond atomic counters, so a single Codec may be used
// concurrently from any number of goroutines.
type Codec struct {
	config CodecConfig

	messagesParsed atomic.Uint64
	parseErrors    atomic.Uint64
}

// NewCodec creates a codec with the given configuration.
func NewCodec(config CodecConfig) *Codec {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultCodecConfig().MaxMessageSize
	}
	return &Codec{config: config}
}

// Config returns the codec's configuration.
func (c *Codec) Config() CodecConfig { return c.config }

// MessagesParsed returns the number of successfully parsed messages.
func (c *Codec) MessagesParsed() uint64 { return c.messagesParsed.Load() }

// ParseErrors returns the number of inputs rejected so far.
func (c *Codec) ParseErrors() uint64 { return c.parseErrors.Load() }

// envelope field names; anything else is an extension.
var envelopeFields = map[string]bool{
	"jsonrpc": true,
	"id":      true,
	"method":  true,
	"params":  true,
	"result":  true,
	"error":   true,
}

// ParseMessage decodes a single message. The returned error is always a
// ProtocolError carrying a JSON-RPC code suitable for an error
// response.
func (c *Codec) ParseMessage(data []byte) (Message, error) {
	msg, err := c.parseMessage(data)
	if err != nil {
		c.parseErrors.Add(1)
		return nil, err
	}
	c.messagesParsed.Add(1)
	return msg, nil
}

func (c *Codec) parseMessage(data []byte) (Message, error) {
	if len(data) > c.config.MaxMessageSize {
		return nil, protoerrors.NewMessageTooLargeError(len(data), c.config.MaxMessageSize)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, protoerrors.NewParseError(err.Error())
	}

	return c.classify(fields)
}

// classify applies the discriminant rule: method plus identifier is a
// Request, method without identifier is a Notification, identifier plus
// exactly one of result/error is a Response or ErrorResponse.
func (c *Codec) classify(fields map[string]json.RawMessage) (Message, error) {
	version, err := c.checkEnvelope(fields)
	if err != nil {
		return nil, err
	}

	rawMethod, hasMethod := fields["method"]
	rawID, hasID := fields["id"]
	rawResult, hasResult := fields["result"]
	rawError, hasError := fields["error"]

	var id RequestID
	if hasID {
		id, err = parseRequestID(rawID)
		if err != nil {
			return nil, protoerrors.NewInvalidRequestError(err.Error())
		}
	}

	if hasMethod {
		var method string
		if err := json.Unmarshal(rawMethod, &method); err != nil || method == "" {
			return nil, protoerrors.NewInvalidRequestError("method must be a non-empty string")
		}
		if c.config.StrictMode && (hasResult || hasError) {
			return nil, protoerrors.NewInvalidRequestError("request must not carry result or error")
		}
		params, err := c.checkParams(fields)
		if err != nil {
			return nil, err
		}

		if !hasID {
			return &Notification{
				Envelope: Envelope{JSONRPC: version},
				Method:   method,
				Params:   params,
			}, nil
		}
		if c.config.StrictMode && id.IsNull() {
			return nil, protoerrors.NewInvalidRequestError("request id must not be null")
		}
		return &Request{
			Envelope: Envelope{JSONRPC: version},
			ID:       id,
			Method:   method,
			Params:   params,
		}, nil
	}

	// No method: must be a response shape.
	if !hasID {
		return nil, protoerrors.NewInvalidRequestError("message has neither method nor id")
	}
	if hasResult && hasError {
		return nil, protoerrors.NewInvalidRequestError("response carries both result and error")
	}
	if !hasResult && !hasError {
		return nil, protoerrors.NewInvalidRequestError("response carries neither result nor error")
	}

	if hasError {
		errObj, err := parseErrorObject(rawError)
		if err != nil {
			return nil, err
		}
		return &ErrorResponse{
			Envelope: Envelope{JSONRPC: version},
			ID:       id,
			Err:      errObj,
		}, nil
	}

	return &Response{
		Envelope: Envelope{JSONRPC: version},
		ID:       id,
		Result:   rawResult,
	}, nil
}

// checkEnvelope validates the version literal and, under strict mode
// without extensions, rejects unknown top-level fields.
func (c *Codec) checkEnvelope(fields map[string]json.RawMessage) (string, error) {
	var version string
	if rawVersion, ok := fields["jsonrpc"]; ok {
		// A non-string version is tolerated in lenient mode; the
		// version simply stays empty.
		_ = json.Unmarshal(rawVersion, &version)
	}

	if c.config.StrictMode {
		if version != JSONRPCVersion {
			return "", protoerrors.NewInvalidRequestError("jsonrpc version must be \"2.0\"").
				WithData(map[string]string{"received": version})
		}
		if !c.config.AllowExtensions {
			for name := range fields {
				if !envelopeFields[name] {
					return "", protoerrors.NewInvalidRequestError("unknown field: " + name)
				}
			}
		}
	}

	return version, nil
}

// checkParams enforces object- or array-shaped params under strict
// mode; lenient mode passes anything through.
func (c *Codec) checkParams(fields map[string]json.RawMessage) (json.RawMessage, error) {
	raw, ok := fields["params"]
	if !ok {
		return nil, nil
	}
	if c.config.StrictMode {
		trimmed := bytes.TrimLeft(raw, " \t\r\n")
		if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
			return nil, protoerrors.NewInvalidParamsError("params must be an object or array")
		}
	}
	return raw, nil
}

func parseErrorObject(raw json.RawMessage) (*ErrorObject, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, protoerrors.NewInvalidRequestError("error must be an object")
	}
	rawCode, hasCode := probe["code"]
	rawMessage, hasMessage := probe["message"]
	if !hasCode || !hasMessage {
		return nil, protoerrors.NewInvalidRequestError("error object requires code and message")
	}

	var obj ErrorObject
	if err := json.Unmarshal(rawCode, &obj.Code); err != nil {
		return nil, protoerrors.NewInvalidRequestError("error code must be an integer")
	}
	if err := json.Unmarshal(rawMessage, &obj.Message); err != nil {
		return nil, protoerrors.NewInvalidRequestError("error message must be a string")
	}
	if rawData, ok := probe["data"]; ok {
		obj.Data = rawData
	}
	return &obj, nil
}

// SerializeMessage produces the complete wire form of a message. The
// returned slice is freshly allocated and owned by the caller. Under
// strict mode the message must validate first.
func (c *Codec) SerializeMessage(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, protoerrors.NewInternalError(nil).WithDetail("nil message")
	}
	if c.config.StrictMode && !msg.Validate() {
		return nil, protoerrors.NewInvalidRequestError("message failed validation").
			WithData(map[string]string{"kind": msg.Kind().String()})
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, protoerrors.NewInternalError(err)
	}
	return data, nil
}

// SerializeRequest serializes a request.
func (c *Codec) SerializeRequest(req *Request) ([]byte, error) {
	return c.SerializeMessage(req)
}

// SerializeResponse serializes a success response.
func (c *Codec) SerializeResponse(resp *Response) ([]byte, error) {
	return c.SerializeMessage(resp)
}

// SerializeError builds and serializes an error response in one step.
// An absent id is emitted as explicit null.
func (c *Codec) SerializeError(id RequestID, code int, message string, data interface{}) ([]byte, error) {
	resp, err := NewErrorResponse(id, code, message, data)
	if err != nil {
		return nil, protoerrors.NewInternalError(err)
	}
	return c.SerializeMessage(resp)
}
