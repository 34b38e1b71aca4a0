package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// JSONRPCVersion is the only envelope version this engine speaks
	JSONRPCVersion = "2.0"
)

// MessageKind discriminates the four JSON-RPC message shapes.
type MessageKind int

const (
	KindRequest MessageKind = iota
	KindNotification
	KindResponse
	KindErrorResponse
)

// String returns the name of a message kind.
func (k MessageKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	case KindResponse:
		return "response"
	case KindErrorResponse:
		return "error_response"
	default:
		return "unknown"
	}
}

// Message is the tagged sum over the four JSON-RPC message shapes.
// Only *Request, *Notification, *Response and *ErrorResponse implement
// it, so illegal field combinations (both result and error, a
// notification with an identifier) are unrepresentable.
type Message interface {
	// Kind returns the discriminant of this message.
	Kind() MessageKind

	// Validate reports whether the message satisfies the envelope
	// invariants: version literal, identifier legality, and the
	// result/error exclusivity rule.
	Validate() bool

	message()
}

// IDKind discriminates the legal identifier representations. Absent is
// distinct from an explicit JSON null: a parse-failure error response
// carries a null identifier, while a notification has none at all.
type IDKind int

const (
	IDAbsent IDKind = iota
	IDString
	IDNumber
	IDNull
)

// RequestID is a JSON-RPC identifier: a string, a number, an explicit
// null, or absent. Object- and array-shaped identifiers are rejected at
// the boundary. The zero value is the absent identifier.
type RequestID struct {
	kind IDKind
	str  string
	num  float64
}

// StringID constructs a string identifier.
func StringID(s string) RequestID {
	return RequestID{kind: IDString, str: s}
}

// NumberID constructs a numeric identifier.
func NumberID(n float64) RequestID {
	return RequestID{kind: IDNumber, num: n}
}

// NullID constructs an explicit null identifier.
func NullID() RequestID {
	return RequestID{kind: IDNull}
}

// IDKind returns the representation of the identifier.
func (id RequestID) IDKind() IDKind { return id.kind }

// IsAbsent reports whether no identifier was supplied.
func (id RequestID) IsAbsent() bool { return id.kind == IDAbsent }

// IsNull reports whether the identifier is an explicit JSON null.
func (id RequestID) IsNull() bool { return id.kind == IDNull }

// StringValue returns the string payload; meaningful only for IDString.
func (id RequestID) StringValue() string { return id.str }

// NumberValue returns the numeric payload; meaningful only for IDNumber.
func (id RequestID) NumberValue() float64 { return id.num }

// Equal reports whether two identifiers match. Both representation and
// value must agree: the number 1 never matches the string "1", and an
// explicit null matches only another explicit null.
func (id RequestID) Equal(other RequestID) bool {
	if id.kind != other.kind {
		return false
	}
	switch id.kind {
	case IDString:
		return id.str == other.str
	case IDNumber:
		return id.num == other.num
	case IDNull:
		return true
	default:
		// Two absent identifiers do not correlate anything.
		return false
	}
}

// String renders the identifier for logging and correlation keys.
func (id RequestID) String() string {
	switch id.kind {
	case IDString:
		return id.str
	case IDNumber:
		return strconv.FormatFloat(id.num, 'f', -1, 64)
	case IDNull:
		return "null"
	default:
		return ""
	}
}

// MarshalJSON emits the identifier's wire form. Absent identifiers
// marshal as null; shapes that must not carry an identifier omit the
// field instead of calling this.
func (id RequestID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case IDString:
		return json.Marshal(id.str)
	case IDNumber:
		return json.Marshal(id.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON parses an identifier, rejecting object- and
// array-shaped values.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	parsed, err := parseRequestID(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseRequestID(data []byte) (RequestID, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RequestID{}, fmt.Errorf("invalid id: %w", err)
	}
	switch v := raw.(type) {
	case nil:
		return NullID(), nil
	case string:
		return StringID(v), nil
	case float64:
		return NumberID(v), nil
	default:
		return RequestID{}, fmt.Errorf("id must be a string, number or null, got %T", raw)
	}
}

// Envelope carries the fixed JSON-RPC version field. It is embedded in
// every message shape so a leniently parsed message can retain the
// version string it actually carried.
type Envelope struct {
	JSONRPC string `json:"jsonrpc"`
}

// Request is a method invocation expecting a response.
type Request struct {
	Envelope
	ID     RequestID       `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewRequest creates a request. The params value, if any, is marshaled
// once here; the returned message owns the resulting bytes.
func NewRequest(id RequestID, method string, params interface{}) (*Request, error) {
	paramsJSON, err := marshalOptional(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return &Request{
		Envelope: Envelope{JSONRPC: JSONRPCVersion},
		ID:       id,
		Method:   method,
		Params:   paramsJSON,
	}, nil
}

func (r *Request) Kind() MessageKind { return KindRequest }
func (r *Request) message()          {}

// Validate checks the envelope literal, a non-empty method, and that
// the identifier is a string or number (never null or absent).
func (r *Request) Validate() bool {
	if r.JSONRPC != JSONRPCVersion || r.Method == "" {
		return false
	}
	return r.ID.kind == IDString || r.ID.kind == IDNumber
}

// Notification is a method invocation with no identifier and no
// response.
type Notification struct {
	Envelope
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// NewNotification creates a notification.
func NewNotification(method string, params interface{}) (*Notification, error) {
	paramsJSON, err := marshalOptional(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}
	return &Notification{
		Envelope: Envelope{JSONRPC: JSONRPCVersion},
		Method:   method,
		Params:   paramsJSON,
	}, nil
}

func (n *Notification) Kind() MessageKind { return KindNotification }
func (n *Notification) message()          {}

func (n *Notification) Validate() bool {
	return n.JSONRPC == JSONRPCVersion && n.Method != ""
}

// Response is a successful reply carrying a result. The result field is
// always emitted on the wire, even when the result value is null.
type Response struct {
	Envelope
	ID     RequestID       `json:"id"`
	Result json.RawMessage `json:"result"`
}

// NewResponse creates a success response echoing the request
// identifier. A nil result becomes an explicit JSON null so the wire
// form always carries exactly one of result/error.
func NewResponse(id RequestID, result interface{}) (*Response, error) {
	resultJSON, err := marshalOptional(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	if resultJSON == nil {
		resultJSON = json.RawMessage("null")
	}
	return &Response{
		Envelope: Envelope{JSONRPC: JSONRPCVersion},
		ID:       id,
		Result:   resultJSON,
	}, nil
}

func (r *Response) Kind() MessageKind { return KindResponse }
func (r *Response) message()          {}

func (r *Response) Validate() bool {
	if r.JSONRPC != JSONRPCVersion || r.Result == nil {
		return false
	}
	return r.ID.kind == IDString || r.ID.kind == IDNumber
}

// ErrorObject is the structured error payload of an error response.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *ErrorObject) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("jsonrpc: code %d, message: %s", e.Code, e.Message)
}

// ErrorResponse is a reply carrying a structured error. Its identifier
// may be an explicit null when the original request's identifier could
// not be determined (a parse failure).
type ErrorResponse struct {
	Envelope
	ID  RequestID    `json:"id"`
	Err *ErrorObject `json:"error"`
}

// NewErrorResponse creates an error response. An absent id collapses to
// an explicit null, per the JSON-RPC rule for undeterminable request
// identifiers.
func NewErrorResponse(id RequestID, code int, message string, data interface{}) (*ErrorResponse, error) {
	dataJSON, err := marshalOptional(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal error data: %w", err)
	}
	if id.IsAbsent() {
		id = NullID()
	}
	return &ErrorResponse{
		Envelope: Envelope{JSONRPC: JSONRPCVersion},
		ID:       id,
		Err: &ErrorObject{
			Code:    code,
			Message: message,
			Data:    dataJSON,
		},
	}, nil
}

func (e *ErrorResponse) Kind() MessageKind { return KindErrorResponse }
func (e *ErrorResponse) message()          {}

func (e *ErrorResponse) Validate() bool {
	if e.JSONRPC != JSONRPCVersion || e.Err == nil {
		return false
	}
	return e.ID.kind != IDAbsent
}

func marshalOptional(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
