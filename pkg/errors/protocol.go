package errors

import "fmt"

// Factory helpers covering the engine's error taxonomy. Each returns a
// ProtocolError pre-classified by its code.

// NewParseError creates an error for malformed JSON input.
func NewParseError(detail string) ProtocolError {
	return New(CodeParseError, "Parse error").WithDetail(detail)
}

// NewMessageTooLargeError creates an error for input exceeding the
// configured size limit. The limit and actual size travel in the data
// field so the peer can adjust.
func NewMessageTooLargeError(size, limit int) ProtocolError {
	return New(CodeMessageTooLarge, "Message too large").WithData(map[string]int{
		"size":  size,
		"limit": limit,
	})
}

// NewInvalidRequestError creates an error for a structurally invalid
// request object.
func NewInvalidRequestError(detail string) ProtocolError {
	return New(CodeInvalidRequest, "Invalid Request").WithDetail(detail)
}

// NewMethodNotFoundError creates an error for an unknown method.
func NewMethodNotFoundError(method string) ProtocolError {
	return Newf(CodeMethodNotFound, "Method not found: %s", method)
}

// NewInvalidParamsError creates an error for invalid method parameters.
func NewInvalidParamsError(detail string) ProtocolError {
	return New(CodeInvalidParams, "Invalid params").WithDetail(detail)
}

// NewInternalError creates an error for an internal engine failure.
func NewInternalError(cause error) ProtocolError {
	return Wrap(cause, CodeInternalError, "Internal error")
}

// NewServerNotReadyError creates an error for a request arriving before
// the session handshake completed.
func NewServerNotReadyError(state string) ProtocolError {
	return Newf(CodeServerNotReady, "Server not ready to handle requests (state: %s)", state)
}

// NewVersionMismatchError creates a negotiation error for an
// unsupported protocol version. The supported set travels in the data
// field.
func NewVersionMismatchError(requested string, supported []string) ProtocolError {
	return Newf(CodeVersionMismatch, "Unsupported protocol version: %s", requested).
		WithData(map[string]interface{}{
			"requested": requested,
			"supported": supported,
		})
}

// NewInvalidSequenceError creates a sequencing error for an event that
// is illegal in the current session state.
func NewInvalidSequenceError(event, state string) ProtocolError {
	return Newf(CodeInvalidSequence, "Event %s not allowed in state %s", event, state)
}

// NewApplicationError carries an error produced by the dispatch layer
// through the engine without interpretation.
func NewApplicationError(code int, message string, data interface{}) ProtocolError {
	err := &baseError{
		code:     code,
		message:  message,
		category: CategoryApplication,
	}
	if data != nil {
		err.data = data
	}
	return err
}

// FromRPC reconstructs a ProtocolError from wire-level error fields.
func FromRPC(code int, message string, data interface{}) ProtocolError {
	if message == "" {
		message = fmt.Sprintf("error %d", code)
	}
	err := &baseError{
		code:     code,
		message:  message,
		category: GetCodeCategory(code),
	}
	if data != nil {
		err.data = data
	}
	return err
}
