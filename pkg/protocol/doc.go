// Package protocol implements the JSON-RPC 2.0 message model and codec
// underlying the MCP wire protocol.
//
// Messages form a tagged sum over the four envelope shapes (Request,
// Notification, Response, ErrorResponse), discriminated entirely by the
// presence and type of the identifier and of the method versus
// result/error fields. The Codec parses raw bytes into that sum under
// strict or lenient compliance rules, handles ordered batches with
// per-entry error isolation, and serializes messages back to
// self-contained JSON texts.
//
// Parsing and serialization are pure: each call allocates fresh output
// and shares no mutable state, so one Codec serves any number of
// goroutines without synchronization.
package protocol
