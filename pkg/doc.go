// Package pkg contains the components of the mcpwire protocol engine.
//
// The engine implements the wire layer of the Model Context Protocol
// (MCP): JSON-RPC 2.0 framing, session lifecycle management, and
// capability negotiation. It deliberately owns no transport and no tool
// implementations; a host embeds the engine, feeds it raw bytes, and
// registers handlers for the methods it serves.
//
// # Engine Usage
//
//	import (
//	    "context"
//
//	    "github.com/mcpwire/mcpwire/pkg/engine"
//	)
//
//	func main() {
//	    registry := engine.NewRegistry()
//	    registry.Register("tools/call", callTool)
//
//	    eng := engine.New(engine.DefaultConfig(),
//	        engine.WithDispatcher(registry),
//	    )
//
//	    // For each inbound frame:
//	    reply, err := eng.HandleMessage(context.Background(), sessionKey, frame)
//	    if err != nil {
//	        // Handle error
//	    }
//	    if reply != nil {
//	        // Write reply back to the peer
//	    }
//	}
//
// # Sub-packages
//
//   - protocol: JSON-RPC 2.0 message model, codec, batches, capabilities
//   - session: handshake state machine and session manager
//   - engine: the byte-in/byte-out facade tying codec, sessions and dispatch
//   - errors: the structured error taxonomy behind wire-level error objects
//   - logging: structured leveled logging used throughout the engine
//   - observability: prometheus metrics and OpenTelemetry tracing plumbing
package pkg
