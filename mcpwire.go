// Package mcpwire provides the wire-level engine of the Model Context
// Protocol (2025-03-26): JSON-RPC 2.0 framing, session lifecycle, and
// capability negotiation, independent of any transport.
package mcpwire

import (
	"github.com/mcpwire/mcpwire/pkg/engine"
	"github.com/mcpwire/mcpwire/pkg/protocol"
)

// Version represents the current version of the engine
const Version = "0.1.0"

// ProtocolRevision is the MCP revision the engine negotiates.
const ProtocolRevision = protocol.ProtocolRevision

// These exports provide direct access to the core components
var (
	// NewEngine creates a protocol engine
	NewEngine = engine.New

	// NewRegistry creates a method registry used as the engine's dispatcher
	NewRegistry = engine.NewRegistry

	// DefaultConfig returns the engine configuration most servers run with
	DefaultConfig = engine.DefaultConfig

	// ConfigFromEnv builds an engine configuration from MCP_* variables
	ConfigFromEnv = engine.ConfigFromEnv
)

// Engine options
var (
	WithLogger     = engine.WithLogger
	WithDispatcher = engine.WithDispatcher
	WithMetrics    = engine.WithMetrics
)

// Lifecycle method names
const (
	MethodInitialize  = protocol.MethodInitialize
	MethodInitialized = protocol.MethodInitialized
	MethodPing        = protocol.MethodPing
)
