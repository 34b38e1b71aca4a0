package errors

// JSON-RPC 2.0 reserved error codes.
const (
	// CodeParseError indicates invalid JSON was received
	CodeParseError int = -32700

	// CodeInvalidRequest indicates the JSON sent is not a valid Request object
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound indicates the method does not exist / is not available
	CodeMethodNotFound int = -32601

	// CodeInvalidParams indicates invalid method parameter(s)
	CodeInvalidParams int = -32602

	// CodeInternalError indicates an internal JSON-RPC error
	CodeInternalError int = -32603
)

// Protocol-specific error codes, reusing the implementation-defined
// portion of the JSON-RPC reserved space.
const (
	// Server lifecycle errors (-32000 to -32099)
	CodeServerInitError int = -32000 // Error during server initialization
	CodeServerNotReady  int = -32001 // Server not ready to handle requests

	// Capability errors (-32400 to -32499)
	CodeInvalidCapability  int = -32400 // Invalid or unsupported capability
	CodeCapabilityRequired int = -32401 // Required capability not enabled

	// Size errors (-32600 range adjunct)
	CodeMessageTooLarge int = -32610 // Message exceeds configured size limit

	// Protocol errors (-32900 to -32999)
	CodeProtocolError   int = -32900 // Generic protocol error
	CodeVersionMismatch int = -32901 // Protocol version not supported
	CodeInvalidSequence int = -32902 // Event illegal for the current session state
)

// CodeInfo provides human-readable information about an error code.
type CodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
}

var codeRegistry = map[int]CodeInfo{
	CodeParseError:     {CodeParseError, "ParseError", "Invalid JSON was received", CategoryParse},
	CodeInvalidRequest: {CodeInvalidRequest, "InvalidRequest", "Invalid Request object", CategoryValidation},
	CodeMethodNotFound: {CodeMethodNotFound, "MethodNotFound", "Method does not exist", CategoryValidation},
	CodeInvalidParams:  {CodeInvalidParams, "InvalidParams", "Invalid method parameters", CategoryValidation},
	CodeInternalError:  {CodeInternalError, "InternalError", "Internal JSON-RPC error", CategoryInternal},

	CodeServerInitError: {CodeServerInitError, "ServerInitError", "Server initialization failed", CategoryInternal},
	CodeServerNotReady:  {CodeServerNotReady, "ServerNotReady", "Server not ready", CategorySequencing},

	CodeInvalidCapability:  {CodeInvalidCapability, "InvalidCapability", "Invalid capability", CategoryNegotiation},
	CodeCapabilityRequired: {CodeCapabilityRequired, "CapabilityRequired", "Required capability not enabled", CategoryNegotiation},

	CodeMessageTooLarge: {CodeMessageTooLarge, "MessageTooLarge", "Message exceeds size limit", CategoryParse},

	CodeProtocolError:   {CodeProtocolError, "ProtocolError", "Protocol error", CategorySequencing},
	CodeVersionMismatch: {CodeVersionMismatch, "VersionMismatch", "Protocol version not supported", CategoryNegotiation},
	CodeInvalidSequence: {CodeInvalidSequence, "InvalidSequence", "Invalid message sequence", CategorySequencing},
}

// GetCodeInfo returns information about an error code.
func GetCodeInfo(code int) (CodeInfo, bool) {
	info, exists := codeRegistry[code]
	return info, exists
}

// GetCodeName returns the registered name of an error code.
func GetCodeName(code int) string {
	if info, exists := codeRegistry[code]; exists {
		return info.Name
	}
	return "UnknownError"
}

// GetCodeCategory returns the category of an error code. Codes outside
// the registry (application errors carried through from a dispatch
// layer) classify as CategoryApplication.
func GetCodeCategory(code int) Category {
	if info, exists := codeRegistry[code]; exists {
		return info.Category
	}
	return CategoryApplication
}

// IsReservedCode checks if a code falls in the JSON-RPC reserved range.
func IsReservedCode(code int) bool {
	return code >= -32768 && code <= -32000
}
