package mcp

import (
	"encoding/json"
	"net/http"

	"github.com/Bzcasper/mcp-gateway/pkg/mcp/auth"
)

// Protocol constants.
const (
	JSONRPCVersion  = "2.0"
	ProtocolVersion = "2024-11-05"
	ServerName      = "mcp-gateway"
	ServerVersion   = "1.0.0"
)

// Supported JSON-RPC methods.
const (
	MethodInitialize   = "initialize"
	MethodToolsList    = "tools/list"
	MethodToolsCall    = "tools/call"
	MethodCapabilities = "server/capabilities"
)

// JSON-RPC error codes. These must stay wire-compatible with existing clients.
const (
	CodeParseError      = -32700
	CodeInvalidRequest  = -32600
	CodeMethodNotFound  = -32601
	CodeInvalidParams   = -32602
	CodeInternalError   = -32603
	CodeServerError     = -32000
	CodeAuthError       = -32001
	CodeRateLimitExceed = -32002
)

// Request represents an incoming JSON-RPC request envelope.
type Request struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response represents a JSON-RPC response envelope. Exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ToolCallParams represents parameters for a tools/call request.
type ToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ServerInfo represents server identity and capabilities returned by initialize.
type ServerInfo struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      Metadata     `json:"serverInfo"`
}

// Capabilities describes what the server can do.
type Capabilities struct {
	Tools map[string]interface{} `json:"tools"`
}

// Metadata contains server identification.
type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InvocationContext carries per-request ambient data into tool handlers. It is
// created once per inbound request and discarded when the request completes.
type InvocationContext struct {
	Auth      *auth.Result
	Request   *http.Request
	RequestID string
}

// NewResult builds a success response echoing the request ID.
func NewResult(id interface{}, result interface{}) (response Response) {
	response = Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
	return response
}

// NewError builds an error response echoing the request ID.
func NewError(id interface{}, code int, message string) (response Response) {
	response = Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
	return response
}

// DecodeParams re-marshals the loosely-typed params map into a typed struct.
func DecodeParams(params map[string]interface{}, target interface{}) (err error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}

	err = json.Unmarshal(raw, target)
	return err
}
