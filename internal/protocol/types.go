package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Version is the only JSON-RPC version accepted on the wire.
const Version = "2.0"

// DefaultProtocolVersion is the MCP revision offered when the client asks for
// one this server does not know.
const DefaultProtocolVersion = "2024-11-05"

// SupportedProtocolVersions lists the MCP revisions the server can speak.
var SupportedProtocolVersions = []string{"2024-11-05", "2025-03-26", "2025-06-18"}

// Request represents a minimal JSON-RPC 2.0 request.
// ID is kept raw so it is echoed back with its original type.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id and therefore
// expects no response.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response models a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// NewResult builds a success response for id.
func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds an error response for id.
func NewError(id json.RawMessage, err *ResponseError) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}

// ToolDescriptor describes a tool available from the MCP server.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// ListResult is the payload for tools/list.
type ListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// CallParams represents parameters for tools/call.
type CallParams struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"arguments,omitempty"`
}

// HasArgs reports whether the call carried a non-null arguments member.
func (p CallParams) HasArgs() bool {
	trimmed := bytes.TrimSpace(p.Args)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// ContentPart is a single piece of tool output.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the payload for a successful tool invocation.
type CallResult struct {
	Content []ContentPart `json:"content"`
}

// TextResult wraps text in a single-part CallResult.
func TextResult(text string) CallResult {
	return CallResult{Content: []ContentPart{{Type: "text", Text: text}}}
}

// Text joins the text parts of the result.
func (r CallResult) Text() string {
	var b bytes.Buffer
	for i, part := range r.Content {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// InitializeParams is the subset of the initialize request the server reads.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      Implementation `json:"clientInfo"`
}

// Implementation names a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult answers initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// ServerCapabilities advertises what the server supports.
type ServerCapabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// ToolsCapability is the tools entry of ServerCapabilities.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// NegotiateVersion returns requested when supported, DefaultProtocolVersion otherwise.
func NegotiateVersion(requested string) string {
	for _, v := range SupportedProtocolVersions {
		if v == requested {
			return v
		}
	}
	return DefaultProtocolVersion
}
