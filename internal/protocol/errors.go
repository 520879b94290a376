package protocol

import "fmt"

// JSON-RPC and MCP error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUpstreamError  = -32000
)

// Error kinds carried in ResponseError.Data.
const (
	KindValidation  = "validation_error"
	KindUpstream    = "upstream_error"
	KindUnknownTool = "unknown_tool"
)

// ResponseError holds JSON-RPC error data.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorData classifies a tool failure for the caller.
type ErrorData struct {
	Kind string `json:"kind"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Kind returns the error kind, or "" for plain JSON-RPC errors.
// It understands both in-process ErrorData and decoded JSON maps.
func (e *ResponseError) Kind() string {
	if e == nil {
		return ""
	}
	switch d := e.Data.(type) {
	case ErrorData:
		return d.Kind
	case *ErrorData:
		if d != nil {
			return d.Kind
		}
	case map[string]any:
		k, _ := d["kind"].(string)
		return k
	}
	return ""
}

// ValidationError reports a missing or malformed tool parameter.
func ValidationError(format string, args ...any) *ResponseError {
	return &ResponseError{
		Code:    CodeInvalidParams,
		Message: fmt.Sprintf(format, args...),
		Data:    ErrorData{Kind: KindValidation},
	}
}

// MissingParameter is the ValidationError for an absent required parameter.
func MissingParameter(name string) *ResponseError {
	return ValidationError("missing required parameter: %s", name)
}

// UpstreamError reports a failed or malformed upstream fetch.
func UpstreamError(err error) *ResponseError {
	return &ResponseError{
		Code:    CodeUpstreamError,
		Message: fmt.Sprintf("upstream request failed: %v", err),
		Data:    ErrorData{Kind: KindUpstream},
	}
}

// UnknownToolError reports a tools/call for an unregistered name.
func UnknownToolError(name string) *ResponseError {
	return &ResponseError{
		Code:    CodeMethodNotFound,
		Message: fmt.Sprintf("unknown tool: %s", name),
		Data:    ErrorData{Kind: KindUnknownTool},
	}
}

// InternalError reports an unexpected failure inside the server.
func InternalError(format string, args ...any) *ResponseError {
	return &ResponseError{Code: CodeInternalError, Message: fmt.Sprintf(format, args...)}
}
