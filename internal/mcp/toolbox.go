package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

// Tool defines the behavior of a single MCP tool.
// Invoke receives arguments that already satisfy the descriptor's input schema.
type Tool interface {
	Descriptor() protocol.ToolDescriptor
	Invoke(ctx context.Context, raw json.RawMessage) (protocol.CallResult, *protocol.ResponseError)
}

type toolEntry struct {
	tool     Tool
	desc     protocol.ToolDescriptor
	resolved *jsonschema.Resolved
}

// Toolbox stores and dispatches tools by name. It is immutable once built.
type Toolbox struct {
	tools map[string]toolEntry
	names []string
}

// NewToolbox constructs a toolbox with the provided tools. Every descriptor
// needs a unique name and an object input schema that resolves.
func NewToolbox(tools ...Tool) (*Toolbox, error) {
	tb := &Toolbox{tools: make(map[string]toolEntry, len(tools))}
	for _, t := range tools {
		desc := t.Descriptor()
		if desc.Name == "" {
			return nil, fmt.Errorf("tool %T has no name", t)
		}
		if _, dup := tb.tools[desc.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", desc.Name)
		}
		if desc.InputSchema == nil {
			desc.InputSchema = &jsonschema.Schema{Type: "object"}
		}
		if desc.InputSchema.Type != "object" {
			return nil, fmt.Errorf("tool %q: input schema type must be object, got %q", desc.Name, desc.InputSchema.Type)
		}
		resolved, err := desc.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("tool %q: resolve input schema: %w", desc.Name, err)
		}
		tb.tools[desc.Name] = toolEntry{tool: t, desc: desc, resolved: resolved}
		tb.names = append(tb.names, desc.Name)
	}
	sort.Strings(tb.names)
	return tb, nil
}

// Describe returns all tool descriptors ordered by name.
func (tb *Toolbox) Describe() []protocol.ToolDescriptor {
	list := make([]protocol.ToolDescriptor, 0, len(tb.names))
	for _, name := range tb.names {
		list = append(list, tb.tools[name].desc)
	}
	return list
}

// Len returns the number of registered tools.
func (tb *Toolbox) Len() int {
	return len(tb.names)
}

// Call validates args against the named tool's schema and invokes it.
func (tb *Toolbox) Call(ctx context.Context, name string, args json.RawMessage) (protocol.CallResult, *protocol.ResponseError) {
	entry, ok := tb.tools[name]
	if !ok {
		return protocol.CallResult{}, protocol.UnknownToolError(name)
	}

	normalized, verr := entry.validate(args)
	if verr != nil {
		return protocol.CallResult{}, verr
	}
	return entry.tool.Invoke(ctx, normalized)
}

func (e toolEntry) validate(args json.RawMessage) (json.RawMessage, *protocol.ResponseError) {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	var instance map[string]any
	if err := json.Unmarshal(trimmed, &instance); err != nil || instance == nil {
		return nil, protocol.ValidationError("arguments must be a JSON object")
	}

	for _, req := range e.desc.InputSchema.Required {
		if v, ok := instance[req]; !ok || v == nil {
			return nil, protocol.MissingParameter(req)
		}
	}

	if err := e.resolved.Validate(instance); err != nil {
		return nil, protocol.ValidationError("invalid arguments for %s: %v", e.desc.Name, err)
	}
	return trimmed, nil
}
