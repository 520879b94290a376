package mcp

import (
	"context"
	"encoding/json"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

// DefaultRequestTimeout bounds a single tools/call when Options leaves it unset.
const DefaultRequestTimeout = 30 * time.Second

// Options configures a Server.
type Options struct {
	Name           string
	Version        string
	RequestTimeout time.Duration
	Logger         *logrus.Entry
}

// Server handles MCP JSON-RPC requests against a toolbox.
type Server struct {
	toolbox *Toolbox
	info    protocol.Implementation
	timeout time.Duration
	log     *logrus.Entry
}

// NewServer wires a toolbox into an MCP server.
func NewServer(tb *Toolbox, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = logrus.NewEntry(l)
	}
	return &Server{
		toolbox: tb,
		info:    protocol.Implementation{Name: opts.Name, Version: opts.Version},
		timeout: opts.RequestTimeout,
		log:     opts.Logger,
	}
}

// Toolbox exposes the registry the server dispatches to.
func (s *Server) Toolbox() *Toolbox {
	return s.toolbox
}

// Handle routes a single request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req protocol.Request) *protocol.Response {
	start := time.Now()
	resp := s.route(ctx, req)

	fields := logrus.Fields{
		"method":   req.Method,
		"duration": time.Since(start).Round(time.Microsecond).String(),
	}
	if !req.IsNotification() {
		fields["id"] = string(req.ID)
	}
	entry := s.log.WithFields(fields)
	switch {
	case resp != nil && resp.Error != nil:
		entry.WithFields(logrus.Fields{"code": resp.Error.Code, "kind": resp.Error.Kind()}).Warn(resp.Error.Message)
	default:
		entry.Debug("handled")
	}

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (s *Server) route(ctx context.Context, req protocol.Request) *protocol.Response {
	if req.JSONRPC != "" && req.JSONRPC != protocol.Version {
		return errorResponse(req.ID, &protocol.ResponseError{Code: protocol.CodeInvalidRequest, Message: "invalid jsonrpc version"})
	}
	if req.Method == "" {
		return errorResponse(req.ID, &protocol.ResponseError{Code: protocol.CodeInvalidRequest, Message: "method required"})
	}

	switch req.Method {
	case "initialize":
		var params protocol.InitializeParams
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params, &params)
		}
		if params.ClientInfo.Name != "" {
			s.log.WithFields(logrus.Fields{"client": params.ClientInfo.Name, "client_version": params.ClientInfo.Version}).Info("client connected")
		}
		return resultResponse(req.ID, protocol.InitializeResult{
			ProtocolVersion: protocol.NegotiateVersion(params.ProtocolVersion),
			Capabilities:    protocol.ServerCapabilities{Tools: protocol.ToolsCapability{ListChanged: false}},
			ServerInfo:      s.info,
		})
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, protocol.ListResult{Tools: s.toolbox.Describe()})
	case "tools/call":
		var params protocol.CallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, &protocol.ResponseError{Code: protocol.CodeInvalidParams, Message: "invalid params"})
		}
		if params.Name == "" {
			return errorResponse(req.ID, protocol.MissingParameter("name"))
		}
		result, toolErr := s.callTool(ctx, params)
		if toolErr != nil {
			return errorResponse(req.ID, toolErr)
		}
		return resultResponse(req.ID, result)
	default:
		if strings.HasPrefix(req.Method, "notifications/") {
			return nil
		}
		return errorResponse(req.ID, &protocol.ResponseError{Code: protocol.CodeMethodNotFound, Message: "method not found: " + req.Method})
	}
}

// callTool runs one tool under the request timeout and turns panics into
// internal errors so the caller's loop survives.
func (s *Server) callTool(ctx context.Context, params protocol.CallParams) (result protocol.CallResult, rerr *protocol.ResponseError) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"tool": params.Name, "panic": r}).Error("tool panicked\n" + string(debug.Stack()))
			result, rerr = protocol.CallResult{}, protocol.InternalError("tool %s failed", params.Name)
		}
	}()

	return s.toolbox.Call(ctx, params.Name, params.Args)
}

func resultResponse(id json.RawMessage, result any) *protocol.Response {
	resp := protocol.NewResult(id, result)
	return &resp
}

func errorResponse(id json.RawMessage, err *protocol.ResponseError) *protocol.Response {
	resp := protocol.NewError(id, err)
	return &resp
}
