package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
)

// ServeStdio runs the newline-delimited JSON-RPC loop over in/out until EOF or
// ctx is cancelled. Requests are handled one at a time; a bad frame fails only
// itself. Nothing but response frames is ever written to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go readFrames(ctx, in, lines, readErr)

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	s.log.WithField("tools", s.toolbox.Len()).Info("serving MCP over stdio")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stdio loop stopped")
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				s.log.Info("stdin closed")
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		case line := <-lines:
			resp := s.handleFrame(ctx, line)
			if resp == nil {
				continue
			}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, line []byte) *protocol.Response {
	var req protocol.Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.WithError(err).Warn("discarding malformed frame")
		return errorResponse(nil, &protocol.ResponseError{Code: protocol.CodeParseError, Message: "parse error"})
	}
	return s.Handle(ctx, req)
}

// readFrames splits in into non-blank lines. It reports the terminal read
// error (io.EOF included) on errc after every complete line has been taken.
func readFrames(ctx context.Context, in io.Reader, lines chan<- []byte, errc chan<- error) {
	r := bufio.NewReaderSize(in, 64*1024)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			select {
			case lines <- trimmed:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errc <- err
			return
		}
	}
}
