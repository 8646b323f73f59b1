// Package server implements the line-oriented TCP front of the suggestion
// engine. Each accepted connection is handled by one pooled worker: it
// reads a single newline-framed request (or whatever arrived before the
// read deadline), computes suggestions against the shared read-only index,
// writes a single response, and closes.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/panjf2000/ants/v2"

	"nudge/internal/logger"
	"nudge/internal/metrics"
	"nudge/internal/middleware"
	"nudge/pkg/protocol"
)

// Defaults for the transport layer.
const (
	DefaultReadTimeout  = 1 * time.Second
	DefaultWriteTimeout = 5 * time.Second
	DefaultMaxConns     = 1024
	DefaultModelLabel   = "default"
)

// Suggester computes ranked suggestions for a query.
type Suggester interface {
	Suggest(query string) []protocol.Suggestion
}

// Server accepts TCP connections and serves one request per connection.
type Server struct {
	listener net.Listener
	engine   Suggester
	pool     *ants.Pool

	model        string
	readTimeout  time.Duration
	writeTimeout time.Duration
	maxConns     int

	log   *logger.Logger
	stats *metrics.Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithReadTimeout bounds how long a worker waits for request bytes.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithDefaultModel sets the model label echoed when a request carries none.
func WithDefaultModel(model string) Option {
	return func(s *Server) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxConns bounds concurrently handled connections. Connections beyond
// the bound wait in the accept loop, which leaves further arrivals queued
// at the transport layer.
func WithMaxConns(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

// New creates a server listening on addr. The caller must have fully built
// the command index before calling New: the listener starts accepting as
// soon as Serve runs, and workers assume the index is published.
func New(addr string, engine Suggester, opts ...Option) (*Server, error) {
	s := &Server{
		engine:       engine,
		model:        DefaultModelLabel,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		maxConns:     DefaultMaxConns,
		log:          logger.With("server"),
		stats:        metrics.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := ants.NewPool(s.maxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	s.pool = pool

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return s, nil
}

// Addr returns the listener's address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed. A failing
// connection never stops the loop.
func (s *Server) Serve() error {
	s.log.Info("listening", "addr", s.listener.Addr().String(), "model", s.model)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if err := s.pool.Submit(func() { s.handleConn(conn) }); err != nil {
			conn.Close()
			if errors.Is(err, ants.ErrPoolClosed) {
				return nil
			}
			s.log.Warn("failed to dispatch connection", "error", err)
		}
	}
}

// Close stops accepting and releases the worker pool.
func (s *Server) Close() {
	s.listener.Close()
	s.pool.Release()
}

// handleConn runs the per-connection state machine:
// read request, compute, respond, close.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	s.stats.IncrementActiveConnections()
	defer s.stats.DecrementActiveConnections()

	raw, ok := s.readFrame(conn)
	if !ok {
		// Zero bytes before timeout or EOF: close without a response.
		return
	}

	query, model := s.parseRequest(raw)
	s.log.Debug("request", "query", query, "model", model)

	start := time.Now()
	suggestions, err := middleware.SafeCallWithResult(func() ([]protocol.Suggestion, error) {
		return s.engine.Suggest(query), nil
	})
	s.stats.RecordRequest(time.Since(start), err)

	if err != nil {
		s.log.Error("compute failed", "query", query, "error", err)
		s.writeJSON(conn, protocol.ErrorResponse{Error: err.Error()})
		return
	}

	s.stats.RecordSuggestions(suggestions)
	s.writeJSON(conn, protocol.Response{Model: model, Suggestions: suggestions})
}

// readFrame reads until the first newline or the read deadline, whichever
// comes first, and returns the trimmed request bytes. Bytes after the first
// newline are ignored. A timeout with partial data is not an error: the
// worker proceeds with what it has. ok is false only when zero bytes were
// received, which is the one case that gets no response at all.
func (s *Server) readFrame(conn net.Conn) (raw string, ok bool) {
	conn.SetReadDeadline(time.Now().Add(s.readTimeout))

	var data []byte
	received := false
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			received = true
			data = append(data, buf[:n]...)
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[:i]
			break
		}
		if err != nil {
			break
		}
	}
	if !received {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// parseRequest decodes a JSON request; anything that is not a JSON object
// is treated as the raw query with the default model label. The object
// check matters: "null", bare strings and numbers unmarshal into a zero
// Request without error, but they are queries, not requests.
func (s *Server) parseRequest(raw string) (query, model string) {
	if !strings.HasPrefix(raw, "{") {
		return raw, s.model
	}
	var req protocol.Request
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return raw, s.model
	}
	model = req.Model
	if model == "" {
		model = s.model
	}
	return req.Cmd, model
}

// writeJSON writes one newline-terminated JSON payload.
func (s *Server) writeJSON(conn net.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("failed to encode response", "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := conn.Write(append(data, '\n')); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}
