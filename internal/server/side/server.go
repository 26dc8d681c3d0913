// Package side implements the reliable side-channel: a TCP server answering
// exactly one request per connection.
package side

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lanmouse/lanmouse/sidetypes"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements the side-channel request/response server.
type Server struct {
	addr   string
	ln     net.Listener
	logger *slog.Logger
	router *Router
	config Config

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
	conns  sync.WaitGroup
}

// New creates a new side-channel server for addr.
func New(addr string, config Config, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		logger: logger,
		config: config,
		router: NewRouter(),
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
	}
}

// Router returns the router used by the server so callers can register handlers.
func (s *Server) Router() *Router { return s.router }

// Config returns the server configuration.
func (s *Server) Config() Config { return s.config }

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start listens on the configured address and serves incoming requests.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("side-channel listening", "addr", ln.Addr().String(), "routes", s.router.Patterns())
	close(s.ready)
	go s.serve()
	return nil
}

// Close stops the server and waits for in-flight connections.
func (s *Server) Close() {
	s.cancel()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.conns.Wait()
}

func (s *Server) serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Info("side-channel stopped")
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Debug("side-channel accept timeout", "error", err)
				continue
			}
			s.logger.Error("side-channel accept error", "error", err)
			return
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(c)
		}()
	}
}

func writeFrame(w io.Writer, status byte, body []byte) error {
	frame := make([]byte, sidetypes.HeaderSize+len(body))
	frame[0] = status
	binary.BigEndian.PutUint32(frame[1:sidetypes.HeaderSize], uint32(len(body)))
	copy(frame[sidetypes.HeaderSize:], body)
	_, err := w.Write(frame)
	return err
}

func (s *Server) writeError(w io.Writer, logger *slog.Logger, err error) {
	apiErr := WrapError(err)
	problemJSON, _ := json.Marshal(apiErr)
	if werr := writeFrame(w, sidetypes.StatusError, problemJSON); werr != nil {
		logger.Debug("write error response", "error", werr)
	}
}

func (s *Server) writeOK(w io.Writer, logger *slog.Logger, body []byte) {
	if err := writeFrame(w, sidetypes.StatusOK, body); err != nil {
		logger.Debug("write response", "error", err)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connCtx, connCancel := context.WithCancel(s.ctx)
	defer connCancel()

	connLogger := s.logger.With("remote", conn.RemoteAddr().String())
	if s.config.ConnectionTimeout > 0 {
		deadline := time.Now().Add(s.config.ConnectionTimeout)
		_ = conn.SetDeadline(deadline)
		var cancel context.CancelFunc
		connCtx, cancel = context.WithDeadline(connCtx, deadline)
		defer cancel()
	}

	r := bufio.NewReader(io.LimitReader(conn, sidetypes.MaxRequestSize))

	// Read until null terminator
	reqData, err := r.ReadBytes('\x00')
	if err != nil {
		switch {
		case errors.Is(err, io.EOF) && len(reqData) >= sidetypes.MaxRequestSize:
			connLogger.Error("side request too large")
			s.writeError(conn, connLogger, ErrTooLarge(fmt.Sprintf("request exceeds %d bytes", sidetypes.MaxRequestSize)))
		case errors.Is(err, io.EOF):
			connLogger.Error("side incomplete request (no null terminator)")
		default:
			connLogger.Error("read side request", "error", err)
		}
		return
	}
	// Remove null terminator
	reqData = bytes.TrimSuffix(reqData, []byte{0})

	if len(reqData) == 0 {
		connLogger.Error("side empty request")
		s.writeError(conn, connLogger, ErrBadRequest("empty request"))
		return
	}

	var tag string
	var payload []byte
	if loc := wsRegex.FindIndex(reqData); loc != nil {
		tag = string(reqData[:loc[0]])
		payload = reqData[loc[1]:]
	} else {
		tag = string(reqData)
	}

	if tag == "" {
		connLogger.Error("side empty tag")
		s.writeError(conn, connLogger, ErrBadRequest("empty tag"))
		return
	}

	tag = strings.ToLower(tag)
	connLogger.Debug("side request", "tag", tag, "payload", len(payload))

	h, params := s.router.Match(tag)
	if h == nil {
		connLogger.Error("side unknown tag", "tag", tag)
		s.writeError(conn, connLogger, ErrNotFound(fmt.Sprintf("unknown tag: %s", tag)))
		return
	}

	req := &Request{Ctx: connCtx, Params: params, Payload: payload}
	res := &Response{}
	if err := s.call(h, req, res, connLogger); err != nil {
		connLogger.Error("side handler error", "tag", tag, "error", err)
		s.writeError(conn, connLogger, err)
		return
	}
	connLogger.Debug("side handler success", "tag", tag, "size", len(res.Body))
	s.writeOK(conn, connLogger, res.Body)
}

// call runs h and turns a panic into an internal error for this connection.
func (s *Server) call(h HandlerFunc, req *Request, res *Response, logger *slog.Logger) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("side handler panic", "panic", p)
			err = ErrInternal("handler panic")
		}
	}()
	return h(req, res, logger)
}
