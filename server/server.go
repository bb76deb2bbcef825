package server

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/freekieb7/pebble/config"
	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/socket"
	"github.com/freekieb7/pebble/telemetry"
)

// Server owns the listener, the fixed client slot array and the socket
// pool. One Loop call is one cooperative sweep; the caller decides how
// long to keep sweeping.
type Server struct {
	cfg     config.Config
	log     *slog.Logger
	tel     *telemetry.Telemetry
	router  *Router
	clients []*Client
	sock    socket.Socket
	pool    *socket.Pool
}

// New prepares the slot array. tel may be nil (metrics off); the logger
// falls back to a no-op one.
func New(cfg config.Config, router *Router, log *slog.Logger, tel *telemetry.Telemetry) (*Server, error) {
	if log == nil {
		log = telemetry.NopLogger()
	}
	s := &Server{
		cfg:    cfg,
		log:    log,
		tel:    tel,
		router: router,
		sock:   socket.New(),
		pool:   socket.NewPool(cfg.MaxClients + 1),
	}
	for i := 0; i < cfg.MaxClients; i++ {
		c, err := NewClient(cfg.ClientBufferSize, log, cfg.RFCStatusLine)
		if err != nil {
			return nil, err
		}
		s.clients = append(s.clients, c)
	}
	return s, nil
}

// Create starts listening and registers the listener at pool slot 0.
func (s *Server) Create(port int) error {
	if err := s.sock.Listen(port, s.cfg.MaxClients); err != nil {
		return err
	}
	if !s.pool.Append(&s.sock) {
		return errors.New("server: socket pool full")
	}
	s.log.Info("listening", slog.Int("port", port))
	return nil
}

// Close drops every connection and the listener.
func (s *Server) Close() {
	for _, c := range s.clients {
		if c.IsValid() {
			s.pool.Remove(&c.Socket)
			c.ResetSlot()
		}
	}
	s.pool.Remove(&s.sock)
	s.sock.Reset()
}

func (s *Server) clientFor(sock *socket.Socket) *Client {
	for _, c := range s.clients {
		if &c.Socket == sock {
			return c
		}
	}
	return nil
}

func (s *Server) removeClient(c *Client) {
	s.pool.Remove(&c.Socket)
	c.ResetSlot()
}

func (s *Server) countAnswer(c *Client) {
	if s.tel == nil {
		return
	}
	ctx := context.Background()
	class := attribute.Int("class", int(c.LastCode())/100)
	s.tel.ResponsesByClass.Add(ctx, 1, metric.WithAttributes(class))
	s.tel.BytesSent.Add(ctx, int64(c.AnswerLength()))
}

// Loop runs one sweep: select, serve every readable client in slot
// order, accept a pending connection, then age every open connection by
// one tick (served or not).
func (s *Server) Loop(timeoutMs int) error {
	active, err := s.pool.SelectActive(timeoutMs)
	if err != nil {
		return err
	}
	if active {
		// Client sockets first, the listener is slot 0.
		for sock := s.pool.GetReadableSocket(1); sock != nil; sock = s.pool.GetReadableSocket(1) {
			c := s.clientFor(sock)
			if c == nil {
				continue
			}
			s.serveClient(c)
		}

		if s.pool.IsReadable(0) {
			s.acceptClient()
		}
	}

	for _, c := range s.clients {
		if !c.IsValid() {
			continue
		}
		c.Age()
		if c.TTL() <= 0 {
			// The connection ran out of its idle budget; drop it
			// silently.
			s.removeClient(c)
		}
	}
	return nil
}

func (s *Server) serveClient(c *Client) {
	free := c.Recv.Tail()
	if len(free) == 0 {
		c.CloseWithError(http.CodeEntityTooLarge)
		s.removeClient(c)
		s.countAnswer(c)
		return
	}
	n, err := c.Socket.Recv(free)
	if err != nil {
		// A failed read usually means the peer went away; answer
		// best-effort and drop the slot.
		c.CloseWithError(http.CodeBadRequest)
		s.removeClient(c)
		return
	}
	c.Recv.Stored(n)

	if !c.Parse() {
		s.countAnswer(c)
		s.removeClient(c)
		return
	}
	if c.Status() <= StatusRecvHeaders {
		return
	}

	switch s.router.Process(c) {
	case StateError:
		s.countAnswer(c)
		s.removeClient(c)
	case StateDone:
		s.countAnswer(c)
		if c.TTL() > 0 {
			// Keep-alive: rewind for the next request on the same
			// connection and rearm the budget.
			c.ResetForNextRequest()
			c.RestartTTL(s.cfg.ClientTTL)
		} else {
			s.removeClient(c)
		}
	case StateProcessing, StateNeedRefill:
		// The client stays in the pool and continues on a later tick.
	}
}

func (s *Server) acceptClient() {
	for _, c := range s.clients {
		if c.IsValid() {
			continue
		}
		if err := s.sock.Accept(&c.Socket); err != nil {
			s.log.Warn("accept failed", slog.String("error", err.Error()))
			return
		}
		c.BeginSession(s.cfg.ClientTTL)
		if !s.pool.Append(&c.Socket) {
			c.ResetSlot()
			return
		}
		if s.tel != nil {
			s.tel.RequestsServed.Add(context.Background(), 1)
		}
		s.log.Debug("accepted", slog.String("client", c.Socket.Addr))
		return
	}
	// No free slot: the connection stays pending until one frees up.
}
