// Package server owns the TCP accept loop and the per-connection worker
// goroutines. One goroutine per client; all cross-connection state lives
// in the session registry and the auth gate.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lucasnhandang/TheMillionaireGame/internal/auth"
	"github.com/lucasnhandang/TheMillionaireGame/internal/config"
	"github.com/lucasnhandang/TheMillionaireGame/internal/game"
	"github.com/lucasnhandang/TheMillionaireGame/internal/handler"
	"github.com/lucasnhandang/TheMillionaireGame/internal/protocol"
	"github.com/lucasnhandang/TheMillionaireGame/internal/session"
	"github.com/lucasnhandang/TheMillionaireGame/internal/transport"
	"github.com/lucasnhandang/TheMillionaireGame/pkg/monitoring"
)

const readPollInterval = 1 * time.Second

type Server struct {
	cfg      config.ServerConfig
	router   *handler.Router
	registry *session.Registry
	gate     *auth.Gate
	engine   *game.Engine
	log      *zap.Logger

	listener net.Listener
	nextConn atomic.Uint64
	draining atomic.Bool

	mu    sync.Mutex
	conns map[uint64]*transport.Stream
}

func New(cfg config.ServerConfig, router *handler.Router, registry *session.Registry,
	gate *auth.Gate, engine *game.Engine, log *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		router:   router,
		registry: registry,
		gate:     gate,
		engine:   engine,
		log:      log,
		conns:    make(map[uint64]*transport.Stream),
	}
}

// ListenAndServe accepts clients until Shutdown closes the listener.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.log.Info("game server listening", zap.String("addr", addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.draining.Load() {
				return nil
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		if s.draining.Load() {
			conn.Close()
			continue
		}
		if s.cfg.MaxClients > 0 && s.registry.Count() >= s.cfg.MaxClients {
			s.refuse(conn, "Server is full, try again later")
			monitoring.ObserveRejected("server_full")
			continue
		}

		connID := s.nextConn.Add(1)
		go s.serveConn(connID, conn)
	}
}

// Push writes a server-initiated response to the given connection. It
// satisfies handler.Pusher.
func (s *Server) Push(connID uint64, resp *protocol.Response) bool {
	s.mu.Lock()
	stream, ok := s.conns[connID]
	s.mu.Unlock()
	if !ok {
		return false
	}

	line, err := protocol.Encode(resp)
	if err != nil {
		return false
	}
	return stream.WriteMessage(line) == nil
}

// Shutdown stops accepting, waits for connected clients to leave and
// force-closes stragglers when ctx expires. In-game progress is saved by
// each connection's own teardown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.draining.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	s.log.Info("draining connections", zap.Int("connected", s.registry.Count()))

	err := s.registry.WaitUntilEmpty(ctx)
	if err != nil {
		s.mu.Lock()
		for _, stream := range s.conns {
			stream.Close()
		}
		s.mu.Unlock()
		s.log.Warn("shutdown deadline reached, connections force-closed",
			zap.Int("remaining", s.registry.Count()))
	}
	return err
}

func (s *Server) serveConn(connID uint64, conn net.Conn) {
	stream := transport.NewStream(conn)
	sess := s.registry.Create(connID, conn.RemoteAddr().String())

	s.mu.Lock()
	s.conns[connID] = stream
	s.mu.Unlock()
	monitoring.LiveConnections.Inc()

	s.log.Info("client connected",
		zap.Uint64("connId", connID), zap.String("remoteAddr", sess.RemoteAddr))

	defer s.teardown(connID, stream)

	s.write(stream, protocol.OK(map[string]string{
		"message": "Welcome to Who Wants to Be a Millionaire",
	}))

	limiter := rate.NewLimiter(rate.Limit(float64(s.cfg.RateLimitPerMinute)/60.0), s.cfg.RateLimitPerMinute)
	idleTimeout := time.Duration(s.cfg.IdleTimeoutSeconds) * time.Second
	lastActivity := time.Now()

	for stream.Connected() {
		if s.draining.Load() {
			s.write(stream, protocol.Error(protocol.CodeInternal, "Server shutting down"))
			return
		}

		msg, err := stream.ReadMessage(readPollInterval)
		if err != nil {
			return
		}
		if msg == "" {
			if idleTimeout > 0 && time.Since(lastActivity) > idleTimeout {
				s.log.Info("idle timeout", zap.Uint64("connId", connID))
				s.write(stream, protocol.Error(protocol.CodeTimeout, "Connection idle too long"))
				return
			}
			continue
		}

		lastActivity = time.Now()
		s.registry.Touch(connID)

		if !limiter.Allow() {
			s.write(stream, protocol.Error(protocol.CodeRateLimited, "Too many requests, slow down"))
			continue
		}

		resp := s.router.Dispatch(context.Background(), msg, connID)
		if !s.write(stream, resp) {
			return
		}
	}
}

// teardown releases everything the connection held: saved game, token,
// presence, session and the push map entry.
func (s *Server) teardown(connID uint64, stream *transport.Stream) {
	if sess, ok := s.registry.Get(connID); ok {
		if sess.InGame {
			s.engine.AutoSave(sess)
			monitoring.ActiveGames.Dec()
		}
		if sess.Authenticated {
			s.gate.UnregisterToken(sess.AuthToken, sess.Username)
		}
		s.log.Info("client disconnected",
			zap.Uint64("connId", connID), zap.String("username", sess.Username))
	}
	s.registry.Remove(connID)

	s.mu.Lock()
	delete(s.conns, connID)
	s.mu.Unlock()

	stream.Close()
	monitoring.LiveConnections.Dec()
}

func (s *Server) write(stream *transport.Stream, resp *protocol.Response) bool {
	line, err := protocol.Encode(resp)
	if err != nil {
		s.log.Error("response encode failed", zap.Error(err))
		return false
	}
	if err := stream.WriteMessage(line); err != nil {
		return false
	}
	return true
}

// refuse rejects a connection before a session exists.
func (s *Server) refuse(conn net.Conn, msg string) {
	stream := transport.NewStream(conn)
	line, err := protocol.Encode(protocol.Error(protocol.CodeInternal, msg))
	if err == nil {
		stream.WriteMessage(line)
	}
	stream.Close()
}
