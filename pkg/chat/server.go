package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Config holds chat server configuration.
type Config struct {
	Store           ConversationStore
	TokenVerifier   TokenVerifier // nil disables token checks
	Logger          zerolog.Logger
	PingInterval    time.Duration // transport ping period, default 30s
	PongTimeout     time.Duration // read deadline, default 2.5x ping interval
	WriteTimeout    time.Duration // per-frame write deadline, default 10s
	EventsPerMinute int           // per-session inbound event cap, default 120
}

// Server is the real-time presence and messaging engine. It owns the session
// registry and drives the presence broadcaster and message router from one
// websocket endpoint.
type Server struct {
	registry *Registry
	presence *Presence
	router   *Router
	gate     *Gate
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	pingInterval    time.Duration
	pongTimeout     time.Duration
	writeTimeout    time.Duration
	eventsPerMinute int

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	sessionWG      sync.WaitGroup
}

// NewServer creates a chat server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = cfg.PingInterval * 5 / 2
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.EventsPerMinute == 0 {
		cfg.EventsPerMinute = 120
	}

	registry := NewRegistry()

	return &Server{
		registry: registry,
		presence: NewPresence(registry, cfg.Logger),
		router:   NewRouter(registry, cfg.Store, cfg.Logger),
		gate:     NewGate(cfg.TokenVerifier),
		logger:   cfg.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // clinic frontends connect from arbitrary origins
			},
		},
		pingInterval:    cfg.PingInterval,
		pongTimeout:     cfg.PongTimeout,
		writeTimeout:    cfg.WriteTimeout,
		eventsPerMinute: cfg.EventsPerMinute,
	}, nil
}

// Registry exposes the session registry for roster queries.
func (s *Server) Registry() *Registry {
	return s.registry
}

// HandleWS is the websocket endpoint. The session gate runs before the
// upgrade so a handshake without identity is refused at the transport level
// and never leaks a half-open connection.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	ident, err := s.gate.Bind(r)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Handshake refused")
		http.Error(w, "identity required", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	sessionID, _ := gonanoid.New()
	sess := &Session{
		ID:           sessionID,
		Identity:     ident,
		Conn:         conn,
		ConnectedAt:  time.Now(),
		limiter:      NewEventLimiter(s.eventsPerMinute),
		writeTimeout: s.writeTimeout,
	}

	if !s.admit(sess) {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(s.writeTimeout),
		)
		conn.Close()
		return
	}

	s.presence.Announce(sess)
	go s.handleSession(sess)
}

// admit registers the session unless shutdown has begun. The flag check and
// the registration share one lock hold, so every admitted session is visible
// to Stop's registry snapshot.
func (s *Server) admit(sess *Session) bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()

	if s.isShuttingDown {
		return false
	}
	s.registry.Register(sess)
	s.sessionWG.Add(1)
	return true
}

// handleSession runs the read loop for one session. Events from a single
// session are handled in arrival order; only persistence and history fetches
// leave this goroutine.
func (s *Server) handleSession(sess *Session) {
	defer s.sessionWG.Done()

	stopPing := make(chan struct{})
	go s.pingLoop(sess, stopPing)

	defer func() {
		close(stopPing)
		sess.Conn.Close()
		if removed, ok := s.registry.Unregister(sess.ID); ok {
			s.presence.Depart(removed)
		}
	}()

	_ = sess.Conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	sess.Conn.SetPongHandler(func(string) error {
		return sess.Conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	})

	for {
		_, raw, err := sess.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("sessionId", sess.ID).Msg("WebSocket error")
			}
			return
		}
		s.handleFrame(sess, raw)
	}
}

// pingLoop keeps idle sessions honest: a session that stops answering pings
// trips the read deadline and is torn down like any other disconnect.
func (s *Server) pingLoop(sess *Session, stop <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := sess.ping(time.Now().Add(s.writeTimeout)); err != nil {
				return
			}
		}
	}
}

// handleFrame dispatches one inbound event frame.
func (s *Server) handleFrame(sess *Session, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.logger.Warn().Err(err).Str("sessionId", sess.ID).Msg("Dropping unparseable frame")
		return
	}

	if !sess.limiter.Allow() {
		s.logger.Warn().
			Str("sessionId", sess.ID).
			Str("event", frame.Event).
			Msg("Dropping frame over event rate limit")
		return
	}

	switch frame.Event {
	case EventPrivateMessage:
		var in privateMessageIn
		if err := json.Unmarshal(frame.Data, &in); err != nil {
			s.logger.Warn().Err(err).Str("sessionId", sess.ID).Msg("Dropping malformed private message")
			return
		}
		s.router.PrivateMessage(sess, in)

	case EventOpenChatTab:
		var in openChatIn
		if err := json.Unmarshal(frame.Data, &in); err != nil {
			s.logger.Warn().Err(err).Str("sessionId", sess.ID).Msg("Dropping malformed open chat tab")
			return
		}
		s.router.OpenChat(sess, in)

	case EventSignal:
		var in signalIn
		if err := json.Unmarshal(frame.Data, &in); err != nil {
			s.logger.Warn().Err(err).Str("sessionId", sess.ID).Msg("Dropping malformed signal")
			return
		}
		s.router.Signal(sess, in)

	case EventSocketLog:
		s.logger.Info().
			Str("sessionId", sess.ID).
			RawJSON("payload", frame.Data).
			Msg("Client log")

	default:
		s.logger.Debug().
			Str("sessionId", sess.ID).
			Str("event", frame.Event).
			Msg("Ignoring unknown event")
	}
}

// Stop closes every live session and waits for in-flight persistence to
// drain. New handshakes are refused once shutdown begins.
func (s *Server) Stop(timeout time.Duration) {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	deadline := time.Now().Add(timeout)
	for _, sess := range s.registry.All() {
		_ = sess.Conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			deadline,
		)
		sess.Conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.sessionWG.Wait()
		s.router.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Chat server stopped")
	case <-time.After(timeout):
		s.logger.Warn().Msg("Chat server shutdown timeout reached")
	}
}
