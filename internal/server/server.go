package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/game"
)

// Config holds the listener settings
type Config struct {
	Bind              string
	Port              int
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration // per websocket message
}

// Server serves the board and pushes the game state to every page
type Server struct {
	cfg      Config
	session  *game.Session
	log      zerolog.Logger
	echo     *echo.Echo
	upgrader websocket.Upgrader

	mu          sync.Mutex
	clients     map[*client]struct{}
	listener    net.Listener
	unsubscribe func()
	closed      bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// New creates the server and starts following the session
func New(cfg Config, session *game.Session, log zerolog.Logger) *Server {
	if cfg.Bind == "" {
		cfg.Bind = "127.0.0.1"
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:     cfg,
		session: session,
		log:     log.With().Str("component", "server").Logger(),
		clients: make(map[*client]struct{}),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.requestLogger)

	// UI
	e.GET("/", s.handleIndex)
	e.GET("/app.js", s.handleAppJS)

	// Health
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// State API and stream
	e.GET("/api/state", s.handleState)
	e.GET("/ws", s.handleWebsocket)
	s.echo = e

	s.unsubscribe = session.Caller.Subscribe(func(ev caller.Event) {
		msg := newStateMessage(ev.Snapshot, session.AudioBlocked())
		msg.Event = ev.Kind.String()
		if ev.Kind == caller.EventDraw {
			msg.Number = ev.Number
		}
		s.broadcast(msg)
	})
	session.Resolver.OnStatus(func(blocked bool) {
		s.broadcast(newStateMessage(session.Caller.Snapshot(), blocked))
	})

	return s
}

// Handler exposes the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Listen opens the listening socket; port 0 picks a free port
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr is the address the server listens on
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port))
}

// Run listens when needed and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	defer s.Close()

	s.echo.Listener = s.listener
	s.echo.Server.Addr = s.Addr()
	s.echo.Server.ReadHeaderTimeout = s.cfg.ReadHeaderTimeout

	// shutdown
	go func() {
		<-ctx.Done()
		s.closeClients()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(shCtx); err != nil {
			s.log.Warn().Err(err).Msg("Shutdown incomplete")
		}
	}()

	s.log.Info().Str("addr", s.Addr()).Msg("HTTP server listening")
	err := s.echo.StartServer(s.echo.Server)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops following the session and disconnects every page
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	unsubscribe()
	s.closeClients()
}

// Clients is the number of connected pages
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, newStateMessage(s.session.Caller.Snapshot(), s.session.AudioBlocked()))
}

func (s *Server) handleWebsocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already answered
		s.log.Debug().Err(err).Msg("Websocket upgrade failed")
		return nil
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	log := s.log.With().Str("client", cl.id).Logger()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.clients[cl] = struct{}{}
	s.mu.Unlock()
	log.Info().Str("remote", c.RealIP()).Msg("Board connected")

	defer func() {
		s.mu.Lock()
		delete(s.clients, cl)
		s.mu.Unlock()
		cl.close()
		log.Info().Msg("Board disconnected")
	}()

	go s.writePump(cl, log)

	// Initial state
	s.sendTo(cl, newStateMessage(s.session.Caller.Snapshot(), s.session.AudioBlocked()))

	for {
		var in Intent
		if err := conn.ReadJSON(&in); err != nil {
			// A malformed message leaves the connection usable
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.sendTo(cl, newErrorMessage("", fmt.Errorf("%w: %v", ErrInvalidIntent, err)))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("Websocket read failed")
			}
			return nil
		}

		if err := s.apply(in); err != nil {
			log.Debug().Err(err).Str("intent", in.Intent).Msg("Intent rejected")
			s.sendTo(cl, newErrorMessage(in.Intent, err))
		}
	}
}

// apply runs a validated intent against the session
func (s *Server) apply(in Intent) error {
	if err := in.Validate(); err != nil {
		return err
	}

	c := s.session.Caller
	switch in.Intent {
	case IntentStartPause:
		return c.TogglePlay()
	case IntentStep:
		return c.Step()
	case IntentReset:
		c.Reset()
		return nil
	case IntentSetInterval:
		return c.SetInterval(time.Duration(in.Value) * time.Millisecond)
	case IntentCell:
		return s.session.Preview(in.Value)
	}
	return nil
}

func (s *Server) writePump(cl *client, log zerolog.Logger) {
	for {
		select {
		case <-cl.done:
			return
		case msg := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("Websocket write failed")
				cl.close()
				return
			}
		}
	}
}

func (s *Server) sendTo(cl *client, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode message")
		return
	}
	select {
	case cl.send <- b:
	case <-cl.done:
	default:
		// slow client: drop
	}
}

func (s *Server) broadcast(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode message")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for cl := range s.clients {
		select {
		case cl.send <- b:
		default:
			// slow client: drop
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for cl := range s.clients {
		clients = append(clients, cl)
	}
	s.mu.Unlock()

	for _, cl := range clients {
		cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		cl.close()
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Debug().
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", c.Response().Status).
			Dur("took", time.Since(start)).
			Msg("Request")
		return nil
	}
}
