package live

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-ui/ripple/pkg/metrics"
)

// Config holds the session transport limits.
type Config struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns the default transport limits.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   25 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// Server hosts live component sessions over WebSocket.
type Server struct {
	config  Config
	log     *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	upgrader websocket.Upgrader

	mu       sync.RWMutex
	programs map[string]*Program
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithMetrics attaches a metric set; sessions then report flushes,
// frames, and errors through it.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithConfig overrides the transport limits.
func WithConfig(cfg Config) ServerOption {
	return func(s *Server) { s.config = cfg }
}

// WithCheckOrigin overrides the upgrader's origin policy. The default
// accepts same-origin requests only.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer creates a session server with no programs registered.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		config:   DefaultConfig(),
		log:      slog.Default(),
		tracer:   otel.Tracer("github.com/ripple-ui/ripple/pkg/live"),
		programs: make(map[string]*Program),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register makes a program available at /live/{name}. Registering the
// same name twice replaces the program for new sessions.
func (s *Server) Register(name string, p *Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[name] = p
}

func (s *Server) program(name string) *Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.programs[name]
}

// Handler returns the HTTP surface: the session endpoint, the metrics
// scrape handler, and a health probe.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/live/{name}", s.handleSession)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	program := s.program(name)
	if program == nil {
		http.Error(w, "unknown component", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "component", name, "error", err)
		s.recordError("upgrade")
		return
	}

	sess, err := s.newSession(conn, name, program)
	if err != nil {
		s.log.Error("session start failed", "component", name, "error", err)
		s.recordError("mount")
		conn.Close()
		return
	}

	if s.metrics != nil {
		s.metrics.SessionStarted()
	}
	s.log.Info("session started", "component", name)
	sess.run(r.Context())
}

func (s *Server) recordError(errorType string) {
	if s.metrics != nil {
		s.metrics.RecordSessionError(errorType)
	}
}
