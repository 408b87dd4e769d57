package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/micom7/graph/internal/audit"
	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/infrastructure/config"
	"github.com/micom7/graph/internal/infrastructure/database"
	"github.com/micom7/graph/internal/infrastructure/logging"
	"github.com/micom7/graph/internal/metrics"
	"github.com/micom7/graph/internal/workspace"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ConnectionChecker reports whether an optional backend is connected.
// *mqtt.Client and *influxdb.Client satisfy it.
type ConnectionChecker interface {
	IsConnected() bool
}

// HistoryReader lists recorded commits. *audit.SQLiteRepository satisfies it.
type HistoryReader interface {
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Metrics   config.MetricsConfig
	Logger    *logging.Logger
	Workspace *workspace.Workspace

	// Optional collaborators. Nil values are reported as absent.
	Registry *metrics.Registry
	DB       *database.DB
	MQTT     ConnectionChecker
	InfluxDB ConnectionChecker
	History  HistoryReader

	Version string
}

// Server is the HTTP API server for graphd.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	metricCfg config.MetricsConfig
	logger    *logging.Logger
	workspace *workspace.Workspace
	editor    *graph.Editor
	metrics   *metrics.Registry
	db        *database.DB
	mqtt      ConnectionChecker
	influx    ConnectionChecker
	history   HistoryReader
	version   string
	startTime time.Time

	server      *http.Server
	listener    net.Listener
	hub         *Hub
	cancel      context.CancelFunc // cancels background goroutines on Close()
	unsubscribe func()
	mu          sync.Mutex
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Workspace == nil {
		return nil, fmt.Errorf("workspace is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		metricCfg: deps.Metrics,
		logger:    deps.Logger,
		workspace: deps.Workspace,
		editor:    deps.Workspace.Editor(),
		metrics:   deps.Registry,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		history:   deps.History,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	if s.metrics != nil {
		s.hub.SetOnClientCount(func(n int) { s.metrics.WebSocketClients.Set(float64(n)) })
	}
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, subscribes the hub to editor commits and
// launches the HTTP listener in a background goroutine. The listener is
// bound before Start returns, so Addr is valid immediately. The server can
// be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	s.unsubscribe = s.editor.Subscribe(s.broadcastCommit)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		s.unsubscribe()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// Handler returns the router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}
