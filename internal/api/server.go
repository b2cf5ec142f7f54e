package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/audit"
	"github.com/ostiary/ostiary-core/internal/auth"
	"github.com/ostiary/ostiary-core/internal/decision"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/infrastructure/config"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
	"github.com/ostiary/ostiary-core/internal/rules"
	"github.com/ostiary/ostiary-core/internal/schedule"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Invalidator requests a configuration snapshot rebuild. Mutating
// handlers call it after every successful write so the decision engine
// picks the change up on its next refresh.
type Invalidator interface {
	Invalidate()
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Directory directory.Repository
	Schedules schedule.Repository
	Points    accesspoint.Repository
	Rules     rules.Repository
	Audit     audit.Repository
	Operators auth.OperatorRepository
	Engine    *decision.Engine
	Snapshots Invalidator // may be nil; writes then skip invalidation
	Version   string
}

// Server is the HTTP API server for Ostiary Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	directory directory.Repository
	schedules schedule.Repository
	points    accesspoint.Repository
	rules     rules.Repository
	audit     audit.Repository
	operators auth.OperatorRepository
	engine    *decision.Engine
	snapshots Invalidator
	version   string
	started   time.Time

	server  *http.Server
	hub     *Hub
	tickets *ticketStore
	cancel  context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Directory == nil || deps.Schedules == nil || deps.Points == nil || deps.Rules == nil {
		return nil, fmt.Errorf("configuration repositories are required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	if deps.Operators == nil {
		return nil, fmt.Errorf("operator repository is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("decision engine is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		directory: deps.Directory,
		schedules: deps.Schedules,
		points:    deps.Points,
		rules:     deps.Rules,
		audit:     deps.Audit,
		operators: deps.Operators,
		engine:    deps.Engine,
		snapshots: deps.Snapshots,
		version:   deps.Version,
		hub:       NewHub(deps.WS, deps.Logger),
		tickets:   newTicketStore(),
	}, nil
}

// Hub returns the WebSocket hub. It implements decision.Sink so live
// verdicts can be streamed by registering it on the engine.
func (s *Server) Hub() *Hub { return s.hub }

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	s.started = time.Now()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to gracefulShutdownTimeout for in-flight requests to
// complete, then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
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

// invalidate kicks a snapshot rebuild after a configuration write.
func (s *Server) invalidate() {
	if s.snapshots != nil {
		s.snapshots.Invalidate()
	}
}
