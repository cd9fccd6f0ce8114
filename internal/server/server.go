// Package server exposes the engine over HTTP: snapshot reads, start/stop
// control, an ad hoc level calculator, Prometheus metrics and a WebSocket
// snapshot push.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/engine"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/metrics"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
)

// DefaultPushInterval is used when the configuration has no push interval.
const DefaultPushInterval = 2 * time.Second

// Engine is the part of the engine the server drives.
type Engine interface {
	Start(p engine.StartParams) error
	Stop()
	IsRunning() bool
	Snapshot() types.Snapshot
	Params() types.RunParameters
}

// Server serves the control surface for one engine.
type Server struct {
	engine  Engine
	cfg     *config.AppConfig
	metrics *metrics.Metrics
	hub     *Hub
	log     *logger.Logger

	httpServer *http.Server
	listener   net.Listener
}

// New creates a server. m may be nil, in which case /metrics is not routed.
func New(eng Engine, cfg *config.AppConfig, m *metrics.Metrics, log *logger.Logger) *Server {
	log = log.Named("server")

	interval := cfg.Server.PushInterval
	if interval <= 0 {
		interval = DefaultPushInterval
	}

	return &Server{
		engine:     eng,
		cfg:        cfg,
		metrics:    m,
		hub:        NewHub(eng.Snapshot, interval, log),
		log:        log,
		httpServer: nil,
		listener:   nil,
	}
}

// Hub returns the WebSocket hub. Engines notify it on every signal.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/translate", s.handleTranslate).Methods(http.MethodPost)
	api.HandleFunc("/setups", s.handleSetups).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.hub.ServeWS)

	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	return router
}

// Start listens on addr and serves in the background. An empty addr uses the
// configured one; ":0" picks a free port.
func (s *Server) Start(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Server.Addr
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", addr)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.log.Info("Listening", zap.String("addr", listener.Addr().String()))

	return nil
}

// Shutdown closes WebSocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Address returns the listening address, or "" before Start.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}
