// Package api provides the HTTP server of the housing dashboard.
//
// It exposes the FRED proxy (which injects the secret API key server-side),
// liveness checks, the assembled dashboard as JSON and over WebSocket, and
// Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/housingdash/internal/config"
	"github.com/seenimoa/housingdash/internal/dashboard"
	"github.com/seenimoa/housingdash/internal/metrics"
	"github.com/seenimoa/housingdash/internal/providers/fred"
)

// Upstream fetches raw series observations. *fred.Client implements it.
type Upstream interface {
	Observations(ctx context.Context, seriesID string, query url.Values) ([]byte, error)
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	upstream Upstream
	pipeline dashboard.Runner
	wsHub    *WSHub
	stopHub  context.CancelFunc
	log      *zap.Logger
	version  string
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithUpstream replaces the FRED client built from the config.
func WithUpstream(u Upstream) Option {
	return func(s *Server) { s.upstream = u }
}

// WithPipeline replaces the dashboard pipeline built from the config.
func WithPipeline(p dashboard.Runner) Option {
	return func(s *Server) { s.pipeline = p }
}

// WithLogger sets the server logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: nil config")
	}
	srv := &Server{
		cfg:     cfg,
		wsHub:   NewWSHub(),
		log:     zap.NewNop(),
		version: "dev",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(srv)
	}

	if srv.upstream == nil {
		srv.upstream = fred.New(cfg.FRED.BaseURL, cfg.FRED.APIKey,
			fred.WithTimeout(cfg.FRED.Timeout),
			fred.WithLogger(srv.log.Named("fred")),
		)
	}
	if srv.pipeline == nil {
		ep := cfg.Dashboard.Endpoints()
		fetcher := dashboard.NewFetcher(dashboard.Options{
			SeriesURL:              ep.Series,
			HealthURL:              ep.Health,
			ObservationWindowYears: cfg.Dashboard.ObservationWindowYears,
			Frequency:              cfg.Dashboard.Frequency,
			Logger:                 srv.log.Named("fetcher"),
		})
		srv.pipeline = dashboard.NewPipeline(fetcher, dashboard.WithLogger(srv.log.Named("dashboard")))
	}

	metrics.Init()
	srv.router = srv.buildRouter()

	hubCtx, stopHub := context.WithCancel(context.Background())
	srv.stopHub = stopHub
	go srv.wsHub.Run(hubCtx)

	return srv, nil
}

// Close stops the WebSocket hub and disconnects its clients. Serve calls it
// on shutdown; callers that only mount Router must call it themselves.
func (s *Server) Close() {
	s.stopHub()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to 15 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	defer s.Close()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Proxy liveness
	r.Get("/health", s.handleHealth)

	// FRED proxy; the serverless path is served too so either client
	// configuration works against this server.
	r.Get("/api/fred/{seriesId}", s.handleFREDProxy)
	r.Get("/fredProxy/{seriesId}", s.handleFREDProxy)
	r.Get("/.netlify/functions/fredProxy/{seriesId}", s.handleFREDProxy)
	r.Get("/.netlify/functions/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleStatus)
		r.Get("/series", s.handleSeries)
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/dashboard", s.handleDashboard)
		r.Post("/dashboard/refresh", s.handleDashboardRefresh)
		r.Get("/dashboard/ws", s.handleWebSocket)
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope of the /api/v1 routes.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ProxyError is the body of a failed proxy request.
type ProxyError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// StatusResponse is the data of GET /api/v1/health.
type StatusResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Time         string `json:"time"`
	KeyPresent   bool   `json:"fredKeyConfigured"`
	WSClients    int    `json:"wsClients"`
	UpstreamBase string `json:"upstream"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: StatusResponse{
			Status:       "ok",
			Version:      s.version,
			Time:         s.now().UTC().Format(time.RFC3339),
			KeyPresent:   s.cfg.FRED.APIKey != "",
			WSClients:    s.wsHub.ClientCount(),
			UpstreamBase: s.cfg.FRED.BaseURL,
		},
	})
}

// handleFREDProxy forwards the request query to the observations endpoint
// of the series in the path and relays the upstream body verbatim.
func (s *Server) handleFREDProxy(w http.ResponseWriter, r *http.Request) {
	seriesID := chi.URLParam(r, "seriesId")
	label := seriesLabel(seriesID)
	start := time.Now()

	body, err := s.upstream.Observations(r.Context(), seriesID, r.URL.Query())
	if err != nil {
		status, perr := proxyError(err)
		metrics.ObserveProxy(label, status, time.Since(start))
		s.log.Warn("proxy request failed",
			zap.String("series", seriesID),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, perr)
		return
	}

	metrics.ObserveProxy(label, http.StatusOK, time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.log.Debug("write proxy body", zap.Error(err))
	}
}

// seriesLabel bounds the series label of proxy metrics to the catalogue.
func seriesLabel(seriesID string) string {
	if info, ok := dashboard.LookupCode(seriesID); ok {
		return info.Code
	}
	return metrics.OtherSeries
}

// proxyError maps an upstream failure to a status and error body. Upstream
// statuses are relayed; anything else is a 500.
func proxyError(err error) (int, ProxyError) {
	var apiErr *fred.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status, ProxyError{Error: "FRED API Error", Message: apiErr.Message, Status: apiErr.Status}
	case errors.Is(err, fred.ErrNoResponse):
		return http.StatusInternalServerError, ProxyError{Error: "No Response", Message: "No response received from FRED API"}
	default:
		return http.StatusInternalServerError, ProxyError{Error: "Request Error", Message: err.Error()}
	}
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: dashboard.Series()})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.pipeline.Run(r.Context())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

// handleDashboardRefresh runs the pipeline and pushes the snapshot to every
// connected WebSocket client.
func (s *Server) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	snap := s.pipeline.Run(r.Context())
	s.wsHub.Broadcast(WSMessage{Type: msgSnapshot, Data: snap})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
