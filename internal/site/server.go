package site

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-ike/internal/components"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/internal/markdown"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

const defaultShutdownTimeout = 5 * time.Second

// Config controls the HTTP server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	// Metrics exposes /metrics.
	Metrics bool
}

// Server serves pages, reference pages and the public directory.
type Server struct {
	cfg      Config
	renderer *Renderer
	public   fs.FS
	logger   interfaces.Logger
	metrics  Metrics
	gatherer prometheus.Gatherer
	router   *mux.Router
	listener net.Listener
}

type ServerOption func(*Server)

func WithServerLogger(logger interfaces.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records every request. gatherer backs /metrics; nil uses the
// default gatherer.
func WithMetrics(metrics Metrics, gatherer prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		if metrics != nil {
			s.metrics = metrics
		}
		s.gatherer = gatherer
	}
}

// WithListener serves on an existing listener instead of cfg.Addr.
func WithListener(listener net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = listener
	}
}

func NewServer(cfg Config, renderer *Renderer, public fs.FS, opts ...ServerOption) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		cfg:      cfg,
		renderer: renderer,
		public:   public,
		logger:   logging.NoOp(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start loads the site configuration, then serves until ctx is cancelled and
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	_ = s.renderer.LoadSiteConfig(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.listener != nil {
			err = srv.Serve(s.listener)
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	addr := s.cfg.Addr
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	logging.WithFields(s.logger, map[string]any{"addr": addr}).Info("site.server.started")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.WithFields(s.logger, map[string]any{"addr": addr}).Info("site.server.stopped")
	return nil
}

// Reload refetches the site configuration.
func (s *Server) Reload(ctx context.Context) error {
	return s.renderer.LoadSiteConfig(ctx)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.observe)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	if s.cfg.Metrics {
		gatherer := s.gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	router.PathPrefix("/_ike/").Handler(http.StripPrefix("/_ike/", http.FileServer(http.FS(components.Static())))).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/reference/", s.handleReference).Methods(http.MethodGet)
	router.HandleFunc("/reference/{name}", s.handleReference).Methods(http.MethodGet)

	router.HandleFunc("/"+descriptors.APIDir+"/{name}.json", s.handleDescriptor(descriptors.APIDir)).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/"+descriptors.CacheDir+"/{name}.json", s.handleDescriptor(descriptors.CacheDir)).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/"+descriptors.SiteConfigPath, s.handlePublicFile(descriptors.SiteConfigPath)).Methods(http.MethodGet, http.MethodHead)

	router.PathPrefix("/").HandlerFunc(s.handlePage).Methods(http.MethodGet, http.MethodHead)
	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderer.RenderReference(r.Context(), &buf, mux.Vars(r)["name"]); err != nil {
		s.serverError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (s *Server) handleDescriptor(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		s.servePublic(w, r, path.Join(dir, name+".json"))
	}
}

func (s *Server) handlePublicFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.servePublic(w, r, name)
	}
}

// handlePage serves public files first, then Markdown pages.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if rel != "" && s.publicFile(rel) {
		s.servePublic(w, r, rel)
		return
	}

	var buf bytes.Buffer
	_, err := s.renderer.RenderPage(r.Context(), &buf, r.URL.Path)
	switch {
	case errors.Is(err, markdown.ErrPageNotFound):
		s.notFound(w, r)
	case err != nil:
		s.serverError(w, r, err)
	default:
		writeHTML(w, http.StatusOK, buf.Bytes())
	}
}

func (s *Server) publicFile(rel string) bool {
	if s.public == nil || !fs.ValidPath(rel) {
		return false
	}
	info, err := fs.Stat(s.public, rel)
	return err == nil && !info.IsDir()
}

func (s *Server) servePublic(w http.ResponseWriter, r *http.Request, rel string) {
	if !s.publicFile(rel) {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, s.public, rel)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.renderer.views.Page(&buf, components.PageView{
		Title:       "Page not found",
		CurrentPath: r.URL.Path,
		Sidebar:     s.renderer.SiteConfig().Sidebar,
		Content:     template.HTML("<h1>Page not found</h1>"),
	})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusNotFound, buf.Bytes())
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithFields(s.logger, map[string]any{
		"path":  r.URL.Path,
		"error": err,
	}).Error("site.request.failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.ObserveRequest(route, rec.status, elapsed)

		logging.WithFields(s.logger, map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
		}).Debug("site.request")
	})
}
