// Package server previews a generated documentation site.
//
// The server hands out the files of the output directory as they are on
// disk. With live reload enabled every HTML response carries a small script
// that listens on LiveReloadPath; Reload tells all open pages to refresh
// after a regeneration.
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

	"github.com/conneroisu/patterndoc/internal/logging"
	"github.com/conneroisu/patterndoc/internal/version"
)

// LiveReloadPath is the websocket endpoint of the reload channel.
const LiveReloadPath = "/_livereload"

const shutdownTimeout = 5 * time.Second

// Options configures the preview server.
type Options struct {
	Host string
	Port int
	// Root is the generated site
	Root string
	// Index is served for directory requests
	Index          string
	LiveReload     bool
	AllowedOrigins []string
	Logger         logging.Logger
}

// Server serves a documentation site with optional live reload.
type Server struct {
	opts   Options
	hub    *Hub
	logger logging.Logger

	mutex      sync.RWMutex
	listener   net.Listener
	httpServer *http.Server
	lastReload time.Time
}

// New creates a server. Nothing is bound until Listen or Start.
func New(opts Options) *Server {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	port := strconv.Itoa(opts.Port)
	allowed := append([]string{
		net.JoinHostPort(opts.Host, port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("127.0.0.1", port),
	}, opts.AllowedOrigins...)

	return &Server{
		opts:   opts,
		hub:    NewHub(allowed, logger),
		logger: logger,
	}
}

// Hub returns the live reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.LiveReload {
		mux.Handle(LiveReloadPath, s.hub)
	}
	mux.HandleFunc("/_health", s.handleHealth)
	mux.Handle("/", newStaticHandler(s.opts.Root, s.opts.Index, s.opts.LiveReload))
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mutex.RLock()
	lastReload := s.lastReload
	s.mutex.RUnlock()

	health := map[string]interface{}{
		"status":      "healthy",
		"version":     version.GetBuildInfo().Short(),
		"root":        s.opts.Root,
		"live_reload": s.opts.LiveReload,
		"clients":     s.hub.ClientCount(),
	}
	if !lastReload.IsZero() {
		health["last_reload"] = lastReload.UTC()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode health response")
	}
}

// Listen binds the configured address. Port 0 picks a free port; the
// chosen address is allowed as websocket origin.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mutex.Lock()
	s.listener = listener
	s.mutex.Unlock()

	bound := listener.Addr().(*net.TCPAddr)
	port := strconv.Itoa(bound.Port)
	s.hub.AllowOrigins(
		listener.Addr().String(),
		net.JoinHostPort(s.opts.Host, port),
		net.JoinHostPort("localhost", port),
	)
	return nil
}

// URL returns the base URL once the server is listening.
func (s *Server) URL() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.listener == nil {
		return ""
	}
	port := s.listener.Addr().(*net.TCPAddr).Port
	host := s.opts.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Start serves until ctx is done. It calls Listen when that has not
// happened yet.
func (s *Server) Start(ctx context.Context) error {
	s.mutex.RLock()
	listening := s.listener != nil
	s.mutex.RUnlock()
	if !listening {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	go s.hub.Run(ctx)

	s.mutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	listener := s.listener
	s.mutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "Server shutdown failed")
		}
	}()

	s.logger.Info(ctx, "Serving documentation", "url", s.URL(), "root", s.opts.Root, "live_reload", s.opts.LiveReload)
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Reload notifies every connected page that the site changed.
func (s *Server) Reload() {
	s.mutex.Lock()
	s.lastReload = time.Now()
	s.mutex.Unlock()

	if s.opts.LiveReload {
		s.hub.Reload()
	}
}
