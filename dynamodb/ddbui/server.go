package ddbui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/logger"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/query"
)

//go:embed static/*
var staticFiles embed.FS

// ServerConfig configures the explorer server.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port int
	// Backend names the data source shown in the banner, e.g. "aws" or
	// "local".
	Backend string
	// Profile and Region describe the AWS backend.
	Profile string
	Region  string
	// DataDir is the local store directory. Empty means in-memory.
	DataDir string
}

// Server is the explorer HTTP server.
type Server struct {
	config     ServerConfig
	svc        *query.Service
	identity   IdentityFunc
	closer     io.Closer
	log        logr.Logger
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithIdentity serves /api/identity through fn.
func WithIdentity(fn IdentityFunc) Option {
	return func(s *Server) { s.identity = fn }
}

// WithCloser closes c when the server shuts down.
func WithCloser(c io.Closer) Option {
	return func(s *Server) { s.closer = c }
}

// WithLogger sets the request logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) { s.log = log }
}

// NewServer creates a new explorer server.
func NewServer(config ServerConfig, svc *query.Service, opts ...Option) *Server {
	s := &Server{
		config: config,
		svc:    svc,
		log:    *logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving the API and the web page.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	NewAPIHandler(s.svc, s.identity).RegisterRoutes(mux)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static fs: %w", err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(staticFS)))

	return corsMiddleware(s.loggingMiddleware(mux)), nil
}

// Run serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.printBanner()
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Server) printBanner() {
	cat := s.svc.Catalog()
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    DynamoDB Record Explorer                  ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  URL: http://localhost:%-38d║\n", s.config.Port)
	switch {
	case s.config.Backend == "local" && s.config.DataDir == "":
		fmt.Println("║  Backend: local, in-memory (data will be lost on exit)       ║")
	case s.config.Backend == "local":
		fmt.Printf("║  Backend: local, %-44s║\n", truncate(s.config.DataDir, 44))
	default:
		fmt.Printf("║  AWS profile: %-47s║\n", truncate(s.config.Profile, 47))
		fmt.Printf("║  AWS region: %-48s║\n", truncate(s.config.Region, 48))
	}
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	for _, env := range cat.Environments {
		label := env.Name
		if env.Production {
			label += " (production)"
		}
		fmt.Printf("║  %-60s║\n", truncate(label, 60))
		for _, key := range cat.TableKeys(env.Name) {
			t := env.Tables[key]
			line := fmt.Sprintf("    - %s (%d indexes)", t.Name, len(t.Indexes))
			fmt.Printf("║  %-60s║\n", truncate(line, 60))
		}
	}
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Press Ctrl+C to stop                                        ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// loggingMiddleware logs each request and hands the logger to handlers
// through the request context.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.log.WithValues("method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), &log)))
		if r.URL.Path != "/favicon.ico" {
			log.Info("request", "duration", time.Since(start).String())
		}
	})
}

// corsMiddleware adds CORS headers for development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
