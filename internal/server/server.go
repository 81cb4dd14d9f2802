package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/TuanHung1810/ChatBox-AI/internal/metrics"
)

// Server is the chatbox HTTP server.
type Server struct {
	options        Options
	server         *http.Server
	conversation   Conversation
	fetcher        Fetcher
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a chatbox HTTP server.
func NewServer(options Options, conversation Conversation, fetcher Fetcher, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 5000
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.UploadDir == "" {
		options.UploadDir = "uploads"
	}
	if options.MaxUploadBytes == 0 {
		options.MaxUploadBytes = 10 * 1024 * 1024
	}

	if conversation == nil {
		return nil, fmt.Errorf("conversation is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}

	if err := os.MkdirAll(options.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Server{
		options:      options,
		conversation: conversation,
		fetcher:      fetcher,
		logger:       logger,
		startTime:    time.Now(),
	}, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", s.withRequest(s.handleChat))
	mux.HandleFunc("/api/upload/image", s.withRequest(s.handleImageUpload))
	mux.HandleFunc("/api/upload/csv", s.withRequest(s.handleCSVUpload))
	mux.HandleFunc("/api/history/", s.withRequest(s.handleHistory))
	mux.HandleFunc("/api/clear/", s.withRequest(s.handleClear))
	mux.HandleFunc("/uploads/", s.withRequest(s.handleServeUpload))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	return mux
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Str("upload_dir", s.options.UploadDir).
		Msg("Starting chatbox server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server, waiting for in-flight requests.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down chatbox server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	s.logger.Info().Msg("Chatbox server stopped")
	return nil
}

// withRequest wraps a handler with shutdown checks, in-flight tracking,
// and request logging.
func (s *Server) withRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		s.shutdownMu.RUnlock()

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()

		requestID, _ := gonanoid.New()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealth reports liveness and uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Seconds(),
		"timestamp": time.Now().UnixMilli(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
