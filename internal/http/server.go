// Package http wires the web surface: page rendering, ingestion
// endpoints, analysis and chat APIs, and the middleware around them.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finadvisor/internal/advisor"
	"finadvisor/internal/cache"
	"finadvisor/internal/events"
	"finadvisor/internal/session"
	appweb "finadvisor/web"
)

// Publisher emits ingestion events. Publishing is best-effort: a failed
// publish is logged and never fails the request.
type Publisher interface {
	PublishSnapshotIngested(ctx context.Context, msg *events.SnapshotIngested) error
}

// Options carries the tunables NewServer needs beyond its collaborators.
type Options struct {
	MaxUploadBytes   int64
	AnalysisCacheTTL time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	sessions  *session.Manager
	store     session.Store
	advisor   *advisor.Advisor
	publisher Publisher

	// Memoized AI analysis text keyed by session and snapshot timestamp.
	analysisCache *cache.LRU[string]
	cacheCancel   context.CancelFunc

	rateLimiter    *rateLimiter
	maxUploadBytes int64
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. publisher may be nil when eventing is disabled.
func NewServer(addr string, sessions *session.Manager, store session.Store, adv *advisor.Advisor, publisher Publisher, opts Options) *Server {
	mux := http.NewServeMux()

	cacheCtx, cacheCancel := context.WithCancel(context.Background())
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sessions:       sessions,
		store:          store,
		advisor:        adv,
		publisher:      publisher,
		analysisCache:  cache.NewLRU[string](500, opts.AnalysisCacheTTL),
		cacheCancel:    cacheCancel,
		rateLimiter:    newRateLimiter(),
		maxUploadBytes: opts.MaxUploadBytes,
	}
	s.analysisCache.StartCleanup(cacheCtx, 10*time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/input", s.withSecurityHeaders(s.handleInput))
	mux.HandleFunc("/process-manual", s.withSecurityHeaders(s.handleProcessManual))
	mux.HandleFunc("/process-csv", s.withSecurityHeaders(s.handleProcessCSV))
	mux.HandleFunc("/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/analyze", s.withSecurityHeaders(s.handleAnalyze))
	mux.HandleFunc("/chat", s.withSecurityHeaders(s.handleChat))
	mux.HandleFunc("/chat-page", s.withSecurityHeaders(s.handleChatPage))

	return s
}

// Shutdown stops the background cleanup goroutines, then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheCancel()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)

		// Generate request ID for tracing
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness requires a reachable session store.
	if _, _, err := s.store.Get(r.Context(), "readiness-probe"); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
