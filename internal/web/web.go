// Package web serves read-only operational status: job tick outcomes and
// property-store utilization. No control endpoints.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"sigherald/internal/config"
	"sigherald/internal/dedup"
	"sigherald/internal/job"
	appLog "sigherald/internal/log"
)

// Server provides the /health and /api/status endpoints.
type Server struct {
	cfg   *config.Config
	board *job.StatusBoard
	store *dedup.Store
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, board *job.StatusBoard, store *dedup.Store) *Server {
	s := &Server{
		cfg:   cfg,
		board: board,
		store: store,
		mux:   http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusResponse struct {
	Time  string                   `json:"time"`
	Jobs  map[string]job.TickStatus `json:"jobs"`
	Store struct {
		Used  int `json:"used"`
		Quota int `json:"quota"`
	} `json:"store"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	resp.Time = time.Now().Format(time.RFC3339)
	resp.Jobs = s.board.Snapshot()

	used, quota, err := s.store.Utilization(r.Context())
	if err != nil {
		appLog.Error("status: utilization check failed", err)
	} else {
		resp.Store.Used = used
		resp.Store.Quota = quota
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&resp)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password is treated as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sigherald", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves the status API on cfg.Listen until ctx is canceled.
func StartServer(ctx context.Context, cfg *config.Config, board *job.StatusBoard, store *dedup.Store) error {
	s := NewServer(cfg, board, store)
	srv := &http.Server{Addr: cfg.Listen, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
