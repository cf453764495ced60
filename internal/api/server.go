// Package api exposes capture commands over HTTP and streams key events over
// WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"keylatch/internal/capture"
	"keylatch/internal/protocol"
)

// Controller is the part of the capture engine the API drives.
type Controller interface {
	StartCapture(mode, inputMode string) error
	StopCapture() error
	Snapshot() (capture.Snapshot, error)
	Subscribe(buffer int) (<-chan capture.GlobalKeyEvent, func())
	SubscribeState(buffer int) (<-chan capture.Snapshot, func())
}

// Server provides HTTP API for capture control
type Server struct {
	ctrl  Controller
	addr  string
	token string
	log   zerolog.Logger
	wsMgr *WSManager

	originsMu sync.RWMutex
	origins   []string
}

// NewServer creates a new API server. An empty token disables auth. Browser
// origins are all refused until SetAllowedOrigins is called.
func NewServer(ctrl Controller, addr, token string, log zerolog.Logger) *Server {
	s := &Server{
		ctrl:  ctrl,
		addr:  addr,
		token: token,
		log:   log,
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/capture/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/api/capture/stop", s.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.wsMgr.handleWebSocket).Methods(http.MethodGet)
	r.Use(s.recoverMiddleware, s.originMiddleware, s.authMiddleware)
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	wsCtx, stopWS := context.WithCancel(ctx)
	defer stopWS()
	go s.wsMgr.start(wsCtx)

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error().Interface("panic", err).Str("path", r.URL.Path).Msg("recovered handler panic")
				writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SetAllowedOrigins replaces the browser origins accepted by every route,
// the WebSocket handshake included.
func (s *Server) SetAllowedOrigins(origins []string) {
	s.originsMu.Lock()
	s.origins = append([]string(nil), origins...)
	s.originsMu.Unlock()
}

func (s *Server) allowsOrigin(r *http.Request) bool {
	s.originsMu.RLock()
	defer s.originsMu.RUnlock()
	return originAllowed(r.Header.Get("Origin"), s.origins)
}

// originMiddleware stops pages on other sites from driving capture or
// reading the key stream through the user's browser.
func (s *Server) originMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allowsOrigin(r) {
			s.log.Warn().Str("origin", r.Header.Get("Origin")).Str("path", r.URL.Path).Msg("refused cross-origin request")
			writeError(w, http.StatusForbidden, errors.New("origin not allowed"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("api request")

		// Skip auth for health check
		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Browsers cannot set headers on a WebSocket handshake.
		if r.Header.Get("Authorization") != "Bearer "+s.token && r.URL.Query().Get("token") != s.token {
			writeError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleStart handles POST /api/capture/start
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartCapturePayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	if err := s.ctrl.StartCapture(req.Mode, req.InputMode); err != nil {
		s.log.Error().Err(err).Msg("start capture failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStop handles POST /api/capture/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.StopCapture(); err != nil {
		s.log.Error().Err(err).Msg("stop capture failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctrl.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, protocol.ErrorPayload{Error: err.Error()})
}
