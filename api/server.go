package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/snake-api/game/engine"
	"github.com/wricardo/snake-api/game/service"
	"github.com/wricardo/snake-api/game/session"
	"github.com/wricardo/snake-api/transport/websocket"
)

// DefaultStreamInterval is the cadence of /game-stream updates.
const DefaultStreamInterval = 200 * time.Millisecond

// Server represents the HTTP API server
type Server struct {
	service        service.GameService
	hub            *websocket.Hub
	router         *mux.Router
	handler        http.Handler
	logger         *zap.Logger
	pathBase       string
	streamInterval time.Duration
	mcpHandler     http.Handler
	adminToken     string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPathBase additionally mounts every route under base, e.g. "/snake-api".
func WithPathBase(base string) Option {
	return func(s *Server) {
		s.pathBase = "/" + strings.Trim(base, "/")
		if s.pathBase == "/" {
			s.pathBase = ""
		}
	}
}

// WithStreamInterval sets the /game-stream cadence.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

// WithMCPHandler serves MCP JSON-RPC requests on POST /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcpHandler = h
	}
}

// WithAdminToken mounts the session administration routes, guarded by
// "Authorization: Bearer <token>". Without it they are not served, since
// session IDs are the players' credentials.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:        gameService,
		hub:            hub,
		router:         mux.NewRouter(),
		logger:         zap.NewNop(),
		streamInterval: DefaultStreamInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes(s.router)
	if s.pathBase != "" {
		s.setupRoutes(s.router.PathPrefix(s.pathBase).Subrouter())
	}
	// CORS wraps the router so preflight requests never reach route matching.
	s.handler = loggingMiddleware(s.logger)(corsMiddleware(s.router))
	return s
}

// setupRoutes configures all routes on r
func (s *Server) setupRoutes(r *mux.Router) {
	// Health and MCP do not need a game session.
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.mcpHandler != nil {
		r.Handle("/mcp", s.mcpHandler).Methods("POST")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	if s.adminToken != "" {
		admin := adminMiddleware(s.adminToken)
		api.Handle("/sessions", admin(http.HandlerFunc(s.handleListSessions))).Methods("GET")
		api.Handle("/sessions/{id}", admin(http.HandlerFunc(s.handleDeleteSession))).Methods("DELETE")
	}

	game := r.NewRoute().Subrouter()
	game.Use(sessionMiddleware)
	game.HandleFunc("/render", s.handleRender).Methods("GET")
	game.HandleFunc("/start", s.handleStart).Methods("POST")
	game.HandleFunc("/pause", s.handlePause).Methods("POST")
	game.HandleFunc("/reset", s.handleReset).Methods("POST")
	game.HandleFunc("/move", s.handleMove).Methods("POST")
	game.HandleFunc("/status", s.handleStatus).Methods("GET")
	game.HandleFunc("/game-stream", s.handleGameStream).Methods("GET")
	game.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidDirection), errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrManagerClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	respondError(w, status, err.Error())
}

// wantsJSON reports whether a /render caller asked for the JSON view.
func wantsJSON(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "json"
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == "application/json" {
			return true
		}
	}
	return false
}

// Game Handlers

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Render(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, view)
		return
	}

	html, err := RenderHTML(view)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, html)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.service.Start)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.service.Pause)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.service.Reset)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, sessionID string) (*service.ActionResult, error)) {
	sessionID := SessionIDFromContext(r.Context())
	result, err := action(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.refresh(sessionID, result.Changed)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	direction, err := moveDirection(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := SessionIDFromContext(r.Context())
	result, err := s.service.Move(r.Context(), sessionID, direction)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.refresh(sessionID, result.Changed)
	respondJSON(w, http.StatusOK, result)
}

// moveDirection reads the direction from a JSON body, a form or the query.
func moveDirection(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req struct {
			Direction string `json:"direction"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<10)).Decode(&req); err != nil {
			return "", fmt.Errorf("invalid JSON body: %w", err)
		}
		if req.Direction == "" {
			return "", errors.New("direction is required")
		}
		return req.Direction, nil
	}

	direction := r.FormValue("direction")
	if direction == "" {
		return "", errors.New("direction is required")
	}
	return direction, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.Status(r.Context(), SessionIDFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// handleGameStream sends the rendered board as server-sent events until the
// client disconnects.
func (s *Server) handleGameStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sessionID := SessionIDFromContext(ctx)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		view, err := s.service.Render(ctx, sessionID)
		if err != nil {
			s.logger.Warn("stream render failed", zap.String("session_id", sessionID), zap.Error(err))
			return
		}
		html, err := RenderHTML(view)
		if err != nil {
			s.logger.Error("stream template failed", zap.Error(err))
			return
		}
		if err := writeEvent(w, "gameUpdate", html); err != nil {
			return
		}
		flusher.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// writeEvent writes one SSE event, prefixing every payload line with "data: ".
func writeEvent(w http.ResponseWriter, event, payload string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\n")
	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := fmt.Fprint(w, b.String())
	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotFound, "websocket feed disabled")
		return
	}
	// The upgrade request resolves the session; hub pushes only read live ones.
	sessionID := SessionIDFromContext(r.Context())
	if _, err := s.service.Render(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) refresh(sessionID string, changed bool) {
	if changed && s.hub != nil {
		s.hub.Refresh(sessionID)
	}
}

// Session and Configuration Handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, "session_deleted", nil)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
