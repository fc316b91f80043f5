package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/operations"
	"scribe/internal/prompts"
	"scribe/internal/selection"
)

var log = commonlog.GetLogger("scribe.server")

// Version is reported by /api/status
const Version = "1.0.0"

// Server provides the editor's HTTP API using the operations layer
type Server struct {
	port     int
	token    string
	ops      *operations.Operations
	server   *http.Server
	mu       sync.RWMutex
	lastPing time.Time
	busy     bool
}

// NewServer creates a new HTTP server using operations
func NewServer(port int, token string, ops *operations.Operations) *Server {
	return &Server{
		port:     port,
		token:    token,
		ops:      ops,
		lastPing: time.Now(),
	}
}

// Handler returns the routed handler with CORS and request IDs applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/ai", s.handleAI)
	mux.HandleFunc("/api/ai/links", s.handleLinks)
	mux.HandleFunc("/api/selection/expand", s.handleExpand)
	mux.HandleFunc("/api/links/merge", s.handleMerge)

	return s.requestIDMiddleware(s.corsMiddleware(mux))
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Noticef("API server starting on http://localhost:%d", s.port)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type requestIDKey struct{}

// requestIDMiddleware tags each request with a UUID for log correlation
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		log.Debugf("[%s] %s %s (%s)", id, r.Method, r.URL.Path, time.Since(start))
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// corsMiddleware adds CORS headers for the browser editor
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Local dev servers and extensions are allowed to send credentials.
		if strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "http://127.0.0.1") ||
			strings.HasPrefix(origin, "chrome-extension://") ||
			strings.HasPrefix(origin, "moz-extension://") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// validateToken checks the authorization token
func (s *Server) validateToken(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.token
}

// acquire marks the server busy; model-backed requests run one at a time
func (s *Server) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// guard runs the shared method, token and busy checks for model-backed endpoints.
// It reports whether the handler may proceed; the caller must release when it does.
func (s *Server) guard(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if !s.validateToken(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if !s.acquire() {
		http.Error(w, "Server busy", http.StatusTooManyRequests)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// handleStatus returns server status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	s.lastPing = time.Now()
	busy := s.busy
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   Version,
		"busy":      busy,
		"ai":        s.ops.Writing.Available(),
		"links":     s.ops.Links.Available(),
		"timestamp": time.Now().Unix(),
	})
}

// handleAI rewrites a selection and answers with the replacement text
func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r) {
		return
	}
	defer s.release()

	var req struct {
		Selection string `json:"selection"`
		Context   string `json:"context"`
		Prompt    string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.ops.Writing.Rewrite(r.Context(), req.Prompt, req.Selection, req.Context)
	if err != nil {
		if errors.Is(err, prompts.ErrInvalidOption) {
			http.Error(w, "Invalid option", http.StatusBadRequest)
			return
		}
		if errors.Is(err, operations.ErrNotConfigured) {
			http.Error(w, "AI provider not configured", http.StatusServiceUnavailable)
			return
		}
		log.Errorf("[%s] rewrite error: %v", requestID(r), err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, result.Text)
}

// handleLinks suggests links for a selection
func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r) {
		return
	}
	defer s.release()

	var req struct {
		Selection string `json:"selection"`
		Context   string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Selection) == "" {
		http.Error(w, "Selection is required", http.StatusBadRequest)
		return
	}
	if !s.ops.Links.Available() {
		http.Error(w, "Link search not configured", http.StatusServiceUnavailable)
		return
	}

	result, err := s.ops.Links.SuggestLinks(r.Context(), req.Selection, req.Context)
	if err != nil {
		log.Errorf("[%s] link suggestion error: %v", requestID(r), err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"links": result.Links})
}

// handleExpand widens a selection over plain text to whole words
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.validateToken(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Text string `json:"text"`
		From int    `json:"from"`
		To   int    `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	doc := document.FromText(req.Text)
	result, err := s.ops.Editor.Expand(doc, selection.Selection{From: req.From, To: req.To})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from": result.Selection.From,
		"to":   result.Selection.To,
		"text": result.Text,
	})
}

// handleMerge merges a chosen link set into a fragment
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.validateToken(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Fragment string       `json:"fragment"`
		Links    []links.Link `json:"links"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"text": s.ops.Links.Merge(req.Fragment, req.Links),
	})
}
