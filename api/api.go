// Package api exposes the patch database and the update pipeline over a
// small JSON HTTP surface, for front-ends and cron-driven refreshes.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wrgg/patchfeed/pipeline"
	"github.com/wrgg/patchfeed/store"
)

// UpdateRunner runs one full update pass. Satisfied by *pipeline.Updater.
type UpdateRunner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Server represents the HTTP API server.
type Server struct {
	store   *store.Store
	updater UpdateRunner
}

// NewServer creates an API server over the given store. updater may be nil,
// in which case POST /api/v1/update is rejected.
func NewServer(st *store.Store, updater UpdateRunner) *Server {
	return &Server{
		store:   st,
		updater: updater,
	}
}

// ChampionsResponse represents the response for GET /api/v1/champions.
type ChampionsResponse struct {
	Champions []store.Champion `json:"champions"`
	Total     int              `json:"total"`
}

// PatchesResponse represents the response for GET /api/v1/patches. Patches
// are ordered oldest first.
type PatchesResponse struct {
	Patches []store.Patch `json:"patches"`
	Total   int           `json:"total"`
}

// ChangesResponse represents the response for GET /api/v1/changes.
type ChangesResponse struct {
	Changes []store.Change `json:"changes"`
	Total   int            `json:"total"`
}

// UpdateResponse represents the response for POST /api/v1/update.
type UpdateResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
}

// StatusResponse represents the response for GET /api/v1/status.
type StatusResponse struct {
	Database string       `json:"database"`
	Counts   store.Counts `json:"counts"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleChampions handles GET /api/v1/champions.
func (s *Server) HandleChampions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	champions, err := s.store.ListChampions()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list champions: "+err.Error())
		return
	}
	if champions == nil {
		champions = []store.Champion{}
	}

	s.writeJSON(w, ChampionsResponse{Champions: champions, Total: len(champions)})
}

// HandlePatches handles GET /api/v1/patches.
func (s *Server) HandlePatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	patches, err := s.store.ListPatches()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list patches: "+err.Error())
		return
	}
	if patches == nil {
		patches = []store.Patch{}
	}

	s.writeJSON(w, PatchesResponse{Patches: patches, Total: len(patches)})
}

// HandleChanges handles GET /api/v1/changes. Supports optional champion and
// patch query parameters, exact match.
func (s *Server) HandleChanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	query := r.URL.Query()
	filter := store.ChangeFilter{
		Champion: query.Get("champion"),
		Patch:    query.Get("patch"),
	}

	changes, err := s.store.ListChanges(filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list changes: "+err.Error())
		return
	}
	if changes == nil {
		changes = []store.Change{}
	}

	s.writeJSON(w, ChangesResponse{Changes: changes, Total: len(changes)})
}

// HandleUpdate handles POST /api/v1/update. Runs a full update pass and
// reports what it inserted.
func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	if s.updater == nil {
		s.writeError(w, http.StatusServiceUnavailable, "update_unavailable", "Server was started without an update pipeline")
		return
	}

	result, err := s.updater.Run(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "update_failed", "Update failed: "+err.Error())
		return
	}

	s.writeJSON(w, UpdateResponse{Success: true, Result: result})
}

// HandleStatus handles GET /api/v1/status.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	counts, err := s.store.TableCounts()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to count tables: "+err.Error())
		return
	}

	s.writeJSON(w, StatusResponse{Database: s.store.Path(), Counts: counts})
}

// writeJSON writes a 200 response with a JSON body.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// CORSMiddleware adds CORS headers so browser front-ends can query the API
// directly.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed handler, wrapped in CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/champions", s.HandleChampions)
	mux.HandleFunc("/api/v1/patches", s.HandlePatches)
	mux.HandleFunc("/api/v1/changes", s.HandleChanges)
	mux.HandleFunc("/api/v1/update", s.HandleUpdate)
	mux.HandleFunc("/api/v1/status", s.HandleStatus)

	return s.CORSMiddleware(mux)
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}
