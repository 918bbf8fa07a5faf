package orchestrator

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/trust"
)

// Server exposes the Orchestrator over REST/JSON, grounded on
// internal/api/server.go's mux.NewRouter + CORS-middleware + handler-struct
// convention.
type Server struct {
	orch      *Orchestrator
	registry  *trust.Registry
	metrics   *Metrics
	cache           cacheCleaner      // optional; nil skips the cleanup route's effect
	scheduler       *CleanupScheduler // optional; re-arms itself after each sweep
	cleanupInterval time.Duration
}

// cacheCleaner is the narrow interface the admin cleanup route depends on.
type cacheCleaner interface {
	CleanupExpired() int
}

// NewServer builds an HTTP Server around an Orchestrator.
func NewServer(orch *Orchestrator, registry *trust.Registry, metrics *Metrics) *Server {
	return &Server{orch: orch, registry: registry, metrics: metrics}
}

// WithCloudTasksCleanup wires a cache and a CleanupScheduler so
// /api/admin/cache/cleanup both sweeps expired entries and re-enqueues
// the next sweep (DESIGN.md open question #2's Cloud Tasks alternative).
func (s *Server) WithCloudTasksCleanup(cache cacheCleaner, scheduler *CleanupScheduler, interval time.Duration) *Server {
	s.cache = cache
	s.scheduler = scheduler
	s.cleanupInterval = interval
	if scheduler != nil {
		scheduler.ScheduleCleanup(interval)
	}
	return s
}

// Start wires routes and blocks serving on port.
func (s *Server) Start(port int) error {
	r := mux.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
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
	})

	r.HandleFunc("/api/ask", s.handleAsk).Methods("POST")
	r.HandleFunc("/api/fetch-url", s.handleFetchUrl).Methods("POST")

	r.HandleFunc("/api/admin/sources", s.handleListSources).Methods("GET")
	r.HandleFunc("/api/admin/sources", s.handleAddSource).Methods("POST")
	r.HandleFunc("/api/admin/sources/{domain}/block", s.handleBlockDomain).Methods("POST")
	r.HandleFunc("/api/admin/logs", s.handleRecentLogs).Methods("GET")
	r.HandleFunc("/api/admin/logs/tail", s.HandleLogTail)
	r.HandleFunc("/api/admin/cache/cleanup", s.handleCacheCleanup).Methods("POST")

	addr := fmt.Sprintf(":%d", port)
	log.Printf("🔍 DS-Search HTTP API listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

type askRequest struct {
	Query     string `json:"query"`
	UserID    string `json:"user_id"`
	Language  string `json:"language"`
	WantFacts bool   `json:"want_facts"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	language := model.LangHindi
	if req.Language == string(model.LangEnglish) {
		language = model.LangEnglish
	}

	start := time.Now()
	resp := s.orch.Ask(r.Context(), req.Query, req.UserID, language, req.WantFacts)
	if s.metrics != nil {
		s.metrics.RecordAsk(string(resp.Source), "ask", time.Since(start).Seconds(), resp.Score, len(resp.Results))
	}

	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type fetchURLRequest struct {
	URL    string `json:"url"`
	UserID string `json:"user_id"`
}

func (s *Server) handleFetchUrl(w http.ResponseWriter, r *http.Request) {
	var req fetchURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result := s.orch.FetchUrl(r.Context(), req.URL, req.UserID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		json.NewEncoder(w).Encode([]model.TrustedSource{})
		return
	}
	sources := s.registry.AllSources()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sources)
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		http.Error(w, "trust registry not configured", http.StatusServiceUnavailable)
		return
	}
	var src model.TrustedSource
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.registry.AddSource(&src); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleBlockDomain(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		http.Error(w, "trust registry not configured", http.StatusServiceUnavailable)
		return
	}
	domain := mux.Vars(r)["domain"]
	if err := s.registry.BlockDomain(domain); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	swept := s.cache.CleanupExpired()
	if s.scheduler != nil {
		s.scheduler.ScheduleCleanup(s.cleanupInterval)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"swept": swept})
}

func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	logs := s.orch.RecentLogs(n)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}
