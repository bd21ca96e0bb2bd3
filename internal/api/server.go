// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"queryscope/internal/common"
	"queryscope/internal/querystats"
	"queryscope/internal/search"
)

type Server struct {
	router chi.Router
	stats  *querystats.Service
	store  search.Store
}

func NewServer(stats *querystats.Service, store search.Store) (*Server, error) {
	logger := common.Logger()
	if stats == nil {
		return nil, fmt.Errorf("query stats service required")
	}
	if store == nil {
		return nil, fmt.Errorf("search store required")
	}
	srv := &Server{
		router: chi.NewRouter(),
		stats:  stats,
		store:  store,
	}
	srv.routes()
	logger.Info("api: server ready", "index", store.Index(), "backend_available", store.Available())
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r)
			logger.Debug("request",
				"id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"dur", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/query", s.handleStatements)
	s.router.Get("/query/{queryHash}", s.handleStatement)
	s.router.Get("/queryplan", s.handlePlans)
	s.router.Get("/queryplan/{queryHash}", s.handlePlan)

	s.router.Get("/v1/fingerprints", s.handleFingerprints)
	s.router.Get("/v1/logs", s.handleLogs)
	s.router.Handle("/debug/vars", expvar.Handler())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
