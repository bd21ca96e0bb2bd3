// File path: internal/api/query_handler.go
package api

import (
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	"queryscope/internal/common"
)

const noDocumentsMessage = "No documents found"

// handleStatements serves the top fingerprints mapped to their
// representative statements, most frequent first.
func (s *Server) handleStatements(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	limit := parseLimit(r)
	logger.Info("api: statements request", "limit", limit)
	set, err := s.stats.ResolveStatements(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Debug("api: statements resolved", "entries", set.Len())
	writeJSON(w, http.StatusOK, set)
}

// handlePlans serves the top fingerprints mapped to combined statement+plan
// entries.
func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	limit := parseLimit(r)
	logger.Info("api: plans request", "limit", limit)
	set, err := s.stats.ResolvePlans(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Debug("api: plans resolved", "entries", set.Len())
	writeJSON(w, http.StatusOK, set)
}

// handleFingerprints serves the bare ordered fingerprint list, without any
// per-fingerprint resolution.
func (s *Server) handleFingerprints(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	fingerprints, err := s.stats.ListFingerprints(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if fingerprints == nil {
		fingerprints = []string{}
	}
	writeJSON(w, http.StatusOK, fingerprints)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "queryHash")
	statement, found, err := s.stats.GetStatement(r.Context(), fingerprint)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": noDocumentsMessage})
		return
	}
	writeText(w, http.StatusOK, statement)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "queryHash")
	plan, found, err := s.stats.GetPlan(r.Context(), fingerprint)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": noDocumentsMessage})
		return
	}
	writeText(w, http.StatusOK, plan)
}

// parseLimit reads the optional ?limit= override. Zero means "use the
// deployment default"; the service clamps the upper bound.
func parseLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
