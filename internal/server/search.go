package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/TobiSchelling/researchlens/internal/fetch"
	"github.com/TobiSchelling/researchlens/internal/logger"
	"github.com/TobiSchelling/researchlens/internal/research"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req research.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Aggregate only fails validation; everything else is folded into the result.
	result, err := s.agg.Aggregate(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	p, err := s.opts.Previewer.Preview(r.Context(), target)
	if err != nil {
		if errors.Is(err, fetch.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.FromContext(r.Context(), s.log).Warn("preview failed", "url", target, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
