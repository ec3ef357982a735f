package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/export"
	"github.com/TobiSchelling/researchlens/internal/logger"
	"github.com/TobiSchelling/researchlens/internal/research"
)

const errStorageDisabled = "storage not configured"

type createHistoryRequest struct {
	Query      string                `json:"query"`
	SearchMode string                `json:"search_mode"`
	Mode       string                `json:"mode"`
	Summary    string                `json:"summary"`
	Sources    []research.SourceItem `json:"sources"`
	Citations  []research.Citation   `json:"citations"`
	UserID     string                `json:"user_id"`
}

type createHistoryResponse struct {
	*database.HistoryRecord
	Persisted bool   `json:"persisted"`
	Message   string `json:"message,omitempty"`
}

func (s *Server) handleCreateHistory(w http.ResponseWriter, r *http.Request) {
	var req createHistoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, research.ErrEmptyQuery.Error())
		return
	}
	modeStr := req.SearchMode
	if modeStr == "" {
		modeStr = req.Mode
	}
	mode, err := research.ParseMode(modeStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := database.HistoryInput{
		Query:      strings.TrimSpace(req.Query),
		SearchMode: string(mode),
		Summary:    req.Summary,
		Sources:    req.Sources,
		Citations:  req.Citations,
		UserID:     s.userID(req.UserID),
	}

	if s.store != nil {
		rec, err := s.store.CreateHistory(r.Context(), in)
		if err == nil {
			writeJSON(w, http.StatusCreated, createHistoryResponse{HistoryRecord: rec, Persisted: true})
			return
		}
		logger.FromContext(r.Context(), s.log).Warn("failed to save search history", "error", err)
	}

	// Without a working store the record is echoed back unsaved.
	echo := &database.HistoryRecord{
		Query:      in.Query,
		SearchMode: in.SearchMode,
		Summary:    in.Summary,
		Sources:    nonNil(in.Sources),
		Citations:  nonNil(in.Citations),
		UserID:     in.UserID,
	}
	writeJSON(w, http.StatusOK, createHistoryResponse{
		HistoryRecord: echo,
		Message:       "Search history not persisted",
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []database.HistoryRecord{})
		return
	}
	q := r.URL.Query()
	records, err := s.store.ListHistory(r.Context(), database.HistoryFilter{
		UserID: s.userID(q.Get("user_id")),
		Mode:   strings.ToLower(strings.TrimSpace(q.Get("mode"))),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		logger.FromContext(r.Context(), s.log).Warn("listing search history", "error", err)
		records = nil
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadHistory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := s.loadHistory(w, r)
	if !ok {
		return
	}
	body, err := export.Render(rec, format)
	if err != nil {
		logger.FromContext(r.Context(), s.log).Error("rendering export", "id", rec.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write([]byte(body))
}

func (s *Server) loadHistory(w http.ResponseWriter, r *http.Request) (*database.HistoryRecord, bool) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return nil, false
	}
	rec, err := s.store.GetHistory(r.Context(), id)
	if err != nil {
		s.storeError(w, r, "loading search history", err)
		return nil, false
	}
	return rec, true
}

type updateHistoryRequest struct {
	ID flexID `json:"id"`
	database.HistoryPatch
}

func (s *Server) handleUpdateHistory(w http.ResponseWriter, r *http.Request) {
	var req updateHistoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.HistoryPatch.IsEmpty() {
		writeError(w, http.StatusBadRequest, database.ErrNoFieldsToUpdate.Error())
		return
	}
	if req.SearchMode != nil {
		mode, err := research.ParseMode(*req.SearchMode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m := string(mode)
		req.SearchMode = &m
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return
	}

	rec, err := s.store.UpdateHistory(r.Context(), int64(req.ID), req.HistoryPatch)
	if err != nil {
		s.storeError(w, r, "updating search history", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return
	}
	if err := s.store.DeleteHistory(r.Context(), id); err != nil {
		s.storeError(w, r, "deleting search history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// storeError maps a persistence error to a response.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNoFieldsToUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromContext(r.Context(), s.log).Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func (s *Server) userID(u string) string {
	if u = strings.TrimSpace(u); u != "" {
		return u
	}
	return s.opts.DefaultUserID
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
