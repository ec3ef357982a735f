package server

import (
	"net/http"
	"strings"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/logger"
)

type createSavedRequest struct {
	SearchID flexID `json:"search_id"`
	Title    string `json:"title"`
	Folder   string `json:"folder"`
	Notes    string `json:"notes"`
	UserID   string `json:"user_id"`
}

func (s *Server) handleCreateSaved(w http.ResponseWriter, r *http.Request) {
	var req createSavedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SearchID <= 0 || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "search_id and title are required")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return
	}

	saved, err := s.store.CreateSaved(r.Context(), database.SavedInput{
		SearchID: int64(req.SearchID),
		Title:    req.Title,
		Folder:   req.Folder,
		Notes:    req.Notes,
		UserID:   s.userID(req.UserID),
	})
	if err != nil {
		s.storeError(w, r, "saving research", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []database.SavedResearchEntry{})
		return
	}
	q := r.URL.Query()
	entries, err := s.store.ListSaved(r.Context(), database.SavedFilter{
		UserID: s.userID(q.Get("user_id")),
		Folder: strings.TrimSpace(q.Get("folder")),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		logger.FromContext(r.Context(), s.log).Warn("listing saved research", "error", err)
		entries = nil
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

type updateSavedRequest struct {
	ID flexID `json:"id"`
	database.SavedPatch
}

func (s *Server) handleUpdateSaved(w http.ResponseWriter, r *http.Request) {
	var req updateSavedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.SavedPatch.IsEmpty() {
		writeError(w, http.StatusBadRequest, database.ErrNoFieldsToUpdate.Error())
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return
	}

	saved, err := s.store.UpdateSaved(r.Context(), int64(req.ID), req.SavedPatch)
	if err != nil {
		s.storeError(w, r, "updating saved research", err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return
	}
	if err := s.store.DeleteSaved(r.Context(), id); err != nil {
		s.storeError(w, r, "deleting saved research", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

type createFolderRequest struct {
	FolderName string `json:"folder_name"`
	UserID     string `json:"user_id"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FolderName) == "" {
		writeError(w, http.StatusBadRequest, "folder_name is required")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStorageDisabled)
		return
	}

	f, err := s.store.CreateFolder(r.Context(), s.userID(req.UserID), req.FolderName)
	if err != nil {
		s.storeError(w, r, "creating folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []database.Folder{})
		return
	}
	folders, err := s.store.ListFolders(r.Context(), s.userID(r.URL.Query().Get("user_id")))
	if err != nil {
		logger.FromContext(r.Context(), s.log).Warn("listing folders", "error", err)
		folders = nil
	}
	writeJSON(w, http.StatusOK, nonNil(folders))
}
