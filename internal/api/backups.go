package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.store.ListBackups(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"backups": backups})
}

type createBackupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	var req createBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondBadRequest(w, "name must not be empty")
		return
	}

	id, err := s.store.CreateBackup(r.Context(), req.Name, req.Description)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RestoreBackup(r.Context(), chi.URLParam(r, "backupID")); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBackup(r.Context(), chi.URLParam(r, "backupID")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
