package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/aideconf/internal/service"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Any search parameter switches to the paginated search path.
	if q.Get("query") != "" || q.Get("tags") != "" || q.Get("page") != "" || q.Get("limit") != "" {
		params := store.SearchParams{
			Query: q.Get("query"),
			Page:  atoiDefault(q.Get("page"), 0),
			Limit: atoiDefault(q.Get("limit"), 0),
		}
		if tags := q.Get("tags"); tags != "" {
			params.Tags = strings.Split(tags, ",")
		}
		profiles, total, err := s.profiles.Search(r.Context(), params)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"profiles": profiles,
			"total":    total,
		})
		return
	}

	includeTemplates := q.Get("include_templates") == "true"
	profiles, err := s.profiles.List(r.Context(), includeTemplates)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

type createProfileRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
	Tags        []string        `json:"tags"`
	SetActive   bool            `json:"set_active"`
	CopyCurrent bool            `json:"copy_current"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondBadRequest(w, "name must not be empty")
		return
	}
	cfg, err := parseDoc(req.Config)
	if err != nil {
		s.respondBadRequest(w, "config must be a JSON object")
		return
	}

	p, err := s.profiles.Create(r.Context(), service.CreateProfileRequest{
		Name:        req.Name,
		Description: req.Description,
		Config:      cfg,
		Tags:        req.Tags,
		SetActive:   req.SetActive,
		CopyCurrent: req.CopyCurrent,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Get(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

type updateProfileRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Config      json.RawMessage `json:"config"`
	Tags        []string        `json:"tags"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	cfg, err := parseDoc(req.Config)
	if err != nil {
		s.respondBadRequest(w, "config must be a JSON object")
		return
	}

	p, err := s.profiles.Update(r.Context(), chi.URLParam(r, "profileID"), store.ProfileUpdate{
		Name:        req.Name,
		Description: req.Description,
		Config:      cfg,
		Tags:        req.Tags,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(r.Context(), chi.URLParam(r, "profileID")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Activate(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetDefaultProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.SetDefault(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfileHistory(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 0)
	entries, err := s.profiles.History(r.Context(), chi.URLParam(r, "profileID"), limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

func (s *Server) handleGlobalHistory(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 0)
	entries, err := s.profiles.History(r.Context(), "", limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

type rollbackRequest struct {
	Backup bool `json:"backup"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondBadRequest(w, "invalid request body")
			return
		}
	}

	entry, err := s.profiles.Rollback(r.Context(), chi.URLParam(r, "entryID"), req.Backup)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDiffProfiles(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		s.respondBadRequest(w, "query parameters 'a' and 'b' are required")
		return
	}

	report, err := s.profiles.Diff(r.Context(), a, b)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportProfile(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "yaml"
	}
	data, err := s.profiles.Export(r.Context(), chi.URLParam(r, "profileID"), format)
	if err != nil {
		s.respondError(w, err)
		return
	}

	contentType := "application/x-yaml"
	if format == "json" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type importProfileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func (s *Server) handleImportProfile(w http.ResponseWriter, r *http.Request) {
	var req importProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Content == "" {
		s.respondBadRequest(w, "name and content must not be empty")
		return
	}

	p, err := s.profiles.Import(r.Context(), req.Name, req.Description, []byte(req.Content))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.profiles.Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}
