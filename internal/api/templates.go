package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/aideconf/internal/service"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
	"github.com/hugo-lorenzo-mato/aideconf/internal/template"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

type createTemplateRequest struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Complexity  string          `json:"complexity"`
	UseCase     string          `json:"use_case"`
	Tags        []string        `json:"tags"`
	Config      json.RawMessage `json:"config"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
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

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}
	created, err := s.templates.Create(r.Context(), template.Template{
		Name:        req.Name,
		DisplayName: displayName,
		Description: req.Description,
		Category:    template.Category(req.Category),
		Complexity:  template.Complexity(req.Complexity),
		UseCase:     req.UseCase,
		Tags:        req.Tags,
		Config:      cfg,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

type updateTemplateRequest struct {
	DisplayName *string         `json:"display_name"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Complexity  *string         `json:"complexity"`
	UseCase     *string         `json:"use_case"`
	Tags        []string        `json:"tags"`
	Config      json.RawMessage `json:"config"`
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req updateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	cfg, err := parseDoc(req.Config)
	if err != nil {
		s.respondBadRequest(w, "config must be a JSON object")
		return
	}

	upd := store.TemplateUpdate{
		DisplayName: req.DisplayName,
		Description: req.Description,
		UseCase:     req.UseCase,
		Tags:        req.Tags,
		Config:      cfg,
	}
	if req.Category != nil {
		cat := template.Category(*req.Category)
		upd.Category = &cat
	}
	if req.Complexity != nil {
		cx := template.Complexity(*req.Complexity)
		upd.Complexity = &cx
	}

	t, err := s.templates.Update(r.Context(), chi.URLParam(r, "name"), upd)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyTemplateRequest struct {
	Strategy  string `json:"strategy"`
	ProfileID string `json:"target_profile_id"`
	Backup    bool   `json:"backup"`
}

func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req applyTemplateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondBadRequest(w, "invalid request body")
			return
		}
	}

	merged, err := s.templates.Apply(r.Context(), service.ApplyRequest{
		Template:  chi.URLParam(r, "name"),
		Strategy:  req.Strategy,
		ProfileID: req.ProfileID,
		Backup:    req.Backup,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: merged})
}

type saveAsTemplateRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Complexity  string   `json:"complexity"`
	UseCase     string   `json:"use_case"`
	Tags        []string `json:"tags"`
	ProfileID   string   `json:"profile_id"`
}

func (s *Server) handleSaveAsTemplate(w http.ResponseWriter, r *http.Request) {
	var req saveAsTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		s.respondBadRequest(w, "name must not be empty")
		return
	}

	t, err := s.templates.SaveAs(r.Context(), service.SaveAsRequest{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Category:    template.Category(req.Category),
		Complexity:  template.Complexity(req.Complexity),
		UseCase:     req.UseCase,
		Tags:        req.Tags,
		ProfileID:   req.ProfileID,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, t)
}

type compareTemplatesRequest struct {
	Templates []string `json:"templates"`
	Fields    []string `json:"fields"`
}

func (s *Server) handleCompareTemplates(w http.ResponseWriter, r *http.Request) {
	var req compareTemplatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}

	result, err := s.templates.Compare(r.Context(), req.Templates, req.Fields)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTemplateRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := s.templates.Recommend(r.Context(), template.RecommendQuery{
		UseCase:    q.Get("use_case"),
		Complexity: template.Complexity(q.Get("complexity")),
		Budget:     q.Get("budget"),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"recommendations": results})
}

func (s *Server) handleExportTemplate(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "yaml"
	}
	data, err := s.templates.Export(r.Context(), chi.URLParam(r, "name"), format)
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
