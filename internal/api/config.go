package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/aideconf/internal/config"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/probe"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
	"github.com/hugo-lorenzo-mato/aideconf/internal/validate"
)

// parseDoc decodes an embedded JSON object into a document, preserving
// key order.
func parseDoc(raw json.RawMessage) (*document.Map, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return document.ParseJSON(raw)
}

type configResponse struct {
	Config *document.Map   `json:"config"`
	Report *validate.Report `json:"validation,omitempty"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := s.config.Current(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if data, err := document.EncodeYAML(doc); err == nil {
		w.Header().Set("ETag", config.CalculateETag(data))
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: doc})
}

// currentETag fingerprints the live document so writers can detect
// concurrent edits with If-Match.
func (s *Server) currentETag(r *http.Request) (string, error) {
	doc, err := s.config.Current(r.Context())
	if err != nil {
		return "", err
	}
	data, err := document.EncodeYAML(doc)
	if err != nil {
		return "", err
	}
	return config.CalculateETag(data), nil
}

type updateConfigRequest struct {
	Updates  json.RawMessage `json:"updates"`
	Category string          `json:"category"`
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	updates, err := parseDoc(req.Updates)
	if err != nil || updates == nil {
		s.respondBadRequest(w, "updates must be a JSON object")
		return
	}

	if match := r.Header.Get("If-Match"); match != "" {
		current, err := s.currentETag(r)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if match != current {
			s.respondJSON(w, http.StatusPreconditionFailed, errorBody{
				Error: "configuration changed since it was read",
				Code:  "PRECONDITION_FAILED",
			})
			return
		}
	}

	merged, report, err := s.config.Update(r.Context(), updates, schema.Category(req.Category))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: merged, Report: &report})
}

type validateConfigRequest struct {
	Config json.RawMessage `json:"config"`
}

func (s *Server) handleValidateConfig(w http.ResponseWriter, r *http.Request) {
	var doc *document.Map
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondBadRequest(w, "reading request body failed")
		return
	}
	if len(body) > 0 {
		var req validateConfigRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.respondBadRequest(w, "invalid request body")
			return
		}
		if doc, err = parseDoc(req.Config); err != nil {
			s.respondBadRequest(w, "config must be a JSON object")
			return
		}
	}

	report, err := s.config.Validate(r.Context(), doc)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	doc, err := s.config.Reset(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: doc})
}

func (s *Server) handleExportConfig(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "yaml"
	}
	includeSensitive := r.URL.Query().Get("include_sensitive") == "true"

	data, err := s.config.Export(r.Context(), format, includeSensitive)
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

type importConfigRequest struct {
	Content      string `json:"content"`
	Strategy     string `json:"strategy"`
	ValidateOnly bool   `json:"validate_only"`
}

func (s *Server) handleImportConfig(w http.ResponseWriter, r *http.Request) {
	var req importConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Content == "" {
		s.respondBadRequest(w, "content must not be empty")
		return
	}

	merged, report, err := s.config.Import(r.Context(), []byte(req.Content), req.Strategy, req.ValidateOnly)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: merged, Report: &report})
}

// fieldInfo is the wire shape of one schema field.
type fieldInfo struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Default     document.Value `json:"default"`
	Min         *float64       `json:"min,omitempty"`
	Max         *float64       `json:"max,omitempty"`
	Pattern     string         `json:"pattern,omitempty"`
}

func (s *Server) handleGetSchema(w http.ResponseWriter, _ *http.Request) {
	fields := s.registry.Fields()
	out := make([]fieldInfo, 0, len(fields))
	for _, f := range fields {
		info := fieldInfo{
			Name:        f.Name,
			Type:        string(f.Type),
			Category:    string(f.Category),
			Description: f.Description,
			Required:    f.Required,
			Default:     f.Default,
		}
		for _, rule := range f.Rules {
			switch rule.Kind {
			case schema.RuleRange:
				info.Min = rule.Min
				info.Max = rule.Max
			case schema.RulePattern:
				if rule.Pattern != nil {
					info.Pattern = rule.Pattern.String()
				}
			}
		}
		out = append(out, info)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"version": s.registry.Version(),
		"fields":  out,
	})
}

func (s *Server) handleGetCategories(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.registry.Categories())
}

func (s *Server) handleGetModels(w http.ResponseWriter, r *http.Request) {
	if taskType := r.URL.Query().Get("task_type"); taskType != "" {
		s.respondJSON(w, http.StatusOK, probe.RecommendedModels(taskType))
		return
	}
	if provider := r.URL.Query().Get("provider"); provider != "" {
		s.respondJSON(w, http.StatusOK, probe.ModelsByProvider(probe.Provider(provider)))
		return
	}
	s.respondJSON(w, http.StatusOK, probe.SupportedModels())
}

type validateKeyRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

func (s *Server) handleValidateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req validateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Provider == "" || req.APIKey == "" {
		s.respondBadRequest(w, "provider and api_key are required")
		return
	}

	check, err := s.probe.ValidateKey(r.Context(), probe.Provider(req.Provider), req.APIKey)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, check)
}

type modelCompatibilityRequest struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

func (s *Server) handleModelCompatibility(w http.ResponseWriter, r *http.Request) {
	var req modelCompatibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	if req.Model == "" {
		s.respondBadRequest(w, "model is required")
		return
	}
	if req.Provider == "" {
		if inferred, ok := probe.ProviderForModel(req.Model); ok {
			req.Provider = string(inferred)
		}
	}

	result := s.probe.CheckCompatibility(r.Context(), req.Model, probe.Provider(req.Provider), req.APIKey)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category := schema.Category(chi.URLParam(r, "category"))
	doc, err := s.config.Category(r.Context(), category)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: doc})
}

func (s *Server) handlePatchCategory(w http.ResponseWriter, r *http.Request) {
	category := schema.Category(chi.URLParam(r, "category"))

	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, "invalid request body")
		return
	}
	updates, err := parseDoc(req.Updates)
	if err != nil || updates == nil {
		s.respondBadRequest(w, "updates must be a JSON object")
		return
	}

	merged, report, err := s.config.Update(r.Context(), updates, category)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, configResponse{Config: merged, Report: &report})
}
