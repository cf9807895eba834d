package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/logging"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
	"github.com/hugo-lorenzo-mato/aideconf/internal/template"
)

// TemplateService manages configuration templates: the built-in
// catalogue plus user-saved ones, application onto the live document,
// and N-way comparison.
type TemplateService struct {
	store  *store.Store
	config *ConfigService
	log    *logging.Logger
}

// NewTemplateService creates the service.
func NewTemplateService(st *store.Store, cfg *ConfigService, log *logging.Logger) *TemplateService {
	if log == nil {
		log = logging.NewNop()
	}
	return &TemplateService{
		store:  st,
		config: cfg,
		log:    log.WithComponent("templates"),
	}
}

// Create saves a custom template. The config must validate before it is
// accepted.
func (s *TemplateService) Create(ctx context.Context, t template.Template) (template.Template, error) {
	if t.Config == nil || t.Config.Len() == 0 {
		return template.Template{}, core.ErrValidation(core.CodeInvalidConfig, "template config must not be empty")
	}
	report, err := s.config.Validate(ctx, t.Config)
	if err != nil {
		return template.Template{}, err
	}
	if !report.Valid {
		return template.Template{}, invalidConfigErr(report)
	}
	created, err := s.store.CreateTemplate(ctx, t)
	if err != nil {
		return template.Template{}, err
	}
	s.log.Info("template created", "template", created.Name)
	return created, nil
}

// Get fetches a template by name.
func (s *TemplateService) Get(ctx context.Context, name string) (template.Template, error) {
	return s.store.GetTemplate(ctx, name)
}

// List returns templates, optionally filtered by category.
func (s *TemplateService) List(ctx context.Context, category string) ([]template.Template, error) {
	return s.store.ListTemplates(ctx, category)
}

// Update applies changes to a custom template. A new config must
// validate before it is stored.
func (s *TemplateService) Update(ctx context.Context, name string, upd store.TemplateUpdate) (template.Template, error) {
	if upd.Config != nil {
		report, err := s.config.Validate(ctx, upd.Config)
		if err != nil {
			return template.Template{}, err
		}
		if !report.Valid {
			return template.Template{}, invalidConfigErr(report)
		}
	}
	return s.store.UpdateTemplate(ctx, name, upd)
}

// Delete removes a custom template.
func (s *TemplateService) Delete(ctx context.Context, name string) error {
	return s.store.DeleteTemplate(ctx, name)
}

// ApplyRequest configures a template application.
type ApplyRequest struct {
	Template  string
	Strategy  string // merge, overlay, replace
	ProfileID string // empty: apply to the live document
	Backup    bool
}

// Apply combines a template onto the live document, or onto a target
// profile, under the given strategy. The merged result must validate
// before anything is persisted. With Backup set a point-in-time backup
// is taken first.
func (s *TemplateService) Apply(ctx context.Context, req ApplyRequest) (*document.Map, error) {
	t, err := s.store.GetTemplate(ctx, req.Template)
	if err != nil {
		return nil, err
	}
	if req.Strategy == "" {
		req.Strategy = string(document.StrategyMerge)
	}

	if req.Backup {
		name := fmt.Sprintf("pre-template-%s", time.Now().UTC().Format("20060102-150405"))
		if _, err := s.store.CreateBackup(ctx, name, fmt.Sprintf("Automatic backup before applying template '%s'", t.Name)); err != nil {
			return nil, err
		}
	}

	if req.ProfileID != "" {
		return s.applyToProfile(ctx, t, req)
	}

	current, err := s.config.Current(ctx)
	if err != nil {
		return nil, err
	}
	merged, err := template.Apply(current, t.Config, req.Strategy)
	if err != nil {
		return nil, err
	}
	report, err := s.config.Validate(ctx, merged)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, invalidConfigErr(report)
	}
	if err := s.config.SetCurrent(ctx, merged); err != nil {
		return nil, err
	}

	if _, err := s.store.AddHistory(ctx, store.HistoryEntry{
		Config:            merged,
		PreviousConfig:    current,
		ChangeDescription: fmt.Sprintf("Applied template '%s' (%s)", t.DisplayName, req.Strategy),
		ChangedFields:     document.ChangedPaths(document.Diff(current, merged)),
		UserAction:        store.ActionTemplateApply,
	}); err != nil {
		s.log.Warn("recording template apply history failed", "error", err)
	}
	if err := s.store.IncrementTemplateUsage(ctx, t.Name); err != nil {
		s.log.Warn("incrementing template usage failed", "template", t.Name, "error", err)
	}

	s.log.Info("template applied", "template", t.Name, "strategy", req.Strategy)
	return merged, nil
}

// applyToProfile merges a template into one profile's config. The
// profile's history records a template application, and the live
// document follows when the profile is active.
func (s *TemplateService) applyToProfile(ctx context.Context, t template.Template, req ApplyRequest) (*document.Map, error) {
	p, err := s.store.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	merged, err := template.Apply(p.Config, t.Config, req.Strategy)
	if err != nil {
		return nil, err
	}
	report, err := s.config.Validate(ctx, merged)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		return nil, invalidConfigErr(report)
	}

	updated, err := s.store.UpdateProfile(ctx, req.ProfileID, store.ProfileUpdate{
		Config:            merged,
		Action:            store.ActionTemplateApply,
		ChangeDescription: fmt.Sprintf("Applied template '%s' (%s)", t.DisplayName, req.Strategy),
	})
	if err != nil {
		return nil, err
	}
	if updated.IsActive {
		if err := s.config.SetCurrent(ctx, merged); err != nil {
			return nil, err
		}
	}
	if err := s.store.IncrementTemplateUsage(ctx, t.Name); err != nil {
		s.log.Warn("incrementing template usage failed", "template", t.Name, "error", err)
	}

	s.log.Info("template applied", "template", t.Name, "strategy", req.Strategy, "profile", updated.Name)
	return merged, nil
}

// SaveAsRequest captures the metadata for saving a config as a
// template.
type SaveAsRequest struct {
	Name        string
	DisplayName string
	Description string
	Category    template.Category
	Complexity  template.Complexity
	UseCase     string
	Tags        []string
	ProfileID   string // empty: save the live document
}

// SaveAs stores the live document, or a profile's config, as a custom
// template.
func (s *TemplateService) SaveAs(ctx context.Context, req SaveAsRequest) (template.Template, error) {
	var cfg *document.Map
	if req.ProfileID != "" {
		p, err := s.store.GetProfile(ctx, req.ProfileID)
		if err != nil {
			return template.Template{}, err
		}
		cfg = p.Config
	} else {
		var err error
		if cfg, err = s.config.Current(ctx); err != nil {
			return template.Template{}, err
		}
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}
	return s.Create(ctx, template.Template{
		Name:        req.Name,
		DisplayName: displayName,
		Description: req.Description,
		Category:    req.Category,
		Complexity:  req.Complexity,
		UseCase:     req.UseCase,
		Tags:        req.Tags,
		Config:      cfg,
	})
}

// Compare builds a field-by-field comparison across the named
// templates. An empty fields list compares the union of every leaf
// path.
func (s *TemplateService) Compare(ctx context.Context, names []string, fields []string) (template.ComparisonResult, error) {
	if len(names) < 2 {
		return template.ComparisonResult{}, core.ErrValidation(core.CodeInvalidConfig, "comparison requires at least two templates")
	}

	configs := make([]template.NamedConfig, 0, len(names))
	for _, name := range names {
		t, err := s.store.GetTemplate(ctx, name)
		if err != nil {
			return template.ComparisonResult{}, err
		}
		configs = append(configs, template.NamedConfig{
			Name:        t.Name,
			DisplayName: t.DisplayName,
			Config:      t.Config,
		})
	}
	return template.Compare(configs, fields), nil
}

// Recommend scores the template catalogue against use-case, complexity,
// and budget hints.
func (s *TemplateService) Recommend(ctx context.Context, q template.RecommendQuery) ([]template.Template, error) {
	candidates, err := s.store.ListTemplates(ctx, "")
	if err != nil {
		return nil, err
	}
	return template.Recommend(candidates, q), nil
}

// Export serializes one template.
func (s *TemplateService) Export(ctx context.Context, name, format string) ([]byte, error) {
	t, err := s.store.GetTemplate(ctx, name)
	if err != nil {
		return nil, err
	}

	switch format {
	case "", "yaml":
		data, err := document.EncodeYAML(t.Config)
		if err != nil {
			return nil, core.ErrStorage("encoding template").WithCause(err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, core.ErrStorage("encoding template").WithCause(err)
		}
		return data, nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidFormat,
			fmt.Sprintf("unsupported export format '%s'", format))
	}
}
