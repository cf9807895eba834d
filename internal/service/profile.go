package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/logging"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
)

// ProfileService manages named configuration profiles on top of the
// store and keeps the live document in step when the active profile
// changes.
type ProfileService struct {
	store    *store.Store
	config   *ConfigService
	registry *schema.Registry
	log      *logging.Logger
}

// NewProfileService creates the service.
func NewProfileService(st *store.Store, cfg *ConfigService, registry *schema.Registry, log *logging.Logger) *ProfileService {
	if log == nil {
		log = logging.NewNop()
	}
	return &ProfileService{
		store:    st,
		config:   cfg,
		registry: registry,
		log:      log.WithComponent("profiles"),
	}
}

// CreateProfileRequest carries the fields for a new profile. With
// CopyCurrent set the live document becomes the profile config; an
// explicit Config wins over both the copy and the schema defaults.
type CreateProfileRequest struct {
	Name        string
	Description string
	Config      *document.Map
	Tags        []string
	SetActive   bool
	CopyCurrent bool
}

// Create makes a new profile. A supplied config (explicit or copied
// from the live document) must validate; only the schema-defaults
// fallback is accepted as-is.
func (s *ProfileService) Create(ctx context.Context, req CreateProfileRequest) (store.Profile, error) {
	cfg := req.Config
	if cfg == nil && req.CopyCurrent {
		var err error
		if cfg, err = s.config.Current(ctx); err != nil {
			return store.Profile{}, err
		}
	}
	if cfg != nil {
		report, err := s.config.Validate(ctx, cfg)
		if err != nil {
			return store.Profile{}, err
		}
		if !report.Valid {
			return store.Profile{}, invalidConfigErr(report)
		}
	} else {
		cfg = s.registry.Defaults()
	}

	p, err := s.store.CreateProfile(ctx, store.CreateProfileParams{
		Name:        req.Name,
		Description: req.Description,
		Config:      cfg,
		Tags:        req.Tags,
		SetActive:   req.SetActive,
	})
	if err != nil {
		return store.Profile{}, err
	}
	if req.SetActive {
		if err := s.config.SetCurrent(ctx, p.Config); err != nil {
			return store.Profile{}, err
		}
	}
	s.log.Info("profile created", "profile", p.Name, "active", p.IsActive)
	return p, nil
}

// Get fetches a profile by id.
func (s *ProfileService) Get(ctx context.Context, id string) (store.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

// GetByName fetches a profile by name.
func (s *ProfileService) GetByName(ctx context.Context, name string) (store.Profile, error) {
	return s.store.GetProfileByName(ctx, name)
}

// List returns all profiles.
func (s *ProfileService) List(ctx context.Context, includeTemplates bool) ([]store.Profile, error) {
	return s.store.ListProfiles(ctx, includeTemplates)
}

// Search returns the matching page of profiles plus the total count.
func (s *ProfileService) Search(ctx context.Context, params store.SearchParams) ([]store.Profile, int, error) {
	return s.store.SearchProfiles(ctx, params)
}

// Update applies changes to a profile. A new config must validate
// before anything is written; when the active profile's config changes
// the live document follows.
func (s *ProfileService) Update(ctx context.Context, id string, upd store.ProfileUpdate) (store.Profile, error) {
	if upd.Config != nil {
		report, err := s.config.Validate(ctx, upd.Config)
		if err != nil {
			return store.Profile{}, err
		}
		if !report.Valid {
			return store.Profile{}, invalidConfigErr(report)
		}
	}

	p, err := s.store.UpdateProfile(ctx, id, upd)
	if err != nil {
		return store.Profile{}, err
	}
	if p.IsActive && upd.Config != nil {
		if err := s.config.SetCurrent(ctx, p.Config); err != nil {
			return store.Profile{}, err
		}
	}
	s.log.Info("profile updated", "profile", p.Name, "version", p.Version)
	return p, nil
}

// Delete removes a profile. The store refuses to delete the active or
// default profile.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.log.Info("profile deleted", "id", id)
	return nil
}

// Activate switches the single active profile and loads its config as
// the live document.
func (s *ProfileService) Activate(ctx context.Context, id string) (store.Profile, error) {
	p, err := s.store.ActivateProfile(ctx, id)
	if err != nil {
		return store.Profile{}, err
	}
	if err := s.config.SetCurrent(ctx, p.Config); err != nil {
		return store.Profile{}, err
	}
	s.log.Info("profile activated", "profile", p.Name)
	return p, nil
}

// SetDefault marks a profile as the default.
func (s *ProfileService) SetDefault(ctx context.Context, id string) (store.Profile, error) {
	return s.store.SetDefaultProfile(ctx, id)
}

// History returns change history, profile-scoped or global when the id
// is empty.
func (s *ProfileService) History(ctx context.Context, profileID string, limit int) ([]store.HistoryEntry, error) {
	return s.store.History(ctx, profileID, limit)
}

// Rollback restores the configuration captured by a history entry. A
// profile-scoped entry restores that profile (and the live document if
// it is active); a global entry restores the live document. With backup
// set a point-in-time backup is taken first.
func (s *ProfileService) Rollback(ctx context.Context, entryID string, backup bool) (store.HistoryEntry, error) {
	entry, err := s.store.GetHistoryEntry(ctx, entryID)
	if err != nil {
		return store.HistoryEntry{}, err
	}

	if backup {
		name := fmt.Sprintf("pre-rollback-%s", time.Now().UTC().Format("20060102-150405"))
		if _, err := s.store.CreateBackup(ctx, name, "Automatic backup before rollback"); err != nil {
			return store.HistoryEntry{}, err
		}
	}

	var previous *document.Map
	if entry.ProfileID != "" {
		p, err := s.store.GetProfile(ctx, entry.ProfileID)
		if err != nil {
			return store.HistoryEntry{}, err
		}
		previous = p.Config
		if _, err := s.store.UpdateProfile(ctx, entry.ProfileID, store.ProfileUpdate{Config: entry.Config}); err != nil {
			return store.HistoryEntry{}, err
		}
		if p.IsActive {
			if err := s.config.SetCurrent(ctx, entry.Config); err != nil {
				return store.HistoryEntry{}, err
			}
		}
	} else {
		if previous, err = s.config.Current(ctx); err != nil {
			return store.HistoryEntry{}, err
		}
		if err := s.config.SetCurrent(ctx, entry.Config); err != nil {
			return store.HistoryEntry{}, err
		}
	}

	recorded, err := s.store.AddHistory(ctx, store.HistoryEntry{
		ProfileID:         entry.ProfileID,
		Config:            entry.Config,
		PreviousConfig:    previous,
		ChangeDescription: fmt.Sprintf("Rolled back to %s", entry.Timestamp.Format(time.RFC3339)),
		ChangedFields:     document.ChangedPaths(document.Diff(previous, entry.Config)),
		UserAction:        store.ActionRollback,
	})
	if err != nil {
		return store.HistoryEntry{}, err
	}
	s.log.Info("rolled back", "entry", entryID, "profile", entry.ProfileID)
	return recorded, nil
}

// Diff compares two profiles field by field.
func (s *ProfileService) Diff(ctx context.Context, idA, idB string) (document.DiffReport, error) {
	a, err := s.store.GetProfile(ctx, idA)
	if err != nil {
		return document.DiffReport{}, err
	}
	b, err := s.store.GetProfile(ctx, idB)
	if err != nil {
		return document.DiffReport{}, err
	}
	return document.DiffDocuments(a.Config, b.Config), nil
}

// Export serializes one profile.
func (s *ProfileService) Export(ctx context.Context, id, format string) ([]byte, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	switch format {
	case "", "yaml":
		data, err := document.EncodeYAML(p.Config)
		if err != nil {
			return nil, core.ErrStorage("encoding profile").WithCause(err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, core.ErrStorage("encoding profile").WithCause(err)
		}
		return data, nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidFormat,
			fmt.Sprintf("unsupported export format '%s'", format))
	}
}

// Import creates a profile from an exported document (YAML, falling
// back to JSON).
func (s *ProfileService) Import(ctx context.Context, name, description string, data []byte) (store.Profile, error) {
	cfg, err := document.ParseYAML(data)
	if err != nil {
		if cfg, err = document.ParseJSON(data); err != nil {
			return store.Profile{}, core.ErrValidation(core.CodeInvalidFormat,
				"imported data is neither valid YAML nor valid JSON").WithCause(err)
		}
	}
	return s.Create(ctx, CreateProfileRequest{
		Name:        name,
		Description: description,
		Config:      cfg,
	})
}

// Stats summarizes the profile collection.
type Stats struct {
	TotalProfiles  int    `json:"total_profiles"`
	ActiveProfile  string `json:"active_profile,omitempty"`
	DefaultProfile string `json:"default_profile,omitempty"`
	TotalTemplates int    `json:"total_templates"`
	HistoryEntries int    `json:"history_entries"`
}

// Stats returns collection-level counts.
func (s *ProfileService) Stats(ctx context.Context) (Stats, error) {
	profiles, err := s.store.ListProfiles(ctx, true)
	if err != nil {
		return Stats{}, err
	}
	templates, err := s.store.ListTemplates(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	history, err := s.store.History(ctx, "", 10000)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalProfiles:  len(profiles),
		TotalTemplates: len(templates),
		HistoryEntries: len(history),
	}
	for _, p := range profiles {
		if p.IsActive {
			st.ActiveProfile = p.Name
		}
		if p.IsDefault {
			st.DefaultProfile = p.Name
		}
	}
	return st, nil
}
