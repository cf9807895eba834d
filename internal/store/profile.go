package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

// Profile is a named, versioned configuration document.
type Profile struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Config      *document.Map `json:"config_data"`
	Tags        []string      `json:"tags"`
	IsDefault   bool          `json:"is_default"`
	IsTemplate  bool          `json:"is_template"`
	IsActive    bool          `json:"is_active"`
	Version     int           `json:"version"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreateProfileParams carries the fields for a new profile.
type CreateProfileParams struct {
	Name        string
	Description string
	Config      *document.Map
	Tags        []string
	SetActive   bool
	IsTemplate  bool
}

// ProfileUpdate holds optional changes; nil fields are left untouched.
// Action and ChangeDescription shape the history entry; empty values
// fall back to a manual edit with a generated description.
type ProfileUpdate struct {
	Name        *string
	Description *string
	Config      *document.Map
	Tags        []string

	Action            UserAction
	ChangeDescription string
}

// CreateProfile inserts a new profile. Setting it active deactivates all
// others in the same transaction. A history entry records the creation.
func (s *Store) CreateProfile(ctx context.Context, p CreateProfileParams) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Config == nil {
		p.Config = document.NewMap()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, storageErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM profiles WHERE name = ?", p.Name).Scan(&count); err != nil {
		return Profile{}, storageErr("checking profile name", err)
	}
	if count > 0 {
		return Profile{}, core.ErrConflict(core.CodeNameTaken, fmt.Sprintf("profile with name '%s' already exists", p.Name))
	}

	if p.SetActive {
		if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 0"); err != nil {
			return Profile{}, storageErr("deactivating profiles", err)
		}
	}

	now := time.Now().UTC()
	profile := Profile{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Description: p.Description,
		Config:      p.Config.Clone(),
		Tags:        p.Tags,
		IsTemplate:  p.IsTemplate,
		IsActive:    p.SetActive,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (
			id, name, description, config_data, tags,
			is_default, is_template, is_active, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		profile.ID, profile.Name, profile.Description, marshalDoc(profile.Config), marshalStrings(profile.Tags),
		boolInt(profile.IsDefault), boolInt(profile.IsTemplate), boolInt(profile.IsActive),
		profile.Version, formatTime(now), formatTime(now),
	)
	if err != nil {
		return Profile{}, storageErr("inserting profile", err)
	}

	if err := s.addHistoryTx(ctx, tx, HistoryEntry{
		ProfileID:         profile.ID,
		Config:            profile.Config,
		ChangeDescription: fmt.Sprintf("Profile '%s' created", profile.Name),
		UserAction:        ActionManualEdit,
	}); err != nil {
		return Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, storageErr("committing transaction", err)
	}
	return profile, nil
}

// GetProfile fetches a profile by id.
func (s *Store) GetProfile(ctx context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileBy(ctx, "id = ?", id)
}

// GetProfileByName fetches a profile by its unique name.
func (s *Store) GetProfileByName(ctx context.Context, name string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileBy(ctx, "name = ?", name)
}

// ActiveProfile returns the active profile, or a not-found error when no
// profile is active.
func (s *Store) ActiveProfile(ctx context.Context) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileBy(ctx, "is_active = 1")
}

// DefaultProfile returns the default profile, or a not-found error.
func (s *Store) DefaultProfile(ctx context.Context) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileBy(ctx, "is_default = 1")
}

func (s *Store) profileBy(ctx context.Context, where string, args ...interface{}) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles WHERE `+where, args...)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		id := ""
		if len(args) > 0 {
			id = fmt.Sprint(args[0])
		}
		return Profile{}, notFoundProfile(id)
	}
	if err != nil {
		return Profile{}, storageErr("scanning profile", err)
	}
	return p, nil
}

func notFoundProfile(id string) *core.DomainError {
	err := core.ErrNotFound("profile", id)
	err.Code = core.CodeProfileNotFound
	return err
}

// UpdateProfile applies the non-nil fields, bumps the version, and
// records a history entry naming every changed field.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, storageErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, notFoundProfile(id)
	}
	if err != nil {
		return Profile{}, storageErr("scanning profile", err)
	}

	previous := p.Config
	var changed []string

	if upd.Name != nil && *upd.Name != p.Name {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM profiles WHERE name = ? AND id != ?", *upd.Name, id).Scan(&count); err != nil {
			return Profile{}, storageErr("checking profile name", err)
		}
		if count > 0 {
			return Profile{}, core.ErrConflict(core.CodeNameTaken, fmt.Sprintf("profile with name '%s' already exists", *upd.Name))
		}
		p.Name = *upd.Name
		changed = append(changed, "name")
	}
	if upd.Description != nil {
		p.Description = *upd.Description
		changed = append(changed, "description")
	}
	if upd.Config != nil {
		changed = append(changed, document.ChangedPaths(document.Diff(previous, upd.Config))...)
		p.Config = upd.Config.Clone()
	}
	if upd.Tags != nil {
		p.Tags = upd.Tags
		changed = append(changed, "tags")
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, description = ?, config_data = ?, tags = ?, version = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, marshalDoc(p.Config), marshalStrings(p.Tags),
		p.Version, formatTime(p.UpdatedAt), id,
	)
	if err != nil {
		return Profile{}, storageErr("updating profile", err)
	}

	if len(changed) > 0 {
		action := upd.Action
		if action == "" {
			action = ActionManualEdit
		}
		description := upd.ChangeDescription
		if description == "" {
			description = fmt.Sprintf("Profile '%s' updated: %s", p.Name, strings.Join(changed, ", "))
		}
		if err := s.addHistoryTx(ctx, tx, HistoryEntry{
			ProfileID:         id,
			Config:            p.Config,
			PreviousConfig:    previous,
			ChangeDescription: description,
			ChangedFields:     changed,
			UserAction:        action,
		}); err != nil {
			return Profile{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, storageErr("committing transaction", err)
	}
	return p, nil
}

// DeleteProfile removes a profile. Active and default profiles are
// protected.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.profileBy(ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if p.IsActive {
		return core.ErrConflict("PROFILE_ACTIVE", "cannot delete active profile")
	}
	if p.IsDefault {
		return core.ErrConflict("PROFILE_DEFAULT", "cannot delete default profile")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id); err != nil {
		return storageErr("deleting profile", err)
	}
	return nil
}

// ListProfiles returns profiles newest-updated first.
func (s *Store) ListProfiles(ctx context.Context, includeTemplates bool) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles`
	if !includeTemplates {
		query += " WHERE is_template = 0"
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("listing profiles", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// SearchParams filters and paginates a profile search. Page is 1-based.
type SearchParams struct {
	Query      string
	Tags       []string
	IsTemplate *bool
	Page       int
	Limit      int
}

// SearchProfiles returns the matching page plus the total match count.
func (s *Store) SearchProfiles(ctx context.Context, params SearchParams) ([]Profile, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []interface{}
	)
	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern)
	}
	for _, tag := range params.Tags {
		// Tags are stored as a JSON array; match the quoted element.
		where = append(where, "tags LIKE ?")
		args = append(args, "%"+`"`+tag+`"`+"%")
	}
	if params.IsTemplate != nil {
		where = append(where, "is_template = ?")
		args = append(args, boolInt(*params.IsTemplate))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM profiles"+clause, args...).Scan(&total); err != nil {
		return nil, 0, storageErr("counting profiles", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 20
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles`+clause+`
		ORDER BY updated_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, storageErr("searching profiles", err)
	}
	defer rows.Close()

	profiles, err := collectProfiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ActivateProfile makes one profile active and deactivates the rest,
// atomically, with a history entry.
func (s *Store) ActivateProfile(ctx context.Context, id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, storageErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, notFoundProfile(id)
	}
	if err != nil {
		return Profile{}, storageErr("scanning profile", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 0"); err != nil {
		return Profile{}, storageErr("deactivating profiles", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 1 WHERE id = ?", id); err != nil {
		return Profile{}, storageErr("activating profile", err)
	}
	p.IsActive = true

	if err := s.addHistoryTx(ctx, tx, HistoryEntry{
		ProfileID:         id,
		Config:            p.Config,
		ChangeDescription: fmt.Sprintf("Profile '%s' activated", p.Name),
		ChangedFields:     []string{"is_active"},
		UserAction:        ActionProfileSwitch,
	}); err != nil {
		return Profile{}, err
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, storageErr("committing transaction", err)
	}
	return p, nil
}

// SetDefaultProfile marks one profile as default, clearing any previous
// default.
func (s *Store) SetDefaultProfile(ctx context.Context, id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, storageErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, notFoundProfile(id)
	}
	if err != nil {
		return Profile{}, storageErr("scanning profile", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_default = 0"); err != nil {
		return Profile{}, storageErr("clearing default", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_default = 1 WHERE id = ?", id); err != nil {
		return Profile{}, storageErr("setting default", err)
	}
	p.IsDefault = true

	if err := tx.Commit(); err != nil {
		return Profile{}, storageErr("committing transaction", err)
	}
	return p, nil
}

// scanner matches *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (Profile, error) {
	var (
		p          Profile
		configJSON string
		tagsJSON   string
		isDefault  int
		isTemplate int
		isActive   int
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &configJSON, &tagsJSON,
		&isDefault, &isTemplate, &isActive, &p.Version, &createdAt, &updatedAt)
	if err != nil {
		return Profile{}, err
	}
	if p.Config, err = unmarshalDoc(configJSON); err != nil {
		return Profile{}, err
	}
	if p.Tags, err = unmarshalStrings(tagsJSON); err != nil {
		return Profile{}, err
	}
	p.IsDefault = isDefault != 0
	p.IsTemplate = isTemplate != 0
	p.IsActive = isActive != 0
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Profile{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func collectProfiles(rows *sql.Rows) ([]Profile, error) {
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, storageErr("scanning profile", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating profiles", err)
	}
	return out, nil
}

func marshalDoc(doc *document.Map) string {
	if doc == nil {
		return "{}"
	}
	data, err := json.Marshal(doc)
	if err != nil {
		// Documents are built from valid values; marshaling cannot fail.
		return "{}"
	}
	return string(data)
}

func unmarshalDoc(data string) (*document.Map, error) {
	return document.ParseJSON([]byte(data))
}

func marshalStrings(in []string) string {
	if in == nil {
		in = []string{}
	}
	data, _ := json.Marshal(in)
	return string(data)
}

func unmarshalStrings(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
