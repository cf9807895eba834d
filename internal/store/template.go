package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/template"
)

// TemplateUpdate holds optional template changes; nil fields are left
// untouched.
type TemplateUpdate struct {
	DisplayName *string
	Description *string
	Category    *template.Category
	Config      *document.Map
	UseCase     *string
	Complexity  *template.Complexity
	Tags        []string
}

// CreateTemplate inserts a custom template. The name must be unique
// across builtin and custom templates.
func (s *Store) CreateTemplate(ctx context.Context, t template.Template) (template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM templates WHERE name = ?", t.Name).Scan(&count); err != nil {
		return template.Template{}, storageErr("checking template name", err)
	}
	if count > 0 {
		return template.Template{}, core.ErrConflict(core.CodeNameTaken, fmt.Sprintf("template with name '%s' already exists", t.Name))
	}

	t.Builtin = false
	if err := s.insertTemplate(ctx, s.db, t); err != nil {
		return template.Template{}, storageErr("inserting template", err)
	}
	return s.templateBy(ctx, t.Name)
}

func (s *Store) insertTemplate(ctx context.Context, db execer, t template.Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Complexity == "" {
		t.Complexity = template.ComplexityBeginner
	}
	if t.Category == "" {
		t.Category = template.CategoryCustom
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO templates (
			id, name, display_name, description, category, config_data,
			use_case, estimated_cost, estimated_time, complexity,
			prerequisites, tags, is_builtin, usage_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Name, t.DisplayName, t.Description, string(t.Category), marshalDoc(t.Config),
		t.UseCase, t.EstimatedCost, t.EstimatedTime, string(t.Complexity),
		marshalStrings(t.Prerequisites), marshalStrings(t.Tags),
		boolInt(t.Builtin), t.UsageCount, formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return err
}

// GetTemplate fetches a template by name.
func (s *Store) GetTemplate(ctx context.Context, name string) (template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templateBy(ctx, name)
}

func (s *Store) templateBy(ctx context.Context, name string) (template.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, description, category, config_data,
		       use_case, estimated_cost, estimated_time, complexity,
		       prerequisites, tags, is_builtin, usage_count, created_at, updated_at
		FROM templates WHERE name = ?`, name)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		domErr := core.ErrNotFound("template", name)
		domErr.Code = core.CodeTemplateNotFound
		return template.Template{}, domErr
	}
	if err != nil {
		return template.Template{}, storageErr("scanning template", err)
	}
	return t, nil
}

// ListTemplates returns templates ordered by display name, optionally
// filtered by category.
func (s *Store) ListTemplates(ctx context.Context, category string) ([]template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, display_name, description, category, config_data,
		       use_case, estimated_cost, estimated_time, complexity,
		       prerequisites, tags, is_builtin, usage_count, created_at, updated_at
		FROM templates`
	var args []interface{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY display_name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("listing templates", err)
	}
	defer rows.Close()

	var out []template.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, storageErr("scanning template", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating templates", err)
	}
	return out, nil
}

// UpdateTemplate applies the non-nil fields to a custom template.
// Built-in templates are immutable.
func (s *Store) UpdateTemplate(ctx context.Context, name string, upd TemplateUpdate) (template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.templateBy(ctx, name)
	if err != nil {
		return template.Template{}, err
	}
	if t.Builtin {
		return template.Template{}, core.ErrConflict(core.CodeBuiltinImmutable, "cannot update built-in template")
	}

	if upd.DisplayName != nil {
		t.DisplayName = *upd.DisplayName
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.Config != nil {
		t.Config = upd.Config.Clone()
	}
	if upd.UseCase != nil {
		t.UseCase = *upd.UseCase
	}
	if upd.Complexity != nil {
		t.Complexity = *upd.Complexity
	}
	if upd.Tags != nil {
		t.Tags = upd.Tags
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE templates
		SET display_name = ?, description = ?, category = ?, config_data = ?,
		    use_case = ?, complexity = ?, tags = ?, updated_at = ?
		WHERE name = ?`,
		t.DisplayName, t.Description, string(t.Category), marshalDoc(t.Config),
		t.UseCase, string(t.Complexity), marshalStrings(t.Tags), formatTime(t.UpdatedAt), name,
	)
	if err != nil {
		return template.Template{}, storageErr("updating template", err)
	}
	return t, nil
}

// DeleteTemplate removes a custom template. Built-in templates are
// immutable.
func (s *Store) DeleteTemplate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.templateBy(ctx, name)
	if err != nil {
		return err
	}
	if t.Builtin {
		return core.ErrConflict(core.CodeBuiltinImmutable, "cannot delete built-in template")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE name = ?", name); err != nil {
		return storageErr("deleting template", err)
	}
	return nil
}

// IncrementTemplateUsage bumps the usage counter after a template is
// applied.
func (s *Store) IncrementTemplateUsage(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE templates SET usage_count = usage_count + 1 WHERE name = ?", name)
	if err != nil {
		return storageErr("incrementing template usage", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		domErr := core.ErrNotFound("template", name)
		domErr.Code = core.CodeTemplateNotFound
		return domErr
	}
	return nil
}

func scanTemplate(row scanner) (template.Template, error) {
	var (
		t         template.Template
		category  string
		config    string
		complex   string
		prereqs   string
		tags      string
		isBuiltin int
		createdAt string
		updatedAt string
	)
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Description, &category, &config,
		&t.UseCase, &t.EstimatedCost, &t.EstimatedTime, &complex,
		&prereqs, &tags, &isBuiltin, &t.UsageCount, &createdAt, &updatedAt)
	if err != nil {
		return template.Template{}, err
	}
	t.Category = template.Category(category)
	t.Complexity = template.Complexity(complex)
	if t.Config, err = unmarshalDoc(config); err != nil {
		return template.Template{}, err
	}
	if t.Prerequisites, err = unmarshalStrings(prereqs); err != nil {
		return template.Template{}, err
	}
	if t.Tags, err = unmarshalStrings(tags); err != nil {
		return template.Template{}, err
	}
	t.Builtin = isBuiltin != 0
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return template.Template{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return template.Template{}, err
	}
	return t, nil
}
