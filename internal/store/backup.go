package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/template"
)

// BackupInfo describes a stored backup without its payload.
type BackupInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FileSize    int       `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// backupPayload is the serialized snapshot stored per backup. Built-in
// templates are excluded; they are reseeded from the binary.
type backupPayload struct {
	Profiles  []Profile           `json:"profiles"`
	Templates []template.Template `json:"templates"`
	CreatedAt time.Time           `json:"created_at"`
	Version   string              `json:"version"`
}

// CreateBackup snapshots all profiles and custom templates into one
// backup row and returns its id.
func (s *Store) CreateBackup(ctx context.Context, name, description string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.snapshotProfiles(ctx)
	if err != nil {
		return "", err
	}
	templates, err := s.snapshotCustomTemplates(ctx)
	if err != nil {
		return "", err
	}

	payload := backupPayload{
		Profiles:  profiles,
		Templates: templates,
		CreatedAt: time.Now().UTC(),
		Version:   "1.0",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", storageErr("encoding backup", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backups (id, name, description, backup_data, file_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, description, string(data), len(data), formatTime(payload.CreatedAt),
	)
	if err != nil {
		return "", storageErr("inserting backup", err)
	}
	return id, nil
}

// ListBackups returns backup metadata, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, file_size, created_at
		FROM backups ORDER BY created_at DESC`)
	if err != nil {
		return nil, storageErr("listing backups", err)
	}
	defer rows.Close()

	var out []BackupInfo
	for rows.Next() {
		var (
			info      BackupInfo
			createdAt string
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Description, &info.FileSize, &createdAt); err != nil {
			return nil, storageErr("scanning backup", err)
		}
		if info.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, storageErr("parsing backup timestamp", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating backups", err)
	}
	return out, nil
}

// RestoreBackup replaces all profiles and custom templates with the
// snapshot, atomically. Built-in templates are untouched.
func (s *Store) RestoreBackup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRowContext(ctx, "SELECT backup_data FROM backups WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		domErr := core.ErrNotFound("backup", id)
		domErr.Code = core.CodeBackupNotFound
		return domErr
	}
	if err != nil {
		return storageErr("reading backup", err)
	}

	var payload backupPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return storageErr("decoding backup", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles"); err != nil {
		return storageErr("clearing profiles", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM templates WHERE is_builtin = 0"); err != nil {
		return storageErr("clearing custom templates", err)
	}

	for _, p := range payload.Profiles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (
				id, name, description, config_data, tags,
				is_default, is_template, is_active, version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, marshalDoc(p.Config), marshalStrings(p.Tags),
			boolInt(p.IsDefault), boolInt(p.IsTemplate), boolInt(p.IsActive),
			p.Version, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return storageErr("restoring profile", err)
		}
	}
	for _, t := range payload.Templates {
		if err := s.insertTemplate(ctx, tx, t); err != nil {
			return storageErr("restoring template", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing restore", err)
	}
	return nil
}

// DeleteBackup removes a backup row.
func (s *Store) DeleteBackup(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM backups WHERE id = ?", id)
	if err != nil {
		return storageErr("deleting backup", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		domErr := core.ErrNotFound("backup", id)
		domErr.Code = core.CodeBackupNotFound
		return domErr
	}
	return nil
}

func (s *Store) snapshotProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, config_data, tags,
		       is_default, is_template, is_active, version, created_at, updated_at
		FROM profiles ORDER BY created_at`)
	if err != nil {
		return nil, storageErr("snapshotting profiles", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (s *Store) snapshotCustomTemplates(ctx context.Context) ([]template.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, display_name, description, category, config_data,
		       use_case, estimated_cost, estimated_time, complexity,
		       prerequisites, tags, is_builtin, usage_count, created_at, updated_at
		FROM templates WHERE is_builtin = 0 ORDER BY created_at`)
	if err != nil {
		return nil, storageErr("snapshotting templates", err)
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
