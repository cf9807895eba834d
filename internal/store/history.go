package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

// UserAction tags what triggered a configuration change.
type UserAction string

const (
	ActionManualEdit    UserAction = "manual_edit"
	ActionTemplateApply UserAction = "template_apply"
	ActionImportConfig  UserAction = "import_config"
	ActionProfileSwitch UserAction = "profile_switch"
	ActionRollback      UserAction = "rollback"
	ActionResetDefaults UserAction = "reset_defaults"
	ActionBulkUpdate    UserAction = "bulk_update"
)

// HistoryEntry is one appended snapshot of a configuration change. An
// empty ProfileID marks a global (current-config) change.
type HistoryEntry struct {
	ID                string        `json:"id"`
	ProfileID         string        `json:"profile_id,omitempty"`
	Config            *document.Map `json:"config_data"`
	PreviousConfig    *document.Map `json:"previous_config,omitempty"`
	ChangeDescription string        `json:"change_description"`
	ChangedFields     []string      `json:"changed_fields"`
	UserAction        UserAction    `json:"user_action"`
	Timestamp         time.Time     `json:"timestamp"`
}

// AddHistory appends a history entry outside any profile transaction.
func (s *Store) AddHistory(ctx context.Context, entry HistoryEntry) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addHistory(ctx, s.db, &entry); err != nil {
		return HistoryEntry{}, err
	}
	return entry, nil
}

func (s *Store) addHistoryTx(ctx context.Context, tx *sql.Tx, entry HistoryEntry) error {
	return s.addHistory(ctx, tx, &entry)
}

func (s *Store) addHistory(ctx context.Context, db execer, entry *HistoryEntry) error {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()
	if entry.ChangedFields == nil {
		entry.ChangedFields = []string{}
	}

	var profileID interface{}
	if entry.ProfileID != "" {
		profileID = entry.ProfileID
	}
	var previous interface{}
	if entry.PreviousConfig != nil {
		previous = marshalDoc(entry.PreviousConfig)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO history (
			id, profile_id, config_data, previous_config,
			change_description, changed_fields, user_action, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, profileID, marshalDoc(entry.Config), previous,
		entry.ChangeDescription, marshalStrings(entry.ChangedFields),
		string(entry.UserAction), formatTime(entry.Timestamp),
	)
	if err != nil {
		return storageErr("inserting history entry", err)
	}
	return nil
}

// History returns entries newest first. An empty profileID returns
// history across all scopes, global entries included.
func (s *Store) History(ctx context.Context, profileID string, limit int) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 50
	}
	query := `
		SELECT id, profile_id, config_data, previous_config,
		       change_description, changed_fields, user_action, timestamp
		FROM history`
	var args []interface{}
	if profileID != "" {
		query += " WHERE profile_id = ?"
		args = append(args, profileID)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("listing history", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, storageErr("scanning history entry", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating history", err)
	}
	return out, nil
}

// GetHistoryEntry fetches one entry by id.
func (s *Store) GetHistoryEntry(ctx context.Context, id string) (HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, config_data, previous_config,
		       change_description, changed_fields, user_action, timestamp
		FROM history WHERE id = ?`, id)
	entry, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		domErr := core.ErrNotFound("history entry", id)
		domErr.Code = core.CodeHistoryNotFound
		return HistoryEntry{}, domErr
	}
	if err != nil {
		return HistoryEntry{}, storageErr("scanning history entry", err)
	}
	return entry, nil
}

// CleanupHistory removes entries older than the retention window and
// trims each profile to its newest maxPerProfile entries. It returns the
// number of deleted rows.
func (s *Store) CleanupHistory(ctx context.Context, retention time.Duration, maxPerProfile int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE timestamp < ?", formatTime(cutoff))
	if err != nil {
		return 0, storageErr("deleting expired history", err)
	}
	deleted, _ := res.RowsAffected()

	if maxPerProfile > 0 {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM history WHERE id IN (
				SELECT id FROM (
					SELECT id, ROW_NUMBER() OVER (
						PARTITION BY profile_id ORDER BY timestamp DESC
					) AS rn
					FROM history WHERE profile_id IS NOT NULL
				) WHERE rn > ?
			)`, maxPerProfile)
		if err != nil {
			return int(deleted), storageErr("trimming per-profile history", err)
		}
		trimmed, _ := res.RowsAffected()
		deleted += trimmed
	}
	return int(deleted), nil
}

func scanHistory(row scanner) (HistoryEntry, error) {
	var (
		entry      HistoryEntry
		profileID  sql.NullString
		configJSON string
		prevJSON   sql.NullString
		fieldsJSON string
		action     string
		ts         string
	)
	err := row.Scan(&entry.ID, &profileID, &configJSON, &prevJSON,
		&entry.ChangeDescription, &fieldsJSON, &action, &ts)
	if err != nil {
		return HistoryEntry{}, err
	}
	entry.ProfileID = profileID.String
	if entry.Config, err = unmarshalDoc(configJSON); err != nil {
		return HistoryEntry{}, err
	}
	if prevJSON.Valid {
		if entry.PreviousConfig, err = unmarshalDoc(prevJSON.String); err != nil {
			return HistoryEntry{}, err
		}
	}
	fields, err := unmarshalStrings(fieldsJSON)
	if err != nil {
		return HistoryEntry{}, err
	}
	if fields == nil {
		fields = []string{}
	}
	entry.ChangedFields = fields
	entry.UserAction = UserAction(action)
	if entry.Timestamp, err = parseTime(ts); err != nil {
		return HistoryEntry{}, err
	}
	return entry, nil
}
