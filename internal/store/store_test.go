package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/template"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testConfig(t *testing.T) *document.Map {
	t.Helper()
	doc, err := document.ParseYAML([]byte("agent:\n  steps: 20\nlog_dir: logs\n"))
	require.NoError(t, err)
	return doc
}

func TestNew_SeedsBuiltinTemplates(t *testing.T) {
	s := newTestStore(t)
	templates, err := s.ListTemplates(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, templates, 5)
	for _, tmpl := range templates {
		assert.True(t, tmpl.Builtin, "%s should be builtin", tmpl.Name)
	}
}

func TestCreateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, CreateProfileParams{
		Name:        "experiment-1",
		Description: "first run",
		Config:      testConfig(t),
		Tags:        []string{"ml", "baseline"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.Version)
	assert.False(t, p.IsActive)

	// Name conflict.
	_, err = s.CreateProfile(ctx, CreateProfileParams{Name: "experiment-1"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatConflict))

	// Creation is recorded in history.
	history, err := s.History(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ActionManualEdit, history[0].UserAction)
}

func TestSingleActiveInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateProfile(ctx, CreateProfileParams{Name: "a", SetActive: true})
	require.NoError(t, err)
	b, err := s.CreateProfile(ctx, CreateProfileParams{Name: "b", SetActive: true})
	require.NoError(t, err)

	active, err := s.ActiveProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	// Activating a deactivates b.
	_, err = s.ActivateProfile(ctx, a.ID)
	require.NoError(t, err)
	active, err = s.ActiveProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active.ID)

	refreshed, err := s.GetProfile(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.IsActive)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, CreateProfileParams{Name: "p", Config: testConfig(t)})
	require.NoError(t, err)

	newCfg, err := document.SetPath(p.Config, "agent.steps", document.Int(30))
	require.NoError(t, err)
	desc := "tuned"
	updated, err := s.UpdateProfile(ctx, p.ID, ProfileUpdate{
		Description: &desc,
		Config:      newCfg,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "tuned", updated.Description)

	steps, _ := document.GetPath(updated.Config, "agent.steps")
	assert.Equal(t, int64(30), steps.IntVal())

	history, err := s.History(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Contains(t, history[0].ChangedFields, "agent.steps")
	assert.Contains(t, history[0].ChangedFields, "description")
	require.NotNil(t, history[0].PreviousConfig)
	prevSteps, _ := document.GetPath(history[0].PreviousConfig, "agent.steps")
	assert.Equal(t, int64(20), prevSteps.IntVal())
}

func TestUpdateProfile_NameConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProfile(ctx, CreateProfileParams{Name: "taken"})
	require.NoError(t, err)
	p, err := s.CreateProfile(ctx, CreateProfileParams{Name: "other"})
	require.NoError(t, err)

	name := "taken"
	_, err = s.UpdateProfile(ctx, p.ID, ProfileUpdate{Name: &name})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatConflict))
}

func TestDeleteProfile_Guards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	active, err := s.CreateProfile(ctx, CreateProfileParams{Name: "active", SetActive: true})
	require.NoError(t, err)
	err = s.DeleteProfile(ctx, active.ID)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatConflict))

	def, err := s.CreateProfile(ctx, CreateProfileParams{Name: "default"})
	require.NoError(t, err)
	_, err = s.SetDefaultProfile(ctx, def.ID)
	require.NoError(t, err)
	err = s.DeleteProfile(ctx, def.ID)
	require.Error(t, err)

	plain, err := s.CreateProfile(ctx, CreateProfileParams{Name: "plain"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteProfile(ctx, plain.ID))
	_, err = s.GetProfile(ctx, plain.ID)
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestSearchProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alpha-run", "beta-run", "gamma"} {
		_, err := s.CreateProfile(ctx, CreateProfileParams{Name: name, Tags: []string{"ml"}})
		require.NoError(t, err)
	}
	_, err := s.CreateProfile(ctx, CreateProfileParams{Name: "other", Tags: []string{"misc"}})
	require.NoError(t, err)

	found, total, err := s.SearchProfiles(ctx, SearchParams{Query: "run"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, found, 2)

	found, total, err = s.SearchProfiles(ctx, SearchParams{Tags: []string{"ml"}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// Pagination.
	found, total, err = s.SearchProfiles(ctx, SearchParams{Tags: []string{"ml"}, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, found, 1)
}

func TestTemplates_BuiltinImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.DeleteTemplate(ctx, "quick_experiment")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConflict(core.CodeBuiltinImmutable, "")))

	desc := "edited"
	_, err = s.UpdateTemplate(ctx, "quick_experiment", TemplateUpdate{Description: &desc})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatConflict))
}

func TestTemplates_CustomCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTemplate(ctx, template.Template{
		Name:        "my-template",
		DisplayName: "My Template",
		Category:    template.CategoryCustom,
		Config:      testConfig(t),
		Tags:        []string{"custom"},
	})
	require.NoError(t, err)
	assert.False(t, created.Builtin)
	assert.NotEmpty(t, created.ID)

	// Name conflict with a builtin.
	_, err = s.CreateTemplate(ctx, template.Template{Name: "educational"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatConflict))

	desc := "for regression tasks"
	updated, err := s.UpdateTemplate(ctx, "my-template", TemplateUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	require.NoError(t, s.IncrementTemplateUsage(ctx, "my-template"))
	got, err := s.GetTemplate(ctx, "my-template")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)

	require.NoError(t, s.DeleteTemplate(ctx, "my-template"))
	_, err = s.GetTemplate(ctx, "my-template")
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestHistory_GlobalScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddHistory(ctx, HistoryEntry{
		Config:            testConfig(t),
		ChangeDescription: "Applied template 'Quick Experiment' to global config",
		UserAction:        ActionTemplateApply,
		ChangedFields:     []string{"agent.steps"},
	})
	require.NoError(t, err)

	all, err := s.History(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].ProfileID)
	assert.Equal(t, ActionTemplateApply, all[0].UserAction)

	entry, err := s.GetHistoryEntry(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].ID, entry.ID)
}

func TestCleanupHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, CreateProfileParams{Name: "p", Config: testConfig(t)})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		cfg, err := document.SetPath(p.Config, "agent.steps", document.Int(int64(10+i)))
		require.NoError(t, err)
		_, err = s.UpdateProfile(ctx, p.ID, ProfileUpdate{Config: cfg})
		require.NoError(t, err)
		p, err = s.GetProfile(ctx, p.ID)
		require.NoError(t, err)
	}

	deleted, err := s.CleanupHistory(ctx, 30*24*time.Hour, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted) // 6 entries total, trimmed to 3

	remaining, err := s.History(ctx, p.ID, 50)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func TestBackupRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, CreateProfileParams{Name: "keep-me", Config: testConfig(t), SetActive: true})
	require.NoError(t, err)
	_, err = s.CreateTemplate(ctx, template.Template{Name: "custom-tmpl", DisplayName: "Custom", Config: testConfig(t)})
	require.NoError(t, err)

	backupID, err := s.CreateBackup(ctx, "before-changes", "test backup")
	require.NoError(t, err)

	// Mutate state after the backup.
	require.NoError(t, s.DeleteTemplate(ctx, "custom-tmpl"))
	_, err = s.CreateProfile(ctx, CreateProfileParams{Name: "scratch"})
	require.NoError(t, err)

	require.NoError(t, s.RestoreBackup(ctx, backupID))

	restored, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", restored.Name)
	assert.True(t, restored.IsActive)

	_, err = s.GetProfileByName(ctx, "scratch")
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))

	tmpl, err := s.GetTemplate(ctx, "custom-tmpl")
	require.NoError(t, err)
	assert.Equal(t, "Custom", tmpl.DisplayName)

	backups, err := s.ListBackups(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "before-changes", backups[0].Name)
	assert.Greater(t, backups[0].FileSize, 0)
}
