// Package service implements the application services: the live
// configuration document, profile lifecycle, and template operations.
// Services own orchestration and history; the engine packages under
// document, schema, and validate stay pure.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hugo-lorenzo-mato/aideconf/internal/config"
	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/fsutil"
	"github.com/hugo-lorenzo-mato/aideconf/internal/logging"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
	"github.com/hugo-lorenzo-mato/aideconf/internal/store"
	"github.com/hugo-lorenzo-mato/aideconf/internal/validate"
)

const redactedValue = "***REDACTED***"

// sensitiveMarkers flags path segments whose values are redacted on
// export.
var sensitiveMarkers = []string{"api_key", "secret", "token", "password"}

// ConfigService manages the live configuration document: a YAML file on
// disk, cached with a TTL and invalidated by filesystem events.
type ConfigService struct {
	path      string
	registry  *schema.Registry
	validator *validate.Validator
	vctx      validate.Context
	store     *store.Store
	log       *logging.Logger

	mu       sync.Mutex
	cached   *document.Map
	loadedAt time.Time
	ttl      time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// ConfigOption configures the service.
type ConfigOption func(*ConfigService)

// WithCacheTTL sets how long a loaded document stays fresh.
func WithCacheTTL(ttl time.Duration) ConfigOption {
	return func(s *ConfigService) { s.ttl = ttl }
}

// WithValidationContext sets the collaborator gates used when the
// service validates a document.
func WithValidationContext(vctx validate.Context) ConfigOption {
	return func(s *ConfigService) { s.vctx = vctx }
}

// WithWatcher enables filesystem invalidation of the cache. External
// edits to the config file are picked up without waiting for the TTL.
func WithWatcher() ConfigOption {
	return func(s *ConfigService) {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			s.log.Warn("config file watcher unavailable", "error", err)
			return
		}
		s.watcher = watcher
	}
}

// NewConfigService creates the service for the given config file path.
func NewConfigService(path string, registry *schema.Registry, validator *validate.Validator, st *store.Store, log *logging.Logger, opts ...ConfigOption) (*ConfigService, error) {
	if log == nil {
		log = logging.NewNop()
	}
	s := &ConfigService{
		path:      filepath.Clean(path),
		registry:  registry,
		validator: validator,
		store:     st,
		log:       log.WithComponent("config"),
		ttl:       30 * time.Second,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.watcher != nil {
		if err := fsutil.EnsureDir(filepath.Dir(s.path)); err != nil {
			return nil, core.ErrStorage("creating config directory").WithCause(err)
		}
		if err := s.watcher.Add(filepath.Dir(s.path)); err != nil {
			return nil, core.ErrStorage("watching config directory").WithCause(err)
		}
		go s.watch()
	}
	return s, nil
}

// Close stops the filesystem watcher.
func (s *ConfigService) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *ConfigService) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.mu.Lock()
				s.cached = nil
				s.mu.Unlock()
				s.log.Debug("config cache invalidated", "op", ev.Op.String())
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("config file watcher error", "error", err)
		}
	}
}

// Current returns the live configuration document. A missing file is
// initialized from schema defaults.
func (s *ConfigService) Current(ctx context.Context) (*document.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.currentLocked(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

func (s *ConfigService) currentLocked(_ context.Context) (*document.Map, error) {
	if s.cached != nil && time.Since(s.loadedAt) < s.ttl {
		return s.cached, nil
	}

	data, err := fsutil.ReadScoped(s.path)
	if os.IsNotExist(err) {
		defaults := s.registry.Defaults()
		if werr := s.writeLocked(defaults); werr != nil {
			return nil, werr
		}
		s.log.Info("initialized configuration from defaults", "path", s.path)
		return defaults, nil
	}
	if err != nil {
		return nil, core.ErrStorage("reading configuration file").WithCause(err)
	}

	doc, err := document.ParseYAML(data)
	if err != nil {
		return nil, core.ErrStorage("parsing configuration file").WithCause(err)
	}
	s.cached = doc
	s.loadedAt = time.Now()
	return doc, nil
}

func (s *ConfigService) writeLocked(doc *document.Map) error {
	data, err := document.EncodeYAML(doc)
	if err != nil {
		return core.ErrStorage("encoding configuration").WithCause(err)
	}
	if err := config.AtomicWrite(s.path, data); err != nil {
		return core.ErrStorage("writing configuration file").WithCause(err)
	}
	s.cached = doc
	s.loadedAt = time.Now()
	return nil
}

// Category returns the slice of the current document belonging to one
// schema category, nesting preserved.
func (s *ConfigService) Category(ctx context.Context, cat schema.Category) (*document.Map, error) {
	fields, err := s.registry.FieldsForCategory(cat)
	if err != nil {
		return nil, err
	}
	doc, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	out := document.NewMap()
	for _, f := range fields {
		v, ok := document.GetPath(doc, f)
		if !ok {
			continue
		}
		if out, err = document.SetPath(out, f, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update merges the given fields into the current document, validates
// the result, and persists it. A non-empty category restricts which
// paths may change; out-of-scope paths are rejected before anything is
// written. An invalid merged document is never persisted.
func (s *ConfigService) Update(ctx context.Context, updates *document.Map, category schema.Category) (*document.Map, validate.Report, error) {
	if category != "" {
		if err := s.checkScope(updates, category); err != nil {
			return nil, validate.Report{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.currentLocked(ctx)
	if err != nil {
		return nil, validate.Report{}, err
	}

	merged := document.Merge(current, updates)
	report := s.validator.Validate(ctx, merged, s.vctx)
	if !report.Valid {
		return nil, report, invalidConfigErr(report)
	}

	changes := document.Diff(current, merged)
	if len(changes) == 0 {
		return merged, report, nil
	}
	if err := s.writeLocked(merged); err != nil {
		return nil, report, err
	}

	changed := document.ChangedPaths(changes)
	s.recordHistory(ctx, store.HistoryEntry{
		Config:            merged,
		PreviousConfig:    current,
		ChangeDescription: fmt.Sprintf("Configuration updated: %s", strings.Join(changed, ", ")),
		ChangedFields:     changed,
		UserAction:        store.ActionManualEdit,
	})
	s.log.Info("configuration updated", "fields", len(changed))
	return merged, report, nil
}

func (s *ConfigService) checkScope(updates *document.Map, category schema.Category) error {
	allowed, err := s.registry.FieldsForCategory(category)
	if err != nil {
		return err
	}
	for _, path := range document.Flatten(updates) {
		if !inScope(path, allowed) {
			return core.ErrValidation(core.CodeFieldOutOfScope,
				fmt.Sprintf("field '%s' is not in category '%s'", path, category))
		}
	}
	return nil
}

func inScope(path string, allowed []string) bool {
	for _, f := range allowed {
		if path == f || strings.HasPrefix(path, f+".") || strings.HasPrefix(f, path+".") {
			return true
		}
	}
	return false
}

// Reset replaces the current document with schema defaults.
func (s *ConfigService) Reset(ctx context.Context) (*document.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.currentLocked(ctx)
	if err != nil {
		return nil, err
	}
	defaults := s.registry.Defaults()
	if err := s.writeLocked(defaults); err != nil {
		return nil, err
	}

	changed := document.ChangedPaths(document.Diff(current, defaults))
	s.recordHistory(ctx, store.HistoryEntry{
		Config:            defaults,
		PreviousConfig:    current,
		ChangeDescription: "Configuration reset to defaults",
		ChangedFields:     changed,
		UserAction:        store.ActionResetDefaults,
	})
	s.log.Info("configuration reset to defaults")
	return defaults.Clone(), nil
}

// SetCurrent replaces the current document without validation or a
// history entry. Callers that switch profiles or roll back record their
// own history.
func (s *ConfigService) SetCurrent(_ context.Context, doc *document.Map) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(doc.Clone())
}

// Validate runs the validator against the given document, or the
// current one when doc is nil.
func (s *ConfigService) Validate(ctx context.Context, doc *document.Map) (validate.Report, error) {
	if doc == nil {
		var err error
		if doc, err = s.Current(ctx); err != nil {
			return validate.Report{}, err
		}
	}
	return s.validator.Validate(ctx, doc, s.vctx), nil
}

// Export serializes the current document. Sensitive fields are redacted
// unless includeSensitive is set.
func (s *ConfigService) Export(ctx context.Context, format string, includeSensitive bool) ([]byte, error) {
	doc, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !includeSensitive {
		if doc, err = redactSensitive(doc); err != nil {
			return nil, err
		}
	}

	switch format {
	case "", "yaml":
		data, err := document.EncodeYAML(doc)
		if err != nil {
			return nil, core.ErrStorage("encoding configuration").WithCause(err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, core.ErrStorage("encoding configuration").WithCause(err)
		}
		return data, nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidFormat,
			fmt.Sprintf("unsupported export format '%s'", format))
	}
}

func redactSensitive(doc *document.Map) (*document.Map, error) {
	out := doc.Clone()
	var err error
	for _, path := range document.Flatten(doc) {
		if !isSensitivePath(path) {
			continue
		}
		if out, err = document.SetPath(out, path, document.String(redactedValue)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isSensitivePath(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Import parses an external document (YAML, falling back to JSON),
// combines it with the current one under the given strategy, and
// validates the result. With validateOnly set nothing is persisted.
func (s *ConfigService) Import(ctx context.Context, data []byte, strategy string, validateOnly bool) (*document.Map, validate.Report, error) {
	incoming, err := document.ParseYAML(data)
	if err != nil {
		if incoming, err = document.ParseJSON(data); err != nil {
			return nil, validate.Report{}, core.ErrValidation(core.CodeInvalidFormat,
				"imported data is neither valid YAML nor valid JSON").WithCause(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.currentLocked(ctx)
	if err != nil {
		return nil, validate.Report{}, err
	}

	if strategy == "" {
		strategy = string(document.StrategyMerge)
	}
	strat, err := document.ParseStrategy(strategy)
	if err != nil {
		return nil, validate.Report{}, core.ErrValidation(core.CodeUnknownStrategy, err.Error())
	}
	merged, err := document.Combine(current, incoming, strat)
	if err != nil {
		return nil, validate.Report{}, err
	}

	report := s.validator.Validate(ctx, merged, s.vctx)
	if !report.Valid {
		return nil, report, invalidConfigErr(report)
	}
	if validateOnly {
		return merged, report, nil
	}

	if err := s.writeLocked(merged); err != nil {
		return nil, report, err
	}
	changed := document.ChangedPaths(document.Diff(current, merged))
	s.recordHistory(ctx, store.HistoryEntry{
		Config:            merged,
		PreviousConfig:    current,
		ChangeDescription: fmt.Sprintf("Configuration imported (%d fields changed)", len(changed)),
		ChangedFields:     changed,
		UserAction:        store.ActionImportConfig,
	})
	s.log.Info("configuration imported", "strategy", strategy, "fields", len(changed))
	return merged, report, nil
}

// recordHistory appends a global history entry. History failures are
// logged, not propagated: the configuration write already succeeded.
func (s *ConfigService) recordHistory(ctx context.Context, entry store.HistoryEntry) {
	if s.store == nil {
		return
	}
	if _, err := s.store.AddHistory(ctx, entry); err != nil {
		s.log.Warn("recording history entry failed", "error", err)
	}
}

func invalidConfigErr(report validate.Report) error {
	msgs := make([]string, 0, len(report.Errors))
	for _, issue := range report.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", issue.FieldPath, issue.Message))
	}
	return core.ErrValidation(core.CodeInvalidConfig, strings.Join(msgs, "; "))
}
