// Package validate evaluates configuration documents against the field
// schema. Validation is total: every rule violation becomes an Issue in
// the report, and collaborator failures degrade to warnings rather than
// aborting the pass.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one finding against one field.
type Issue struct {
	FieldPath      string          `json:"field_path"`
	Severity       Severity        `json:"severity"`
	RuleKind       schema.RuleKind `json:"rule_type"`
	Message        string          `json:"message"`
	CurrentValue   document.Value  `json:"current_value"`
	SuggestedValue *document.Value `json:"suggested_value,omitempty"`
}

// Report is the full outcome of one validation pass. Valid means no
// errors; warnings and info never block.
type Report struct {
	Valid          bool     `json:"valid"`
	Errors         []Issue  `json:"errors"`
	Warnings       []Issue  `json:"warnings"`
	Info           []Issue  `json:"info"`
	Suggestions    []string `json:"suggestions"`
	ValidationTime float64  `json:"validation_time"`
}

// Context gates the expensive checks. The zero value runs only the pure
// rules.
type Context struct {
	CheckFileExistence      bool
	CheckAPIKeys            bool
	CheckModelCompatibility bool
	// AvailableModels is the set model_compatible rules check against,
	// typically filled from provider probes before validation.
	AvailableModels []string
}

// FilesystemProbe answers path-existence checks during validation.
type FilesystemProbe interface {
	FileExists(ctx context.Context, path string) (bool, error)
	DirectoryExists(ctx context.Context, path string) (bool, error)
}

// DefaultTimeout bounds the I/O phase of a validation pass.
const DefaultTimeout = 10 * time.Second

// Validator runs schema validation over documents. Safe for concurrent
// use.
type Validator struct {
	registry *schema.Registry
	fs       FilesystemProbe
	timeout  time.Duration
	log      *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout overrides the I/O phase timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) { v.timeout = d }
}

// WithLogger attaches a logger for degraded-check reporting.
func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) { v.log = log }
}

// New builds a validator over a registry. fs may be nil when no context
// ever enables file checks.
func New(registry *schema.Registry, fs FilesystemProbe, opts ...Option) *Validator {
	v := &Validator{
		registry: registry,
		fs:       fs,
		timeout:  DefaultTimeout,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate evaluates doc against every field schema and dependency rule.
// Issues are reported in schema declaration order regardless of how the
// concurrent checks complete.
func (v *Validator) Validate(ctx context.Context, doc *document.Map, vctx Context) Report {
	start := time.Now()
	fields := v.registry.Fields()

	// One slot per field keeps output deterministic while the I/O rules
	// run concurrently.
	slots := make([][]Issue, len(fields))
	for i, f := range fields {
		slots[i] = v.checkPureRules(f, doc, vctx)
	}

	if vctx.CheckFileExistence && v.fs != nil {
		v.checkIORules(ctx, doc, fields, slots)
	}

	var report Report
	for _, issues := range slots {
		for _, issue := range issues {
			report.append(issue)
		}
	}
	for _, issue := range v.checkDependencies(doc) {
		report.append(issue)
	}
	report.Suggestions = suggestions(doc)
	report.Valid = len(report.Errors) == 0
	report.ValidationTime = time.Since(start).Seconds()
	return report
}

func (r *Report) append(issue Issue) {
	switch issue.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, issue)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, issue)
	default:
		r.Info = append(r.Info, issue)
	}
}

// checkPureRules runs the rules that need no I/O: required, range,
// pattern, and model_compatible against the pre-fetched model set.
func (v *Validator) checkPureRules(f schema.FieldSchema, doc *document.Map, vctx Context) []Issue {
	val, ok := document.GetPath(doc, f.Name)
	if !ok {
		val = document.Null()
	}

	if val.IsNull() {
		if f.Required {
			return []Issue{{
				FieldPath:    f.Name,
				Severity:     SeverityError,
				RuleKind:     schema.RuleRequired,
				Message:      fmt.Sprintf("%s is required", f.Name),
				CurrentValue: val,
			}}
		}
		// Optional and absent: nothing else applies.
		return nil
	}

	var issues []Issue
	for _, rule := range f.Rules {
		switch rule.Kind {
		case schema.RuleRange:
			if issue := checkRange(f.Name, rule, val); issue != nil {
				issues = append(issues, *issue)
			}
		case schema.RulePattern:
			if val.Kind() == document.KindString && rule.Pattern != nil && !rule.Pattern.MatchString(val.StringVal()) {
				issues = append(issues, Issue{
					FieldPath:    f.Name,
					Severity:     SeverityError,
					RuleKind:     rule.Kind,
					Message:      rule.Message,
					CurrentValue: val,
				})
			}
		case schema.RuleModelCompatible:
			if !vctx.CheckModelCompatibility || val.Kind() != document.KindString {
				continue
			}
			if !contains(vctx.AvailableModels, val.StringVal()) {
				issues = append(issues, Issue{
					FieldPath:    f.Name,
					Severity:     SeverityWarning,
					RuleKind:     rule.Kind,
					Message:      fmt.Sprintf("Model '%s' may not be available with current API keys", val.StringVal()),
					CurrentValue: val,
				})
			}
		}
	}
	return issues
}

// checkRange applies to numbers only; the suggested value is the bound
// that was violated.
func checkRange(path string, rule schema.Rule, val document.Value) *Issue {
	if !val.IsNumber() {
		return nil
	}
	n := val.FloatVal()
	var bound *float64
	switch {
	case rule.Min != nil && n < *rule.Min:
		bound = rule.Min
	case rule.Max != nil && n > *rule.Max:
		bound = rule.Max
	default:
		return nil
	}
	suggested := document.Float(*bound)
	if val.Kind() == document.KindInt {
		suggested = document.Int(int64(*bound))
	}
	return &Issue{
		FieldPath:      path,
		Severity:       SeverityError,
		RuleKind:       rule.Kind,
		Message:        rule.Message,
		CurrentValue:   val,
		SuggestedValue: &suggested,
	}
}

// checkIORules probes path existence for every file/directory rule
// concurrently, bounded by the validator timeout. A probe failure never
// fails validation; it degrades the finding to a warning.
func (v *Validator) checkIORules(ctx context.Context, doc *document.Map, fields []schema.FieldSchema, slots [][]Issue) {
	type ioCheck struct {
		slot  int
		field string
		rule  schema.Rule
		path  string
	}
	var checks []ioCheck
	for i, f := range fields {
		val, ok := document.GetPath(doc, f.Name)
		if !ok || val.Kind() != document.KindString {
			continue
		}
		for _, rule := range f.Rules {
			if rule.Kind == schema.RuleFileExists || rule.Kind == schema.RuleDirectoryExists {
				checks = append(checks, ioCheck{slot: i, field: f.Name, rule: rule, path: val.StringVal()})
			}
		}
	}
	if len(checks) == 0 {
		return
	}

	ioCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	// Each check writes its own result slot; merging after Wait keeps
	// the report order independent of goroutine scheduling.
	results := make([]*Issue, len(checks))
	g, ioCtx := errgroup.WithContext(ioCtx)
	for j := range checks {
		j := j
		g.Go(func() error {
			c := checks[j]
			results[j] = v.probePath(ioCtx, c.field, c.rule, c.path)
			return nil
		})
	}
	// Goroutines never return errors; degraded probes become warnings.
	_ = g.Wait()

	for j, c := range checks {
		if results[j] != nil {
			slots[c.slot] = append(slots[c.slot], *results[j])
		}
	}
}

func (v *Validator) probePath(ctx context.Context, field string, rule schema.Rule, path string) *Issue {
	var (
		exists bool
		err    error
	)
	switch rule.Kind {
	case schema.RuleFileExists:
		exists, err = v.fs.FileExists(ctx, path)
	case schema.RuleDirectoryExists:
		exists, err = v.fs.DirectoryExists(ctx, path)
	}
	if err != nil {
		v.log.Warn("path check degraded", "field", field, "path", path, "error", err)
		return &Issue{
			FieldPath:    field,
			Severity:     SeverityWarning,
			RuleKind:     rule.Kind,
			Message:      fmt.Sprintf("Could not verify path: %v", err),
			CurrentValue: document.String(path),
		}
	}
	if exists {
		return nil
	}
	return &Issue{
		FieldPath:    field,
		Severity:     SeverityError,
		RuleKind:     rule.Kind,
		Message:      rule.Message,
		CurrentValue: document.String(path),
	}
}

// checkDependencies evaluates the cross-field rules. A field counts as
// present when it exists, is non-null, and is not an empty string.
func (v *Validator) checkDependencies(doc *document.Map) []Issue {
	var issues []Issue
	for _, rule := range v.registry.DependencyRules() {
		fieldPresent := present(doc, rule.Field)
		dependsPresent := present(doc, rule.DependsOn)

		var violated bool
		switch rule.Predicate {
		case schema.PredicateRequiredWithout:
			violated = !fieldPresent && !dependsPresent
		case schema.PredicateRecommendedWith:
			violated = dependsPresent && !fieldPresent
		}
		if !violated {
			continue
		}
		sev := SeverityWarning
		if rule.Severity == schema.DependencyError {
			sev = SeverityError
		}
		issues = append(issues, Issue{
			FieldPath:    rule.Field,
			Severity:     sev,
			RuleKind:     schema.RuleDependency,
			Message:      rule.Message,
			CurrentValue: document.Null(),
		})
	}
	return issues
}

func present(doc *document.Map, path string) bool {
	val, ok := document.GetPath(doc, path)
	if !ok || val.IsNull() {
		return false
	}
	if val.Kind() == document.KindString && val.StringVal() == "" {
		return false
	}
	return true
}

func contains(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}
