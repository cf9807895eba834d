// Package schema holds the declarative configuration schema: typed fields
// grouped into categories, per-field validation rules, and cross-field
// dependency rules. The built-in registry is assembled once at process
// start and never mutated afterwards.
package schema

import (
	"regexp"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

// FieldType is the declared scalar type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// Category groups fields for UI and for category-scoped updates.
type Category string

const (
	CategoryProject   Category = "project"
	CategoryAgent     Category = "agent"
	CategoryModels    Category = "models"
	CategorySearch    Category = "search"
	CategoryExecution Category = "execution"
	CategoryReporting Category = "reporting"
)

// RuleKind tags a validation rule variant.
type RuleKind string

const (
	RuleRequired        RuleKind = "required"
	RuleRange           RuleKind = "range"
	RulePattern         RuleKind = "pattern"
	RuleDependency      RuleKind = "dependency"
	RuleFileExists      RuleKind = "file_exists"
	RuleDirectoryExists RuleKind = "directory_exists"
	RuleAPIKeyValid     RuleKind = "api_key_valid"
	RuleModelCompatible RuleKind = "model_compatible"
)

// Rule is one validation rule attached to a field. Only the parameters
// matching the kind are set.
type Rule struct {
	Kind    RuleKind
	Message string

	// range
	Min *float64
	Max *float64

	// pattern
	Pattern *regexp.Regexp

	// api_key_valid / model_compatible
	Provider string
}

// FieldSchema describes one configuration field addressed by its canonical
// dotted path.
type FieldSchema struct {
	Name        string
	Type        FieldType
	Category    Category
	Description string
	Required    bool
	Default     document.Value
	Rules       []Rule
}

// DependencyPredicate names a cross-field dependency check evaluated
// against the whole document.
type DependencyPredicate string

const (
	// PredicateRequiredWithout makes Field an error when both Field and
	// DependsOn are absent.
	PredicateRequiredWithout DependencyPredicate = "required_without"
	// PredicateRecommendedWith flags Field when DependsOn is present but
	// Field is absent.
	PredicateRecommendedWith DependencyPredicate = "recommended_with"
)

// DependencySeverity is the severity a dependency violation surfaces with.
type DependencySeverity string

const (
	DependencyError   DependencySeverity = "error"
	DependencyWarning DependencySeverity = "warning"
)

// DependencyRule is a cross-field rule evaluated once per validation pass.
type DependencyRule struct {
	Field     string
	DependsOn string
	Predicate DependencyPredicate
	Severity  DependencySeverity
	Message   string
}

// CategoryInfo carries category metadata for UI grouping.
type CategoryInfo struct {
	Name        Category `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

func floatPtr(f float64) *float64 { return &f }
