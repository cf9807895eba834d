package schema

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

// Registry is a read-only table of field schemas plus category metadata and
// cross-field dependency rules. Safe for concurrent use; there is no write
// path after construction.
type Registry struct {
	version       string
	fields        []FieldSchema
	byName        map[string]int
	categories    []CategoryInfo
	categoryPaths map[Category][]string
	dependencies  []DependencyRule
}

// New builds a registry, enforcing unique field names and known categories.
func New(version string, categories []CategoryInfo, categoryPaths map[Category][]string, fields []FieldSchema, deps []DependencyRule) (*Registry, error) {
	r := &Registry{
		version:       version,
		fields:        fields,
		byName:        make(map[string]int, len(fields)),
		categories:    categories,
		categoryPaths: categoryPaths,
		dependencies:  deps,
	}
	known := make(map[Category]bool, len(categories))
	for _, c := range categories {
		known[c.Name] = true
	}
	for i, f := range fields {
		if _, dup := r.byName[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name)
		}
		if !known[f.Category] {
			return nil, fmt.Errorf("schema: field %q references unknown category %q", f.Name, f.Category)
		}
		r.byName[f.Name] = i
	}
	for c := range categoryPaths {
		if !known[c] {
			return nil, fmt.Errorf("schema: path mapping references unknown category %q", c)
		}
	}
	return r, nil
}

// Version returns the schema version string.
func (r *Registry) Version() string { return r.version }

// Fields returns all field schemas in declaration order. The caller must
// not mutate the returned slice.
func (r *Registry) Fields() []FieldSchema { return r.fields }

// Field looks up a field schema by its canonical dotted path.
func (r *Registry) Field(name string) (FieldSchema, bool) {
	i, ok := r.byName[name]
	if !ok {
		return FieldSchema{}, false
	}
	return r.fields[i], true
}

// Categories returns category metadata in display order.
func (r *Registry) Categories() []CategoryInfo { return r.categories }

// FieldsForCategory returns the dotted-path prefixes a category-scoped
// update may touch. Querying an unknown category is a programming error,
// not a validation outcome.
func (r *Registry) FieldsForCategory(cat Category) ([]string, error) {
	paths, ok := r.categoryPaths[cat]
	if !ok {
		return nil, core.ErrInternal(core.CodeUnknownCategory, fmt.Sprintf("unknown category %q", cat))
	}
	return paths, nil
}

// DependencyRules returns the cross-field rules.
func (r *Registry) DependencyRules() []DependencyRule { return r.dependencies }

// Defaults builds the default configuration document from field defaults,
// in declaration order. Optional fields without a default contribute null.
func (r *Registry) Defaults() *document.Map {
	doc := document.NewMap()
	for _, f := range r.fields {
		next, err := document.SetPath(doc, f.Name, f.Default)
		if err != nil {
			// Field names are validated non-empty at construction.
			continue
		}
		doc = next
	}
	return doc
}
