package template

import (
	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

// Apply combines a template config onto a target document using the
// named strategy. Neither input is mutated.
func Apply(target *document.Map, tmpl *document.Map, strategy string) (*document.Map, error) {
	s, err := document.ParseStrategy(strategy)
	if err != nil {
		return nil, core.ErrValidation(core.CodeUnknownStrategy, err.Error())
	}
	return document.Combine(target, tmpl, s)
}

// NamedConfig pairs a configuration document with its template identity
// for comparison.
type NamedConfig struct {
	Name        string
	DisplayName string
	Config      *document.Map
}

// Comparison is one template's values for the compared field set.
type Comparison struct {
	TemplateName string        `json:"template_name"`
	DisplayName  string        `json:"display_name"`
	FieldValues  *document.Map `json:"field_values"`
}

// ComparisonResult is the outcome of an N-way template comparison.
type ComparisonResult struct {
	Comparisons     []Comparison `json:"comparisons"`
	CommonFields    []string     `json:"common_fields"`
	DifferentFields []string     `json:"different_fields"`
}

// Compare builds a field-by-field comparison across configs. When fields
// is empty the compared set is the union of every leaf path, in the order
// paths are first seen across the inputs. A field is common when its
// rendered value is identical everywhere; absent counts as null.
func Compare(configs []NamedConfig, fields []string) ComparisonResult {
	if len(fields) == 0 {
		seen := make(map[string]bool)
		for _, c := range configs {
			for _, path := range document.Flatten(c.Config) {
				if !seen[path] {
					seen[path] = true
					fields = append(fields, path)
				}
			}
		}
	}

	result := ComparisonResult{}
	for _, c := range configs {
		values := document.NewMap()
		for _, path := range fields {
			v, ok := document.GetPath(c.Config, path)
			if !ok {
				v = document.Null()
			}
			values.Set(path, v)
		}
		result.Comparisons = append(result.Comparisons, Comparison{
			TemplateName: c.Name,
			DisplayName:  c.DisplayName,
			FieldValues:  values,
		})
	}

	for _, path := range fields {
		common := true
		var first string
		for i, comp := range result.Comparisons {
			v, _ := comp.FieldValues.Get(path)
			if i == 0 {
				first = v.String()
				continue
			}
			if v.String() != first {
				common = false
				break
			}
		}
		if common {
			result.CommonFields = append(result.CommonFields, path)
		} else {
			result.DifferentFields = append(result.DifferentFields, path)
		}
	}
	return result
}
