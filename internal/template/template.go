// Package template manages configuration templates: the built-in
// catalogue, applying a template onto a target document, N-way
// comparison, and recommendation scoring.
package template

import (
	"time"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

// Category classifies templates for listing and recommendation.
type Category string

const (
	CategoryQuickExperiment       Category = "quick_experiment"
	CategoryCostOptimized         Category = "cost_optimized"
	CategoryComprehensiveAnalysis Category = "comprehensive_analysis"
	CategoryProductionReady       Category = "production_ready"
	CategoryResearch              Category = "research"
	CategoryEducational           Category = "educational"
	CategoryCustom                Category = "custom"
)

// CategoryDescriptions maps each category to a short description.
func CategoryDescriptions() map[Category]string {
	return map[Category]string{
		CategoryQuickExperiment:       "Fast prototyping and initial exploration",
		CategoryCostOptimized:         "Budget-conscious configurations",
		CategoryComprehensiveAnalysis: "High-quality, production-ready analysis",
		CategoryProductionReady:       "Enterprise-grade configurations",
		CategoryResearch:              "Academic and research-focused setups",
		CategoryEducational:           "Learning and teaching purposes",
		CategoryCustom:                "User-created custom templates",
	}
}

// Complexity is the experience level a template targets.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
	ComplexityExpert       Complexity = "expert"
)

// Template is one configuration template, built-in or user-created.
type Template struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	DisplayName   string        `json:"display_name"`
	Description   string        `json:"description"`
	Category      Category      `json:"category"`
	Config        *document.Map `json:"config_data"`
	UseCase       string        `json:"use_case,omitempty"`
	EstimatedCost string        `json:"estimated_cost,omitempty"`
	EstimatedTime string        `json:"estimated_time,omitempty"`
	Complexity    Complexity    `json:"complexity"`
	Prerequisites []string      `json:"prerequisites,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Builtin       bool          `json:"is_builtin"`
	UsageCount    int           `json:"usage_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
