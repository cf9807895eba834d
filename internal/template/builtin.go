package template

import (
	"embed"
	"fmt"
	"sync"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

type builtinMeta struct {
	name          string
	displayName   string
	description   string
	category      Category
	useCase       string
	estimatedCost string
	estimatedTime string
	complexity    Complexity
	prerequisites []string
	tags          []string
}

var builtinCatalogue = []builtinMeta{
	{
		name:          "quick_experiment",
		displayName:   "Quick Experiment",
		description:   "Fast configuration for rapid prototyping and initial data exploration",
		category:      CategoryQuickExperiment,
		useCase:       "Rapid prototyping, initial exploration, quick baseline models",
		estimatedCost: "$1-3",
		estimatedTime: "5-10 minutes",
		complexity:    ComplexityBeginner,
		prerequisites: []string{"Basic dataset understanding"},
		tags:          []string{"quick", "prototype", "beginner", "gpt-3.5"},
	},
	{
		name:          "cost_optimized",
		displayName:   "Cost Optimized",
		description:   "Minimal cost configuration while maintaining reasonable performance",
		category:      CategoryCostOptimized,
		useCase:       "Budget-conscious projects, educational purposes, proof of concepts",
		estimatedCost: "$2-5",
		estimatedTime: "10-20 minutes",
		complexity:    ComplexityBeginner,
		prerequisites: []string{"Clear problem definition"},
		tags:          []string{"budget", "efficient", "gpt-3.5", "economy"},
	},
	{
		name:          "comprehensive_analysis",
		displayName:   "Comprehensive Analysis",
		description:   "High-quality configuration for thorough analysis and production-ready models",
		category:      CategoryComprehensiveAnalysis,
		useCase:       "Production models, comprehensive research, competition submissions",
		estimatedCost: "$15-40",
		estimatedTime: "45-90 minutes",
		complexity:    ComplexityAdvanced,
		prerequisites: []string{"Well-defined metrics", "Quality dataset", "Performance requirements"},
		tags:          []string{"comprehensive", "production", "gpt-4", "research"},
	},
	{
		name:          "research_focused",
		displayName:   "Research Focused",
		description:   "Configuration optimized for research and experimentation",
		category:      CategoryResearch,
		useCase:       "Academic research, novel techniques exploration, publication-quality results",
		estimatedCost: "$10-25",
		estimatedTime: "30-60 minutes",
		complexity:    ComplexityExpert,
		prerequisites: []string{"Research methodology", "Statistical knowledge", "Domain expertise"},
		tags:          []string{"research", "academic", "statistical", "gpt-4"},
	},
	{
		name:          "educational",
		displayName:   "Educational",
		description:   "Balanced configuration for learning and teaching purposes",
		category:      CategoryEducational,
		useCase:       "Educational content, tutorials, demonstrations, learning exercises",
		estimatedCost: "$5-12",
		estimatedTime: "20-40 minutes",
		complexity:    ComplexityIntermediate,
		prerequisites: []string{"Basic ML understanding"},
		tags:          []string{"education", "tutorial", "learning", "balanced"},
	},
}

var (
	builtinOnce      sync.Once
	builtinTemplates []Template
)

// BuiltinTemplates returns the embedded template catalogue. The returned
// slice and its documents must not be mutated; callers that need to edit
// a config should Clone it first.
func BuiltinTemplates() []Template {
	builtinOnce.Do(func() {
		for _, meta := range builtinCatalogue {
			raw, err := builtinFS.ReadFile(fmt.Sprintf("builtin/%s.yaml", meta.name))
			if err != nil {
				panic("template: missing embedded payload for " + meta.name)
			}
			cfg, err := document.ParseYAML(raw)
			if err != nil {
				panic("template: invalid embedded payload for " + meta.name + ": " + err.Error())
			}
			builtinTemplates = append(builtinTemplates, Template{
				Name:          meta.name,
				DisplayName:   meta.displayName,
				Description:   meta.description,
				Category:      meta.category,
				Config:        cfg,
				UseCase:       meta.useCase,
				EstimatedCost: meta.estimatedCost,
				EstimatedTime: meta.estimatedTime,
				Complexity:    meta.complexity,
				Prerequisites: meta.prerequisites,
				Tags:          meta.tags,
				Builtin:       true,
			})
		}
	})
	return builtinTemplates
}
