package schema

import (
	"regexp"
	"sync"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

var (
	builtinOnce sync.Once
	builtin     *Registry

	expNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	pyFilePattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+\.py$`)
)

// Builtin returns the process-wide AIDE ML configuration schema. It is
// assembled on first use and never mutated afterwards.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		r, err := New("1.0", builtinCategories(), builtinCategoryPaths(), builtinFields(), builtinDependencies())
		if err != nil {
			panic("schema: invalid builtin registry: " + err.Error())
		}
		builtin = r
	})
	return builtin
}

func builtinCategories() []CategoryInfo {
	return []CategoryInfo{
		{Name: CategoryProject, Title: "Project Settings", Description: "Project and task settings"},
		{Name: CategoryAgent, Title: "Agent Configuration", Description: "Agent behavior configuration"},
		{Name: CategoryModels, Title: "AI Models", Description: "AI model configuration"},
		{Name: CategorySearch, Title: "Search Algorithm", Description: "Tree search parameters"},
		{Name: CategoryExecution, Title: "Execution Settings", Description: "Code execution settings"},
		{Name: CategoryReporting, Title: "Reporting", Description: "Report generation settings"},
	}
}

func builtinCategoryPaths() map[Category][]string {
	return map[Category][]string{
		CategoryProject:   {"data_dir", "desc_file", "goal", "eval", "log_dir", "workspace_dir", "preprocess_data", "copy_data", "exp_name"},
		CategoryAgent:     {"agent"},
		CategoryModels:    {"agent.code", "agent.feedback", "report"},
		CategorySearch:    {"agent.search"},
		CategoryExecution: {"exec"},
		CategoryReporting: {"generate_report", "report"},
	}
}

func builtinFields() []FieldSchema {
	return []FieldSchema{
		{
			Name:        "data_dir",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Path to the task data directory",
			Rules: []Rule{
				{Kind: RuleDirectoryExists, Message: "Data directory must exist"},
			},
		},
		{
			Name:        "desc_file",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Path to task description file",
			Rules: []Rule{
				{Kind: RuleFileExists, Message: "Description file must exist"},
			},
		},
		{
			Name:        "goal",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Task goal description",
		},
		{
			Name:        "eval",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Evaluation criteria description",
		},
		{
			Name:        "log_dir",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Directory for experiment logs",
			Required:    true,
			Default:     document.String("logs"),
		},
		{
			Name:        "workspace_dir",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Directory for agent workspaces",
			Required:    true,
			Default:     document.String("workspaces"),
		},
		{
			Name:        "preprocess_data",
			Type:        TypeBoolean,
			Category:    CategoryProject,
			Description: "Automatically unzip archives in data directory",
			Required:    true,
			Default:     document.Bool(true),
		},
		{
			Name:        "copy_data",
			Type:        TypeBoolean,
			Category:    CategoryProject,
			Description: "Copy data to workspace (vs symlink)",
			Required:    true,
			Default:     document.Bool(true),
		},
		{
			Name:        "exp_name",
			Type:        TypeString,
			Category:    CategoryProject,
			Description: "Experiment name (auto-generated if not provided)",
			Rules: []Rule{
				{Kind: RulePattern, Pattern: expNamePattern, Message: "Experiment name can only contain letters, numbers, hyphens, and underscores"},
			},
		},
		{
			Name:        "agent.steps",
			Type:        TypeInteger,
			Category:    CategoryAgent,
			Description: "Number of improvement iterations",
			Required:    true,
			Default:     document.Int(20),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(1), Max: floatPtr(100), Message: "Agent steps must be between 1 and 100"},
			},
		},
		{
			Name:        "agent.k_fold_validation",
			Type:        TypeInteger,
			Category:    CategoryAgent,
			Description: "K-fold cross-validation splits",
			Required:    true,
			Default:     document.Int(5),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(1), Max: floatPtr(10), Message: "K-fold validation must be between 1 and 10"},
			},
		},
		{
			Name:        "agent.expose_prediction",
			Type:        TypeBoolean,
			Category:    CategoryAgent,
			Description: "Generate prediction function",
			Required:    true,
			Default:     document.Bool(false),
		},
		{
			Name:        "agent.data_preview",
			Type:        TypeBoolean,
			Category:    CategoryAgent,
			Description: "Provide data preview to agent",
			Required:    true,
			Default:     document.Bool(true),
		},
		{
			Name:        "agent.code.model",
			Type:        TypeString,
			Category:    CategoryModels,
			Description: "Model for code generation",
			Required:    true,
			Default:     document.String("gpt-4-turbo"),
			Rules: []Rule{
				{Kind: RuleModelCompatible, Message: "Model must be available with configured API keys"},
			},
		},
		{
			Name:        "agent.code.temp",
			Type:        TypeNumber,
			Category:    CategoryModels,
			Description: "Temperature for code generation",
			Required:    true,
			Default:     document.Float(0.5),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(0), Max: floatPtr(2), Message: "Temperature must be between 0.0 and 2.0"},
			},
		},
		{
			Name:        "agent.feedback.model",
			Type:        TypeString,
			Category:    CategoryModels,
			Description: "Model for feedback evaluation",
			Required:    true,
			Default:     document.String("gpt-4-turbo"),
			Rules: []Rule{
				{Kind: RuleModelCompatible, Message: "Model must be available with configured API keys"},
			},
		},
		{
			Name:        "agent.feedback.temp",
			Type:        TypeNumber,
			Category:    CategoryModels,
			Description: "Temperature for feedback evaluation",
			Required:    true,
			Default:     document.Float(0.5),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(0), Max: floatPtr(2), Message: "Temperature must be between 0.0 and 2.0"},
			},
		},
		{
			Name:        "report.model",
			Type:        TypeString,
			Category:    CategoryModels,
			Description: "Model for report generation",
			Required:    true,
			Default:     document.String("gpt-4-turbo"),
			Rules: []Rule{
				{Kind: RuleModelCompatible, Message: "Model must be available with configured API keys"},
			},
		},
		{
			Name:        "report.temp",
			Type:        TypeNumber,
			Category:    CategoryModels,
			Description: "Temperature for report generation",
			Required:    true,
			Default:     document.Float(1.0),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(0), Max: floatPtr(2), Message: "Temperature must be between 0.0 and 2.0"},
			},
		},
		{
			Name:        "agent.search.max_debug_depth",
			Type:        TypeInteger,
			Category:    CategorySearch,
			Description: "Maximum depth for debugging attempts",
			Required:    true,
			Default:     document.Int(3),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(1), Max: floatPtr(10), Message: "Max debug depth must be between 1 and 10"},
			},
		},
		{
			Name:        "agent.search.debug_prob",
			Type:        TypeNumber,
			Category:    CategorySearch,
			Description: "Probability of debugging vs new attempt",
			Required:    true,
			Default:     document.Float(0.5),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(0), Max: floatPtr(1), Message: "Debug probability must be between 0.0 and 1.0"},
			},
		},
		{
			Name:        "agent.search.num_drafts",
			Type:        TypeInteger,
			Category:    CategorySearch,
			Description: "Number of initial draft solutions",
			Required:    true,
			Default:     document.Int(5),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(1), Max: floatPtr(20), Message: "Number of drafts must be between 1 and 20"},
			},
		},
		{
			Name:        "exec.timeout",
			Type:        TypeInteger,
			Category:    CategoryExecution,
			Description: "Execution timeout in seconds",
			Required:    true,
			Default:     document.Int(3600),
			Rules: []Rule{
				{Kind: RuleRange, Min: floatPtr(60), Max: floatPtr(7200), Message: "Timeout must be between 60 and 7200 seconds"},
			},
		},
		{
			Name:        "exec.agent_file_name",
			Type:        TypeString,
			Category:    CategoryExecution,
			Description: "Name of the generated script file",
			Required:    true,
			Default:     document.String("runfile.py"),
			Rules: []Rule{
				{Kind: RulePattern, Pattern: pyFilePattern, Message: "File name must be a valid Python file (*.py)"},
			},
		},
		{
			Name:        "exec.format_tb_ipython",
			Type:        TypeBoolean,
			Category:    CategoryExecution,
			Description: "Format tracebacks with IPython style",
			Required:    true,
			Default:     document.Bool(false),
		},
		{
			Name:        "generate_report",
			Type:        TypeBoolean,
			Category:    CategoryReporting,
			Description: "Generate final experiment report",
			Required:    true,
			Default:     document.Bool(true),
		},
	}
}

func builtinDependencies() []DependencyRule {
	return []DependencyRule{
		{
			Field:     "goal",
			DependsOn: "desc_file",
			Predicate: PredicateRequiredWithout,
			Severity:  DependencyError,
			Message:   "Either 'goal' or 'desc_file' must be provided",
		},
		{
			Field:     "eval",
			DependsOn: "goal",
			Predicate: PredicateRecommendedWith,
			Severity:  DependencyWarning,
			Message:   "Evaluation criteria is recommended when goal is provided",
		},
	}
}
