package template

import (
	"testing"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

func mustYAML(t *testing.T, src string) *document.Map {
	t.Helper()
	doc, err := document.ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	return doc
}

func TestBuiltinTemplates(t *testing.T) {
	templates := BuiltinTemplates()
	if len(templates) != 5 {
		t.Fatalf("got %d builtin templates, want 5", len(templates))
	}

	byName := make(map[string]Template)
	for _, tmpl := range templates {
		if !tmpl.Builtin {
			t.Errorf("%s not marked builtin", tmpl.Name)
		}
		if tmpl.Config == nil || tmpl.Config.Len() == 0 {
			t.Errorf("%s has empty config", tmpl.Name)
		}
		byName[tmpl.Name] = tmpl
	}

	quick, ok := byName["quick_experiment"]
	if !ok {
		t.Fatal("quick_experiment missing")
	}
	steps, ok := document.GetPath(quick.Config, "agent.steps")
	if !ok || steps.IntVal() != 5 {
		t.Errorf("quick_experiment agent.steps = %s, want 5", steps)
	}
	model, _ := document.GetPath(quick.Config, "agent.code.model")
	if model.StringVal() != "gpt-3.5-turbo" {
		t.Errorf("quick_experiment code model = %s", model)
	}

	research := byName["research_focused"]
	if research.Complexity != ComplexityExpert {
		t.Errorf("research_focused complexity = %s", research.Complexity)
	}
	kfold, _ := document.GetPath(research.Config, "agent.k_fold_validation")
	if kfold.IntVal() != 10 {
		t.Errorf("research_focused k_fold = %s", kfold)
	}
}

func TestApply_Strategies(t *testing.T) {
	base := mustYAML(t, `
agent:
  steps: 20
  code:
    model: gpt-4
log_dir: logs
`)
	tmpl := mustYAML(t, `
agent:
  steps: 5
  k_fold_validation: 3
`)

	merged, err := Apply(base, tmpl, "merge")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := document.GetPath(merged, "agent.steps"); v.IntVal() != 5 {
		t.Errorf("merge agent.steps = %s", v)
	}
	if v, _ := document.GetPath(merged, "agent.code.model"); v.StringVal() != "gpt-4" {
		t.Errorf("merge should keep base-only fields, code model = %s", v)
	}
	if _, ok := document.GetPath(merged, "agent.k_fold_validation"); !ok {
		t.Error("merge should add template-only fields")
	}

	overlaid, err := Apply(base, tmpl, "overlay")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := document.GetPath(overlaid, "agent.steps"); v.IntVal() != 5 {
		t.Errorf("overlay agent.steps = %s", v)
	}
	if _, ok := document.GetPath(overlaid, "agent.k_fold_validation"); ok {
		t.Error("overlay must not introduce new fields")
	}

	replaced, err := Apply(base, tmpl, "replace")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := document.GetPath(replaced, "log_dir"); ok {
		t.Error("replace must drop base-only fields")
	}

	if _, err := Apply(base, tmpl, "bogus"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestCompare(t *testing.T) {
	a := mustYAML(t, "agent:\n  steps: 5\n")
	b := mustYAML(t, "agent:\n  steps: 5\nk: 3\n")

	result := Compare([]NamedConfig{
		{Name: "a", DisplayName: "A", Config: a},
		{Name: "b", DisplayName: "B", Config: b},
	}, nil)

	if len(result.Comparisons) != 2 {
		t.Fatalf("comparisons = %d", len(result.Comparisons))
	}
	if len(result.CommonFields) != 1 || result.CommonFields[0] != "agent.steps" {
		t.Errorf("common = %v", result.CommonFields)
	}
	if len(result.DifferentFields) != 1 || result.DifferentFields[0] != "k" {
		t.Errorf("different = %v", result.DifferentFields)
	}

	// Absent fields surface as null in the comparison rows.
	av, ok := result.Comparisons[0].FieldValues.Get("k")
	if !ok || !av.IsNull() {
		t.Errorf("a's value for k = %s, want null", av)
	}
	bv, _ := result.Comparisons[1].FieldValues.Get("k")
	if bv.IntVal() != 3 {
		t.Errorf("b's value for k = %s", bv)
	}
}

func TestCompare_ExplicitFields(t *testing.T) {
	a := mustYAML(t, "agent:\n  steps: 5\n  extra: 1\n")
	b := mustYAML(t, "agent:\n  steps: 9\n  extra: 1\n")

	result := Compare([]NamedConfig{
		{Name: "a", Config: a},
		{Name: "b", Config: b},
	}, []string{"agent.steps"})

	if len(result.CommonFields)+len(result.DifferentFields) != 1 {
		t.Errorf("explicit field list should limit comparison, got common %v different %v",
			result.CommonFields, result.DifferentFields)
	}
	if len(result.DifferentFields) != 1 {
		t.Errorf("different = %v", result.DifferentFields)
	}
}

func TestRecommend(t *testing.T) {
	candidates := BuiltinTemplates()

	got := Recommend(candidates, RecommendQuery{Budget: "low"})
	if len(got) != 1 || got[0].Name != "cost_optimized" {
		t.Errorf("low budget recommendations = %v", names(got))
	}

	got = Recommend(candidates, RecommendQuery{UseCase: "research", Complexity: ComplexityExpert})
	if len(got) == 0 || got[0].Name != "research_focused" {
		t.Errorf("research recommendations = %v", names(got))
	}

	if got = Recommend(candidates, RecommendQuery{}); len(got) != 0 {
		t.Errorf("empty query should recommend nothing, got %v", names(got))
	}
}

func names(ts []Template) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}
