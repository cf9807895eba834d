package schema

import (
	"errors"
	"testing"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
)

func TestNew_DuplicateField(t *testing.T) {
	cats := []CategoryInfo{{Name: CategoryAgent, Title: "Agent"}}
	fields := []FieldSchema{
		{Name: "agent.steps", Type: TypeInteger, Category: CategoryAgent},
		{Name: "agent.steps", Type: TypeInteger, Category: CategoryAgent},
	}
	if _, err := New("test", cats, nil, fields, nil); err == nil {
		t.Fatal("expected error for duplicate field name")
	}
}

func TestNew_UnknownCategory(t *testing.T) {
	cats := []CategoryInfo{{Name: CategoryAgent, Title: "Agent"}}
	fields := []FieldSchema{
		{Name: "report.temp", Type: TypeNumber, Category: CategoryReporting},
	}
	if _, err := New("test", cats, nil, fields, nil); err == nil {
		t.Fatal("expected error for field in undeclared category")
	}
}

func TestFieldsForCategory_Unknown(t *testing.T) {
	_, err := Builtin().FieldsForCategory(Category("nonsense"))
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
	var de *core.DomainError
	if !errors.As(err, &de) || de.Code != core.CodeUnknownCategory {
		t.Errorf("err = %v, want UNKNOWN_CATEGORY domain error", err)
	}
}

func TestFieldsForCategory_Scopes(t *testing.T) {
	r := Builtin()
	got, err := r.FieldsForCategory(CategoryModels)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"agent.code", "agent.feedback", "report"}
	if len(got) != len(want) {
		t.Fatalf("models scope = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("models scope[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuiltin_Lookup(t *testing.T) {
	r := Builtin()
	f, ok := r.Field("agent.steps")
	if !ok {
		t.Fatal("agent.steps not registered")
	}
	if f.Type != TypeInteger || !f.Required {
		t.Errorf("agent.steps schema = %+v", f)
	}
	if f.Default.IntVal() != 20 {
		t.Errorf("agent.steps default = %s, want 20", f.Default)
	}
	if _, ok := r.Field("no.such.field"); ok {
		t.Error("unexpected hit for unregistered field")
	}
}

func TestBuiltin_Defaults(t *testing.T) {
	doc := Builtin().Defaults()

	checks := []struct {
		path string
		want document.Value
	}{
		{"log_dir", document.String("logs")},
		{"workspace_dir", document.String("workspaces")},
		{"preprocess_data", document.Bool(true)},
		{"agent.steps", document.Int(20)},
		{"agent.k_fold_validation", document.Int(5)},
		{"agent.code.model", document.String("gpt-4-turbo")},
		{"agent.code.temp", document.Float(0.5)},
		{"agent.search.num_drafts", document.Int(5)},
		{"exec.timeout", document.Int(3600)},
		{"exec.agent_file_name", document.String("runfile.py")},
		{"generate_report", document.Bool(true)},
		{"report.temp", document.Float(1.0)},
		{"goal", document.Null()},
	}
	for _, c := range checks {
		got, ok := document.GetPath(doc, c.path)
		if !ok {
			t.Errorf("defaults missing %s", c.path)
			continue
		}
		if !document.Equal(got, c.want) {
			t.Errorf("defaults[%s] = %s, want %s", c.path, got, c.want)
		}
	}
}

func TestBuiltin_DependencyRules(t *testing.T) {
	rules := Builtin().DependencyRules()
	if len(rules) != 2 {
		t.Fatalf("got %d dependency rules, want 2", len(rules))
	}
	if rules[0].Field != "goal" || rules[0].Severity != DependencyError {
		t.Errorf("rule[0] = %+v", rules[0])
	}
	if rules[1].Field != "eval" || rules[1].Severity != DependencyWarning {
		t.Errorf("rule[1] = %+v", rules[1])
	}
}
