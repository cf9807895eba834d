package document

import "testing"

func TestMerge_Idempotent(t *testing.T) {
	doc := mustYAML(t, `
agent:
  steps: 20
  code:
    model: gpt-4-turbo
tags: [a, b]
`)
	if got := Merge(doc, doc); !Equal(MapValue(got), MapValue(doc)) {
		t.Errorf("Merge(d, d) = %s, want %s", MapValue(got), MapValue(doc))
	}
}

func TestMerge_EmptyIdentity(t *testing.T) {
	doc := mustYAML(t, "agent:\n  steps: 20\n")
	empty := NewMap()

	if got := Merge(doc, empty); !Equal(MapValue(got), MapValue(doc)) {
		t.Errorf("Merge(d, {}) = %s, want %s", MapValue(got), MapValue(doc))
	}
	if got := Merge(empty, doc); !Equal(MapValue(got), MapValue(doc)) {
		t.Errorf("Merge({}, d) = %s, want %s", MapValue(got), MapValue(doc))
	}
}

func TestMerge_OverlayWinsAndRecurses(t *testing.T) {
	base := mustYAML(t, `
agent:
  steps: 20
  code:
    model: gpt-4
    temp: 0.5
log_dir: logs
`)
	overlay := mustYAML(t, `
agent:
  steps: 5
  code:
    model: gpt-3.5-turbo
new_key: hi
`)

	got := Merge(base, overlay)
	assertPath(t, got, "agent.steps", Int(5))
	assertPath(t, got, "agent.code.model", String("gpt-3.5-turbo"))
	assertPath(t, got, "agent.code.temp", Float(0.5))
	assertPath(t, got, "log_dir", String("logs"))
	assertPath(t, got, "new_key", String("hi"))

	// Base untouched.
	assertPath(t, base, "agent.steps", Int(20))
}

func TestMerge_ListsAreAtomic(t *testing.T) {
	base := mustYAML(t, "tags: [a, b, c]\n")
	overlay := mustYAML(t, "tags: [z]\n")

	got := Merge(base, overlay)
	v, _ := GetPath(got, "tags")
	if len(v.ListVal()) != 1 || v.ListVal()[0].StringVal() != "z" {
		t.Errorf("tags = %s, want [z]", v)
	}
}

func TestOverlay_DropsNewKeys(t *testing.T) {
	base := mustYAML(t, `
agent:
  steps: 20
  code:
    model: gpt-4
    temp: 0.5
log_dir: logs
`)
	overlay := mustYAML(t, `
agent:
  steps: 5
  k_fold_validation: 3
  code:
    model: gpt-3.5-turbo
    temp: 0.7
brand_new: nope
`)

	got := Overlay(base, overlay)
	assertPath(t, got, "agent.steps", Int(5))
	assertPath(t, got, "agent.code.model", String("gpt-3.5-turbo"))
	assertPath(t, got, "log_dir", String("logs"))
	if _, ok := GetPath(got, "agent.k_fold_validation"); ok {
		t.Error("overlay introduced agent.k_fold_validation, absent from base")
	}
	if _, ok := GetPath(got, "brand_new"); ok {
		t.Error("overlay introduced brand_new, absent from base")
	}
}

func TestOverlay_SubsetProperty(t *testing.T) {
	base := mustYAML(t, `
a:
  b: 1
  c:
    d: 2
e: 3
`)
	overlay := mustYAML(t, `
a:
  b: 9
  x: 8
  c: scalar-now
f: 7
`)

	got := Overlay(base, overlay)
	basePaths := make(map[string]bool)
	for _, p := range Flatten(base) {
		basePaths[p] = true
	}
	for _, p := range Flatten(got) {
		if !basePaths[p] {
			t.Errorf("overlay result contains path %q not present in base", p)
		}
	}
}

func TestReplace(t *testing.T) {
	base := mustYAML(t, "keep: me\n")
	overlay := mustYAML(t, "agent:\n  steps: 5\n")

	got := Replace(base, overlay)
	if !Equal(MapValue(got), MapValue(overlay)) {
		t.Errorf("Replace() = %s, want %s", MapValue(got), MapValue(overlay))
	}
	if _, ok := GetPath(got, "keep"); ok {
		t.Error("Replace() kept a base key")
	}
}

func TestCombine_EndToEndScenario(t *testing.T) {
	base := mustYAML(t, `
agent:
  steps: 20
  code:
    model: gpt-4
    temp: 0.5
log_dir: logs
`)
	tpl := mustYAML(t, `
agent:
  steps: 5
  code:
    model: gpt-3.5-turbo
    temp: 0.7
`)

	overlaid, err := Combine(base, tpl, StrategyOverlay)
	if err != nil {
		t.Fatalf("Combine(overlay) error = %v", err)
	}
	assertPath(t, overlaid, "log_dir", String("logs"))
	assertPath(t, overlaid, "agent.steps", Int(5))
	assertPath(t, overlaid, "agent.code.temp", Float(0.7))

	merged, err := Combine(base, tpl, StrategyMerge)
	if err != nil {
		t.Fatalf("Combine(merge) error = %v", err)
	}
	if !Equal(MapValue(merged), MapValue(overlaid)) {
		t.Errorf("merge and overlay should agree when the template adds no new keys")
	}

	replaced, err := Combine(base, tpl, StrategyReplace)
	if err != nil {
		t.Fatalf("Combine(replace) error = %v", err)
	}
	if !Equal(MapValue(replaced), MapValue(tpl)) {
		t.Errorf("Combine(replace) = %s, want template", MapValue(replaced))
	}
	if _, ok := GetPath(replaced, "log_dir"); ok {
		t.Error("replace kept log_dir from base")
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"replace", "merge", "overlay"} {
		if _, err := ParseStrategy(s); err != nil {
			t.Errorf("ParseStrategy(%q) error = %v", s, err)
		}
	}
	if _, err := ParseStrategy("union"); err == nil {
		t.Error("ParseStrategy(\"union\") error = nil, want error")
	}
}

func assertPath(t *testing.T, doc *Map, path string, want Value) {
	t.Helper()
	got, ok := GetPath(doc, path)
	if !ok {
		t.Fatalf("path %q absent", path)
	}
	if !Equal(got, want) {
		t.Errorf("path %q = %s, want %s", path, got, want)
	}
}
