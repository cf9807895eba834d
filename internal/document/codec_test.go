package document

import (
	"strings"
	"testing"
)

func TestParseJSON_PreservesOrderAndKinds(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"b": 1, "a": {"z": 0.5, "y": null}, "c": [true, "x"]}`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	if keys := doc.Keys(); strings.Join(keys, ",") != "b,a,c" {
		t.Errorf("key order = %v", keys)
	}
	if v, _ := GetPath(doc, "b"); v.Kind() != KindInt {
		t.Errorf("b kind = %s, want int", v.Kind())
	}
	if v, _ := GetPath(doc, "a.z"); v.Kind() != KindFloat {
		t.Errorf("a.z kind = %s, want float", v.Kind())
	}
	if v, _ := GetPath(doc, "a.y"); !v.IsNull() {
		t.Errorf("a.y = %s, want null", v)
	}
}

func TestParseJSON_RejectsNonObject(t *testing.T) {
	if _, err := ParseJSON([]byte(`[1, 2]`)); err == nil {
		t.Error("ParseJSON(array) error = nil, want error")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	src := `{"log_dir":"logs","agent":{"steps":20,"code":{"model":"gpt-4-turbo","temp":0.5}},"flags":[true,null,3]}`
	doc, err := ParseJSON([]byte(src))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	out, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(out) != src {
		t.Errorf("round trip = %s, want %s", out, src)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	src := `
data_dir: null
agent:
  steps: 20
  code:
    model: gpt-4-turbo
    temp: 0.5
preprocess_data: true
`
	doc, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	out, err := EncodeYAML(doc)
	if err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}
	doc2, err := ParseYAML(out)
	if err != nil {
		t.Fatalf("ParseYAML(encoded) error = %v", err)
	}
	if !Equal(MapValue(doc), MapValue(doc2)) {
		t.Errorf("yaml round trip changed document:\n%s\nvs\n%s", MapValue(doc), MapValue(doc2))
	}
	if strings.Join(doc2.Keys(), ",") != "data_dir,agent,preprocess_data" {
		t.Errorf("key order after round trip = %v", doc2.Keys())
	}
}

func TestParseYAML_Empty(t *testing.T) {
	doc, err := ParseYAML(nil)
	if err != nil {
		t.Fatalf("ParseYAML(nil) error = %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("ParseYAML(nil) len = %d, want 0", doc.Len())
	}
}

func TestValueString_Deterministic(t *testing.T) {
	doc := mustYAML(t, "a: 1\nb: [true, x]\nc:\n  d: 0.5\n")
	want := `{"a":1,"b":[true,"x"],"c":{"d":0.5}}`
	if got := MapValue(doc).String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestEqual_NumericCrossKind(t *testing.T) {
	if !Equal(Int(5), Float(5)) {
		t.Error("Equal(5, 5.0) = false, want true")
	}
	if Equal(Int(5), Float(5.5)) {
		t.Error("Equal(5, 5.5) = true, want false")
	}
	if Equal(String("5"), Int(5)) {
		t.Error("Equal(\"5\", 5) = true, want false")
	}
}
