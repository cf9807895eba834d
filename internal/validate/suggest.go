package validate

import "github.com/hugo-lorenzo-mato/aideconf/internal/document"

// suggestions derives advisory hints from common misconfigurations.
// Absent fields are judged by their defaults, so an empty document
// produces no noise.
func suggestions(doc *document.Map) []string {
	var out []string

	if !boolAt(doc, "agent.data_preview", true) {
		out = append(out, "Consider enabling data preview to help the agent understand your dataset")
	}

	steps := intAt(doc, "agent.steps", 20)
	if steps < 10 {
		out = append(out, "Consider using at least 10 steps for better solution quality")
	} else if steps > 50 {
		out = append(out, "High step count may increase execution time significantly")
	}

	if intAt(doc, "agent.k_fold_validation", 5) == 1 {
		out = append(out, "Consider using cross-validation (k_fold_validation > 1) for more reliable evaluation")
	}

	if floatAt(doc, "agent.code.temp", 0.5) > 1.0 {
		out = append(out, "High temperature for code generation may produce inconsistent results")
	}

	return out
}

func boolAt(doc *document.Map, path string, def bool) bool {
	v, ok := document.GetPath(doc, path)
	if !ok || v.Kind() != document.KindBool {
		return def
	}
	return v.BoolVal()
}

func intAt(doc *document.Map, path string, def int64) int64 {
	v, ok := document.GetPath(doc, path)
	if !ok || !v.IsNumber() {
		return def
	}
	return v.IntVal()
}

func floatAt(doc *document.Map, path string, def float64) float64 {
	v, ok := document.GetPath(doc, path)
	if !ok || !v.IsNumber() {
		return def
	}
	return v.FloatVal()
}
