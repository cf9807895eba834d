package template

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// RecommendQuery carries the hints a recommendation is scored against.
// Empty hints contribute nothing.
type RecommendQuery struct {
	UseCase    string
	Complexity Complexity
	Budget     string // "low" or "high"
}

// Recommend scores candidates against the query and returns the top five
// matches, best first. Templates that match nothing are omitted.
func Recommend(candidates []Template, q RecommendQuery) []Template {
	type scored struct {
		t     Template
		score int
	}
	var ranked []scored
	pattern := strings.ToLower(q.UseCase)

	for _, t := range candidates {
		score := 0
		if pattern != "" {
			if len(fuzzy.Find(pattern, []string{strings.ToLower(t.UseCase)})) > 0 {
				score += 3
			}
			if len(fuzzy.Find(pattern, lowered(t.Tags))) > 0 {
				score += 2
			}
		}
		if q.Complexity != "" && strings.EqualFold(string(q.Complexity), string(t.Complexity)) {
			score += 2
		}
		switch strings.ToLower(q.Budget) {
		case "low":
			if strings.Contains(t.Name, "cost") {
				score += 2
			}
		case "high":
			if strings.Contains(t.Name, "comprehensive") {
				score += 2
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{t: t, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	out := make([]Template, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.t)
	}
	return out
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
