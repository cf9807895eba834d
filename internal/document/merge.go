package document

import "fmt"

// Strategy governs how an overlay document combines with a base.
type Strategy string

const (
	// StrategyReplace discards the base entirely.
	StrategyReplace Strategy = "replace"
	// StrategyMerge deep-unions the two documents; scalars and lists from
	// the overlay win, maps combine key-wise.
	StrategyMerge Strategy = "merge"
	// StrategyOverlay merges only paths that already exist in the base.
	StrategyOverlay Strategy = "overlay"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyReplace, StrategyMerge, StrategyOverlay:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("document: unknown merge strategy %q", s)
	}
}

// Combine applies the overlay onto the base under the given strategy.
// Neither input is mutated.
func Combine(base, overlay *Map, strategy Strategy) (*Map, error) {
	switch strategy {
	case StrategyReplace:
		return Replace(base, overlay), nil
	case StrategyMerge:
		return Merge(base, overlay), nil
	case StrategyOverlay:
		return Overlay(base, overlay), nil
	default:
		return nil, fmt.Errorf("document: unknown merge strategy %q", strategy)
	}
}

// Merge deep-merges overlay onto base. Where both sides hold a map the keys
// combine recursively; everywhere else the overlay value wins. Keys new to
// the overlay append after the base's keys.
func Merge(base, overlay *Map) *Map {
	out := base.Clone()
	if out == nil {
		out = NewMap()
	}
	mergeInto(out, overlay)
	return out
}

func mergeInto(dst, src *Map) {
	for _, k := range src.Keys() {
		sv, _ := src.Get(k)
		if dv, ok := dst.Get(k); ok && dv.IsMap() && sv.IsMap() {
			mergeInto(dv.MapVal(), sv.MapVal())
			continue
		}
		dst.Set(k, sv.Clone())
	}
}

// Overlay merges overlay onto base but drops, at every level, keys the base
// does not already have. Applying a template this way never introduces
// fields unknown to the target.
func Overlay(base, overlay *Map) *Map {
	out := base.Clone()
	if out == nil {
		return NewMap()
	}
	overlayInto(out, overlay)
	return out
}

func overlayInto(dst, src *Map) {
	for _, k := range src.Keys() {
		dv, ok := dst.Get(k)
		if !ok {
			continue
		}
		sv, _ := src.Get(k)
		if dv.IsMap() && sv.IsMap() {
			overlayInto(dv.MapVal(), sv.MapVal())
			continue
		}
		dst.Set(k, sv.Clone())
	}
}

// Replace returns a copy of the overlay; the base is ignored.
func Replace(_, overlay *Map) *Map {
	out := overlay.Clone()
	if out == nil {
		out = NewMap()
	}
	return out
}
