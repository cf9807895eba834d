package document

import (
	"fmt"
	"strings"
)

// GetPath resolves a dotted path against the document. It returns false the
// moment a segment is missing or a non-map node is reached before the path
// is exhausted; resolution through a non-map is "value absent", not an
// error.
func GetPath(doc *Map, path string) (Value, bool) {
	if doc == nil || path == "" {
		return Null(), false
	}
	cur := MapValue(doc)
	for _, seg := range strings.Split(path, ".") {
		if !cur.IsMap() {
			return Null(), false
		}
		next, ok := cur.MapVal().Get(seg)
		if !ok {
			return Null(), false
		}
		cur = next
	}
	return cur, true
}

// SetPath returns a copy of the document with the value assigned at the
// dotted path. Intermediate map nodes are created as needed; an existing
// non-map intermediate is replaced by a map (last write wins). An empty
// path is a contract violation.
func SetPath(doc *Map, path string, v Value) (*Map, error) {
	if path == "" {
		return nil, fmt.Errorf("document: empty path")
	}
	out := doc.Clone()
	if out == nil {
		out = NewMap()
	}
	segs := strings.Split(path, ".")
	cur := out
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Get(seg)
		if !ok || !next.IsMap() {
			child := NewMap()
			cur.Set(seg, MapValue(child))
			cur = child
			continue
		}
		cur = next.MapVal()
	}
	cur.Set(segs[len(segs)-1], v)
	return out, nil
}

// DeletePath returns a copy of the document with the leaf at the dotted
// path removed. A path that does not resolve leaves the document unchanged.
func DeletePath(doc *Map, path string) (*Map, error) {
	if path == "" {
		return nil, fmt.Errorf("document: empty path")
	}
	out := doc.Clone()
	if out == nil {
		return NewMap(), nil
	}
	segs := strings.Split(path, ".")
	cur := out
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Get(seg)
		if !ok || !next.IsMap() {
			return out, nil
		}
		cur = next.MapVal()
	}
	cur.Delete(segs[len(segs)-1])
	return out, nil
}

// Flatten returns every leaf path in the document in deterministic
// traversal order. Map values are expanded; everything else, lists
// included, is a leaf. An empty nested map contributes no paths.
func Flatten(doc *Map) []string {
	var paths []string
	flattenInto(doc, "", &paths)
	return paths
}

func flattenInto(m *Map, prefix string, out *[]string) {
	for _, k := range m.Keys() {
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		v, _ := m.Get(k)
		if v.IsMap() {
			flattenInto(v.MapVal(), p, out)
			continue
		}
		*out = append(*out, p)
	}
}
