package document

import "fmt"

// ChangeType classifies a single field-level difference.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// Change is one field-level difference between two documents.
type Change struct {
	Path string     `json:"field_path"`
	Old  Value      `json:"old_value"`
	New  Value      `json:"new_value"`
	Type ChangeType `json:"change_type"`
}

// DiffReport is the list of changes plus a human-readable summary.
type DiffReport struct {
	Changes []Change `json:"differences"`
	Summary string   `json:"summary"`
}

// Diff computes the field-level differences between two documents. The walk
// recurses while both sides hold maps and stops at the first mismatch: a
// scalar-to-map type change is reported once, at the branch point, not
// exploded into children. Entry order follows the old document's key order
// with new-only keys after, so output is deterministic.
func Diff(old, new *Map) []Change {
	var changes []Change
	diffMaps(old, new, "", &changes)
	return changes
}

// DiffDocuments wraps Diff with a summary line.
func DiffDocuments(old, new *Map) DiffReport {
	changes := Diff(old, new)
	return DiffReport{
		Changes: changes,
		Summary: fmt.Sprintf("%d differences found", len(changes)),
	}
}

func diffMaps(old, new *Map, prefix string, out *[]Change) {
	for _, k := range old.Keys() {
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		ov, _ := old.Get(k)
		nv, inNew := new.Get(k)
		switch {
		case !inNew:
			*out = append(*out, Change{Path: p, Old: ov, New: Null(), Type: ChangeRemoved})
		case ov.IsMap() && nv.IsMap():
			diffMaps(ov.MapVal(), nv.MapVal(), p, out)
		case !Equal(ov, nv):
			*out = append(*out, Change{Path: p, Old: ov, New: nv, Type: ChangeModified})
		}
	}
	for _, k := range new.Keys() {
		if _, inOld := old.Get(k); inOld {
			continue
		}
		p := k
		if prefix != "" {
			p = prefix + "." + k
		}
		nv, _ := new.Get(k)
		*out = append(*out, Change{Path: p, Old: Null(), New: nv, Type: ChangeAdded})
	}
}

// ApplyChanges replays a change list onto a document: added and modified
// entries set the new value at the path, removed entries delete it. Given
// changes = Diff(old, new), ApplyChanges(old, changes) reconstructs new.
func ApplyChanges(doc *Map, changes []Change) (*Map, error) {
	out := doc.Clone()
	if out == nil {
		out = NewMap()
	}
	var err error
	for _, c := range changes {
		switch c.Type {
		case ChangeRemoved:
			out, err = DeletePath(out, c.Path)
		default:
			out, err = SetPath(out, c.Path, c.New)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ChangedPaths extracts just the field paths from a change list.
func ChangedPaths(changes []Change) []string {
	paths := make([]string, len(changes))
	for i, c := range changes {
		paths[i] = c.Path
	}
	return paths
}
