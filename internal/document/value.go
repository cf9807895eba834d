package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a tagged union over the types a configuration field can hold.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    *Map
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Bool wraps a boolean.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int wraps an integer.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float wraps a floating-point number.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// String wraps a string.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// List wraps a list of values. The slice is copied.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// MapValue wraps a map node. A nil map is treated as null.
func MapValue(m *Map) Value {
	if m == nil {
		return Null()
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsMap reports whether the value is a map node.
func (v Value) IsMap() bool { return v.kind == KindMap }

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// BoolVal returns the boolean payload; false for other kinds.
func (v Value) BoolVal() bool { return v.kind == KindBool && v.b }

// IntVal returns the integer payload, truncating floats.
func (v Value) IntVal() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// FloatVal returns the numeric payload widened to float64.
func (v Value) FloatVal() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// StringVal returns the string payload; empty for other kinds.
func (v Value) StringVal() string { return v.s }

// ListVal returns the list payload. The returned slice must not be mutated.
func (v Value) ListVal() []Value { return v.list }

// MapVal returns the map payload, or nil for non-map values.
func (v Value) MapVal() *Map { return v.m }

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		cp := make([]Value, len(v.list))
		for i, item := range v.list {
			cp[i] = item.Clone()
		}
		return Value{kind: KindList, list: cp}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	default:
		return v
	}
}

// Equal reports deep value equality. Lists are order-sensitive; maps are
// compared key-wise. Ints and floats compare numerically across kinds so a
// round trip through a codec that widens integers does not register as a
// change.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.FloatVal() == b.FloatVal()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.m.Len() != b.m.Len() {
			return false
		}
		for _, k := range a.m.Keys() {
			bv, ok := b.m.Get(k)
			if !ok {
				return false
			}
			av, _ := a.m.Get(k)
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a compact, deterministic representation used for template
// comparison and log output.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.render(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, k := range v.m.Keys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(k))
			sb.WriteByte(':')
			mv, _ := v.m.Get(k)
			mv.render(sb)
		}
		sb.WriteByte('}')
	}
}
