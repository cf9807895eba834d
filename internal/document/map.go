package document

// Map is a string-keyed map node that preserves insertion order. Keys keep
// their original position on overwrite; new keys append.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty map node.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The caller must not mutate the
// returned slice.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Get returns the value for key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set assigns key to value, appending the key if it is new.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key, preserving the order of the remaining keys.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	cp := &Map{
		keys: make([]string, len(m.keys)),
		vals: make(map[string]Value, len(m.vals)),
	}
	copy(cp.keys, m.keys)
	for k, v := range m.vals {
		cp.vals[k] = v.Clone()
	}
	return cp
}
