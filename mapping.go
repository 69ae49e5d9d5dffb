package directedinputs

import "strings"

// entry keeps the most recently written casing of a key alongside its value so
// dumps and error messages show what the caller actually wrote.
type entry struct {
	key   string
	value any
}

// mapping is a case-insensitive key/value store. Keys "Domain", "DOMAIN", and
// "domain" address the same slot; the last write wins. Each mapping is owned
// by exactly one Inputs instance and is never shared.
type mapping struct {
	entries map[string]entry
}

func newMapping() *mapping {
	return &mapping{entries: make(map[string]entry)}
}

func foldKey(key string) string {
	return strings.ToLower(key)
}

func (m *mapping) get(key string) (any, bool) {
	e, ok := m.entries[foldKey(key)]
	if !ok {
		return nil, false
	}
	return e.value, true
}

func (m *mapping) set(key string, value any) {
	m.entries[foldKey(key)] = entry{key: key, value: value}
}

func (m *mapping) has(key string) bool {
	_, ok := m.entries[foldKey(key)]
	return ok
}

func (m *mapping) len() int {
	return len(m.entries)
}

// asMap returns the contents keyed by their most recent original casing. The
// values are shared, not copied.
func (m *mapping) asMap() map[string]any {
	out := make(map[string]any, len(m.entries))
	for _, e := range m.entries {
		out[e.key] = e.value
	}
	return out
}

// deepClone copies the mapping and every nested map and slice it contains, so
// mutating the clone never affects the original.
func (m *mapping) deepClone() *mapping {
	clone := newMapping()
	for folded, e := range m.entries {
		clone.entries[folded] = entry{key: e.key, value: deepCopyValue(e.value)}
	}
	return clone
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, nested := range v {
			out[k] = deepCopyValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, nested := range v {
			out[i] = deepCopyValue(nested)
		}
		return out
	default:
		return v
	}
}
