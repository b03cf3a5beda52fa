// Package options provides a typed key/value container the codec queries
// for deflate.level, deflate.window_bits, deflate.strategy, and the
// limits.* keys. Schema validation belongs to the registry; this package
// only stores values and applies the documented defaults.
package options

// Map is a minimal typed key/value container. Unrecognized keys are
// ignored by the codec.
type Map struct {
	ints    map[string]int64
	bools   map[string]bool
	strings map[string]string
}

// New returns an empty options map; zero value is also directly usable.
func New() *Map {
	return &Map{}
}

func (m *Map) ensure() {
	if m.ints == nil {
		m.ints = map[string]int64{}
	}
	if m.bools == nil {
		m.bools = map[string]bool{}
	}
	if m.strings == nil {
		m.strings = map[string]string{}
	}
}

// SetInt sets an integer-valued option (also used for unsigned keys).
func (m *Map) SetInt(key string, v int64) *Map {
	m.ensure()
	m.ints[key] = v
	return m
}

// SetBool sets a boolean-valued option.
func (m *Map) SetBool(key string, v bool) *Map {
	m.ensure()
	m.bools[key] = v
	return m
}

// SetString sets a string-valued option.
func (m *Map) SetString(key string, v string) *Map {
	m.ensure()
	m.strings[key] = v
	return m
}

// Int returns the integer value for key, or def if unset.
func (m *Map) Int(key string, def int64) int64 {
	if m == nil || m.ints == nil {
		return def
	}
	if v, ok := m.ints[key]; ok {
		return v
	}
	return def
}

// Uint returns the unsigned value for key, or def if unset or negative.
func (m *Map) Uint(key string, def uint64) uint64 {
	if m == nil || m.ints == nil {
		return def
	}
	if v, ok := m.ints[key]; ok && v >= 0 {
		return uint64(v)
	}
	return def
}

// Bool returns the boolean value for key, or def if unset.
func (m *Map) Bool(key string, def bool) bool {
	if m == nil || m.bools == nil {
		return def
	}
	if v, ok := m.bools[key]; ok {
		return v
	}
	return def
}

// String returns the string value for key, or def if unset.
func (m *Map) String(key string, def string) string {
	if m == nil || m.strings == nil {
		return def
	}
	if v, ok := m.strings[key]; ok {
		return v
	}
	return def
}

// Recognized option keys.
const (
	KeyLevel             = "deflate.level"
	KeyWindowBits        = "deflate.window_bits"
	KeyStrategy          = "deflate.strategy"
	KeyMaxOutputBytes    = "limits.max_output_bytes"
	KeyMaxMemoryBytes    = "limits.max_memory_bytes"
	KeyMaxWindowBytes    = "limits.max_window_bytes"
	KeyMaxExpansionRatio = "limits.max_expansion_ratio"
)

// Default values applied when a key is absent.
const (
	DefaultLevel      = 6
	DefaultWindowBits = 15
	DefaultStrategy   = "default"
)
