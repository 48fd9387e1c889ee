package config

// Map is the opaque configuration attached to a source or module entry.
// The helper methods clean up a lot of excessive type assertion stuff when
// builders pull their settings out of it.
type Map map[string]interface{}

// Str gets a string out of the map.
func (m Map) Str(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	val, ok := m[key].(string)
	return val, ok
}

// StrOr gets a string out of the map, falling back to def.
func (m Map) StrOr(key, def string) string {
	if val, ok := m.Str(key); ok {
		return val
	}
	return def
}

// Int gets an integer out of the map. Handles the types a toml or manual
// construction may have put there.
func (m Map) Int(key string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case int64: // After a toml parse.
		return v, true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	}
	return 0, false
}

// IntOr gets an integer out of the map, falling back to def.
func (m Map) IntOr(key string, def int64) int64 {
	if val, ok := m.Int(key); ok {
		return val
	}
	return def
}

// Bool gets a boolean out of the map.
func (m Map) Bool(key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	val, ok := m[key].(bool)
	return val, ok
}

// BoolOr gets a boolean out of the map, falling back to def.
func (m Map) BoolOr(key string, def bool) bool {
	if val, ok := m.Bool(key); ok {
		return val
	}
	return def
}

// StrList gets a list of strings out of the map. Non-string elements are
// dropped.
func (m Map) StrList(key string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	switch v := m[key].(type) {
	case []string:
		return v, true
	case []interface{}:
		strs := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				strs = append(strs, s)
			}
		}
		return strs, true
	}
	return nil, false
}

// MapList gets a list of sub-maps out of the map, as produced by toml's
// array-of-tables syntax.
func (m Map) MapList(key string) ([]Map, bool) {
	if m == nil {
		return nil, false
	}
	switch v := m[key].(type) {
	case []Map:
		return v, true
	case []map[string]interface{}:
		maps := make([]Map, len(v))
		for i, el := range v {
			maps[i] = Map(el)
		}
		return maps, true
	case []interface{}:
		maps := make([]Map, 0, len(v))
		for _, el := range v {
			switch sub := el.(type) {
			case map[string]interface{}:
				maps = append(maps, Map(sub))
			case Map:
				maps = append(maps, sub)
			}
		}
		return maps, true
	}
	return nil, false
}
