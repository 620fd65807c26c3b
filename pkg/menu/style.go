package menu

import "strings"

// style is an ordered set of inline CSS declarations.
// Keys are stored lower-cased; the first occurrence fixes a key's position
// and the last occurrence wins its value.
type style struct {
	keys   []string
	values map[string]string
}

func parseStyle(raw string) *style {
	s := &style{values: make(map[string]string)}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		s.set(key, strings.TrimSpace(value))
	}
	return s
}

func (s *style) set(key, value string) {
	key = strings.ToLower(key)
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *style) delete(key string) {
	key = strings.ToLower(key)
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

func (s *style) get(key string) (string, bool) {
	v, ok := s.values[strings.ToLower(key)]
	return v, ok
}

func (s *style) empty() bool {
	return len(s.keys) == 0
}

// String serializes declarations as key:value joined by ";".
func (s *style) String() string {
	parts := make([]string, len(s.keys))
	for i, k := range s.keys {
		parts[i] = k + ":" + s.values[k]
	}
	return strings.Join(parts, ";")
}

// removeClassToken drops every occurrence of token from a class list.
func removeClassToken(classes, token string) string {
	var kept []string
	for _, c := range strings.Fields(classes) {
		if c != token {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}
