// Package keyword holds ordered sample metadata and the fuzzy key matching
// used to look entries up by a user supplied name.
package keyword

import (
	"strings"
	"unicode"
)

// Entry is one metadata key/value pair.
type Entry struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// List is sample metadata in document order.
type List []Entry

// Get returns the value stored under exactly key.
func (l List) Get(key string) (string, bool) {
	for _, e := range l {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Normalize strips every non-alphanumeric rune and lowercases the rest.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Candidates returns the entries matching name, best matches first: the
// exact key, then keys equal after normalization, then keys where one
// string contains the other ignoring case. Each entry appears once.
func (l List) Candidates(name string) []Entry {
	if name == "" {
		return nil
	}
	var out []Entry
	used := make([]bool, len(l))
	add := func(match func(Entry) bool) {
		for i, e := range l {
			if !used[i] && match(e) {
				used[i] = true
				out = append(out, e)
			}
		}
	}
	norm := Normalize(name)
	lower := strings.ToLower(name)
	add(func(e Entry) bool { return e.Key == name })
	add(func(e Entry) bool { return norm != "" && Normalize(e.Key) == norm })
	add(func(e Entry) bool {
		k := strings.ToLower(e.Key)
		return strings.Contains(k, lower) || strings.Contains(lower, k)
	})
	return out
}

// Find returns the best matching entry for name.
func (l List) Find(name string) (Entry, bool) {
	c := l.Candidates(name)
	if len(c) == 0 {
		return Entry{}, false
	}
	return c[0], true
}

// Filter selects samples whose metadata holds Value under Key.
type Filter struct {
	Key   string
	Value string
}

// Matches reports whether l satisfies the filter. The key is matched
// fuzzily; values are compared after trimming surrounding space.
func (f Filter) Matches(l List) bool {
	e, ok := l.Find(f.Key)
	if !ok {
		return false
	}
	return strings.TrimSpace(e.Value) == strings.TrimSpace(f.Value)
}

// ParseFilter parses "key=value".
func ParseFilter(s string) (Filter, bool) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return Filter{}, false
	}
	return Filter{Key: k, Value: strings.TrimSpace(v)}, true
}

// Values returns the distinct trimmed values stored under the key best
// matching name across lists, in first-seen order.
func Values(lists []List, name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		e, ok := l.Find(name)
		if !ok {
			continue
		}
		v := strings.TrimSpace(e.Value)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
