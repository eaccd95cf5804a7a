// Package well resolves a sample's physical plate position from its
// metadata or its file name.
package well

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowviz/flowgate/internal/keyword"
)

const (
	Rows    = 8
	Columns = 12
)

// Position is a plate coordinate. Row is an uppercase letter A-H and
// Column is 1-12.
type Position struct {
	Row    string `yaml:"row" json:"row"`
	Column int    `yaml:"column" json:"column"`
}

// String renders the two-digit form, e.g. "A01".
func (p Position) String() string {
	return fmt.Sprintf("%s%02d", p.Row, p.Column)
}

// RowIndex is the zero-based row number.
func (p Position) RowIndex() int {
	return int(p.Row[0] - 'A')
}

var valuePattern = regexp.MustCompile(`(?i)([A-H])\W*(\d{1,2})`)

// ParseValue extracts a position from a keyword value or file name. "A1",
// "a01", "A-1" and "Specimen_001_B07_007.fcs" all parse. The first letter
// A-H followed by digits wins, so "Plate1_B07.fcs" reads as E01. Columns
// outside 1-12 are rejected.
func ParseValue(s string) (Position, bool) {
	m := valuePattern.FindStringSubmatch(s)
	if m == nil {
		return Position{}, false
	}
	col, err := strconv.Atoi(m[2])
	if err != nil || col < 1 || col > Columns {
		return Position{}, false
	}
	return Position{Row: strings.ToUpper(m[1]), Column: col}, true
}

// IsWellIDKey reports whether a metadata key looks like a well id key.
func IsWellIDKey(key string) bool {
	n := keyword.Normalize(key)
	return n == "wellid" || (strings.HasPrefix(n, "well") && strings.Contains(n, "id"))
}

// SourceKind selects where a position is read from.
type SourceKind int

const (
	Auto SourceKind = iota
	Keyword
	Filename
)

func (k SourceKind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Filename:
		return "filename"
	default:
		return "auto"
	}
}

// Source is a resolution strategy. Name is the requested keyword for the
// Keyword kind.
type Source struct {
	Kind SourceKind
	Name string
}

// ParseSource parses "auto", "keyword" or "filename".
func ParseSource(kind, name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "auto":
		return Source{Kind: Auto}, nil
	case "keyword":
		return Source{Kind: Keyword, Name: name}, nil
	case "filename":
		return Source{Kind: Filename}, nil
	}
	return Source{}, fmt.Errorf("unknown well source %q (use auto, keyword or filename)", kind)
}

// Sample is what the resolver needs to know about a sample.
type Sample struct {
	Filename string
	Keywords keyword.List
}

// Result is a resolved position and how it was found.
type Result struct {
	Position Position `yaml:"position" json:"position"`
	Method   string   `yaml:"method" json:"method"`
}

// Resolve finds the sample's position. ok is false when no method
// produced one; the caller decides where such samples go.
//
// A Keyword source with an empty name behaves like Auto's keyword phase
// without the file name fallback.
func Resolve(s Sample, src Source) (Result, bool) {
	switch src.Kind {
	case Filename:
		return fromFilename(s)
	case Keyword:
		if src.Name != "" {
			return fromNamedKeyword(s.Keywords, src.Name)
		}
		return fromWellIDKey(s.Keywords)
	default:
		if r, ok := fromWellIDKey(s.Keywords); ok {
			return r, true
		}
		return fromFilename(s)
	}
}

// fromNamedKeyword tries the exact key alone when present. Otherwise the
// first normalized match that parses wins, then the first substring match.
func fromNamedKeyword(kw keyword.List, name string) (Result, bool) {
	if v, ok := kw.Get(name); ok {
		return parsed(v, fmt.Sprintf("keyword: %s", name))
	}
	for _, e := range kw.Candidates(name) {
		if r, ok := parsed(e.Value, fmt.Sprintf("keyword: %s", e.Key)); ok {
			return r, true
		}
	}
	return Result{}, false
}

// fromWellIDKey stops at the first well id key even when its value does
// not parse.
func fromWellIDKey(kw keyword.List) (Result, bool) {
	for _, e := range kw {
		if IsWellIDKey(e.Key) {
			return parsed(e.Value, fmt.Sprintf("keyword: %s", e.Key))
		}
	}
	return Result{}, false
}

func fromFilename(s Sample) (Result, bool) {
	if s.Filename == "" {
		return Result{}, false
	}
	return parsed(s.Filename, "filename")
}

func parsed(v, method string) (Result, bool) {
	p, ok := ParseValue(v)
	if !ok {
		return Result{}, false
	}
	return Result{Position: p, Method: method}, true
}
