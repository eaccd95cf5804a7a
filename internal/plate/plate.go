// Package plate lays samples out on a well plate grid.
package plate

import (
	"fmt"

	"github.com/flowviz/flowgate/internal/well"
)

// FallbackMethod is the method recorded for samples without a well.
const FallbackMethod = "fallback (sample index)"

// Placement is where one sample is drawn.
type Placement struct {
	SampleID string `yaml:"sample" json:"sample"`
	// Row is a plate row letter, or "Row<n>" for overflow placements.
	Row      string `yaml:"row" json:"row"`
	Column   int    `yaml:"column" json:"column"`
	Method   string `yaml:"method" json:"method"`
	Fallback bool   `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Label is "A01" for wells and "Row1-01" for overflow placements.
func (p Placement) Label() string {
	if p.Fallback {
		return fmt.Sprintf("%s-%02d", p.Row, p.Column)
	}
	return fmt.Sprintf("%s%02d", p.Row, p.Column)
}

// Layout assigns samples to wells. Samples with no resolved well, or whose
// well is already taken, go to sequential overflow positions below the
// plate. No sample is ever given a well it did not resolve to.
type Layout struct {
	Rows    int
	Columns int

	wells      map[well.Position]int
	placements []Placement
	overflow   int
}

// New returns an empty layout. Non-positive sizes default to 8x12.
func New(rows, columns int) *Layout {
	if rows <= 0 || rows > 26 {
		rows = well.Rows
	}
	if columns <= 0 {
		columns = well.Columns
	}
	return &Layout{Rows: rows, Columns: columns, wells: make(map[well.Position]int)}
}

// Place records a sample and returns its placement.
func (l *Layout) Place(sampleID string, res well.Result, ok bool) Placement {
	if !ok || !l.inside(res.Position) {
		return l.spill(sampleID, FallbackMethod)
	}
	if prev, taken := l.wells[res.Position]; taken {
		return l.spill(sampleID, fmt.Sprintf("fallback (well %s taken by %s)", res.Position, l.placements[prev].SampleID))
	}
	p := Placement{SampleID: sampleID, Row: res.Position.Row, Column: res.Position.Column, Method: res.Method}
	l.wells[res.Position] = len(l.placements)
	l.placements = append(l.placements, p)
	return p
}

func (l *Layout) spill(sampleID, method string) Placement {
	p := Placement{
		SampleID: sampleID,
		Row:      fmt.Sprintf("Row%d", l.overflow/l.Columns+1),
		Column:   l.overflow%l.Columns + 1,
		Method:   method,
		Fallback: true,
	}
	l.overflow++
	l.placements = append(l.placements, p)
	return p
}

func (l *Layout) inside(p well.Position) bool {
	return p.Row != "" && p.RowIndex() >= 0 && p.RowIndex() < l.Rows && p.Column >= 1 && p.Column <= l.Columns
}

// Placements returns every placement in insertion order.
func (l *Layout) Placements() []Placement {
	return append([]Placement(nil), l.placements...)
}

// At returns the sample placed at zero-based grid cell (row, col). Rows at
// or beyond l.Rows address overflow rows.
func (l *Layout) At(row, col int) (Placement, bool) {
	if row < l.Rows {
		i, ok := l.wells[well.Position{Row: RowLabel(row), Column: col + 1}]
		if !ok {
			return Placement{}, false
		}
		return l.placements[i], true
	}
	want := (row-l.Rows)*l.Columns + col
	n := 0
	for _, p := range l.placements {
		if !p.Fallback {
			continue
		}
		if n == want {
			return p, true
		}
		n++
	}
	return Placement{}, false
}

// TotalRows is the plate rows plus the overflow rows in use.
func (l *Layout) TotalRows() int {
	return l.Rows + (l.overflow+l.Columns-1)/l.Columns
}

// RowLabel returns the letter of zero-based plate row i.
func RowLabel(i int) string {
	return string(rune('A' + i))
}
