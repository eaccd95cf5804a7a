package plate

import (
	"testing"

	"github.com/flowviz/flowgate/internal/well"
)

func resolved(row string, col int) well.Result {
	return well.Result{Position: well.Position{Row: row, Column: col}, Method: "keyword: $WELLID"}
}

func TestLayout_Place(t *testing.T) {
	l := New(8, 12)

	p := l.Place("s1", resolved("B", 3), true)
	if p.Fallback || p.Label() != "B03" || p.Method != "keyword: $WELLID" {
		t.Errorf("Place(B3) = %+v", p)
	}

	p = l.Place("s2", well.Result{}, false)
	if !p.Fallback || p.Row != "Row1" || p.Column != 1 || p.Method != FallbackMethod {
		t.Errorf("Place(unresolved) = %+v", p)
	}

	p = l.Place("s3", resolved("B", 3), true)
	if !p.Fallback || p.Column != 2 {
		t.Errorf("Place(duplicate) = %+v, want overflow", p)
	}

	if got := len(l.Placements()); got != 3 {
		t.Errorf("Placements() = %d, want 3", got)
	}
}

func TestLayout_OverflowWraps(t *testing.T) {
	l := New(8, 12)
	var last Placement
	for i := 0; i < 13; i++ {
		last = l.Place("s", well.Result{}, false)
	}
	if last.Row != "Row2" || last.Column != 1 {
		t.Errorf("13th overflow = %+v, want Row2 col 1", last)
	}
	if l.TotalRows() != 10 {
		t.Errorf("TotalRows() = %d, want 10", l.TotalRows())
	}
}

func TestLayout_At(t *testing.T) {
	l := New(8, 12)
	l.Place("a1", resolved("A", 1), true)
	l.Place("h12", resolved("H", 12), true)
	l.Place("x", well.Result{}, false)

	tests := []struct {
		row, col int
		want     string
		ok       bool
	}{
		{0, 0, "a1", true},
		{7, 11, "h12", true},
		{8, 0, "x", true},
		{3, 3, "", false},
		{8, 1, "", false},
	}
	for _, tt := range tests {
		p, ok := l.At(tt.row, tt.col)
		if ok != tt.ok || p.SampleID != tt.want {
			t.Errorf("At(%d, %d) = %q, %v, want %q, %v", tt.row, tt.col, p.SampleID, ok, tt.want, tt.ok)
		}
	}
}

func TestLayout_SmallPlate(t *testing.T) {
	l := New(2, 3)
	p := l.Place("s", resolved("C", 1), true)
	if !p.Fallback {
		t.Errorf("row C is outside a 2-row plate: %+v", p)
	}
}
