package store

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/keyword"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "export.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testNodes() []gating.GateNode {
	return []gating.GateNode{
		{
			Name: "Cells", Kind: gating.KindPolygon, Dimensions: [2]string{"FSC-A", "SSC-A"},
			Vertices: gating.Close([]gating.Point{{X: 10, Y: 10}, {X: 1000, Y: 10}, {X: 500, Y: 900}}),
		},
		{
			Name: "Quadrants", Path: gating.Path{"root", "Cells"}, Kind: gating.KindQuadrant,
			Dimensions: [2]string{"B1-A", "R2-A"}, Source: "regions",
			Dividers: []gating.Divider{
				{Dimension: "B1-A", Value: 1100, Orientation: gating.Vertical},
				{Dimension: "R2-A", Value: 750, Orientation: gating.Horizontal},
			},
		},
	}
}

func TestStoreOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "export.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("path = %q, want %q", s.Path(), dbPath)
	}
	if s.DB() == nil {
		t.Error("DB() returned nil")
	}
	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	s2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
}

func TestSaveGates_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	want := testNodes()
	if err := s.SaveGates("s1", want); err != nil {
		t.Fatalf("SaveGates: %v", err)
	}

	got, err := s.Gates("s1")
	if err != nil {
		t.Fatalf("Gates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d gates, want 2", len(got))
	}
	byName := map[string]gating.GateNode{}
	for _, n := range got {
		byName[n.Name] = n
	}
	for _, w := range want {
		if g := byName[w.Name]; !reflect.DeepEqual(g, w) {
			t.Errorf("gate %s = %+v, want %+v", w.Name, g, w)
		}
	}

	other, err := s.Gates("s2")
	if err != nil {
		t.Fatalf("Gates(s2): %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Gates(s2) = %v, want none", other)
	}
}

func TestSaveGates_Replaces(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveGates("s1", testNodes()); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveGates("s1", testNodes()[:1]); err != nil {
		t.Fatal(err)
	}
	stats, err := s.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Gates: 1, Vertices: 4, Dividers: 0}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}

func TestSaveSample(t *testing.T) {
	s := setupTestStore(t)
	smp := Sample{
		ID: "1", Name: "A1.fcs", Filename: "A1.fcs", Well: "A01", WellMethod: "keyword: $WELLID",
		Keywords: keyword.List{{Key: "$WELLID", Value: "A1"}, {Key: "$TOT", Value: "100"}},
	}
	if err := s.SaveSample(smp); err != nil {
		t.Fatalf("SaveSample: %v", err)
	}
	smp.Keywords = smp.Keywords[:1]
	if err := s.SaveSample(smp); err != nil {
		t.Fatalf("SaveSample again: %v", err)
	}

	var well string
	var keywords int
	if err := s.DB().QueryRow("SELECT well FROM samples WHERE id = ?", "1").Scan(&well); err != nil {
		t.Fatal(err)
	}
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM keywords WHERE sample_id = ?", "1").Scan(&keywords); err != nil {
		t.Fatal(err)
	}
	if well != "A01" || keywords != 1 {
		t.Errorf("well = %q, keywords = %d", well, keywords)
	}
}

func TestClear(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveSample(Sample{ID: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveGates("1", testNodes()); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err := s.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if *stats != (Stats{}) {
		t.Errorf("stats after clear = %+v", *stats)
	}
}

func TestPathEncoding(t *testing.T) {
	for _, p := range []gating.Path{nil, {"root"}, {"root", "Cells", "Singlets"}} {
		got, err := decodePath(encodePath(p))
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(p) {
			t.Errorf("decodePath(encodePath(%v)) = %v", p, got)
		}
	}
}
