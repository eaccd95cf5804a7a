package tree

import (
	"reflect"
	"testing"

	"github.com/flowviz/flowgate/internal/gating"
)

func newTestTree() *gating.MemoryProvider {
	m := gating.NewMemoryProvider()
	root := gating.Path{"root"}
	cells := root.Child("Cells")
	singlets := cells.Child("Singlets")
	m.Add("s1",
		&gating.Gate{Name: "Cells", Path: root, Dimensions: []string{"FSC-A", "SSC-A"}},
		&gating.Gate{Name: "Beads", Path: root, Dimensions: []string{"FSC-A", "SSC-A"}},
		&gating.Gate{Name: "Singlets", Path: cells, Dimensions: []string{"FSC-A", "FSC-H"}},
		&gating.Gate{Name: "Q3: B1-A+ , R2-A-", Path: singlets, Dimensions: []string{"B1-A", "R2-A"}},
		&gating.Gate{Name: "Q1: B1-A- , R2-A+", Path: singlets, Dimensions: []string{"B1-A", "R2-A"}},
		&gating.Gate{Name: "Live", Path: singlets, Dimensions: []string{"B1-A", "R2-A"}},
	)
	return m
}

func names(gates []*gating.Gate) []string {
	var out []string
	for _, g := range gates {
		out = append(out, g.Name)
	}
	return out
}

func TestNavigator_Children(t *testing.T) {
	n := New(newTestTree())

	got, err := n.Children("s1", gating.Path{"root"}, "Cells")
	if err != nil {
		t.Fatalf("Children() error = %v", err)
	}
	if !reflect.DeepEqual(names(got), []string{"Singlets"}) {
		t.Errorf("Children(Cells) = %v", names(got))
	}

	got, err = n.Children("s1", gating.Path{"root"}, "Beads")
	if err != nil {
		t.Fatalf("Children() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Children(Beads) = %v, want none", names(got))
	}
}

func TestNavigator_Siblings(t *testing.T) {
	n := New(newTestTree())
	got, err := n.Siblings("s1", gating.Path{"root"})
	if err != nil {
		t.Fatalf("Siblings() error = %v", err)
	}
	if !reflect.DeepEqual(names(got), []string{"Cells", "Beads"}) {
		t.Errorf("Siblings(root) = %v", names(got))
	}
}

func TestNavigator_Parent(t *testing.T) {
	n := New(newTestTree())

	tests := []struct {
		name string
		path gating.Path
		want string
		ok   bool
	}{
		{"nested", gating.Path{"root", "Cells", "Singlets"}, "Singlets", true},
		{"root element is not a gate", gating.Path{"root"}, "", false},
		{"empty path", nil, "", false},
		{"unknown", gating.Path{"root", "Nope"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok, err := n.Parent("s1", tt.path)
			if err != nil {
				t.Fatalf("Parent() error = %v", err)
			}
			if ok != tt.ok {
				t.Fatalf("Parent() ok = %v, want %v", ok, tt.ok)
			}
			if ok && g.Name != tt.want {
				t.Errorf("Parent() = %s, want %s", g.Name, tt.want)
			}
		})
	}
}

func TestNavigator_Ancestors(t *testing.T) {
	n := New(newTestTree())
	got, err := n.Ancestors("s1", gating.Path{"root", "Cells", "Singlets"})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if !reflect.DeepEqual(names(got), []string{"Cells", "Singlets"}) {
		t.Errorf("Ancestors() = %v", names(got))
	}
}

func TestNavigator_Regions(t *testing.T) {
	n := New(newTestTree())
	got, err := n.Regions("s1", gating.Path{"root", "Cells", "Singlets"})
	if err != nil {
		t.Fatalf("Regions() error = %v", err)
	}
	want := []string{"Q1: B1-A- , R2-A+", "Q3: B1-A+ , R2-A-"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("Regions() = %v, want %v", names(got), want)
	}
}

func TestNavigator_Descendants(t *testing.T) {
	n := New(newTestTree())
	got, err := n.Descendants("s1", gating.Path{"root"}, "Cells")
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Descendants() = %v, want 4 gates", got)
	}
	if got[0].Name != "Singlets" {
		t.Errorf("first descendant = %s, want Singlets (BFS order)", got[0].Name)
	}
}

func TestNavigator_GatesByPath(t *testing.T) {
	n := New(newTestTree())
	groups, err := n.GatesByPath("s1")
	if err != nil {
		t.Fatalf("GatesByPath() error = %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("GatesByPath() = %d groups, want 3", len(groups))
	}
	if groups[0].Path != "root" || !groups[0].Gates[0].IsUngated() || len(groups[0].Gates) != 3 {
		t.Errorf("root group = %+v", groups[0])
	}
	if groups[1].Path != "root → Cells" {
		t.Errorf("second group path = %q", groups[1].Path)
	}
	if groups[2].Path != "root → Cells → Singlets" || len(groups[2].Gates) != 3 {
		t.Errorf("third group = %+v", groups[2])
	}
}

func TestNavigator_UnknownSample(t *testing.T) {
	n := New(newTestTree())
	if _, err := n.Siblings("missing", nil); err == nil {
		t.Error("expected error for unknown sample")
	}
}
