// Package tree navigates a sample's gating hierarchy through a
// gating.Provider.
package tree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowviz/flowgate/internal/gating"
)

// Navigator answers parent, sibling and child queries. It holds no state
// between calls; every query lists the provider's gates afresh.
type Navigator struct {
	provider gating.Provider
}

// New returns a navigator over p.
func New(p gating.Provider) *Navigator {
	return &Navigator{provider: p}
}

// Provider returns the underlying gate provider.
func (n *Navigator) Provider() gating.Provider {
	return n.provider
}

// where returns every gate of the sample whose identity satisfies keep, in
// provider order.
func (n *Navigator) where(sampleID string, keep func(gating.GateID) bool) ([]*gating.Gate, error) {
	ids, err := n.provider.GateIDs(sampleID)
	if err != nil {
		return nil, err
	}
	var out []*gating.Gate
	for _, id := range ids {
		if !keep(id) {
			continue
		}
		g, err := n.provider.Gate(sampleID, id)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", id, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Children returns the gates whose path is exactly path + name.
func (n *Navigator) Children(sampleID string, path gating.Path, name string) ([]*gating.Gate, error) {
	want := path.Child(name)
	return n.where(sampleID, func(id gating.GateID) bool { return id.Path.Equal(want) })
}

// Siblings returns the gates whose path equals path.
func (n *Navigator) Siblings(sampleID string, path gating.Path) ([]*gating.Gate, error) {
	return n.where(sampleID, func(id gating.GateID) bool { return id.Path.Equal(path) })
}

// Parent returns the gate named by the last element of path. ok is false
// when path is empty or the parent is not a gate (the tree root).
func (n *Navigator) Parent(sampleID string, path gating.Path) (*gating.Gate, bool, error) {
	ppath, name, ok := path.Split()
	if !ok {
		return nil, false, nil
	}
	gates, err := n.where(sampleID, func(id gating.GateID) bool {
		return id.Name == name && id.Path.Equal(ppath)
	})
	if err != nil || len(gates) == 0 {
		return nil, false, err
	}
	return gates[0], true, nil
}

// Ancestors returns the gates along path from the root down, skipping path
// elements that are not gates themselves.
func (n *Navigator) Ancestors(sampleID string, path gating.Path) ([]*gating.Gate, error) {
	ids, err := n.provider.GateIDs(sampleID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]gating.GateID, len(ids))
	for _, id := range ids {
		known[id.Key()] = id
	}
	var out []*gating.Gate
	for i := range path {
		id := gating.GateID{Name: path[i], Path: path[:i]}
		if _, ok := known[id.Key()]; !ok {
			continue
		}
		g, err := n.provider.Gate(sampleID, id)
		if err != nil {
			return nil, fmt.Errorf("gate %s: %w", id, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Regions returns the Q<n>: region gates at path, sorted by region index.
func (n *Navigator) Regions(sampleID string, path gating.Path) ([]*gating.Gate, error) {
	gates, err := n.where(sampleID, func(id gating.GateID) bool {
		return id.Path.Equal(path) && gating.IsRegionName(id.Name)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(gates, func(i, j int) bool {
		a, _ := gating.RegionIndex(gates[i].Name)
		b, _ := gating.RegionIndex(gates[j].Name)
		return a < b
	})
	return gates, nil
}

// Descendants returns every gate below path+name in breadth-first order.
func (n *Navigator) Descendants(sampleID string, path gating.Path, name string) ([]gating.GateID, error) {
	ids, err := n.provider.GateIDs(sampleID)
	if err != nil {
		return nil, err
	}
	children := make(map[string][]gating.GateID)
	for _, id := range ids {
		key := pathKey(id.Path)
		children[key] = append(children[key], id)
	}

	start := path.Child(name)
	visited := make(map[string]struct{})
	result := []gating.GateID{}
	queue := []gating.Path{start}
	visited[pathKey(start)] = struct{}{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, child := range children[pathKey(current)] {
			next := child.Path.Child(child.Name)
			if _, seen := visited[pathKey(next)]; seen {
				continue
			}
			visited[pathKey(next)] = struct{}{}
			result = append(result, child)
			queue = append(queue, next)
		}
	}
	return result, nil
}

func pathKey(p gating.Path) string {
	return strings.Join(p, "\x00")
}

// Group is the gates sharing one path.
type Group struct {
	Path  string          `yaml:"path" json:"path"`
	Gates []gating.GateID `yaml:"gates" json:"gates"`
}

// GatesByPath groups the sample's gates by display path. The synthetic
// Ungated node is always listed first under "root".
func (n *Navigator) GatesByPath(sampleID string) ([]Group, error) {
	ids, err := n.provider.GateIDs(sampleID)
	if err != nil {
		return nil, err
	}
	groups := []Group{{Path: gating.Path(nil).String(), Gates: []gating.GateID{gating.Ungated()}}}
	index := map[string]int{groups[0].Path: 0}
	for _, id := range ids {
		key := id.Path.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Path: key})
		}
		groups[i].Gates = append(groups[i].Gates, id)
	}
	return groups, nil
}
