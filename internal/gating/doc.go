// Package gating defines the canonical gate model shared by the geometry
// extractor, the quadrant divider engine and the tree navigator.
//
// Gate libraries expose gates under many vendor-specific attribute names.
// Adapters normalize those names once, at the Provider boundary, into the
// Gate type declared here. Everything downstream works on Gate and GateNode
// only.
package gating
