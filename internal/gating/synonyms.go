package gating

import (
	"strconv"
	"strings"
)

// Attribute names under which gate libraries expose a divider's channel.
var DividerDimensionKeys = []string{"dimension_ref", "dimension", "dim_ref", "dim"}

// Attribute names under which gate libraries expose a divider's position.
var DividerValueKeys = []string{"value", "position", "divider_value", "threshold"}

// DividerAttr is a divider after synonym normalization. Value is in the
// library's native space.
type DividerAttr struct {
	Dimension string
	Value     float64
}

// NormalizeDivider picks the channel and value out of a divider's raw
// attributes. Keys are compared case-insensitively with "-" treated as "_".
// ok is false when either part is missing or the value is not numeric.
func NormalizeDivider(attrs map[string]string) (DividerAttr, bool) {
	norm := make(map[string]string, len(attrs))
	for k, v := range attrs {
		norm[attrKey(k)] = strings.TrimSpace(v)
	}
	dim, ok := lookup(norm, DividerDimensionKeys)
	if !ok || dim == "" {
		return DividerAttr{}, false
	}
	raw, ok := lookup(norm, DividerValueKeys)
	if !ok {
		return DividerAttr{}, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DividerAttr{}, false
	}
	return DividerAttr{Dimension: dim, Value: v}, true
}

func lookup(attrs map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := attrs[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func attrKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
}
