package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/quadrant"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{" YAML ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"cgf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetFormatter(t *testing.T) {
	f, err := GetFormatter(FormatYAML)
	if err != nil {
		t.Fatalf("GetFormatter(FormatYAML) failed: %v", err)
	}
	if _, ok := f.(*YAMLFormatter); !ok {
		t.Errorf("expected *YAMLFormatter, got %T", f)
	}

	f, err = GetFormatter(FormatJSON)
	if err != nil {
		t.Fatalf("GetFormatter(FormatJSON) failed: %v", err)
	}
	if _, ok := f.(*JSONFormatter); !ok {
		t.Errorf("expected *JSONFormatter, got %T", f)
	}

	if _, err := GetFormatter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func testDividers() DividersOutput {
	return DividersOutput{
		Workspace: "plate.wsp",
		Path:      "root → Cells",
		X:         "B1-A",
		Y:         "R2-A",
		Samples: []SampleDividers{
			{
				Sample: SampleRef{ID: "1", Name: "A1.fcs"},
				Resolution: &quadrant.Resolution{
					Tier: quadrant.TierDocument,
					Dividers: []gating.Divider{
						{Dimension: "B1-A", Value: 1100, Orientation: gating.Vertical},
						{Dimension: "R2-A", Value: 750, Orientation: gating.Horizontal},
					},
				},
				Thresholds: &quadrant.Thresholds{X: 1100, Y: 750},
			},
			{Sample: SampleRef{ID: "2"}},
		},
	}
}

func TestFormatters_SameKeys(t *testing.T) {
	v := testDividers()

	y, err := NewYAMLFormatter().Format(v)
	if err != nil {
		t.Fatalf("YAML Format: %v", err)
	}
	j, err := NewJSONFormatter().Format(v)
	if err != nil {
		t.Fatalf("JSON Format: %v", err)
	}
	for _, key := range []string{"x_threshold", "tier", "orientation"} {
		if !strings.Contains(y, key) {
			t.Errorf("YAML output missing %q:\n%s", key, y)
		}
		if !strings.Contains(j, key) {
			t.Errorf("JSON output missing %q:\n%s", key, j)
		}
	}

	var fromYAML, fromJSON map[string]any
	if err := yaml.Unmarshal([]byte(y), &fromYAML); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(j), &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromYAML) != len(fromJSON) {
		t.Errorf("top-level keys differ: yaml %v, json %v", fromYAML, fromJSON)
	}
	if strings.Contains(y, "resolution: null") {
		t.Error("unresolved sample should omit resolution")
	}
}
