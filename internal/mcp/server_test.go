package mcp

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/flowviz/flowgate/internal/extract"
	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/quadrant"
	"github.com/flowviz/flowgate/internal/well"
	"github.com/flowviz/flowgate/internal/workspace"
)

const testWorkspace = `<?xml version="1.0" encoding="UTF-8"?>
<Workspace xmlns:gating="http://www.isac-net.org/std/Gating-ML/v2.0/gating"
    xmlns:data-type="http://www.isac-net.org/std/Gating-ML/v2.0/datatypes">
  <SampleList>
    <Sample>
      <DataSet uri="file:/data/A01.fcs" sampleID="1"/>
      <Keywords><Keyword name="$WELLID" value="A01"/></Keywords>
      <SampleNode name="A01.fcs" sampleID="1">
        <Subpopulations>
          <Population name="Cells">
            <Gate><gating:PolygonGate>
              <gating:dimension><data-type:fcs-dimension data-type:name="FSC-A"/></gating:dimension>
              <gating:dimension><data-type:fcs-dimension data-type:name="SSC-A"/></gating:dimension>
              <gating:vertex><gating:coordinate data-type:value="0.2"/><gating:coordinate data-type:value="0.2"/></gating:vertex>
              <gating:vertex><gating:coordinate data-type:value="0.8"/><gating:coordinate data-type:value="0.2"/></gating:vertex>
              <gating:vertex><gating:coordinate data-type:value="0.5"/><gating:coordinate data-type:value="0.8"/></gating:vertex>
            </gating:PolygonGate></Gate>
          </Population>
        </Subpopulations>
      </SampleNode>
    </Sample>
    <Sample>
      <DataSet uri="file:/data/unlabelled.fcs" sampleID="2"/>
      <SampleNode name="unlabelled.fcs" sampleID="2">
        <Subpopulations>
          <Population name="Quad">
            <Gate><gating:QuadrantGate gating:id="Quad">
              <gating:divider gating:id="D1"><data-type:fcs-dimension data-type:name="B1-A"/><gating:value>0.6</gating:value></gating:divider>
              <gating:divider gating:id="D2"><data-type:fcs-dimension data-type:name="R2-A"/><gating:value>0.4</gating:value></gating:divider>
            </gating:QuadrantGate></Gate>
          </Population>
        </Subpopulations>
      </SampleNode>
    </Sample>
  </SampleList>
</Workspace>
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plate.wsp")
	if err := os.WriteFile(path, []byte(testWorkspace), 0644); err != nil {
		t.Fatal(err)
	}
	ws, err := workspace.Open(path)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := quadrant.New(ws, quadrant.WithDocument(ws.Document()), quadrant.WithLogger(logger))
	s, err := New(ws, extract.New(ws, engine, logger), engine, Config{Wells: well.Source{Kind: well.Auto}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestGetToolSchemas(t *testing.T) {
	for _, name := range AllTools {
		schema, ok := toolSchemaRegistry[name]
		if !ok {
			t.Errorf("toolSchemaRegistry missing tool: %s", name)
			continue
		}
		if schema.Name != name {
			t.Errorf("schema name mismatch: got %q, want %q", schema.Name, name)
		}
		if schema.Description == "" {
			t.Errorf("tool %s has empty description", name)
		}
	}

	if len(toolSchemaRegistry) != len(AllTools) {
		t.Errorf("toolSchemaRegistry has %d tools, AllTools has %d", len(toolSchemaRegistry), len(AllTools))
	}
}

func TestToolSchemaParameters(t *testing.T) {
	tests := []struct {
		tool     string
		required []string
	}{
		{"fg_gates", nil},
		{"fg_extract", []string{"x", "y"}},
		{"fg_dividers", []string{"x", "y", "path"}},
		{"fg_wells", nil},
	}

	for _, tt := range tests {
		var got []string
		for _, p := range toolSchemaRegistry[tt.tool].Parameters {
			if p.Required {
				got = append(got, p.Name)
			}
		}
		if strings.Join(got, ",") != strings.Join(tt.required, ",") {
			t.Errorf("tool %s required params = %v, want %v", tt.tool, got, tt.required)
		}
	}
}

func TestNew_RegistersTools(t *testing.T) {
	s := newTestServer(t)
	got := s.ListTools()
	sort.Strings(got)
	want := append([]string(nil), AllTools...)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ListTools() = %v, want %v", got, want)
	}
	if len(s.GetToolSchemas()) != len(AllTools) {
		t.Errorf("GetToolSchemas() returned %d schemas", len(s.GetToolSchemas()))
	}
}

func TestCallTool_Dividers(t *testing.T) {
	s := newTestServer(t)
	res, err := s.CallTool("fg_dividers", map[string]any{"x": "B1-A", "y": "R2-A", "path": "root"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	var out output.DividersOutput
	if err := json.Unmarshal([]byte(res), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Samples) != 2 {
		t.Fatalf("got %d samples", len(out.Samples))
	}
	if out.Samples[0].Resolution != nil {
		t.Errorf("sample 1 has no quadrant, got %+v", out.Samples[0].Resolution)
	}
	th := out.Samples[1].Thresholds
	if th == nil {
		t.Fatal("sample 2 thresholds missing")
	}
	if math.Abs(th.X-1000) > 1e-6 || math.Abs(th.Y-100) > 1e-6 {
		t.Errorf("thresholds = %+v, want {1000 100}", *th)
	}
	if out.Samples[1].Resolution.Tier != quadrant.TierDirect {
		t.Errorf("tier = %s, want direct", out.Samples[1].Resolution.Tier)
	}
}

func TestCallTool_Extract(t *testing.T) {
	s := newTestServer(t)
	res, err := s.CallTool("fg_extract", map[string]any{"x": "FSC-A", "y": "SSC-A", "sample": "1"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	var out output.ExtractOutput
	if err := json.Unmarshal([]byte(res), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Samples) != 1 || len(out.Samples[0].Gates) != 1 {
		t.Fatalf("unexpected result: %s", res)
	}
	if n := out.Samples[0].Gates[0]; n.Name != "Cells" || len(n.Vertices) != 4 {
		t.Errorf("gate = %+v", n)
	}

	res, err = s.CallTool("fg_extract", map[string]any{"x": "FSC-A", "y": "SSC-A", "sample": "1", "gate": "Ungated"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !strings.Contains(res, "error") {
		t.Errorf("Ungated extraction should report an error: %s", res)
	}
}

func TestCallTool_Wells(t *testing.T) {
	s := newTestServer(t)
	res, err := s.CallTool("fg_wells", nil)
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	var out output.WellsOutput
	if err := json.Unmarshal([]byte(res), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Placements) != 2 {
		t.Fatalf("got %d placements", len(out.Placements))
	}
	if got := out.Placements[0].Label(); got != "A01" {
		t.Errorf("sample 1 placed at %s, want A01", got)
	}
	if p := out.Placements[1]; !p.Fallback || p.Label() != "Row1-01" {
		t.Errorf("sample 2 placement = %+v", p)
	}
}

func TestCallTool_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"unknown tool", "cx_show", nil},
		{"missing channels", "fg_extract", map[string]any{"x": "B1-A"}},
		{"missing path", "fg_dividers", map[string]any{"x": "B1-A", "y": "R2-A"}},
		{"unknown sample", "fg_gates", map[string]any{"sample": "99"}},
		{"bad well source", "fg_wells", map[string]any{"source": "barcode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CallTool(tt.tool, tt.args); err == nil {
				t.Errorf("CallTool(%s) expected error", tt.tool)
			}
		})
	}
}
