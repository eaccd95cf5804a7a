package cmd

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowviz/flowgate/internal/config"
	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/quadrant"
)

const testWorkspace = `<?xml version="1.0" encoding="UTF-8"?>
<Workspace xmlns:gating="http://www.isac-net.org/std/Gating-ML/v2.0/gating"
    xmlns:data-type="http://www.isac-net.org/std/Gating-ML/v2.0/datatypes">
  <SampleList>
    <Sample>
      <DataSet uri="file:/data/Specimen_001_A01_001.fcs" sampleID="1"/>
      <Keywords>
        <Keyword name="$WELLID" value="A01"/>
        <Keyword name="Time Point" value="24h"/>
      </Keywords>
      <SampleNode name="Specimen_001_A01_001.fcs" sampleID="1">
        <Subpopulations>
          <Population name="Cells">
            <Gate><gating:PolygonGate>
              <gating:dimension><data-type:fcs-dimension data-type:name="FSC-A"/></gating:dimension>
              <gating:dimension><data-type:fcs-dimension data-type:name="SSC-A"/></gating:dimension>
              <gating:vertex><gating:coordinate data-type:value="0.1"/><gating:coordinate data-type:value="0.1"/></gating:vertex>
              <gating:vertex><gating:coordinate data-type:value="0.9"/><gating:coordinate data-type:value="0.1"/></gating:vertex>
              <gating:vertex><gating:coordinate data-type:value="0.5"/><gating:coordinate data-type:value="0.9"/></gating:vertex>
            </gating:PolygonGate></Gate>
            <Subpopulations>
              <Population name="Singlets">
                <Gate><gating:RectangleGate>
                  <gating:dimension gating:min="1000" gating:max="200000"><data-type:fcs-dimension data-type:name="FSC-A"/></gating:dimension>
                  <gating:dimension gating:min="800" gating:max="150000"><data-type:fcs-dimension data-type:name="FSC-H"/></gating:dimension>
                </gating:RectangleGate></Gate>
                <Subpopulations>
                  <Population name="Q1: B1-A- , R2-A+">
                    <Gate><gating:RectangleGate>
                      <gating:dimension gating:max="1000"><data-type:fcs-dimension data-type:name="B1-A"/></gating:dimension>
                      <gating:dimension gating:min="800"><data-type:fcs-dimension data-type:name="R2-A"/></gating:dimension>
                    </gating:RectangleGate></Gate>
                  </Population>
                  <Population name="Q2: B1-A+ , R2-A+">
                    <Gate><gating:RectangleGate>
                      <gating:dimension gating:min="1200"><data-type:fcs-dimension data-type:name="B1-A"/></gating:dimension>
                      <gating:dimension gating:min="900"><data-type:fcs-dimension data-type:name="R2-A"/></gating:dimension>
                    </gating:RectangleGate></Gate>
                  </Population>
                  <Population name="Q3: B1-A+ , R2-A-">
                    <Gate><gating:RectangleGate>
                      <gating:dimension gating:min="1200"><data-type:fcs-dimension data-type:name="B1-A"/></gating:dimension>
                      <gating:dimension gating:max="700"><data-type:fcs-dimension data-type:name="R2-A"/></gating:dimension>
                    </gating:RectangleGate></Gate>
                  </Population>
                  <Population name="Q4: B1-A- , R2-A-">
                    <Gate><gating:RectangleGate>
                      <gating:dimension gating:max="1000"><data-type:fcs-dimension data-type:name="B1-A"/></gating:dimension>
                      <gating:dimension gating:max="600"><data-type:fcs-dimension data-type:name="R2-A"/></gating:dimension>
                    </gating:RectangleGate></Gate>
                  </Population>
                </Subpopulations>
              </Population>
            </Subpopulations>
          </Population>
        </Subpopulations>
      </SampleNode>
    </Sample>
    <Sample>
      <DataSet uri="file:/data/unlabelled.fcs" sampleID="2"/>
      <Keywords><Keyword name="Time Point" value="48h"/></Keywords>
      <SampleNode name="unlabelled.fcs" sampleID="2"/>
    </Sample>
  </SampleList>
</Workspace>
`

// execute runs the root command with a fresh config path and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--format", "json"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeWorkspace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plate.wsp")
	if err := os.WriteFile(path, []byte(testWorkspace), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decode(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(s), v); err != nil {
		t.Fatalf("decode output: %v\n%s", err, s)
	}
}

func TestGatesCommand(t *testing.T) {
	out, err := execute(t, "gates", writeWorkspace(t), "--sample", "1")
	if err != nil {
		t.Fatalf("gates: %v", err)
	}
	var res output.GatesOutput
	decode(t, out, &res)
	if len(res.Samples) != 1 {
		t.Fatalf("got %d samples", len(res.Samples))
	}
	groups := res.Samples[0].Groups
	var paths []string
	for _, g := range groups {
		paths = append(paths, g.Path)
	}
	want := "root|root → Cells|root → Cells → Singlets"
	if strings.Join(paths, "|") != want {
		t.Errorf("paths = %v, want %s", paths, want)
	}
	if groups[0].Gates[0].Name != "Ungated" {
		t.Errorf("first gate = %v, want Ungated", groups[0].Gates[0])
	}
}

func TestDividersCommand(t *testing.T) {
	out, err := execute(t, "dividers", writeWorkspace(t),
		"--x", "B1-A", "--y", "R2-A", "--path", "root/Cells/Singlets", "--sample", "1")
	if err != nil {
		t.Fatalf("dividers: %v", err)
	}
	var res output.DividersOutput
	decode(t, out, &res)
	if len(res.Samples) != 1 || res.Samples[0].Resolution == nil {
		t.Fatalf("no resolution: %s", out)
	}
	if tier := res.Samples[0].Resolution.Tier; tier != quadrant.TierDocument {
		t.Errorf("tier = %s, want document", tier)
	}
	th := res.Samples[0].Thresholds
	if th == nil || math.Abs(th.X-1100) > 1e-9 || math.Abs(th.Y-750) > 1e-9 {
		t.Errorf("thresholds = %+v, want {1100 750}", th)
	}
}

func TestExtractCommand(t *testing.T) {
	out, err := execute(t, "extract", writeWorkspace(t), "--x", "B1-A", "--y", "R2-A", "--sample", "1", "--gate=")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var res output.ExtractOutput
	decode(t, out, &res)
	if len(res.Samples) != 1 {
		t.Fatalf("got %d samples", len(res.Samples))
	}
	gates := res.Samples[0].Gates
	if len(gates) != 1 || gates[0].Name != "Singlets" || len(gates[0].Dividers) != 2 {
		t.Errorf("gates = %+v, want one quadrant node attributed to Singlets", gates)
	}
}

func TestWellsCommand(t *testing.T) {
	out, err := execute(t, "wells", writeWorkspace(t))
	if err != nil {
		t.Fatalf("wells: %v", err)
	}
	var res output.WellsOutput
	decode(t, out, &res)
	if len(res.Placements) != 2 {
		t.Fatalf("got %d placements", len(res.Placements))
	}
	if got := res.Placements[0].Label(); got != "A01" {
		t.Errorf("sample 1 at %s, want A01", got)
	}
	if p := res.Placements[1]; !p.Fallback || p.Method != "fallback (sample index)" {
		t.Errorf("sample 2 placement = %+v", p)
	}

	out, err = execute(t, "wells", writeWorkspace(t), "--filter", "Time Point=48h")
	if err != nil {
		t.Fatalf("wells --filter: %v", err)
	}
	res = output.WellsOutput{}
	decode(t, out, &res)
	if len(res.Placements) != 1 || res.Placements[0].SampleID != "2" {
		t.Errorf("filtered placements = %+v", res.Placements)
	}
	if _, err := execute(t, "wells", writeWorkspace(t), "--filter", "nokey"); err == nil {
		t.Error("malformed filter should fail")
	}
	// leave the filter flag empty for later tests
	if _, err := execute(t, "wells", writeWorkspace(t), "--filter="); err != nil {
		t.Fatal(err)
	}
}

func TestExportCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "gates.db")
	out, err := execute(t, "export", writeWorkspace(t), "--x", "B1-A", "--y", "R2-A", "--db", db)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var res output.ExportOutput
	decode(t, out, &res)
	if res.Stats.Samples != 2 || res.Stats.Gates != 1 || res.Stats.Dividers != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database not written: %v", err)
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := execute(t, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Wrote default config") {
		t.Errorf("unexpected output: %q", out)
	}
	if _, err := config.LoadFromPath(filepath.Join(dir, config.ConfigDirName, config.ConfigFileName)); err != nil {
		t.Errorf("written config does not load: %v", err)
	}

	out, err = execute(t, "init")
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if !strings.Contains(out, "Already initialized") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestBuildCommandInfo(t *testing.T) {
	info := buildCommandInfo(rootCmd)
	names := map[string]bool{}
	for _, sub := range info.Subcommands {
		names[sub.Name] = true
	}
	for _, want := range []string{"init", "gates", "extract", "dividers", "wells", "plate", "stats", "export", "serve"} {
		if !names[want] {
			t.Errorf("command %s missing from agent discovery", want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := parseMode(""); err != nil || m.String() != "self" {
		t.Errorf("parseMode(\"\") = %v, %v", m, err)
	}
	if m, err := parseMode("parent"); err != nil || m.String() != "parent" {
		t.Errorf("parseMode(parent) = %v, %v", m, err)
	}
	if _, err := parseMode("children"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
