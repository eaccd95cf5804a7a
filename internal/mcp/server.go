// Package mcp provides an MCP (Model Context Protocol) server for flowgate.
// Agents query a loaded workspace's gates, geometry, dividers and wells
// through MCP tools instead of CLI commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flowviz/flowgate/internal/extract"
	"github.com/flowviz/flowgate/internal/gating"
	"github.com/flowviz/flowgate/internal/output"
	"github.com/flowviz/flowgate/internal/plate"
	"github.com/flowviz/flowgate/internal/quadrant"
	"github.com/flowviz/flowgate/internal/tree"
	"github.com/flowviz/flowgate/internal/well"
	"github.com/flowviz/flowgate/internal/workspace"
)

// Server wraps the MCP server with flowgate-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	ws           *workspace.Workspace
	nav          *tree.Navigator
	extractor    *extract.Extractor
	engine       *quadrant.Engine
	wells        well.Source
	rows, cols   int
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
	Wells   well.Source   // Default well source for fg_wells
	Rows    int           // Plate rows (0 = 8)
	Columns int           // Plate columns (0 = 12)
}

// AllTools lists all available tools
var AllTools = []string{"fg_gates", "fg_extract", "fg_dividers", "fg_wells"}

// New creates a new MCP server over a loaded workspace. The extractor and
// engine must wrap ws.
func New(ws *workspace.Workspace, ex *extract.Extractor, engine *quadrant.Engine, cfg Config) (*Server, error) {
	mcpServer := server.NewMCPServer(
		"flowgate",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		ws:           ws,
		nav:          tree.New(ws),
		extractor:    ex,
		engine:       engine,
		wells:        cfg.Wells,
		rows:         cfg.Rows,
		cols:         cfg.Columns,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}
	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}
	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "fg_gates":
		return s.registerGatesTool()
	case "fg_extract":
		return s.registerExtractTool()
	case "fg_dividers":
		return s.registerDividersTool()
	case "fg_wells":
		return s.registerWellsTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}
	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "flowgate serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"fg_gates": {
		Name:        "fg_gates",
		Description: "List the gate tree of each sample, grouped by gate path. Ungated is always listed under root.",
		Parameters: []ParameterSchema{
			{Name: "sample", Type: "string", Description: "Sample id (default: every sample)"},
		},
	},
	"fg_extract": {
		Name:        "fg_extract",
		Description: "Extract gate geometry on a channel pair in raw units: polygon outlines and quadrant dividers.",
		Parameters: []ParameterSchema{
			{Name: "x", Type: "string", Description: "X channel, e.g. B1-A", Required: true},
			{Name: "y", Type: "string", Description: "Y channel, e.g. R2-A", Required: true},
			{Name: "sample", Type: "string", Description: "Sample id (default: every sample)"},
			{Name: "gate", Type: "string", Description: "Extract only this gate"},
			{Name: "path", Type: "string", Description: "Path of the gate, e.g. root/Cells"},
		},
	},
	"fg_dividers": {
		Name:        "fg_dividers",
		Description: "Resolve quadrant divider positions at a gate path and report which resolution tier succeeded.",
		Parameters: []ParameterSchema{
			{Name: "x", Type: "string", Description: "X channel", Required: true},
			{Name: "y", Type: "string", Description: "Y channel", Required: true},
			{Name: "path", Type: "string", Description: "Gate path holding the quadrant, e.g. root/Cells/Singlets", Required: true},
			{Name: "sample", Type: "string", Description: "Sample id (default: every sample)"},
		},
	},
	"fg_wells": {
		Name:        "fg_wells",
		Description: "Resolve each sample's plate well from keywords or filename. Unresolved samples get overflow positions.",
		Parameters: []ParameterSchema{
			{Name: "source", Type: "string", Description: "auto, keyword or filename (default: configured source)"},
			{Name: "keyword", Type: "string", Description: "Keyword name for the keyword source"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(name string, args map[string]any) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}

	switch name {
	case "fg_gates":
		return s.executeGates(str("sample"))

	case "fg_extract":
		x, y := str("x"), str("y")
		if x == "" || y == "" {
			return "", fmt.Errorf("x and y parameters are required")
		}
		return s.executeExtract(str("sample"), x, y, str("gate"), str("path"))

	case "fg_dividers":
		x, y, path := str("x"), str("y"), str("path")
		if x == "" || y == "" || path == "" {
			return "", fmt.Errorf("x, y and path parameters are required")
		}
		return s.executeDividers(str("sample"), x, y, path)

	case "fg_wells":
		return s.executeWells(str("source"), str("keyword"))

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) registerGatesTool() error {
	tool := mcp.NewTool("fg_gates",
		mcp.WithDescription(toolSchemaRegistry["fg_gates"].Description),
		mcp.WithString("sample",
			mcp.Description("Sample id (default: every sample)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handle("fg_gates"))
	return nil
}

func (s *Server) registerExtractTool() error {
	tool := mcp.NewTool("fg_extract",
		mcp.WithDescription(toolSchemaRegistry["fg_extract"].Description),
		mcp.WithString("x",
			mcp.Required(),
			mcp.Description("X channel, e.g. B1-A"),
		),
		mcp.WithString("y",
			mcp.Required(),
			mcp.Description("Y channel, e.g. R2-A"),
		),
		mcp.WithString("sample",
			mcp.Description("Sample id (default: every sample)"),
		),
		mcp.WithString("gate",
			mcp.Description("Extract only this gate"),
		),
		mcp.WithString("path",
			mcp.Description("Path of the gate, e.g. root/Cells"),
		),
	)
	s.mcpServer.AddTool(tool, s.handle("fg_extract"))
	return nil
}

func (s *Server) registerDividersTool() error {
	tool := mcp.NewTool("fg_dividers",
		mcp.WithDescription(toolSchemaRegistry["fg_dividers"].Description),
		mcp.WithString("x",
			mcp.Required(),
			mcp.Description("X channel"),
		),
		mcp.WithString("y",
			mcp.Required(),
			mcp.Description("Y channel"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Gate path holding the quadrant, e.g. root/Cells/Singlets"),
		),
		mcp.WithString("sample",
			mcp.Description("Sample id (default: every sample)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handle("fg_dividers"))
	return nil
}

func (s *Server) registerWellsTool() error {
	tool := mcp.NewTool("fg_wells",
		mcp.WithDescription(toolSchemaRegistry["fg_wells"].Description),
		mcp.WithString("source",
			mcp.Description("auto, keyword or filename (default: configured source)"),
		),
		mcp.WithString("keyword",
			mcp.Description("Keyword name for the keyword source"),
		),
	)
	s.mcpServer.AddTool(tool, s.handle("fg_wells"))
	return nil
}

// handle adapts CallTool to an MCP handler. Tool failures are reported as
// error results, not protocol errors.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()

		result, err := s.CallTool(name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// samples returns the requested sample, or every sample when id is empty.
func (s *Server) samples(id string) ([]*workspace.Sample, error) {
	if id == "" {
		return s.ws.Samples(), nil
	}
	smp, err := s.ws.Sample(id)
	if err != nil {
		return nil, err
	}
	return []*workspace.Sample{smp}, nil
}

func ref(smp *workspace.Sample) output.SampleRef {
	return output.SampleRef{ID: smp.ID, Name: smp.Name}
}

func (s *Server) executeGates(sampleID string) (string, error) {
	samples, err := s.samples(sampleID)
	if err != nil {
		return "", err
	}
	out := output.GatesOutput{Workspace: s.ws.Path()}
	for _, smp := range samples {
		groups, err := s.nav.GatesByPath(smp.ID)
		if err != nil {
			return "", err
		}
		out.Samples = append(out.Samples, output.SampleGates{Sample: ref(smp), Groups: groups})
	}
	return toJSON(out)
}

func (s *Server) executeExtract(sampleID, x, y, gate, path string) (string, error) {
	samples, err := s.samples(sampleID)
	if err != nil {
		return "", err
	}
	out := output.ExtractOutput{Workspace: s.ws.Path(), X: x, Y: y}
	for _, smp := range samples {
		res := output.SampleExtract{Sample: ref(smp)}
		if gate != "" {
			node, err := s.extractor.Selected(smp.ID, gating.GateID{Name: gate, Path: gating.ParsePath(path)}, x, y)
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Gates = []gating.GateNode{node}
			}
		} else {
			nodes, err := s.extractor.Gates(smp.ID, x, y)
			if err != nil {
				res.Error = err.Error()
			}
			res.Gates = nodes
		}
		out.Samples = append(out.Samples, res)
	}
	return toJSON(out)
}

func (s *Server) executeDividers(sampleID, x, y, path string) (string, error) {
	samples, err := s.samples(sampleID)
	if err != nil {
		return "", err
	}
	p := gating.ParsePath(path)
	out := output.DividersOutput{Workspace: s.ws.Path(), Path: p.String(), X: x, Y: y}
	for _, smp := range samples {
		res := output.SampleDividers{Sample: ref(smp)}
		if r, ok := s.engine.Resolve(smp.ID, p, x, y); ok {
			res.Resolution = &r
		}
		if t, ok := s.engine.Thresholds(smp.ID, p, x, y); ok {
			res.Thresholds = &t
		}
		out.Samples = append(out.Samples, res)
	}
	return toJSON(out)
}

func (s *Server) executeWells(source, name string) (string, error) {
	src := s.wells
	if source != "" || name != "" {
		kind := source
		switch {
		case kind == "" && name != "":
			kind = "keyword"
		case kind == "":
			kind = src.Kind.String()
		}
		var err error
		if src, err = well.ParseSource(kind, name); err != nil {
			return "", err
		}
	}
	layout := plate.New(s.rows, s.cols)
	for _, smp := range s.ws.Samples() {
		res, ok := well.Resolve(smp.WellSample(), src)
		layout.Place(smp.ID, res, ok)
	}
	return toJSON(output.WellsOutput{
		Workspace:  s.ws.Path(),
		Source:     src.Kind.String(),
		Placements: layout.Placements(),
	})
}
