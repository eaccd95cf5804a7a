package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/config"
	"github.com/flowviz/flowgate/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [workspace.wsp]",
	Short: "Start MCP server over a workspace for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio with the workspace
loaded once, so agents can query it repeatedly without re-parsing.

Available Tools:
  fg_gates     Gate tree grouped by path
  fg_extract   Gate geometry on a channel pair
  fg_dividers  Quadrant divider resolution
  fg_wells     Well positions and plate layout

When a .flowgate directory exists, the server writes its PID there so
--status and --stop can find it.`,
	Example: `  flowgate serve plate.wsp
  flowgate serve plate.wsp --tools extract,dividers --timeout 1h
  flowgate serve --status
  flowgate serve --stop
  flowgate serve --list-tools`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

var (
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if serveListTools {
		fmt.Fprintln(w, "Available MCP tools:")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  fg_gates     Gate tree grouped by path")
		fmt.Fprintln(w, "  fg_extract   Gate geometry on a channel pair")
		fmt.Fprintln(w, "  fg_dividers  Quadrant divider resolution")
		fmt.Fprintln(w, "  fg_wells     Well positions and plate layout")
		return nil
	}
	if serveStatus {
		return checkServerStatus(cmd)
	}
	if serveStop {
		return stopServer(cmd)
	}
	if len(args) == 0 {
		return fmt.Errorf("workspace path required")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []string
	if serveTools != "" {
		for _, t := range strings.Split(serveTools, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				// Allow shorthand (extract -> fg_extract)
				if !strings.HasPrefix(t, "fg_") {
					t = "fg_" + t
				}
				tools = append(tools, t)
			}
		}
	}

	a, err := openApp(args[0])
	if err != nil {
		return err
	}
	src, err := a.wellSource(cmd, a.cfg.Wells.Source, a.cfg.Wells.Keyword)
	if err != nil {
		return err
	}

	server, err := mcp.New(a.ws, a.extractor, a.engine, mcp.Config{
		Tools:   tools,
		Timeout: timeout,
		Wells:   src,
		Rows:    a.cfg.Wells.Rows,
		Columns: a.cfg.Wells.Columns,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := writePIDFile(); err != nil {
		a.logger.Debug("no PID file written", "err", err)
	}
	defer removePIDFile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.logger.Info("shutting down")
		removePIDFile()
		os.Exit(0)
	}()

	// stdout carries the MCP protocol; everything else goes to the logger.
	a.logger.Info("starting MCP server", "workspace", a.ws.Path(), "tools", server.ListTools(), "timeout", timeout)
	return server.ServeStdio()
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	dir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

func readPID() (int, bool) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, false
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return 0, false
	}
	return pid, true
}

func checkServerStatus(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	pid, ok := readPID()
	if !ok {
		fmt.Fprintln(w, "Status: not running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Fprintln(w, "Status: not running")
		removePIDFile()
		return nil
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0 to check
	if err := process.Signal(syscall.Signal(0)); err != nil {
		fmt.Fprintln(w, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(w, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	pid, ok := readPID()
	if !ok {
		fmt.Fprintln(w, "No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		fmt.Fprintln(w, "No server running")
		return nil
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile()
		fmt.Fprintln(w, "Server already stopped")
		return nil
	}

	fmt.Fprintf(w, "Stopped server (PID %d)\n", pid)
	return nil
}
