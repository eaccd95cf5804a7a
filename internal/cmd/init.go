package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flowviz/flowgate/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .flowgate/config.yaml",
	Long: `Write a default configuration file to .flowgate/config.yaml in the current
directory.

The display range (display.log_min, display.log_max) must match the axis
transform the workspace was drawn with, or display coordinates will map to the
wrong raw values.

Examples:
  flowgate init          # Write default config
  flowgate init --force  # Overwrite an existing config`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	path := filepath.Join(cwd, config.ConfigDirName, config.ConfigFileName)
	_, err = os.Stat(path)
	if err == nil {
		if !initForce {
			rel, _ := filepath.Rel(cwd, path)
			fmt.Fprintf(cmd.OutOrStdout(), "Already initialized at %s\n", rel)
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	written, err := config.SaveDefault(cwd)
	if err != nil {
		return err
	}
	rel, _ := filepath.Rel(cwd, written)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", rel)
	return nil
}
