package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the flowgate configuration file
const ConfigFileName = "config.yaml"

// TOMLConfigFileName is the alternative TOML configuration file, read
// when ConfigFileName is absent.
const TOMLConfigFileName = "config.toml"

// ConfigDirName is the name of the flowgate configuration directory
const ConfigDirName = ".flowgate"

// Config holds all flowgate configuration
type Config struct {
	Display  DisplayConfig  `yaml:"display" toml:"display"`
	Wells    WellsConfig    `yaml:"wells" toml:"wells"`
	Quadrant QuadrantConfig `yaml:"quadrant" toml:"quadrant"`
	Events   EventsConfig   `yaml:"events" toml:"events"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
}

// DisplayConfig is the decade range of the display axis. Display value 0
// maps to 10^log_min and 1 maps to 10^log_max.
type DisplayConfig struct {
	LogMin float64 `yaml:"log_min" toml:"log_min"`
	LogMax float64 `yaml:"log_max" toml:"log_max"`
}

// WellsConfig controls well position resolution and the plate shape
type WellsConfig struct {
	Source  string `yaml:"source" toml:"source"`
	Keyword string `yaml:"keyword" toml:"keyword"`
	Rows    int    `yaml:"rows" toml:"rows"`
	Columns int    `yaml:"columns" toml:"columns"`
}

// QuadrantConfig tunes divider inference from quadrant regions
type QuadrantConfig struct {
	MinRegions         int     `yaml:"min_regions" toml:"min_regions"`
	AgreementTolerance float64 `yaml:"agreement_tolerance" toml:"agreement_tolerance"`
}

// EventsConfig controls statistics and plot sampling
type EventsConfig struct {
	MinValue  float64 `yaml:"min_value" toml:"min_value"`
	MaxPoints int     `yaml:"max_points" toml:"max_points"`
	Seed      uint64  `yaml:"seed" toml:"seed"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	Format string `yaml:"format" toml:"format"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .flowgate/config.yaml (or config.toml), falling
// back to defaults. It searches for the config directory starting from
// workDir and walking up the directory tree.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		tomlPath := filepath.Join(configDir, TOMLConfigFileName)
		if _, err := os.Stat(tomlPath); err == nil {
			configPath = tomlPath
		}
	}
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path. Files ending in .toml
// are decoded as TOML, anything else as YAML. The loaded config is merged
// with defaults and validated.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, loaded)
	} else {
		err = yaml.Unmarshal(data, loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// FindConfigDir locates the .flowgate directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .flowgate directory if it doesn't exist.
// Returns the path to the .flowgate directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if cfg.Display.LogMax <= cfg.Display.LogMin {
		return fmt.Errorf("%w: display.log_max (%g) must be greater than display.log_min (%g)",
			ErrInvalidConfig, cfg.Display.LogMax, cfg.Display.LogMin)
	}

	if !IsValidWellSource(cfg.Wells.Source) {
		return fmt.Errorf("%w: wells.source must be one of %v, got %q",
			ErrInvalidConfig, ValidWellSources, cfg.Wells.Source)
	}

	if cfg.Wells.Rows <= 0 || cfg.Wells.Rows > 26 {
		return fmt.Errorf("%w: wells.rows must be between 1 and 26, got %d",
			ErrInvalidConfig, cfg.Wells.Rows)
	}

	if cfg.Wells.Columns <= 0 {
		return fmt.Errorf("%w: wells.columns must be positive, got %d",
			ErrInvalidConfig, cfg.Wells.Columns)
	}

	if cfg.Quadrant.MinRegions < 1 || cfg.Quadrant.MinRegions > 4 {
		return fmt.Errorf("%w: quadrant.min_regions must be between 1 and 4, got %d",
			ErrInvalidConfig, cfg.Quadrant.MinRegions)
	}

	if cfg.Quadrant.AgreementTolerance < 0 {
		return fmt.Errorf("%w: quadrant.agreement_tolerance must be non-negative, got %f",
			ErrInvalidConfig, cfg.Quadrant.AgreementTolerance)
	}

	if cfg.Events.MaxPoints < 0 {
		return fmt.Errorf("%w: events.max_points must be non-negative, got %d",
			ErrInvalidConfig, cfg.Events.MaxPoints)
	}

	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}

	return nil
}

// SaveDefault writes the default configuration to .flowgate/config.yaml in
// workDir. Creates the .flowgate directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# flowgate configuration\n# display.log_min/log_max must match the workspace's axis transform\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return configPath, nil
}
