package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			LogMin: 0,
			LogMax: 5,
		},
		Wells: WellsConfig{
			Source:  "auto",
			Keyword: "",
			Rows:    8,
			Columns: 12,
		},
		Quadrant: QuadrantConfig{
			MinRegions:         2,
			AgreementTolerance: 0.05,
		},
		Events: EventsConfig{
			MinValue:  10,
			MaxPoints: 10000,
			Seed:      42,
		},
		Output: OutputConfig{
			Format: "yaml",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Display:  mergeDisplayConfig(loaded.Display, defaults.Display),
		Wells:    mergeWellsConfig(loaded.Wells, defaults.Wells),
		Quadrant: mergeQuadrantConfig(loaded.Quadrant, defaults.Quadrant),
		Events:   mergeEventsConfig(loaded.Events, defaults.Events),
		Output:   mergeOutputConfig(loaded.Output, defaults.Output),
	}
}

func pick[T comparable](loaded, def T) T {
	var zero T
	if loaded != zero {
		return loaded
	}
	return def
}

func mergeDisplayConfig(loaded, defaults DisplayConfig) DisplayConfig {
	return DisplayConfig{
		LogMin: pick(loaded.LogMin, defaults.LogMin),
		LogMax: pick(loaded.LogMax, defaults.LogMax),
	}
}

func mergeWellsConfig(loaded, defaults WellsConfig) WellsConfig {
	return WellsConfig{
		Source:  pick(loaded.Source, defaults.Source),
		Keyword: pick(loaded.Keyword, defaults.Keyword),
		Rows:    pick(loaded.Rows, defaults.Rows),
		Columns: pick(loaded.Columns, defaults.Columns),
	}
}

func mergeQuadrantConfig(loaded, defaults QuadrantConfig) QuadrantConfig {
	return QuadrantConfig{
		MinRegions:         pick(loaded.MinRegions, defaults.MinRegions),
		AgreementTolerance: pick(loaded.AgreementTolerance, defaults.AgreementTolerance),
	}
}

// MinValue 0 falls back to the default like every other zero, so
// statistics over every value need a negative min_value.
func mergeEventsConfig(loaded, defaults EventsConfig) EventsConfig {
	return EventsConfig{
		MinValue:  pick(loaded.MinValue, defaults.MinValue),
		MaxPoints: pick(loaded.MaxPoints, defaults.MaxPoints),
		Seed:      pick(loaded.Seed, defaults.Seed),
	}
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	return OutputConfig{
		Format: pick(loaded.Format, defaults.Format),
	}
}

// ValidWellSources lists the valid values for wells.source
var ValidWellSources = []string{"auto", "keyword", "filename"}

// IsValidWellSource checks if the given well source is valid
func IsValidWellSource(s string) bool {
	return contains(ValidWellSources, s)
}

// ValidFormats lists the valid values for output.format
var ValidFormats = []string{"yaml", "json"}

// IsValidFormat checks if the given output format is valid
func IsValidFormat(f string) bool {
	return contains(ValidFormats, f)
}

func contains(list []string, v string) bool {
	for _, valid := range list {
		if v == valid {
			return true
		}
	}
	return false
}
