// Package output renders command results as YAML or JSON.
//
// # Output Types
//
// Each flowgate command has one result type:
//
//   - GatesOutput: gate tree grouped by path (flowgate gates)
//   - ExtractOutput: gate geometry in raw units (flowgate extract)
//   - DividersOutput: resolved quadrant dividers (flowgate dividers)
//   - WellsOutput: plate placements (flowgate wells, flowgate plate)
//   - StatsOutput: population statistics (flowgate stats)
//   - ExportOutput: export database summary (flowgate export)
//
// # Format Types
//
//   - YAML (default): human-readable
//   - JSON: machine-readable, same structure as YAML
//
// Both formats share the struct tags of the result types, so keys are the
// same in either format.
package output
