// Package cli provides common utilities for the nanonanoda command-line
// tool.
//
// This package includes:
//   - Output formatting (YAML, JSON, msgpack)
//   - Atomic output files
//   - Terminal summary panels and progress bars
//   - Per-user directories (~/.nanonanoda)
//
// Example usage:
//
//	cli.Output(stats, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	})
package cli
