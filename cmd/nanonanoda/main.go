// Package main is the entry point for the nanonanoda CLI.
//
// Usage:
//
//	nanonanoda [flags] <INPUT>
//	nanonanoda <command> [args]
//
// Commands:
//
//	inspect  - Decode a VGM file and summarize it
//	tone     - Write a sine test tone as WAV
//	cache    - List or clear the analysis cache
//	schema   - Print the JSON Schema of the YAML profile
//	version  - Show version information
package main

import (
	"os"

	"github.com/haivivi/nanonanoda/cmd/nanonanoda/commands"
	"github.com/haivivi/nanonanoda/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
