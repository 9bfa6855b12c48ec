package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/haivivi/nanonanoda/pkg/chip"
	"github.com/haivivi/nanonanoda/pkg/cli"
	"github.com/haivivi/nanonanoda/pkg/vgm"
)

var inspectFlags struct {
	format string
	output string
	query  string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <FILE.vgm>",
	Short: "Summarize a VGM file",
	Long: `Decode a VGM file and print its header, command counts and tag.

The summary can be filtered with a jq expression.

Examples:
  nanonanoda inspect voice_resynth_ym.vgm
  nanonanoda inspect --format json voice_resynth_ym.vgm
  nanonanoda inspect --format raw --query .tag.track voice_resynth_ym.vgm
  nanonanoda inspect --query '.chips[] | select(.name == "ym2203")' voice.vgm`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVarP(&inspectFlags.format, "format", "f", "yaml", "output format: yaml, json, msgpack or raw")
	f.StringVarP(&inspectFlags.output, "output", "o", "", "output file (default: stdout)")
	f.StringVarP(&inspectFlags.query, "query", "q", "", "jq expression applied to the summary")
	rootCmd.AddCommand(inspectCmd)
}

// vgmSummary is the structured result of inspect.
type vgmSummary struct {
	File         string         `json:"file" yaml:"file"`
	Version      string         `json:"version" yaml:"version"`
	Chips        []chipSummary  `json:"chips" yaml:"chips"`
	TotalSamples uint64         `json:"total_samples" yaml:"total_samples"`
	Duration     string         `json:"duration" yaml:"duration"`
	Loop         *loopSummary   `json:"loop,omitempty" yaml:"loop,omitempty"`
	Commands     int            `json:"commands" yaml:"commands"`
	Waits        int            `json:"waits" yaml:"waits"`
	Instances    []instanceStat `json:"instances" yaml:"instances"`
	Tag          *vgm.Tag       `json:"tag,omitempty" yaml:"tag,omitempty"`
}

type chipSummary struct {
	Name  string `json:"name" yaml:"name"`
	Clock int    `json:"clock" yaml:"clock"`
	Count int    `json:"count" yaml:"count"`
}

type loopSummary struct {
	Index   int    `json:"index" yaml:"index"`
	Samples uint32 `json:"samples" yaml:"samples"`
}

type instanceStat struct {
	Name   string `json:"name" yaml:"name"`
	Writes int    `json:"writes" yaml:"writes"`
	KeyOns int    `json:"key_ons" yaml:"key_ons"`
}

func summarize(name string, f *vgm.File) *vgmSummary {
	s := &vgmSummary{
		File:         name,
		Version:      fmt.Sprintf("%x.%02x", f.Header.Version>>8, f.Header.Version&0xFF),
		TotalSamples: f.Samples(),
		Duration:     cli.FormatSamples(int(f.Samples()), vgm.SampleRate),
		Commands:     len(f.Commands),
		Tag:          f.Tag,
	}
	stats := make(map[string]*instanceStat)
	for _, k := range chip.Kinds {
		clock, count := f.Header.Clock(k)
		if count == 0 {
			continue
		}
		s.Chips = append(s.Chips, chipSummary{Name: k.String(), Clock: clock, Count: count})
		for slot := range count {
			name := fmt.Sprintf("%s#%d", k, slot)
			s.Instances = append(s.Instances, instanceStat{Name: name})
		}
	}
	for i := range s.Instances {
		stats[s.Instances[i].Name] = &s.Instances[i]
	}
	for _, c := range f.Commands {
		switch c := c.(type) {
		case vgm.Write:
			st := stats[fmt.Sprintf("%s#%d", c.Kind, c.Slot)]
			if st == nil {
				continue
			}
			st.Writes++
			if c.Kind.IsKeyOn(c.Write) {
				st.KeyOns++
			}
		case vgm.Wait:
			s.Waits++
		}
	}
	if f.LoopIndex >= 0 {
		s.Loop = &loopSummary{Index: f.LoopIndex, Samples: f.Header.LoopSamples}
	}
	return s
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	f, err := vgm.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	var result any = summarize(args[0], f)
	if inspectFlags.query != "" {
		if result, err = query(inspectFlags.query, result); err != nil {
			return err
		}
	}
	return cli.Output(result, cli.OutputOptions{
		Format: cli.OutputFormat(inspectFlags.format),
		File:   inspectFlags.output,
		Indent: "  ",
	})
}

// query runs a jq expression over v's JSON form. A single result is
// returned as is, several as a list.
func query(expr string, v any) (any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	var results []any
	iter := q.Run(input)
	for {
		r, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := r.(error); ok {
			return nil, fmt.Errorf("jq error: %w", err)
		}
		results = append(results, r)
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}
