package resynth

import (
	"fmt"
	"math"
	"strings"

	"github.com/haivivi/nanonanoda/pkg/chip"
	"github.com/haivivi/nanonanoda/pkg/spectral"
	"github.com/haivivi/nanonanoda/pkg/vgm"
)

// Format selects the output of a run.
type Format string

const (
	FormatWAV Format = "wav"
	FormatVGM Format = "vgm"
)

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatWAV, FormatVGM:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want wav or vgm)", ErrInvalidConfiguration, s)
}

// Ext returns the file extension for f including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Config describes a run.
type Config struct {
	Format Format

	// WindowSize is the analysis window length in samples.
	WindowSize int
	// HopSize is the window advance. Zero means WindowSize.
	HopSize int
	// MaxPeaks caps the peaks per window. Zero means the total voice
	// count.
	MaxPeaks int
	// NoiseFloor is the smallest magnitude treated as a peak.
	NoiseFloor float64

	// AnalysisSampleRate resamples the input before analysis. Zero
	// analyzes at the input rate.
	AnalysisSampleRate int
	// OutputSampleRate is the rate of the PCM rendering.
	OutputSampleRate int
	// Crossfade is the PCM crossfade in output samples. Zero selects the
	// synth default and a negative value disables it.
	Crossfade int

	// ReferenceMagnitude is the magnitude mapped to TL 0.
	ReferenceMagnitude float64

	// Chips is the instance pool in routing priority order.
	Chips []chip.Spec

	// Loop makes the VGM file loop back to the first window.
	Loop bool
	// Tag is written as GD3 metadata when Track is set.
	Tag vgm.Tag

	// Workers bounds parallel analysis. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the stock configuration: 512 sample windows,
// 44100 Hz output and one OPL3 plus two OPN instances.
func DefaultConfig() Config {
	sc := spectral.DefaultConfig()
	return Config{
		Format:             FormatWAV,
		WindowSize:         sc.WindowSize,
		NoiseFloor:         sc.NoiseFloor,
		OutputSampleRate:   44100,
		ReferenceMagnitude: 1,
		Chips:              chip.DefaultSpecs(),
	}
}

// Validate checks every field. Errors wrap ErrInvalidConfiguration.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}
	switch c.Format {
	case FormatWAV, FormatVGM:
	default:
		return invalid("unknown format %q", c.Format)
	}
	if c.WindowSize <= 1 {
		return invalid("window size %d must be at least 2", c.WindowSize)
	}
	if c.HopSize < 0 || c.HopSize > c.WindowSize {
		return invalid("hop size %d not in [0, %d]", c.HopSize, c.WindowSize)
	}
	if c.MaxPeaks < 0 {
		return invalid("max peaks %d is negative", c.MaxPeaks)
	}
	if c.NoiseFloor < 0 || math.IsNaN(c.NoiseFloor) || math.IsInf(c.NoiseFloor, 0) {
		return invalid("noise floor %v", c.NoiseFloor)
	}
	if c.AnalysisSampleRate < 0 {
		return invalid("analysis sample rate %d", c.AnalysisSampleRate)
	}
	if c.OutputSampleRate <= 0 {
		return invalid("output sample rate %d", c.OutputSampleRate)
	}
	if !(c.ReferenceMagnitude > 0) || math.IsInf(c.ReferenceMagnitude, 0) {
		return invalid("reference magnitude %v", c.ReferenceMagnitude)
	}
	if c.Workers < 0 {
		return invalid("workers %d is negative", c.Workers)
	}
	if len(c.Chips) == 0 {
		return invalid("no chips configured")
	}
	for _, s := range c.Chips {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
	}
	if c.Format == FormatVGM {
		if _, err := vgmChips(c.Chips); err != nil {
			return err
		}
	}
	return nil
}

// VoiceCount returns the total number of voices across all instances.
func (c Config) VoiceCount() int {
	n := 0
	for _, s := range c.Chips {
		n += s.Count * s.Voices
	}
	return n
}

func (c Config) analysis() spectral.Config {
	peaks := c.MaxPeaks
	if peaks == 0 {
		peaks = c.VoiceCount()
	}
	return spectral.Config{
		WindowSize: c.WindowSize,
		HopSize:    c.HopSize,
		MaxPeaks:   peaks,
		NoiseFloor: c.NoiseFloor,
		Workers:    c.Workers,
	}
}

// vgmChips merges specs into per-kind VGM chip declarations in kind
// order. A VGM file holds at most two instances per kind sharing one
// clock.
func vgmChips(specs []chip.Spec) ([]vgm.Chip, error) {
	byKind := make(map[chip.Kind]*vgm.Chip)
	for _, s := range specs {
		c, ok := byKind[s.Kind]
		if !ok {
			c = &vgm.Chip{Kind: s.Kind, Clock: s.ClockHz()}
			byKind[s.Kind] = c
		}
		if c.Clock != s.ClockHz() {
			return nil, fmt.Errorf("%w: %s instances use different clocks (%d, %d Hz)",
				ErrInvalidConfiguration, s.Kind, c.Clock, s.ClockHz())
		}
		c.Count += s.Count
		if c.Count > 2 {
			return nil, fmt.Errorf("%w: %d %s instances, VGM holds at most 2",
				ErrInvalidConfiguration, c.Count, s.Kind)
		}
	}
	var out []vgm.Chip
	for _, k := range chip.Kinds {
		if c, ok := byKind[k]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}
