// Package config loads nanonanoda YAML profiles.
//
// A profile presets the options of a conversion run. Values it leaves at
// their zero value keep the built-in defaults, and command-line flags
// override the profile:
//
//	format: vgm
//	window_size: 1024
//	loop: true
//	chips:
//	  - ymf262
//	  - ym2203:2:3
//	  - name: ym2203
//	    clock_hz: 3993600
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/haivivi/nanonanoda/pkg/chip"
	"github.com/haivivi/nanonanoda/pkg/resynth"
)

// Profile is the on-disk configuration.
type Profile struct {
	Format             string  `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"output format, wav or vgm"`
	Output             string  `yaml:"output,omitempty" json:"output,omitempty" jsonschema:"output file path"`
	WindowSize         int     `yaml:"window_size,omitempty" json:"window_size,omitempty" jsonschema:"analysis window size in samples"`
	HopSize            int     `yaml:"hop_size,omitempty" json:"hop_size,omitempty" jsonschema:"analysis window advance in samples"`
	OutputSampleRate   int     `yaml:"output_sample_rate,omitempty" json:"output_sample_rate,omitempty" jsonschema:"sample rate of WAV output in Hz"`
	AnalysisSampleRate int     `yaml:"analysis_sample_rate,omitempty" json:"analysis_sample_rate,omitempty" jsonschema:"resample input to this rate before analysis"`
	NoiseFloor         float64 `yaml:"noise_floor,omitempty" json:"noise_floor,omitempty" jsonschema:"smallest spectral magnitude treated as a peak"`
	ReferenceMagnitude float64 `yaml:"reference_magnitude,omitempty" json:"reference_magnitude,omitempty" jsonschema:"magnitude mapped to the loudest attenuation level"`
	CrossfadeSamples   int     `yaml:"crossfade_samples,omitempty" json:"crossfade_samples,omitempty" jsonschema:"WAV crossfade between windows, negative disables"`
	Loop               bool    `yaml:"loop,omitempty" json:"loop,omitempty" jsonschema:"make VGM output loop"`
	Workers            int     `yaml:"workers,omitempty" json:"workers,omitempty" jsonschema:"parallel analysis workers"`
	CacheDir           string  `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty" jsonschema:"analysis cache directory"`
	Chips              []Chip  `yaml:"chips,omitempty" json:"chips,omitempty" jsonschema:"chip instances in routing priority order"`
	Title              string  `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"VGM track title"`
	Author             string  `yaml:"author,omitempty" json:"author,omitempty" jsonschema:"VGM author"`
}

// Chip is one chip entry. It accepts the "name[:count[:voices]]" string
// form or a mapping.
type Chip struct {
	Name    string `yaml:"name" json:"name"`
	Count   int    `yaml:"count,omitempty" json:"count,omitempty"`
	Voices  int    `yaml:"voices,omitempty" json:"voices,omitempty"`
	ClockHz int    `yaml:"clock_hz,omitempty" json:"clock_hz,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Chip) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		spec, err := chip.ParseSpec(s)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = Chip{Name: spec.Kind.String(), Count: spec.Count, Voices: spec.Voices}
		return nil
	}
	type plain Chip
	return node.Decode((*plain)(c))
}

// Spec converts c to a validated chip.Spec.
func (c Chip) Spec() (chip.Spec, error) {
	kind, err := chip.ParseKind(c.Name)
	if err != nil {
		return chip.Spec{}, err
	}
	s := chip.Spec{Kind: kind, Count: c.Count, Voices: c.Voices, Clock: c.ClockHz}
	if s.Count == 0 {
		s.Count = 1
	}
	if s.Voices == 0 {
		s.Voices = kind.Voices()
	}
	if err := s.Validate(); err != nil {
		return chip.Spec{}, err
	}
	return s, nil
}

// Load reads a profile from path. Unknown keys are rejected.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a profile document. An empty document is an empty
// profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &p, nil
}

// Apply copies the fields set in p onto cfg. It does not validate the
// result.
func (p *Profile) Apply(cfg *resynth.Config) error {
	if p.Format != "" {
		f, err := resynth.ParseFormat(p.Format)
		if err != nil {
			return err
		}
		cfg.Format = f
	}
	setInt(&cfg.WindowSize, p.WindowSize)
	setInt(&cfg.HopSize, p.HopSize)
	setInt(&cfg.OutputSampleRate, p.OutputSampleRate)
	setInt(&cfg.AnalysisSampleRate, p.AnalysisSampleRate)
	setInt(&cfg.Crossfade, p.CrossfadeSamples)
	setInt(&cfg.Workers, p.Workers)
	if p.NoiseFloor != 0 {
		cfg.NoiseFloor = p.NoiseFloor
	}
	if p.ReferenceMagnitude != 0 {
		cfg.ReferenceMagnitude = p.ReferenceMagnitude
	}
	if p.Loop {
		cfg.Loop = true
	}
	if p.Title != "" {
		cfg.Tag.Track = p.Title
	}
	if p.Author != "" {
		cfg.Tag.Author = p.Author
	}
	if len(p.Chips) > 0 {
		specs := make([]chip.Spec, 0, len(p.Chips))
		for _, c := range p.Chips {
			s, err := c.Spec()
			if err != nil {
				return fmt.Errorf("%w: %w", resynth.ErrInvalidConfiguration, err)
			}
			specs = append(specs, s)
		}
		cfg.Chips = specs
	}
	return nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Schema returns the JSON Schema of Profile.
func Schema() (*jsonschema.Schema, error) {
	chipEntry, err := jsonschema.For[Chip](nil)
	if err != nil {
		return nil, err
	}
	return jsonschema.For[Profile](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[Chip](): {
				OneOf: []*jsonschema.Schema{
					{
						Type:        "string",
						Pattern:     `^[A-Za-z0-9]+(:[0-9]+(:[0-9]+)?)?$`,
						Description: "name[:count[:voices]] with name ymf262 or ym2203",
					},
					chipEntry,
				},
			},
		},
	})
}
