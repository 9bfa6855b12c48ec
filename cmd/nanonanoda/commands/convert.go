package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/nanonanoda/cmd/nanonanoda/internal/config"
	"github.com/haivivi/nanonanoda/pkg/audio/wav"
	"github.com/haivivi/nanonanoda/pkg/cache"
	"github.com/haivivi/nanonanoda/pkg/chip"
	"github.com/haivivi/nanonanoda/pkg/cli"
	"github.com/haivivi/nanonanoda/pkg/resynth"
	"github.com/haivivi/nanonanoda/pkg/spectral"
)

// convertFlags holds the flags of the root command.
var convertFlags struct {
	format             string
	output             string
	windowSize         int
	hopSize            int
	outputSampleRate   int
	analysisSampleRate int
	chips              []string
	noiseFloor         float64
	crossfade          int
	loop               bool
	title              string
	author             string
	configFile         string
	cacheDir           string
	dumpFrames         string
	workers            int
	noProgress         bool
}

func addConvertFlags(cmd *cobra.Command) {
	def := resynth.DefaultConfig()
	f := cmd.Flags()
	f.StringVarP(&convertFlags.format, "format", "f", string(def.Format), "output format: wav or vgm")
	f.StringVarP(&convertFlags.output, "output", "o", "", "output file (default: beside the input)")
	f.IntVar(&convertFlags.windowSize, "window-size", def.WindowSize, "analysis window size in samples")
	f.IntVar(&convertFlags.hopSize, "hop-size", 0, "analysis window advance in samples (default: window size)")
	f.IntVar(&convertFlags.outputSampleRate, "output-sample-rate", def.OutputSampleRate, "WAV output sample rate in Hz")
	f.IntVar(&convertFlags.analysisSampleRate, "analysis-sample-rate", 0, "resample the input before analysis (default: input rate)")
	f.StringArrayVar(&convertFlags.chips, "chip", nil, "chip as name[:count[:voices]], repeatable (default: ymf262:1:18, ym2203:2:3)")
	f.Float64Var(&convertFlags.noiseFloor, "noise-floor", def.NoiseFloor, "smallest spectral magnitude treated as a peak")
	f.IntVar(&convertFlags.crossfade, "crossfade", 0, "WAV crossfade between windows in samples, negative disables")
	f.BoolVar(&convertFlags.loop, "loop", false, "make the VGM loop")
	f.StringVar(&convertFlags.title, "title", "", "VGM track title (default: input file name)")
	f.StringVar(&convertFlags.author, "author", "", "VGM author")
	f.StringVar(&convertFlags.configFile, "config", "", "YAML profile")
	f.StringVar(&convertFlags.cacheDir, "cache-dir", "", "analysis cache directory (default: no cache)")
	f.StringVar(&convertFlags.dumpFrames, "dump-frames", "", "write the analysis frames as msgpack")
	f.IntVar(&convertFlags.workers, "workers", 0, "parallel analysis workers (default: GOMAXPROCS)")
	f.BoolVar(&convertFlags.noProgress, "no-progress", false, "hide progress bars")
}

// convertOptions is the resolved configuration of a run.
type convertOptions struct {
	cfg      resynth.Config
	output   string
	cacheDir string
}

// resolveConfig applies defaults, then the profile, then explicitly set
// flags, and validates the result.
func resolveConfig(cmd *cobra.Command) (*convertOptions, error) {
	opts := &convertOptions{cfg: resynth.DefaultConfig()}
	cfg := &opts.cfg

	if convertFlags.configFile != "" {
		p, err := config.Load(convertFlags.configFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", resynth.ErrInvalidConfiguration, err)
		}
		if err := p.Apply(cfg); err != nil {
			return nil, err
		}
		opts.output = p.Output
		opts.cacheDir = p.CacheDir
		slog.Debug("profile loaded", "path", convertFlags.configFile)
	}

	f := cmd.Flags()
	if f.Changed("format") {
		format, err := resynth.ParseFormat(convertFlags.format)
		if err != nil {
			return nil, err
		}
		cfg.Format = format
	}
	if f.Changed("output") {
		opts.output = convertFlags.output
	}
	if f.Changed("window-size") {
		cfg.WindowSize = convertFlags.windowSize
	}
	if f.Changed("hop-size") {
		cfg.HopSize = convertFlags.hopSize
	}
	if f.Changed("output-sample-rate") {
		cfg.OutputSampleRate = convertFlags.outputSampleRate
	}
	if f.Changed("analysis-sample-rate") {
		cfg.AnalysisSampleRate = convertFlags.analysisSampleRate
	}
	if f.Changed("noise-floor") {
		cfg.NoiseFloor = convertFlags.noiseFloor
	}
	if f.Changed("crossfade") {
		cfg.Crossfade = convertFlags.crossfade
	}
	if f.Changed("loop") {
		cfg.Loop = convertFlags.loop
	}
	if f.Changed("title") {
		cfg.Tag.Track = convertFlags.title
	}
	if f.Changed("author") {
		cfg.Tag.Author = convertFlags.author
	}
	if f.Changed("cache-dir") {
		opts.cacheDir = convertFlags.cacheDir
	}
	if f.Changed("workers") {
		cfg.Workers = convertFlags.workers
	}
	if f.Changed("chip") {
		specs := make([]chip.Spec, 0, len(convertFlags.chips))
		for _, s := range convertFlags.chips {
			spec, err := chip.ParseSpec(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", resynth.ErrInvalidConfiguration, err)
			}
			specs = append(specs, spec)
		}
		cfg.Chips = specs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cli.PrintVerbose(IsVerbose(), "format %s, window %d, hop %d, chips %v",
		cfg.Format, cfg.WindowSize, cfg.HopSize, cfg.Chips)
	return opts, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("requires an <INPUT> file (see --help)")
	}
	input := args[0]

	opts, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	cfg := opts.cfg
	output := opts.output
	if output == "" {
		output = defaultOutput(input, cfg.Format)
	}
	if cfg.Format == resynth.FormatVGM {
		if cfg.Tag.Track == "" {
			cfg.Tag.Track = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		}
		cfg.Tag.System = systemName(cfg.Chips)
		cfg.Tag.Creator = "nanonanoda"
	}

	buf, err := loadInput(input)
	if err != nil {
		return err
	}
	slog.Debug("input decoded",
		"path", input,
		"samples", buf.Len(),
		"rate", buf.SampleRate,
		"duration", buf.Duration())

	ropts := &resynth.Options{Logger: slog.Default()}
	if opts.cacheDir != "" {
		store, err := cache.NewBadger(cache.BadgerOptions{Dir: opts.cacheDir, Logger: slog.Default()})
		if err != nil {
			cli.PrintWarning("analysis cache unavailable, continuing without it: %v", err)
		} else {
			defer store.Close()
			ropts.Cache = cache.NewFrames(store)
		}
	}
	var bars *cli.Progress
	if !convertFlags.noProgress {
		bars = cli.NewProgress(os.Stderr)
		ropts.Progress = stageProgress{bars}
	}

	res, err := resynth.Run(cmd.Context(), buf, cfg, ropts)
	bars.Wait()
	if err != nil {
		return err
	}

	if err := writeResult(output, res); err != nil {
		return fmt.Errorf("%w: %s: %w", resynth.ErrSerialization, output, err)
	}
	if convertFlags.dumpFrames != "" {
		if err := dumpFrames(convertFlags.dumpFrames, cfg, res); err != nil {
			return fmt.Errorf("%w: %s: %w", resynth.ErrSerialization, convertFlags.dumpFrames, err)
		}
	}

	size := int64(len(res.VGM))
	if info, err := os.Stat(output); err == nil {
		size = info.Size()
	}
	fmt.Fprintln(os.Stderr, summary(input, output, size, res.Stats).Render(64))
	cli.PrintSuccess("wrote %s", output)
	return nil
}

func writeResult(path string, res *resynth.Result) error {
	if res.VGM != nil {
		return cli.OutputBytes(res.VGM, path)
	}
	return cli.WriteFileAtomic(path, func(f *os.File) error {
		return wav.Encode(f, res.PCM)
	})
}

// frameDump is the --dump-frames file layout.
type frameDump struct {
	SampleRate int              `msgpack:"sample_rate"`
	WindowSize int              `msgpack:"window_size"`
	HopSize    int              `msgpack:"hop_size"`
	Frames     []spectral.Frame `msgpack:"frames"`
}

func dumpFrames(path string, cfg resynth.Config, res *resynth.Result) error {
	d := frameDump{
		SampleRate: res.Stats.AnalysisRate,
		WindowSize: cfg.WindowSize,
		HopSize:    cfg.HopSize,
		Frames:     res.Frames,
	}
	if d.HopSize == 0 {
		d.HopSize = d.WindowSize
	}
	return cli.WriteFileAtomic(path, func(f *os.File) error {
		return msgpack.NewEncoder(f).Encode(&d)
	})
}

// systemName lists the chip part numbers for the GD3 system field.
func systemName(specs []chip.Spec) string {
	var names []string
	for _, k := range chip.Kinds {
		for _, s := range specs {
			if s.Kind == k {
				names = append(names, strings.ToUpper(k.String()))
				break
			}
		}
	}
	return strings.Join(names, " + ")
}

func summary(input, output string, size int64, st resynth.Stats) cli.Panel {
	rate := st.OutputRate
	return cli.Panel{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "nanonanoda " + string(st.Format),
		Rows: []cli.Row{
			{Label: "input", Value: input},
			{Label: "samples", Value: cli.FormatSamples(st.InputSamples, st.InputRate) + " @ " + cli.FormatHz(float64(st.InputRate))},
			{Label: "instances", Value: st.Instances},
			{Label: "windows", Value: fmt.Sprintf("%d (%d peaks, %d dropped)", st.Windows, st.Peaks, st.Dropped)},
			{Label: "voices", Value: fmt.Sprintf("%d (%d key-on, %d key-off)", st.Voices, st.KeyOns, st.KeyOffs)},
			{Label: "writes", Value: fmt.Sprint(st.Writes)},
			{Label: "output", Value: output + " (" + cli.FormatBytes(size) + ")"},
			{Label: "length", Value: cli.FormatSamples(st.OutputSamples, rate) + " @ " + cli.FormatHz(float64(rate))},
			{Label: "time", Value: fmt.Sprintf("analysis %s, synthesis %s, cached %v",
				cli.FormatDuration(int(st.AnalysisTime.Milliseconds())),
				cli.FormatDuration(int(st.SynthesisTime.Milliseconds())),
				st.CacheHit)},
		},
	}
}

// stageProgress adapts cli.Progress to resynth.Progress.
type stageProgress struct {
	bars *cli.Progress
}

func (p stageProgress) Begin(s resynth.Stage, total int) { p.bars.Begin(string(s), total) }
func (p stageProgress) Add(n int)                        { p.bars.Add(n) }
func (p stageProgress) End()                             { p.bars.End() }

var _ resynth.Progress = stageProgress{}
