package resynth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/haivivi/nanonanoda/pkg/alloc"
	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
	"github.com/haivivi/nanonanoda/pkg/audio/resampler"
	"github.com/haivivi/nanonanoda/pkg/cache"
	"github.com/haivivi/nanonanoda/pkg/spectral"
	"github.com/haivivi/nanonanoda/pkg/synth"
	"github.com/haivivi/nanonanoda/pkg/vgm"
)

// Options carries the collaborators of a run. The zero value is usable.
type Options struct {
	Logger   *slog.Logger
	Cache    *cache.Frames
	Progress Progress
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) progress() Progress {
	if o != nil && o.Progress != nil {
		return o.Progress
	}
	return nopProgress{}
}

func (o *Options) cache() *cache.Frames {
	if o == nil {
		return nil
	}
	return o.Cache
}

// Stats summarizes a run.
type Stats struct {
	Format          Format        `json:"format" yaml:"format"`
	Instances       string        `json:"instances" yaml:"instances"`
	Voices          int           `json:"voices" yaml:"voices"`
	InputSamples    int           `json:"input_samples" yaml:"input_samples"`
	InputRate       int           `json:"input_rate" yaml:"input_rate"`
	AnalysisRate    int           `json:"analysis_rate" yaml:"analysis_rate"`
	AnalysisSamples int           `json:"analysis_samples" yaml:"analysis_samples"`
	Windows         int           `json:"windows" yaml:"windows"`
	Peaks           int           `json:"peaks" yaml:"peaks"`
	Dropped         int           `json:"dropped" yaml:"dropped"`
	KeyOns          int           `json:"key_ons" yaml:"key_ons"`
	KeyOffs         int           `json:"key_offs" yaml:"key_offs"`
	Writes          int           `json:"writes" yaml:"writes"`
	OutputSamples   int           `json:"output_samples" yaml:"output_samples"`
	OutputRate      int           `json:"output_rate" yaml:"output_rate"`
	CacheHit        bool          `json:"cache_hit" yaml:"cache_hit"`
	AnalysisTime    time.Duration `json:"analysis_time" yaml:"analysis_time"`
	SynthesisTime   time.Duration `json:"synthesis_time" yaml:"synthesis_time"`
}

func (s *Stats) add(st alloc.Step) {
	s.Dropped += st.Dropped
	s.KeyOns += st.KeyOns
	s.KeyOffs += st.KeyOffs
	s.Writes += len(st.Writes)
}

// Result is the output of a run. VGM holds the file for FormatVGM and PCM
// the rendering for FormatWAV.
type Result struct {
	VGM    []byte
	PCM    pcm.Buffer
	Frames []spectral.Frame
	Stats  Stats
}

// Run validates cfg and dispatches on cfg.Format.
func Run(ctx context.Context, buf pcm.Buffer, cfg Config, opts *Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Format {
	case FormatVGM:
		return ToVGM(ctx, buf, cfg, opts)
	default:
		return ToPCM(ctx, buf, cfg, opts)
	}
}

// ToVGM converts buf into a VGM file regardless of cfg.Format.
func ToVGM(ctx context.Context, buf pcm.Buffer, cfg Config, opts *Options) (*Result, error) {
	cfg.Format = FormatVGM
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res, a, err := analyze(ctx, buf, cfg, opts)
	if err != nil {
		return nil, err
	}
	log := opts.logger()

	chips, err := vgmChips(cfg.Chips)
	if err != nil {
		return nil, err
	}
	b, err := vgm.NewBuilder(chips...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	insts := a.Instances()
	emit := func(ws []alloc.Write) error {
		for _, w := range ws {
			inst := insts[w.Instance]
			if err := b.Write(inst.Kind, inst.Slot, w.Write); err != nil {
				return fmt.Errorf("%w: %w", ErrMappingOverflow, err)
			}
		}
		return nil
	}

	start := time.Now()
	if err := emit(a.Setup()); err != nil {
		return nil, err
	}
	tl := newTimeline(res.Stats.AnalysisRate, vgm.SampleRate)
	if cfg.Loop && tl.at(res.Stats.AnalysisSamples) > 0 {
		b.MarkLoop()
	}

	prog := opts.progress()
	prog.Begin(StageAllocate, len(res.Frames))
	for _, f := range res.Frames {
		if err := ctx.Err(); err != nil {
			prog.End()
			return nil, err
		}
		st := a.Step(f.Peaks)
		res.Stats.add(st)
		if err := emit(st.Writes); err != nil {
			prog.End()
			return nil, err
		}
		if err := b.Wait(tl.span(f.Start, f.Length)); err != nil {
			prog.End()
			return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		prog.Add(1)
	}
	prog.End()

	end := a.Release()
	res.Stats.add(end)
	if err := emit(end.Writes); err != nil {
		return nil, err
	}
	if cfg.Tag.Track != "" {
		b.SetTag(cfg.Tag)
	}
	data, err := b.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	res.VGM = data
	res.Stats.OutputSamples = int(b.TotalSamples())
	res.Stats.OutputRate = vgm.SampleRate
	res.Stats.SynthesisTime = time.Since(start)
	log.Debug("vgm built",
		"bytes", len(data),
		"samples", res.Stats.OutputSamples,
		"writes", res.Stats.Writes,
		"loop", cfg.Loop)
	return res, nil
}

// ToPCM renders buf through the allocator to PCM at cfg.OutputSampleRate
// regardless of cfg.Format.
func ToPCM(ctx context.Context, buf pcm.Buffer, cfg Config, opts *Options) (*Result, error) {
	cfg.Format = FormatWAV
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res, a, err := analyze(ctx, buf, cfg, opts)
	if err != nil {
		return nil, err
	}
	r, err := synth.NewRenderer(cfg.OutputSampleRate, cfg.Crossfade)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	start := time.Now()
	tl := newTimeline(res.Stats.AnalysisRate, cfg.OutputSampleRate)
	prog := opts.progress()
	prog.Begin(StageAllocate, len(res.Frames))
	var partials []synth.Partial
	for _, f := range res.Frames {
		if err := ctx.Err(); err != nil {
			prog.End()
			return nil, err
		}
		st := a.Step(f.Peaks)
		res.Stats.add(st)
		partials = partials[:0]
		for _, as := range st.Assignments {
			partials = append(partials, synth.Partial{ID: as.ID, Freq: as.Freq, Amp: as.Mag})
		}
		r.Add(tl.span(f.Start, f.Length), partials)
		prog.Add(1)
	}
	prog.End()
	res.Stats.add(a.Release())

	res.PCM = r.Finish()
	res.Stats.OutputSamples = res.PCM.Len()
	res.Stats.OutputRate = cfg.OutputSampleRate
	res.Stats.SynthesisTime = time.Since(start)
	opts.logger().Debug("pcm rendered",
		"samples", res.Stats.OutputSamples,
		"rate", cfg.OutputSampleRate,
		"peak", res.PCM.Peak())
	return res, nil
}

// analyze resamples buf if configured and returns its frames, consulting
// the cache, along with a fresh allocator for cfg.
func analyze(ctx context.Context, buf pcm.Buffer, cfg Config, opts *Options) (*Result, *alloc.Allocator, error) {
	if buf.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedInput, buf.SampleRate)
	}
	log := opts.logger()
	inputRate, inputLen := buf.SampleRate, buf.Len()
	if cfg.AnalysisSampleRate > 0 && cfg.AnalysisSampleRate != buf.SampleRate {
		rs, err := resampler.Resample(buf, cfg.AnalysisSampleRate)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: resample: %w", ErrUnsupportedInput, err)
		}
		log.Debug("resampled for analysis", "from", buf.SampleRate, "to", rs.SampleRate, "samples", rs.Len())
		buf = rs
	}

	// Continuity across windows tolerates one bin of drift.
	a, err := alloc.New(cfg.Chips, alloc.Options{
		Reference: cfg.ReferenceMagnitude,
		Tolerance: float64(buf.SampleRate) / float64(cfg.WindowSize),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	res := &Result{Stats: Stats{
		Format:          cfg.Format,
		Instances:       a.String(),
		Voices:          a.VoiceCount(),
		InputSamples:    inputLen,
		InputRate:       inputRate,
		AnalysisRate:    buf.SampleRate,
		AnalysisSamples: buf.Len(),
	}}
	if buf.Len() == 0 {
		return res, a, nil
	}

	start := time.Now()
	sc := cfg.analysis()
	fc := opts.cache()
	digest := ""
	if fc != nil {
		digest = cache.Digest(buf, sc)
		rec, err := fc.Get(ctx, digest)
		switch {
		case err == nil:
			log.Debug("analysis cache hit", "digest", digest[:12], "windows", len(rec.Frames))
			res.Frames = rec.Frames
			res.Stats.CacheHit = true
		case errors.Is(err, cache.ErrNotFound):
		default:
			log.Warn("analysis cache read failed", "err", err)
		}
	}

	if res.Frames == nil {
		prog := opts.progress()
		an, err := spectral.NewAnalyzer(sc.WindowSize, sc.HopSize)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		prog.Begin(StageAnalyze, an.Windows(buf.Len()))
		res.Frames, err = spectral.AnalyzeAll(ctx, buf, sc, prog.Add)
		prog.End()
		if err != nil {
			if errors.Is(err, spectral.ErrInvalidWindow) {
				return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
			}
			return nil, nil, err
		}
		if fc != nil {
			rec := &cache.FrameRecord{
				Digest:     digest,
				SampleRate: buf.SampleRate,
				Samples:    buf.Len(),
				WindowSize: sc.WindowSize,
				HopSize:    sc.HopSize,
				Frames:     res.Frames,
			}
			if err := fc.Put(ctx, rec); err != nil {
				log.Warn("analysis cache write failed", "err", err)
			}
		}
	}

	for _, f := range res.Frames {
		res.Stats.Peaks += len(f.Peaks)
	}
	res.Stats.Windows = len(res.Frames)
	res.Stats.AnalysisTime = time.Since(start)
	log.Debug("analysis done",
		"windows", res.Stats.Windows,
		"peaks", res.Stats.Peaks,
		"rate", res.Stats.AnalysisRate,
		"cached", res.Stats.CacheHit)
	return res, a, nil
}

// timeline maps sample positions between rates. Spans are differences of
// rounded absolute positions so their sum never drifts from the rounded
// total.
type timeline struct {
	src, dst int64
}

func newTimeline(src, dst int) timeline {
	return timeline{src: int64(src), dst: int64(dst)}
}

func (t timeline) at(pos int) int {
	return int((int64(pos)*t.dst + t.src/2) / t.src)
}

func (t timeline) span(start, length int) int {
	return t.at(start+length) - t.at(start)
}
