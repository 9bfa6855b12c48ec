package resynth_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
	"github.com/haivivi/nanonanoda/pkg/cache"
	"github.com/haivivi/nanonanoda/pkg/chip"
	"github.com/haivivi/nanonanoda/pkg/resynth"
	"github.com/haivivi/nanonanoda/pkg/vgm"
)

// binHz is the centre frequency of bin k for 512 sample windows at 44.1 kHz.
func binHz(k int) float64 {
	return float64(k) * 44100 / 512
}

func vgmConfig() resynth.Config {
	cfg := resynth.DefaultConfig()
	cfg.Format = resynth.FormatVGM
	return cfg
}

func decode(t *testing.T, res *resynth.Result) *vgm.File {
	t.Helper()
	f, err := vgm.Decode(res.VGM)
	if err != nil {
		t.Fatalf("vgm.Decode: %v", err)
	}
	return f
}

func TestSilentInputVGM(t *testing.T) {
	for _, n := range []int{0, 1, 511, 512, 513, 4410} {
		buf := pcm.Buffer{Samples: make([]float32, n), SampleRate: 44100}
		res, err := resynth.ToVGM(context.Background(), buf, vgmConfig(), nil)
		if err != nil {
			t.Fatalf("n=%d: ToVGM: %v", n, err)
		}
		f := decode(t, res)
		if got := int(f.Header.TotalSamples); got != n {
			t.Errorf("n=%d: total samples = %d", n, got)
		}
		if got := f.Samples(); got != uint64(n) {
			t.Errorf("n=%d: waits sum to %d", n, got)
		}
		for _, c := range f.Commands {
			w, ok := c.(vgm.Write)
			if !ok {
				continue
			}
			if w.Kind.IsKeyOn(w.Write) {
				t.Fatalf("n=%d: key-on write %+v", n, w)
			}
			if tl, ok := w.Kind.AttenuationOf(w.Write); ok && tl != w.Kind.MaxTL() {
				t.Fatalf("n=%d: TL write %d in %+v", n, tl, w)
			}
		}
		if res.Stats.KeyOns != 0 || res.Stats.Peaks != 0 {
			t.Errorf("n=%d: stats = %+v", n, res.Stats)
		}
	}
}

// voiceTrace replays a decoded stream and records every key-on.
type voiceTrace struct {
	regs   map[[2]int]*chip.Registers
	keyOns []keyOn
}

type keyOn struct {
	kind chip.Kind
	slot int
	ch   int
	code chip.Code
	tl   int
}

func trace(f *vgm.File) *voiceTrace {
	vt := &voiceTrace{regs: make(map[[2]int]*chip.Registers)}
	for _, c := range f.Commands {
		w, ok := c.(vgm.Write)
		if !ok {
			continue
		}
		id := [2]int{int(w.Kind), w.Slot}
		r := vt.regs[id]
		if r == nil {
			r = new(chip.Registers)
			vt.regs[id] = r
		}
		r.Apply(w.Write)
		if ch := w.Kind.KeyOnChannel(w.Write); ch >= 0 {
			vt.keyOns = append(vt.keyOns, keyOn{
				kind: w.Kind,
				slot: w.Slot,
				ch:   ch,
				code: w.Kind.CodeOf(r, ch),
				tl:   carrierTL(w.Kind, r, ch),
			})
		}
	}
	return vt
}

// carrierTL reads back the carrier attenuation of ch.
func carrierTL(k chip.Kind, r *chip.Registers, ch int) int {
	for _, w := range k.SetTL(ch, 0) {
		if tl, ok := k.AttenuationOf(chip.Write{Port: w.Port, Addr: w.Addr, Data: r[w.Port&1][w.Addr]}); ok {
			return tl
		}
	}
	return -1
}

func TestSineToneVGM(t *testing.T) {
	freq := binHz(40)
	buf := pcm.Tone(44100, 512*20, freq, 1)
	res, err := resynth.ToVGM(context.Background(), buf, vgmConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	f := decode(t, res)
	if int(f.Header.TotalSamples) != buf.Len() {
		t.Errorf("total samples = %d, want %d", f.Header.TotalSamples, buf.Len())
	}

	vt := trace(f)
	if len(vt.keyOns) != 1 {
		t.Fatalf("got %d key-ons, want exactly 1: %+v", len(vt.keyOns), vt.keyOns)
	}
	on := vt.keyOns[0]
	clock := float64(on.kind.DefaultClock())
	got := on.kind.DecodeFreq(on.code, clock)
	if step := on.kind.QuantStep(on.code.Block, clock); math.Abs(got-freq) > step {
		t.Errorf("key-on decodes to %.3f Hz, want %.3f within %.3f", got, freq, step)
	}
	if on.tl > 1 {
		t.Errorf("TL = %d, want near 0", on.tl)
	}
	if on.kind != chip.OPL3 || on.slot != 0 || on.ch != 0 {
		t.Errorf("tone played on %s#%d ch %d, want ymf262#0 ch 0", on.kind, on.slot, on.ch)
	}
	if res.Stats.Windows != 20 || res.Stats.Peaks != 20 || res.Stats.KeyOffs != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestOffBinToneVGM(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"a4", 440},
		{"1k", 1000},
		{"c4", 261.63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := pcm.Tone(44100, 512*20, tt.freq, 0.8)
			res, err := resynth.ToVGM(context.Background(), buf, vgmConfig(), nil)
			if err != nil {
				t.Fatal(err)
			}
			vt := trace(decode(t, res))
			if len(vt.keyOns) != 1 {
				t.Fatalf("got %d key-ons, want exactly 1: %+v", len(vt.keyOns), vt.keyOns)
			}
			on := vt.keyOns[0]
			if on.kind != chip.OPL3 || on.slot != 0 || on.ch != 0 {
				t.Errorf("tone played on %s#%d ch %d, want ymf262#0 ch 0", on.kind, on.slot, on.ch)
			}
			clock := float64(on.kind.DefaultClock())
			got := on.kind.DecodeFreq(on.code, clock)
			// Interpolation between bins is within a quarter bin.
			tol := binHz(1)/4 + on.kind.QuantStep(on.code.Block, clock)
			if math.Abs(got-tt.freq) > tol {
				t.Errorf("key-on decodes to %.3f Hz, want %.3f within %.3f", got, tt.freq, tol)
			}
			if res.Stats.KeyOns != 1 || res.Stats.KeyOffs != 1 {
				t.Errorf("key-ons %d, key-offs %d, want 1 and 1", res.Stats.KeyOns, res.Stats.KeyOffs)
			}
		})
	}
}

func TestVGMLoop(t *testing.T) {
	cfg := vgmConfig()
	cfg.Loop = true
	cfg.Tag = vgm.Tag{Track: "tone", Creator: "nanonanoda"}
	buf := pcm.Tone(44100, 3000, 440, 0.5)
	res, err := resynth.ToVGM(context.Background(), buf, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	f := decode(t, res)
	if f.LoopIndex < 0 {
		t.Fatal("no loop point")
	}
	if f.Header.LoopSamples != f.Header.TotalSamples {
		t.Errorf("loop samples = %d, want %d", f.Header.LoopSamples, f.Header.TotalSamples)
	}
	for _, c := range f.Commands[:f.LoopIndex] {
		if w, ok := c.(vgm.Write); ok && w.Kind.IsKeyOn(w.Write) {
			t.Errorf("key-on before the loop point: %+v", w)
		}
	}
	if f.Tag == nil || f.Tag.Track != "tone" {
		t.Errorf("tag = %+v", f.Tag)
	}
}

func TestVGMLoopSkippedForEmptyInput(t *testing.T) {
	cfg := vgmConfig()
	cfg.Loop = true
	res, err := resynth.ToVGM(context.Background(), pcm.Buffer{SampleRate: 44100}, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if f := decode(t, res); f.LoopIndex != -1 {
		t.Errorf("LoopIndex = %d for empty input", f.LoopIndex)
	}
}

func TestVGMRescalesTime(t *testing.T) {
	tests := []struct {
		rate, n, want int
	}{
		{22050, 10000, 20000},
		{48000, 48000, 44100},
		{8000, 777, 4283},
	}
	for _, tt := range tests {
		buf := pcm.Tone(tt.rate, tt.n, 440, 0.5)
		res, err := resynth.ToVGM(context.Background(), buf, vgmConfig(), nil)
		if err != nil {
			t.Fatalf("rate %d: %v", tt.rate, err)
		}
		f := decode(t, res)
		if int(f.Header.TotalSamples) != tt.want || f.Samples() != uint64(tt.want) {
			t.Errorf("rate %d: total = %d, waits = %d, want %d", tt.rate, f.Header.TotalSamples, f.Samples(), tt.want)
		}
	}
}

func chord(n int) pcm.Buffer {
	buf := pcm.Tone(44100, n, 440, 0.3)
	for i, s := range pcm.Tone(44100, n, 1234.5, 0.2).Samples {
		buf.Samples[i] += s
	}
	for i, s := range pcm.Tone(44100, n, 5000, 0.1).Samples {
		if i > n/2 {
			buf.Samples[i] += s
		}
	}
	return buf
}

func TestDeterminism(t *testing.T) {
	buf := chord(44100)
	ctx := context.Background()

	a := vgmConfig()
	a.Workers = 1
	b := vgmConfig()
	b.Workers = 8
	ra, err := resynth.ToVGM(ctx, buf, a, nil)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := resynth.ToVGM(ctx, buf, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ra.VGM, rb.VGM) {
		t.Error("VGM output differs between runs")
	}

	pa, err := resynth.ToPCM(ctx, buf, a, nil)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := resynth.ToPCM(ctx, buf, b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(pa.PCM.Samples) != len(pb.PCM.Samples) {
		t.Fatal("PCM lengths differ")
	}
	for i := range pa.PCM.Samples {
		if pa.PCM.Samples[i] != pb.PCM.Samples[i] {
			t.Fatalf("PCM sample %d differs", i)
		}
	}
}

func TestSineTonePCM(t *testing.T) {
	freq := binHz(40)
	buf := pcm.Tone(44100, 512*20, freq, 0.5)
	res, err := resynth.ToPCM(context.Background(), buf, resynth.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.PCM.SampleRate != 44100 || res.PCM.Len() != buf.Len() {
		t.Fatalf("rendered %d samples at %d Hz", res.PCM.Len(), res.PCM.SampleRate)
	}
	for i, s := range res.PCM.Samples {
		if d := math.Abs(float64(s - buf.Samples[i])); d > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, s, buf.Samples[i])
		}
	}
}

func TestPCMOutputRate(t *testing.T) {
	cfg := resynth.DefaultConfig()
	cfg.OutputSampleRate = 22050
	buf := pcm.Tone(44100, 10001, 440, 0.5)
	res, err := resynth.Run(context.Background(), buf, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.VGM != nil {
		t.Error("wav run produced VGM bytes")
	}
	if res.PCM.SampleRate != 22050 || res.PCM.Len() != 5001 {
		t.Errorf("rendered %d samples at %d Hz, want 5001 at 22050", res.PCM.Len(), res.PCM.SampleRate)
	}
}

func TestAnalysisSampleRate(t *testing.T) {
	cfg := vgmConfig()
	cfg.AnalysisSampleRate = 22050
	buf := pcm.Tone(44100, 44100, 440, 0.5)
	res, err := resynth.ToVGM(context.Background(), buf, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.AnalysisRate != 22050 || res.Stats.InputRate != 44100 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if f := decode(t, res); f.Header.TotalSamples != 44100 {
		t.Errorf("total samples = %d, want 44100", f.Header.TotalSamples)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	bad := vgmConfig()
	bad.WindowSize = 0

	// Configuration is checked before the input.
	if _, err := resynth.Run(ctx, pcm.Buffer{}, bad, nil); !errors.Is(err, resynth.ErrInvalidConfiguration) {
		t.Errorf("Run err = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := resynth.ToPCM(ctx, pcm.Buffer{}, bad, nil); !errors.Is(err, resynth.ErrInvalidConfiguration) {
		t.Errorf("ToPCM err = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := resynth.ToVGM(ctx, pcm.Buffer{Samples: make([]float32, 10)}, vgmConfig(), nil); !errors.Is(err, resynth.ErrUnsupportedInput) {
		t.Errorf("ToVGM err = %v, want ErrUnsupportedInput", err)
	}

	threeOPN := resynth.DefaultConfig()
	threeOPN.Chips = []chip.Spec{{Kind: chip.OPN, Count: 3, Voices: 3}}
	if _, err := resynth.ToVGM(ctx, pcm.Tone(44100, 100, 440, 0.5), threeOPN, nil); !errors.Is(err, resynth.ErrInvalidConfiguration) {
		t.Errorf("ToVGM with 3 OPN err = %v", err)
	}
	if _, err := resynth.ToPCM(ctx, pcm.Tone(44100, 100, 440, 0.5), threeOPN, nil); err != nil {
		t.Errorf("ToPCM with 3 OPN: %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := resynth.ToVGM(canceled, chord(44100), vgmConfig(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled run err = %v", err)
	}
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	opts := &resynth.Options{Cache: cache.NewFrames(cache.NewMemory())}
	buf := chord(20000)

	first, err := resynth.ToVGM(ctx, buf, vgmConfig(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.CacheHit {
		t.Error("first run hit the cache")
	}
	second, err := resynth.ToVGM(ctx, buf, vgmConfig(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Stats.CacheHit {
		t.Error("second run missed the cache")
	}
	if !bytes.Equal(first.VGM, second.VGM) {
		t.Error("cached analysis changed the output")
	}

	other := vgmConfig()
	other.WindowSize = 1024
	third, err := resynth.ToVGM(ctx, buf, other, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.Stats.CacheHit {
		t.Error("different window size hit the cache")
	}
}

type recorder struct {
	stages []resynth.Stage
	totals []int
	added  atomic.Int64
	ended  int
}

func (r *recorder) Begin(s resynth.Stage, total int) {
	r.stages = append(r.stages, s)
	r.totals = append(r.totals, total)
}
func (r *recorder) Add(n int) { r.added.Add(int64(n)) }
func (r *recorder) End()      { r.ended++ }

func TestProgress(t *testing.T) {
	rec := &recorder{}
	buf := pcm.Tone(44100, 512*100+7, 440, 0.5)
	res, err := resynth.ToPCM(context.Background(), buf, resynth.DefaultConfig(), &resynth.Options{Progress: rec})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.stages) != 2 || rec.stages[0] != resynth.StageAnalyze || rec.stages[1] != resynth.StageAllocate {
		t.Fatalf("stages = %v", rec.stages)
	}
	if rec.totals[0] != 101 || rec.totals[1] != 101 || res.Stats.Windows != 101 {
		t.Errorf("totals = %v, windows = %d", rec.totals, res.Stats.Windows)
	}
	if got := rec.added.Load(); got != 202 {
		t.Errorf("progress added %d, want 202", got)
	}
	if rec.ended != 2 {
		t.Errorf("End called %d times", rec.ended)
	}
}
