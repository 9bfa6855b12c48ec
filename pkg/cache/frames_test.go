package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
	"github.com/haivivi/nanonanoda/pkg/cache"
	"github.com/haivivi/nanonanoda/pkg/spectral"
)

func TestDigest(t *testing.T) {
	buf := pcm.Tone(8000, 1024, 440, 0.5)
	cfg := spectral.DefaultConfig()
	base := cache.Digest(buf, cfg)
	if len(base) != 64 {
		t.Fatalf("digest %q is not hex sha256", base)
	}
	if got := cache.Digest(pcm.Tone(8000, 1024, 440, 0.5), cfg); got != base {
		t.Error("digest differs for identical input")
	}

	workers := cfg
	workers.Workers = 7
	if cache.Digest(buf, workers) != base {
		t.Error("worker count changed the digest")
	}

	changed := []struct {
		name string
		buf  pcm.Buffer
		cfg  spectral.Config
	}{
		{"window", buf, spectral.Config{WindowSize: 1024, MaxPeaks: cfg.MaxPeaks, NoiseFloor: cfg.NoiseFloor}},
		{"hop", buf, spectral.Config{WindowSize: 512, HopSize: 256, MaxPeaks: cfg.MaxPeaks, NoiseFloor: cfg.NoiseFloor}},
		{"floor", buf, spectral.Config{WindowSize: 512, MaxPeaks: cfg.MaxPeaks, NoiseFloor: 1e-3}},
		{"rate", pcm.Buffer{Samples: buf.Samples, SampleRate: 16000}, cfg},
		{"samples", pcm.Tone(8000, 1024, 441, 0.5), cfg},
	}
	for _, c := range changed {
		if cache.Digest(c.buf, c.cfg) == base {
			t.Errorf("%s: digest unchanged", c.name)
		}
	}
}

func TestFramesRoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			fc := cache.NewFrames(b.new(t))

			if _, err := fc.Get(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
				t.Fatalf("Get missing: %v", err)
			}

			rec := &cache.FrameRecord{
				Digest:     "d1",
				SampleRate: 8000,
				Samples:    1000,
				WindowSize: 512,
				Frames: []spectral.Frame{
					{Index: 0, Start: 0, Length: 512, Peaks: []spectral.Peak{{Freq: 440, Mag: 0.5}, {Freq: 880, Mag: 0.25}}},
					{Index: 1, Start: 512, Length: 488},
				},
			}
			if err := fc.Put(ctx, rec); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := fc.Get(ctx, "d1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.SampleRate != 8000 || got.Samples != 1000 || len(got.Frames) != 2 {
				t.Fatalf("Get = %+v", got)
			}
			if p := got.Frames[0].Peaks; len(p) != 2 || p[0] != rec.Frames[0].Peaks[0] || p[1] != rec.Frames[0].Peaks[1] {
				t.Errorf("peaks = %v", p)
			}
			if f := got.Frames[1]; f.Start != 512 || f.Length != 488 || len(f.Peaks) != 0 {
				t.Errorf("frame 1 = %+v", f)
			}
		})
	}
}

func TestFramesListClear(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	fc := cache.NewFrames(store)
	store.Set(ctx, cache.Key{"other"}, []byte("keep"))
	for _, d := range []string{"b", "a"} {
		if err := fc.Put(ctx, &cache.FrameRecord{Digest: d, Frames: []spectral.Frame{{Length: 1}}}); err != nil {
			t.Fatal(err)
		}
	}

	var digests []string
	for rec, err := range fc.List(ctx) {
		if err != nil {
			t.Fatal(err)
		}
		if rec.Frames != nil {
			t.Error("List returned frames")
		}
		digests = append(digests, rec.Digest)
	}
	if len(digests) != 2 || digests[0] != "a" || digests[1] != "b" {
		t.Errorf("List digests = %v", digests)
	}

	n, err := fc.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
	if _, err := fc.Get(ctx, "a"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("record survived Clear: %v", err)
	}
	if v, err := store.Get(ctx, cache.Key{"other"}); err != nil || string(v) != "keep" {
		t.Errorf("Clear removed unrelated key: %q %v", v, err)
	}
}
