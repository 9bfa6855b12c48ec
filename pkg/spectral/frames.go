package spectral

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

// Config controls whole-buffer analysis.
type Config struct {
	// WindowSize is the analysis window length in samples.
	WindowSize int
	// HopSize is the window advance in samples. Zero means WindowSize.
	HopSize int
	// MaxPeaks caps the peaks kept per window. Zero keeps all.
	MaxPeaks int
	// NoiseFloor is the smallest magnitude accepted as a peak.
	NoiseFloor float64
	// Workers bounds the transform goroutines. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns a 512 sample non-overlapping analysis keeping up
// to 64 peaks above -80 dBFS.
func DefaultConfig() Config {
	return Config{
		WindowSize: 512,
		MaxPeaks:   64,
		NoiseFloor: 1e-4,
	}
}

// Frame is the analysis result for one window.
type Frame struct {
	Index  int    `msgpack:"i" json:"index"`
	Start  int    `msgpack:"s" json:"start"`
	Length int    `msgpack:"n" json:"length"`
	Peaks  []Peak `msgpack:"p" json:"peaks"`
}

// chunkWindows is the number of windows one task transforms.
const chunkWindows = 64

// AnalyzeAll analyzes every window of buf. Windows are transformed in
// parallel and returned in order. progress, if not nil, is called with
// the number of windows finished by each task and must be safe for
// concurrent use.
func AnalyzeAll(ctx context.Context, buf pcm.Buffer, cfg Config, progress func(n int)) ([]Frame, error) {
	a, err := NewAnalyzer(cfg.WindowSize, cfg.HopSize)
	if err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrEmptyBuffer, buf.SampleRate)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	frames := make([]Frame, a.Windows(buf.Len()))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(frames); lo += chunkWindows {
		hi := min(len(frames), lo+chunkWindows)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			wa, err := NewAnalyzer(a.size, a.hop)
			if err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				s := wa.Transform(buf, i)
				frames[i] = Frame{
					Index:  s.Index,
					Start:  s.Start,
					Length: s.Length,
					Peaks:  Peaks(s, cfg.MaxPeaks, cfg.NoiseFloor),
				}
			}
			if progress != nil {
				progress(hi - lo)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}
