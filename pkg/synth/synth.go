package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

// ErrInvalidRate is returned for non-positive sample rates.
var ErrInvalidRate = errors.New("synth: invalid sample rate")

// DefaultCrossfade is the crossfade length used when none is configured.
const DefaultCrossfade = 64

// Limit is the peak level the rendered output is scaled down to when the
// oscillators sum past full scale.
const Limit = 0.99

// Partial is one oscillator in a window.
type Partial struct {
	// ID identifies the voice across windows for phase continuity.
	ID   int
	Freq float64
	Amp  float64
}

type span struct {
	n        int
	fadeIn   int
	partials []Partial
}

// Renderer accumulates windows and renders them into one buffer.
//
// Rendering is deferred by one window because the crossfade into the next
// window cannot be longer than that window.
type Renderer struct {
	rate    int
	fade    int
	phases  map[int]float64
	out     []float64
	pos     int
	pending *span
}

// NewRenderer returns a Renderer producing samples at rate. crossfade is
// the overlap between windows in samples; 0 means DefaultCrossfade and a
// negative value disables crossfading.
func NewRenderer(rate, crossfade int) (*Renderer, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	switch {
	case crossfade == 0:
		crossfade = DefaultCrossfade
	case crossfade < 0:
		crossfade = 0
	}
	return &Renderer{
		rate:   rate,
		fade:   crossfade,
		phases: make(map[int]float64),
	}, nil
}

// Add appends a window of n samples playing partials. The slice is
// copied.
func (r *Renderer) Add(n int, partials []Partial) {
	if n <= 0 {
		return
	}
	fadeIn := 0
	if r.pending != nil {
		fadeIn = min(r.fade, n)
		r.render(r.pending, fadeIn)
	}
	r.pending = &span{
		n:        n,
		fadeIn:   fadeIn,
		partials: append([]Partial(nil), partials...),
	}
}

// Len returns the number of samples added so far.
func (r *Renderer) Len() int {
	if r.pending == nil {
		return r.pos
	}
	return r.pos + r.pending.n
}

// Finish renders the last window and returns the output. Samples are
// scaled down uniformly if the peak exceeds Limit.
func (r *Renderer) Finish() pcm.Buffer {
	if r.pending != nil {
		r.render(r.pending, 0)
		r.pending = nil
	}
	out := r.out[:r.pos]
	peak := 0.0
	for _, s := range out {
		peak = max(peak, math.Abs(s))
	}
	gain := 1.0
	if peak > Limit {
		gain = Limit / peak
	}
	samples := make([]float32, len(out))
	for i, s := range out {
		samples[i] = float32(s * gain)
	}
	return pcm.Buffer{Samples: samples, SampleRate: r.rate}
}

// render writes s at the current position. The window fades in over
// s.fadeIn samples and keeps sounding for tail samples past its end while
// fading out.
func (r *Renderer) render(s *span, tail int) {
	if need := r.pos + s.n + tail; need > len(r.out) {
		r.out = append(r.out, make([]float64, need-len(r.out))...)
	}
	nyquist := float64(r.rate) / 2
	seen := make(map[int]bool, len(s.partials))
	for _, p := range s.partials {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if !(p.Freq > 0) || p.Freq >= nyquist || p.Amp <= 0 {
			delete(r.phases, p.ID)
			continue
		}
		step := 2 * math.Pi * p.Freq / float64(r.rate)
		phase := r.phases[p.ID]
		for j := range s.n + tail {
			g := 1.0
			if j < s.fadeIn {
				g = (float64(j) + 0.5) / float64(s.fadeIn)
			} else if j >= s.n {
				g = 1 - (float64(j-s.n)+0.5)/float64(tail)
			}
			r.out[r.pos+j] += g * p.Amp * math.Sin(phase+step*float64(j))
		}
		r.phases[p.ID] = math.Mod(phase+step*float64(s.n), 2*math.Pi)
	}
	for id := range r.phases {
		if !seen[id] {
			delete(r.phases, id)
		}
	}
	r.pos += s.n
}
