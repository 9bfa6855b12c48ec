package synth

import (
	"errors"
	"math"
	"testing"
)

func TestNewRendererInvalidRate(t *testing.T) {
	for _, rate := range []int{0, -44100} {
		if _, err := NewRenderer(rate, 0); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("NewRenderer(%d) err = %v, want ErrInvalidRate", rate, err)
		}
	}
}

func TestSteadyToneIsContinuous(t *testing.T) {
	const (
		rate = 44100
		freq = 440.0
		amp  = 0.5
	)
	r, err := NewRenderer(rate, 0)
	if err != nil {
		t.Fatal(err)
	}
	sizes := []int{512, 512, 300, 512, 17, 512}
	total := 0
	for _, n := range sizes {
		r.Add(n, []Partial{{ID: 3, Freq: freq, Amp: amp}})
		total += n
	}
	if r.Len() != total {
		t.Errorf("Len() = %d, want %d", r.Len(), total)
	}
	out := r.Finish()
	if out.SampleRate != rate {
		t.Errorf("SampleRate = %d", out.SampleRate)
	}
	if out.Len() != total {
		t.Fatalf("rendered %d samples, want %d", out.Len(), total)
	}
	step := 2 * math.Pi * freq / rate
	for i, s := range out.Samples {
		want := amp * math.Sin(step*float64(i))
		if math.Abs(float64(s)-want) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", i, s, want)
		}
	}
}

func TestFadeOut(t *testing.T) {
	r, err := NewRenderer(8000, 32)
	if err != nil {
		t.Fatal(err)
	}
	r.Add(256, []Partial{{ID: 0, Freq: 1000, Amp: 0.8}})
	r.Add(256, nil)
	out := r.Finish()

	if out.Len() != 512 {
		t.Fatalf("rendered %d samples", out.Len())
	}
	nonzero := false
	for _, s := range out.Samples[256 : 256+32] {
		if s != 0 {
			nonzero = true
		}
		if math.Abs(float64(s)) > 0.8 {
			t.Fatalf("tail sample %v louder than the tone", s)
		}
	}
	if !nonzero {
		t.Error("no crossfade tail after the tone")
	}
	for i, s := range out.Samples[256+32:] {
		if s != 0 {
			t.Fatalf("sample %d = %v after the crossfade, want 0", 256+32+i, s)
		}
	}
}

func TestNoCrossfade(t *testing.T) {
	r, err := NewRenderer(8000, -1)
	if err != nil {
		t.Fatal(err)
	}
	r.Add(100, []Partial{{ID: 0, Freq: 1000, Amp: 0.8}})
	r.Add(100, nil)
	out := r.Finish()
	for i, s := range out.Samples[100:] {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0 without crossfade", 100+i, s)
		}
	}
}

func TestSilentPartials(t *testing.T) {
	r, err := NewRenderer(8000, 0)
	if err != nil {
		t.Fatal(err)
	}
	r.Add(128, []Partial{
		{ID: 0, Freq: 4000, Amp: 1}, // Nyquist
		{ID: 1, Freq: 9000, Amp: 1}, // above Nyquist
		{ID: 2, Freq: 0, Amp: 1},    // DC
		{ID: 3, Freq: 440, Amp: 0},  // silent
		{ID: 4, Freq: math.NaN(), Amp: 1},
	})
	out := r.Finish()
	if out.Len() != 128 {
		t.Fatalf("rendered %d samples", out.Len())
	}
	if p := out.Peak(); p != 0 {
		t.Errorf("peak = %v, want silence", p)
	}
}

func TestLimiter(t *testing.T) {
	r, err := NewRenderer(44100, 0)
	if err != nil {
		t.Fatal(err)
	}
	r.Add(4410, []Partial{
		{ID: 0, Freq: 441, Amp: 1},
		{ID: 1, Freq: 441, Amp: 1},
	})
	out := r.Finish()
	p := out.Peak()
	if p > Limit+1e-6 {
		t.Errorf("peak = %v, want <= %v", p, Limit)
	}
	if p < Limit-1e-3 {
		t.Errorf("peak = %v, limiter scaled too far", p)
	}
}

func TestEmpty(t *testing.T) {
	r, err := NewRenderer(44100, 0)
	if err != nil {
		t.Fatal(err)
	}
	r.Add(0, []Partial{{ID: 0, Freq: 440, Amp: 1}})
	if out := r.Finish(); out.Len() != 0 {
		t.Errorf("rendered %d samples from nothing", out.Len())
	}
}
