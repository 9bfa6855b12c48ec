package spectral

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

var (
	// ErrInvalidWindow is returned for window sizes <= 1 or hop sizes
	// outside [1, window size].
	ErrInvalidWindow = errors.New("spectral: invalid window")

	// ErrEmptyBuffer is returned when there are no samples to analyze.
	ErrEmptyBuffer = errors.New("spectral: empty buffer")
)

// Spectrum is the magnitude spectrum of one analysis window.
type Spectrum struct {
	// Index is the window position in the buffer.
	Index int
	// Start is the first sample of the window.
	Start int
	// Length is the number of samples the window advances the timeline by.
	Length int
	// BinHz is the frequency spacing of Mags.
	BinHz float64
	// Mags holds size/2 magnitudes starting at DC.
	Mags []float64
}

// Analyzer computes windowed magnitude spectra. An Analyzer reuses its
// scratch buffers and is not safe for concurrent use.
type Analyzer struct {
	size   int
	hop    int
	window []float64
	scale  float64

	fft   *fourier.FFT
	in    []float64
	coeff []complex128
}

// NewAnalyzer returns an analyzer for windows of size samples advancing by
// hop samples. A hop of 0 means non-overlapping windows.
func NewAnalyzer(size, hop int) (*Analyzer, error) {
	if size <= 1 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidWindow, size)
	}
	if hop == 0 {
		hop = size
	}
	if hop < 1 || hop > size {
		return nil, fmt.Errorf("%w: hop %d not in [1, %d]", ErrInvalidWindow, hop, size)
	}

	window := make([]float64, size)
	var sum float64
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
		sum += window[i]
	}

	return &Analyzer{
		size:   size,
		hop:    hop,
		window: window,
		scale:  2 / sum,
		fft:    fourier.NewFFT(size),
		in:     make([]float64, size),
		coeff:  make([]complex128, size/2+1),
	}, nil
}

// Size returns the window size in samples.
func (a *Analyzer) Size() int { return a.size }

// Hop returns the window advance in samples.
func (a *Analyzer) Hop() int { return a.hop }

// Windows returns how many windows cover n samples. The last window may
// run past the end and is zero padded.
func (a *Analyzer) Windows(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + a.hop - 1) / a.hop
}

// Transform computes the spectrum of window i of buf.
func (a *Analyzer) Transform(buf pcm.Buffer, i int) Spectrum {
	start := i * a.hop
	buf.Window(start, a.in)
	for j, w := range a.window {
		a.in[j] *= w
	}
	a.coeff = a.fft.Coefficients(a.coeff, a.in)

	mags := make([]float64, a.size/2)
	for k := range mags {
		mags[k] = cmplx.Abs(a.coeff[k]) * a.scale
	}
	return Spectrum{
		Index:  i,
		Start:  start,
		Length: max(0, min(a.hop, buf.Len()-start)),
		BinHz:  float64(buf.SampleRate) / float64(a.size),
		Mags:   mags,
	}
}

// Spectra returns the spectra of buf in window order. The sequence is
// computed lazily and may be ranged over more than once.
func (a *Analyzer) Spectra(buf pcm.Buffer) (iter.Seq[Spectrum], error) {
	if buf.Len() == 0 {
		return nil, ErrEmptyBuffer
	}
	if buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrEmptyBuffer, buf.SampleRate)
	}
	n := a.Windows(buf.Len())
	return func(yield func(Spectrum) bool) {
		for i := range n {
			if !yield(a.Transform(buf, i)) {
				return
			}
		}
	}, nil
}
