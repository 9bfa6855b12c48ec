package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

// Resample converts buf to dstRate. When the rates already match buf is
// returned unchanged.
func Resample(buf pcm.Buffer, dstRate int) (pcm.Buffer, error) {
	if buf.SampleRate <= 0 || dstRate <= 0 {
		return pcm.Buffer{}, fmt.Errorf("resampler: invalid rates %d -> %d", buf.SampleRate, dstRate)
	}
	if buf.SampleRate == dstRate || buf.Len() == 0 {
		return pcm.Buffer{Samples: buf.Samples, SampleRate: dstRate}, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.SampleRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("failed to create resampler: %w", err)
	}

	// Trailing silence pushes the filter tail out of the resampler.
	input := make([]float64, buf.Len()+buf.SampleRate/10)
	for i, s := range buf.Samples {
		input[i] = float64(s)
	}
	output, err := r.Process(input)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("resample error: %w", err)
	}

	want := OutputLen(buf.Len(), buf.SampleRate, dstRate)
	samples := make([]float32, want)
	for i := range min(want, len(output)) {
		samples[i] = float32(output[i])
	}
	return pcm.Buffer{Samples: samples, SampleRate: dstRate}, nil
}

// OutputLen returns the number of samples n source samples occupy at
// dstRate, rounded to nearest.
func OutputLen(n, srcRate, dstRate int) int {
	return int((int64(n)*int64(dstRate) + int64(srcRate)/2) / int64(srcRate))
}
