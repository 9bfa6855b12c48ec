package pcm

import (
	"encoding/binary"
	"math"
	"time"
)

// Buffer is a mono sample buffer. Samples are expected in [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the playing time of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// SamplesIn returns the number of samples in d.
func (b Buffer) SamplesIn(d time.Duration) int {
	return int(time.Duration(b.SampleRate) * d / time.Second)
}

// Window copies len(dst) samples starting at start into dst, zero filling
// past the end of the buffer.
func (b Buffer) Window(start int, dst []float64) {
	n := 0
	if start >= 0 && start < len(b.Samples) {
		for _, s := range b.Samples[start:min(len(b.Samples), start+len(dst))] {
			dst[n] = float64(s)
			n++
		}
	}
	clear(dst[n:])
}

// Peak returns the largest absolute sample value.
func (b Buffer) Peak() float32 {
	var p float32
	for _, s := range b.Samples {
		p = max(p, float32(math.Abs(float64(s))))
	}
	return p
}

// Int16s converts the samples to 16-bit integers, clamping out-of-range
// values.
func (b Buffer) Int16s() []int16 {
	out := make([]int16, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = toInt16(s)
	}
	return out
}

// Mix downmixes interleaved frames of the given channel count to mono by
// averaging.
func Mix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for _, s := range interleaved[i*channels : (i+1)*channels] {
			sum += s
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// FromInt16LE builds a mono buffer from interleaved little-endian 16-bit
// frames.
func FromInt16LE(p []byte, channels, sampleRate int) Buffer {
	channels = max(1, channels)
	samples := make([]float32, len(p)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(p[i*2:]))) / 32768
	}
	return Buffer{Samples: Mix(samples, channels), SampleRate: sampleRate}
}

// Tone generates n samples of a sine wave at hz with the given peak
// amplitude.
func Tone(sampleRate, n int, hz, amplitude float64) Buffer {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate)))
	}
	return Buffer{Samples: samples, SampleRate: sampleRate}
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * 32767)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
