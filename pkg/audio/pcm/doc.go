// Package pcm provides the in-memory sample buffer shared by the analysis
// and synthesis stages.
//
// A Buffer holds mono samples normalized to [-1, 1] together with their
// sample rate. Decoders downmix to mono on load; encoders convert back to
// 16-bit integers.
//
// Example usage:
//
//	// One second of A4 at half scale
//	buf := pcm.Tone(44100, 44100, 440, 0.5)
//
//	// 20ms of samples
//	n := buf.SamplesIn(20 * time.Millisecond)
package pcm
