// Package resampler converts pcm.Buffer sample rates with the pure Go
// go-audio-resampling library (no CGO/FFI dependencies).
//
// Resample works on whole buffers: nanonanoda loads its input fully
// before analysis, so there is no streaming interface. The output length is
// always round(len * dst / src) samples, padded or trimmed to absorb the
// filter delay.
//
// Example usage:
//
//	buf, err := resampler.Resample(in, 22050)
//	if err != nil {
//	    return err
//	}
package resampler
