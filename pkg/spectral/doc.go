// Package spectral turns a pcm.Buffer into per-window lists of spectral
// peaks.
//
// An Analyzer applies a periodic Hann window to each analysis window and
// takes a real FFT (gonum dsp/fourier). Magnitudes are scaled so that a
// full-scale sine centred on a bin reads 1.0. Peaks picks strict local
// maxima above a noise floor, refined by parabolic interpolation on the log
// magnitude.
//
// AnalyzeAll runs both steps over a whole buffer on a bounded worker pool
// and returns frames in window order.
package spectral
