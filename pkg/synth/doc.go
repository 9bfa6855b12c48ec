// Package synth renders analysis frames directly to PCM with a bank of
// sine oscillators.
//
// Each window contributes one oscillator per partial. Consecutive windows
// overlap by a short linear crossfade, and a partial keeps its phase
// across windows as long as its ID stays the same, so a steady tone
// renders without clicks at window boundaries. Frequencies and amplitudes
// are used unquantized, which makes the output a reference for the
// register-quantized VGM rendering.
package synth
