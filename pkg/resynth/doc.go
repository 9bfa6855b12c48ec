// Package resynth runs the full conversion from a PCM buffer to FM chip
// register writes.
//
// A run analyzes the whole buffer into spectral frames, steps a voice
// allocator once per frame and either serializes the register writes
// into a VGM file (ToVGM) or renders the allocated partials straight to
// PCM (ToPCM). Both paths share the same analysis and voice budget, so
// the PCM rendering can be compared against a playback of the VGM file.
//
// All configuration is validated before any input is touched. Errors are
// classified by four sentinels:
//
//   - ErrInvalidConfiguration: rejected Config
//   - ErrUnsupportedInput: unusable input buffer
//   - ErrMappingOverflow: a register write outside the chip's register space
//   - ErrSerialization: the VGM stream could not be finalized
package resynth
