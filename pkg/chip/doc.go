// Package chip models the two FM synthesis chips nanonanoda can target:
// the Yamaha YMF262 (OPL3) and the Yamaha YM2203 (OPN).
//
// The package is pure: it maps frequencies to F-number/block codes, maps
// magnitudes to total-level (TL) attenuation steps, and produces the
// register writes that program a voice. It does not know about streams,
// time, or containers.
//
// Frequency formulas:
//
//	OPL3: f = fnum * 2^block * clock / (288 * 2^20)
//	OPN:  f = fnum * 2^block * clock / (72 * 2^21)
//
// Example:
//
//	code := chip.OPL3.FreqToCode(440, float64(chip.OPL3.DefaultClock()))
//	tl := chip.OPL3.TL(0.5, 1.0)
//	writes := chip.OPL3.NoteOn(0, code)
package chip
