// Package vgm builds and parses VGM register-dump files for the YMF262 and
// YM2203.
//
// A Builder collects register writes and waits in arrival order, remembers
// an optional loop point, and serializes the stream in one pass:
//
//	b, err := vgm.NewBuilder(vgm.Chip{Kind: chip.OPN, Count: 1, Clock: 4000000})
//	b.Write(chip.OPN, 0, chip.Write{Addr: 0x28, Data: 0x10})
//	b.Wait(735)
//	data, err := b.Finalize()
//
// The header's total sample count is the sum of all waits. Decode parses
// files produced by a Builder (and other v1.50+ files that only use these
// two chips).
package vgm
