package vgm

import "github.com/haivivi/nanonanoda/pkg/chip"

const (
	// Version is the format version written to new files.
	Version = 0x171

	// SampleRate is the VGM timebase in samples per second.
	SampleRate = 44100

	headerSize = 0x100

	// dualChip marks a second instance in a clock field.
	dualChip  = 0x40000000
	clockMask = 0x3FFFFFFF

	offsetGD3  = 0x14
	offsetLoop = 0x1C
	offsetData = 0x34
)

var ident = [4]byte{'V', 'g', 'm', ' '}

// Header is the fixed 256 byte VGM header. Fields for chips nanonanoda
// never drives are kept as padding.
type Header struct {
	Ident        [4]byte // 0x00
	EOFOffset    uint32  // 0x04
	Version      uint32  // 0x08
	ClockSN76489 uint32  // 0x0C
	ClockYM2413  uint32  // 0x10
	GD3Offset    uint32  // 0x14
	TotalSamples uint32  // 0x18
	LoopOffset   uint32  // 0x1C
	LoopSamples  uint32  // 0x20
	Rate         uint32  // 0x24
	_            [4]byte // 0x28 SN76489 feedback, shift width, flags
	ClockYM2612  uint32  // 0x2C
	ClockYM2151  uint32  // 0x30
	DataOffset   uint32  // 0x34
	_            [12]byte
	ClockYM2203  uint32 // 0x44
	_            [20]byte
	ClockYMF262  uint32 // 0x5C
	_            [0xA0]byte
}

// Clock returns the clock and instance count the header declares for k.
func (h *Header) Clock(k chip.Kind) (clock, count int) {
	var v uint32
	switch k {
	case chip.OPL3:
		v = h.ClockYMF262
	case chip.OPN:
		v = h.ClockYM2203
	}
	if v&clockMask == 0 {
		return 0, 0
	}
	count = 1
	if v&dualChip != 0 {
		count = 2
	}
	return int(v & clockMask), count
}

func (h *Header) setClock(c Chip) {
	v := uint32(c.Clock) & clockMask
	if c.Count > 1 {
		v |= dualChip
	}
	switch c.Kind {
	case chip.OPL3:
		h.ClockYMF262 = v
	case chip.OPN:
		h.ClockYM2203 = v
	}
}

// dataStart returns the absolute offset of the command stream.
func (h *Header) dataStart() int {
	if h.Version < 0x150 || h.DataOffset == 0 {
		return 0x40
	}
	return offsetData + int(h.DataOffset)
}
