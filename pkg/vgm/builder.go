package vgm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/haivivi/nanonanoda/pkg/chip"
)

var (
	// ErrInvalidChip is returned for unusable chip declarations.
	ErrInvalidChip = errors.New("vgm: invalid chip")

	// ErrInvalidWrite is returned for writes to undeclared instances or
	// outside the register space of the chip.
	ErrInvalidWrite = errors.New("vgm: invalid write")

	// ErrInvalidLoop is returned when the loop point does not fall inside
	// the stream.
	ErrInvalidLoop = errors.New("vgm: invalid loop")

	// ErrFinalized is returned when the stream is modified after Finalize.
	ErrFinalized = errors.New("vgm: stream finalized")

	// ErrTooLong is returned when the stream exceeds the 32-bit sample
	// counter.
	ErrTooLong = errors.New("vgm: stream too long")
)

// Chip declares the instances of one chip kind present in a file. A VGM
// file can address at most two instances per kind.
type Chip struct {
	Kind  chip.Kind
	Count int
	Clock int
}

// Builder accumulates a command stream.
type Builder struct {
	chips     map[chip.Kind]Chip
	events    []Command
	loop      int
	total     uint64
	tag       *Tag
	finalized bool
	out       []byte
}

// NewBuilder returns a Builder for the declared chips.
func NewBuilder(chips ...Chip) (*Builder, error) {
	b := &Builder{chips: make(map[chip.Kind]Chip), loop: -1}
	for _, c := range chips {
		switch c.Kind {
		case chip.OPL3, chip.OPN:
		default:
			return nil, fmt.Errorf("%w: kind %d", ErrInvalidChip, int(c.Kind))
		}
		if _, dup := b.chips[c.Kind]; dup {
			return nil, fmt.Errorf("%w: %s declared twice", ErrInvalidChip, c.Kind)
		}
		if c.Count < 1 || c.Count > 2 {
			return nil, fmt.Errorf("%w: %s: %d instances, VGM holds 1 or 2", ErrInvalidChip, c.Kind, c.Count)
		}
		if c.Clock <= 0 || c.Clock > clockMask {
			return nil, fmt.Errorf("%w: %s: clock %d", ErrInvalidChip, c.Kind, c.Clock)
		}
		b.chips[c.Kind] = c
	}
	return b, nil
}

// Write appends a register write for instance slot of kind k.
func (b *Builder) Write(k chip.Kind, slot int, w chip.Write) error {
	if b.finalized {
		return ErrFinalized
	}
	c, ok := b.chips[k]
	if !ok || slot < 0 || slot >= c.Count {
		return fmt.Errorf("%w: %s #%d not declared", ErrInvalidWrite, k, slot)
	}
	if !k.ValidRegister(w.Port, w.Addr) {
		return fmt.Errorf("%w: %s port %d register 0x%02X", ErrInvalidWrite, k, w.Port, w.Addr)
	}
	b.events = append(b.events, Write{Kind: k, Slot: slot, Write: w})
	return nil
}

// Wait appends a wait of n samples. Non-positive waits are ignored.
func (b *Builder) Wait(n int) error {
	if b.finalized {
		return ErrFinalized
	}
	if n <= 0 {
		return nil
	}
	if b.total+uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%w: %d samples", ErrTooLong, b.total+uint64(n))
	}
	b.events = append(b.events, Wait{Samples: uint32(n)})
	b.total += uint64(n)
	return nil
}

// MarkLoop makes playback loop back to the next event appended.
func (b *Builder) MarkLoop() {
	if !b.finalized {
		b.loop = len(b.events)
	}
}

// SetTag attaches GD3 metadata.
func (b *Builder) SetTag(t Tag) {
	b.tag = &t
}

// TotalSamples returns the summed length of all waits.
func (b *Builder) TotalSamples() uint64 {
	return b.total
}

// Events returns the stream so far. The slice must not be modified.
func (b *Builder) Events() []Command {
	return b.events
}

// Finalize appends End and serializes the file. Calling it again returns
// the same bytes.
func (b *Builder) Finalize() ([]byte, error) {
	if b.finalized {
		return b.out, nil
	}
	if b.loop >= 0 && b.loop >= len(b.events) {
		return nil, fmt.Errorf("%w: loop point %d at end of stream", ErrInvalidLoop, b.loop)
	}

	h := Header{
		Ident:        ident,
		Version:      Version,
		TotalSamples: uint32(b.total),
		DataOffset:   headerSize - offsetData,
	}
	for _, c := range b.chips {
		h.setClock(c)
	}

	body := make([]byte, 0, len(b.events)*3+1)
	var before uint64
	for i, ev := range b.events {
		if i == b.loop {
			h.LoopOffset = uint32(headerSize + len(body) - offsetLoop)
			h.LoopSamples = uint32(b.total - before)
		}
		switch ev := ev.(type) {
		case Write:
			body = append(body, opcode(ev.Kind, ev.Slot, ev.Port), ev.Addr, ev.Data)
		case Wait:
			body = appendWait(body, ev.Samples)
			before += uint64(ev.Samples)
		}
	}
	if b.loop >= 0 && h.LoopSamples == 0 {
		return nil, fmt.Errorf("%w: no time passes after the loop point", ErrInvalidLoop)
	}
	body = append(body, opEnd)

	var gd3 []byte
	if b.tag != nil {
		gd3 = b.tag.encode()
		h.GD3Offset = uint32(headerSize + len(body) - offsetGD3)
	}
	size := headerSize + len(body) + len(gd3)
	h.EOFOffset = uint32(size - 4)

	var buf bytes.Buffer
	buf.Grow(size)
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("vgm: encode header: %w", err)
	}
	buf.Write(body)
	buf.Write(gd3)

	b.events = append(b.events, End{})
	b.finalized = true
	b.out = buf.Bytes()
	return b.out, nil
}

// WriteTo finalizes the stream and writes the file to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, err := b.Finalize()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
