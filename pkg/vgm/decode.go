package vgm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/haivivi/nanonanoda/pkg/chip"
)

// ErrMalformed is returned by Decode for files it cannot parse.
var ErrMalformed = errors.New("vgm: malformed file")

// File is a decoded VGM file.
type File struct {
	Header   Header
	Commands []Command
	// LoopIndex is the command the loop offset points at, or -1.
	LoopIndex int
	Tag       *Tag
}

// Decode parses a VGM file.
func Decode(data []byte) (*File, error) {
	if len(data) < 0x40 || [4]byte(data[:4]) != ident {
		return nil, fmt.Errorf("%w: missing Vgm ident", ErrMalformed)
	}
	var raw [headerSize]byte
	copy(raw[:], data)
	f := &File{LoopIndex: -1}
	if err := binary.Read(bytes.NewReader(raw[:]), binary.LittleEndian, &f.Header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	h := &f.Header

	start := h.dataStart()
	if start > len(data) {
		return nil, fmt.Errorf("%w: data offset 0x%X past end", ErrMalformed, start)
	}
	// Older headers end where the data starts.
	clear(raw[min(start, headerSize):])
	if err := binary.Read(bytes.NewReader(raw[:]), binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	loopPos := -1
	if h.LoopOffset != 0 {
		loopPos = offsetLoop + int(h.LoopOffset)
	}

	pos := start
	for {
		if pos == loopPos {
			f.LoopIndex = len(f.Commands)
		}
		if pos >= len(data) {
			return nil, fmt.Errorf("%w: stream ends without end command", ErrMalformed)
		}
		op := data[pos]
		switch {
		case op == opEnd:
			f.Commands = append(f.Commands, End{})
			pos++
		case op == opWait:
			if pos+3 > len(data) {
				return nil, fmt.Errorf("%w: truncated wait at 0x%X", ErrMalformed, pos)
			}
			f.Commands = append(f.Commands, Wait{Samples: uint32(binary.LittleEndian.Uint16(data[pos+1:]))})
			pos += 3
		case op == opWait735:
			f.Commands = append(f.Commands, Wait{Samples: 735})
			pos++
		case op == opWait882:
			f.Commands = append(f.Commands, Wait{Samples: 882})
			pos++
		case op >= opWaitShort && op <= opWaitShort+0x0F:
			f.Commands = append(f.Commands, Wait{Samples: uint32(op-opWaitShort) + 1})
			pos++
		default:
			k, slot, port, ok := decodeOpcode(op)
			if !ok {
				return nil, fmt.Errorf("%w: unsupported command 0x%02X at 0x%X", ErrMalformed, op, pos)
			}
			if pos+3 > len(data) {
				return nil, fmt.Errorf("%w: truncated write at 0x%X", ErrMalformed, pos)
			}
			f.Commands = append(f.Commands, Write{
				Kind:  k,
				Slot:  slot,
				Write: chip.Write{Port: port, Addr: data[pos+1], Data: data[pos+2]},
			})
			pos += 3
		}
		if _, end := f.Commands[len(f.Commands)-1].(End); end {
			break
		}
	}
	if loopPos >= 0 && f.LoopIndex < 0 {
		return nil, fmt.Errorf("%w: loop offset 0x%X is not on a command", ErrMalformed, loopPos)
	}

	if h.GD3Offset != 0 {
		at := offsetGD3 + int(h.GD3Offset)
		if at >= len(data) {
			return nil, fmt.Errorf("%w: GD3 offset past end", ErrMalformed)
		}
		tag, err := decodeTag(data[at:])
		if err != nil {
			return nil, err
		}
		f.Tag = tag
	}
	return f, nil
}

// Samples returns the sum of all waits.
func (f *File) Samples() uint64 {
	var n uint64
	for _, c := range f.Commands {
		if w, ok := c.(Wait); ok {
			n += uint64(w.Samples)
		}
	}
	return n
}
