package vgm

import "github.com/haivivi/nanonanoda/pkg/chip"

// Command is an event of a command stream: Write, Wait or End.
type Command interface {
	isCommand()
}

// Write is a register write on one chip instance.
type Write struct {
	Kind chip.Kind
	// Slot is 0 for the first instance of Kind and 1 for the second.
	Slot int
	chip.Write
}

// Wait advances time by Samples at 44100 Hz.
type Wait struct {
	Samples uint32
}

// End terminates the stream.
type End struct{}

func (Write) isCommand() {}
func (Wait) isCommand()  {}
func (End) isCommand()   {}

const (
	opYM2203     = 0x55
	opYMF262Port = 0x5E
	opSecondChip = 0x50
	opWait       = 0x61
	opWait735    = 0x62
	opWait882    = 0x63
	opEnd        = 0x66
	opWaitShort  = 0x70
)

// opcode returns the write opcode for an instance and port.
func opcode(k chip.Kind, slot int, port uint8) byte {
	var op byte
	switch k {
	case chip.OPL3:
		op = opYMF262Port + port
	case chip.OPN:
		op = opYM2203
	}
	if slot == 1 {
		op += opSecondChip
	}
	return op
}

// decodeOpcode is the inverse of opcode.
func decodeOpcode(op byte) (k chip.Kind, slot int, port uint8, ok bool) {
	if op >= 0xA0 {
		op -= opSecondChip
		slot = 1
	}
	switch op {
	case opYM2203:
		return chip.OPN, slot, 0, true
	case opYMF262Port, opYMF262Port + 1:
		return chip.OPL3, slot, op - opYMF262Port, true
	}
	return 0, 0, 0, false
}

// appendWait encodes n samples using the shortest opcodes.
func appendWait(dst []byte, n uint32) []byte {
	for n > 0 {
		chunk := min(n, 0xFFFF)
		switch {
		case chunk == 735:
			dst = append(dst, opWait735)
		case chunk == 882:
			dst = append(dst, opWait882)
		case chunk <= 16:
			dst = append(dst, opWaitShort+byte(chunk-1))
		default:
			dst = append(dst, opWait, byte(chunk), byte(chunk>>8))
		}
		n -= chunk
	}
	return dst
}
