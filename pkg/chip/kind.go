package chip

import (
	"fmt"
	"strings"
)

// Kind identifies a supported chip family. The set is closed: every switch
// over Kind handles exactly OPL3 and OPN.
type Kind int

const (
	// OPL3 is the YMF262.
	OPL3 Kind = iota
	// OPN is the YM2203.
	OPN
)

// Kinds lists every supported kind in canonical order.
var Kinds = []Kind{OPL3, OPN}

// ParseKind parses a chip name. Accepted names are the part numbers
// ("ymf262", "ym2203") and the family names ("opl3", "opn").
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ymf262", "opl3":
		return OPL3, nil
	case "ym2203", "opn":
		return OPN, nil
	}
	return 0, fmt.Errorf("%w: unknown chip %q", ErrInvalidSpec, name)
}

// String returns the part number in lower case.
func (k Kind) String() string {
	switch k {
	case OPL3:
		return "ymf262"
	case OPN:
		return "ym2203"
	}
	return fmt.Sprintf("chip.Kind(%d)", int(k))
}

// Family returns the family name of the chip.
func (k Kind) Family() string {
	switch k {
	case OPL3:
		return "OPL3"
	case OPN:
		return "OPN"
	}
	panic("chip: invalid kind")
}

// Voices returns the maximum number of two-operator voices per instance.
func (k Kind) Voices() int {
	switch k {
	case OPL3:
		return 18
	case OPN:
		return 3
	}
	panic("chip: invalid kind")
}

// FnumBits returns the width of the F-number field.
func (k Kind) FnumBits() int {
	switch k {
	case OPL3:
		return 10
	case OPN:
		return 11
	}
	panic("chip: invalid kind")
}

// BlockBits returns the width of the block field.
func (k Kind) BlockBits() int {
	return 3
}

// TLBits returns the width of the total level field.
func (k Kind) TLBits() int {
	switch k {
	case OPL3:
		return 6
	case OPN:
		return 7
	}
	panic("chip: invalid kind")
}

// MaxFnum returns the largest representable F-number.
func (k Kind) MaxFnum() int { return 1<<k.FnumBits() - 1 }

// MaxBlock returns the largest representable block.
func (k Kind) MaxBlock() int { return 1<<k.BlockBits() - 1 }

// MaxTL returns the largest total level, i.e. the softest setting.
func (k Kind) MaxTL() int { return 1<<k.TLBits() - 1 }

// DBPerStep returns the attenuation of one TL step in decibels.
func (k Kind) DBPerStep() float64 {
	return 0.75
}

// MinDB returns the attenuation reached at MaxTL, as a negative dB value.
func (k Kind) MinDB() float64 {
	return -k.DBPerStep() * float64(k.MaxTL())
}

// DefaultClock returns the master clock in Hz the chip usually runs at.
func (k Kind) DefaultClock() int {
	switch k {
	case OPL3:
		return 14318180
	case OPN:
		return 4000000
	}
	panic("chip: invalid kind")
}

// divisor returns clock / (frequency step at block 0).
func (k Kind) divisor() float64 {
	switch k {
	case OPL3:
		return 288 * (1 << 20)
	case OPN:
		return 72 * (1 << 21)
	}
	panic("chip: invalid kind")
}
