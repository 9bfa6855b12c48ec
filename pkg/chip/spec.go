package chip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSpec is returned for malformed or out-of-range chip specs.
var ErrInvalidSpec = errors.New("chip: invalid spec")

// Spec configures Count instances of one chip kind, each driving Voices
// voices. Clock is the master clock in Hz; zero selects DefaultClock.
type Spec struct {
	Kind   Kind
	Count  int
	Voices int
	Clock  int
}

// DefaultSpecs returns the stock configuration: one OPL3 with all 18 voices
// and two OPNs with 3 voices each.
func DefaultSpecs() []Spec {
	return []Spec{
		{Kind: OPL3, Count: 1, Voices: OPL3.Voices()},
		{Kind: OPN, Count: 2, Voices: OPN.Voices()},
	}
}

// ParseSpec parses "name[:count[:voices]]". Count defaults to 1 and voices
// to the maximum for the kind.
func ParseSpec(s string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 || parts[0] == "" {
		return Spec{}, fmt.Errorf("%w: %q: want name[:count[:voices]]", ErrInvalidSpec, s)
	}
	kind, err := ParseKind(parts[0])
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Kind: kind, Count: 1, Voices: kind.Voices()}
	if len(parts) > 1 {
		if spec.Count, err = strconv.Atoi(parts[1]); err != nil {
			return Spec{}, fmt.Errorf("%w: %q: bad instance count", ErrInvalidSpec, s)
		}
	}
	if len(parts) > 2 {
		if spec.Voices, err = strconv.Atoi(parts[2]); err != nil {
			return Spec{}, fmt.Errorf("%w: %q: bad voice count", ErrInvalidSpec, s)
		}
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Validate checks the counts against the limits of the kind.
func (s Spec) Validate() error {
	switch s.Kind {
	case OPL3, OPN:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidSpec, int(s.Kind))
	}
	if s.Count < 1 {
		return fmt.Errorf("%w: %s: instance count %d < 1", ErrInvalidSpec, s.Kind, s.Count)
	}
	if s.Voices < 1 || s.Voices > s.Kind.Voices() {
		return fmt.Errorf("%w: %s: voice count %d not in [1, %d]", ErrInvalidSpec, s.Kind, s.Voices, s.Kind.Voices())
	}
	if s.Clock < 0 {
		return fmt.Errorf("%w: %s: negative clock", ErrInvalidSpec, s.Kind)
	}
	return nil
}

// ClockHz returns the effective master clock.
func (s Spec) ClockHz() int {
	if s.Clock > 0 {
		return s.Clock
	}
	return s.Kind.DefaultClock()
}

// String formats s in the form accepted by ParseSpec.
func (s Spec) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Kind, s.Count, s.Voices)
}

// MarshalText implements encoding.TextMarshaler.
func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Spec) UnmarshalText(text []byte) error {
	v, err := ParseSpec(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
