package resynth

import "errors"

var (
	ErrInvalidConfiguration = errors.New("resynth: invalid configuration")
	ErrUnsupportedInput     = errors.New("resynth: unsupported input")
	ErrMappingOverflow      = errors.New("resynth: register mapping overflow")
	ErrSerialization        = errors.New("resynth: serialization failed")
)
