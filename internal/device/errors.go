package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDuplicateDevice) {
//	    // fix the seed
//	}
var (
	// ErrInvalidDevice is returned when a seed record fails validation.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrDuplicateDevice is returned when two seed records share an ID.
	ErrDuplicateDevice = errors.New("device: duplicate id")
)
