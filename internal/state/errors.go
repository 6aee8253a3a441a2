package state

import "errors"

// ErrUnsupportedValue is returned when a decoded value is not a number,
// boolean or string.
var ErrUnsupportedValue = errors.New("state: unsupported value type")
