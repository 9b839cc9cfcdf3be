// internal/device/errors.go
package device

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a response with the wrong geometry or a non-finite value.
	ErrMalformed = errors.New("malformed response")

	// ErrAddressRange marks an address that is not a valid serial slave id.
	ErrAddressRange = errors.New("address out of range")
)

// Error is a failed device read. A legitimate zero reading is never an Error.
type Error struct {
	Address string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("device %s: %s: %v", e.Address, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
