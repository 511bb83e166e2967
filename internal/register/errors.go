package register

import "errors"

var (
	// ErrInvalidArgument reports a malformed qubit count, gate or amplitude set.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrOutOfRange reports a qubit index outside [0, n).
	ErrOutOfRange = errors.New("qubit index out of range")
	// ErrResourceExhausted reports an allocation that would not fit in memory.
	ErrResourceExhausted = errors.New("resource exhausted")
)
