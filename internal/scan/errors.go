package scan

import "errors"

var (
	ErrTooManyMicrostates = errors.New("pool has too many microstates to enumerate")
	ErrTimeout            = errors.New("scan timed out")
	ErrTableMismatch      = errors.New("tables differ")
)
