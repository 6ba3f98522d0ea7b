package core

import (
	"errors"
)

// Device-fatal conditions. Anything wrapping one of these is unrecoverable:
// the renderer cannot continue past a lost device or an unanswered fence.
var (
	ErrDeviceLost   = errors.New("device lost")
	ErrFenceTimeout = errors.New("fence wait timed out")
	ErrOutOfMemory  = errors.New("out of device memory")
	ErrUnknown      = errors.New("unknown")
)
