package loader

import "errors"

// Sentinel kinds for load failures.
var (
	ErrFetch  = errors.New("status cards fetch failed")
	ErrStatus = errors.New("status cards unexpected status")
	ErrDecode = errors.New("status cards decode failed")
	ErrMount  = errors.New("status card mount failed")
)
