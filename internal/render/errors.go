package render

import "errors"

// Sentinel errors for rendering.
var (
	ErrUnknownTemplate   = errors.New("unknown template")
	ErrUnknownComponent  = errors.New("unknown component")
	ErrInvalidDescriptor = errors.New("invalid card descriptor")
	ErrUnknownContainer  = errors.New("unknown container")
)
