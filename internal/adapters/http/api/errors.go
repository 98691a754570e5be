package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrModule         = errors.New("module lifecycle failed")
)

// WrapKind tags err with op and kind so both match errors.Is.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
