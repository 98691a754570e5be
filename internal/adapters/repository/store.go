// Package repository stores static resources registered by apps.
package repository

import "context"

// Store keeps per-app static files under a single root directory.
type Store interface {
	// Register writes content at filename inside the app's directory and
	// returns the path relative to Root, using forward slashes.
	Register(ctx context.Context, appURL, filename string, content []byte) (string, error)

	// Unregister removes a file or a whole directory of the app.
	// Missing paths are not an error.
	Unregister(ctx context.Context, appURL, filename string) error

	// Root is the directory served under /static/.
	Root() string

	// Close releases the store; temporary roots are removed.
	Close() error
}
