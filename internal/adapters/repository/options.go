package repository

import "github.com/homeweave/dashboard/pkg/logger"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithRoot uses dir as the root instead of a fresh temporary directory.
// A caller-provided root is kept on Close.
func WithRoot(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.root = dir
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator overrides how per-app pseudo ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *FileStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
