package repository

import (
	"context"
	"crypto/md5" //nolint:gosec // app ids only, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/homeweave/dashboard/internal/domain/fault"
	"github.com/homeweave/dashboard/pkg/logger"
	"github.com/homeweave/dashboard/pkg/metrics"
)

const appsDir = "apps"

// FileStore implements Store on the local filesystem.
//
// Files of an app live under apps/<pseudo-id>/ where the pseudo id is a
// random UUID minted on first use for md5(appURL). The real app URL never
// shows up in served paths.
type FileStore struct {
	root    string
	ownRoot bool
	newID   func() string
	logger  logger.Logger

	mu        sync.Mutex
	pseudoIDs map[string]string
}

// NewFileStore creates the store, making a temporary root unless WithRoot is given.
func NewFileStore(ctx context.Context, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		newID:     uuid.NewString,
		logger:    logger.Nop(),
		pseudoIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.root == "" {
		dir, err := os.MkdirTemp("", "weave-static-")
		if err != nil {
			return nil, fmt.Errorf("create static root: %w", err)
		}
		s.root = dir
		s.ownRoot = true
	} else if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create static root: %w", err)
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("resolve static root: %w", err)
	}
	s.root = filepath.Clean(root)

	s.logger.Info(ctx, "using base dir for static files", logger.String("root", s.root))
	return s, nil
}

// Root returns the absolute root directory.
func (s *FileStore) Root() string { return s.root }

// Register implements Store.
func (s *FileStore) Register(ctx context.Context, appURL, filename string, content []byte) (string, error) {
	rel, full, appFull, err := s.resolve(appURL, filename)
	if err != nil {
		metrics.RecordStaticFileOperation("register", "rejected")
		return "", err
	}
	if full == appFull {
		metrics.RecordStaticFileOperation("register", "rejected")
		return "", fault.BadArguments(filename)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		metrics.RecordStaticFileOperation("register", "error")
		return "", fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil { //nolint:gosec // served publicly
		metrics.RecordStaticFileOperation("register", "error")
		return "", fmt.Errorf("write %s: %w", rel, err)
	}

	metrics.RecordStaticFileOperation("register", "ok")
	s.logger.Debug(ctx, "registered static resource",
		logger.String("app_url", appURL),
		logger.String("path", rel),
		logger.Int("bytes", len(content)),
	)
	return rel, nil
}

// Unregister implements Store.
func (s *FileStore) Unregister(ctx context.Context, appURL, filename string) error {
	rel, full, _, err := s.resolve(appURL, filename)
	if err != nil {
		metrics.RecordStaticFileOperation("unregister", "rejected")
		return err
	}

	info, err := os.Stat(full)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		metrics.RecordStaticFileOperation("unregister", "missing")
		return nil
	case err != nil:
		metrics.RecordStaticFileOperation("unregister", "error")
		return fmt.Errorf("stat %s: %w", rel, err)
	case info.IsDir():
		err = os.RemoveAll(full)
	default:
		err = os.Remove(full)
	}
	if err != nil {
		metrics.RecordStaticFileOperation("unregister", "error")
		return fmt.Errorf("remove %s: %w", rel, err)
	}

	metrics.RecordStaticFileOperation("unregister", "ok")
	s.logger.Debug(ctx, "unregistered static resource",
		logger.String("app_url", appURL),
		logger.String("path", rel),
	)
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	if !s.ownRoot {
		return nil
	}
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("remove static root: %w", err)
	}
	return nil
}

// resolve maps an app file name to its slash-separated relative path, its
// absolute path and the app's absolute directory. Names escaping the app
// directory are rejected.
func (s *FileStore) resolve(appURL, filename string) (rel, full, appFull string, err error) {
	if strings.TrimSpace(appURL) == "" {
		return "", "", "", fault.BadArguments("app_url")
	}

	appRel := filepath.Join(appsDir, s.pseudoID(appURL))
	rel = filepath.Join(appRel, strings.TrimLeft(filepath.FromSlash(filename), string(filepath.Separator)))
	full = filepath.Join(s.root, rel)

	appFull = filepath.Join(s.root, appRel)
	if full != appFull && !strings.HasPrefix(full, appFull+string(filepath.Separator)) {
		return "", "", "", fault.BadArguments(filename)
	}
	return filepath.ToSlash(rel), full, appFull, nil
}

func (s *FileStore) pseudoID(appURL string) string {
	sum := md5.Sum([]byte(appURL)) //nolint:gosec // see import
	appID := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pseudoIDs[appID]
	if !ok {
		id = s.newID()
		s.pseudoIDs[appID] = id
	}
	return id
}
