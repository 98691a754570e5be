package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/homeweave/dashboard/pkg/logger"
)

const staticIndex = "index.html"

// StaticRoot is the directory static resources are served from.
type StaticRoot interface {
	Root() string
}

// StaticModule serves GET <prefix>/{path...} from the static store.
type StaticModule struct {
	PlainEnvelope
	root   StaticRoot
	logger logger.Logger
}

// NewStaticModule serves files below root.Root().
func NewStaticModule(root StaticRoot, l logger.Logger) *StaticModule {
	if l == nil {
		l = logger.Nop()
	}
	return &StaticModule{root: root, logger: l}
}

// Name implements Module.
func (m *StaticModule) Name() string { return "static" }

// Start logs the served directory and checks it exists.
func (m *StaticModule) Start(ctx context.Context) error {
	dir := m.root.Root()
	m.logger.Info(ctx, "serving static files", logger.String("dir", dir))
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "serve", Path: dir, Err: fs.ErrInvalid}
	}
	return nil
}

// Stop implements Module. The store owns the directory.
func (m *StaticModule) Stop(context.Context) error { return nil }

// Routes implements Module.
func (m *StaticModule) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/{path...}", Raw: http.HandlerFunc(m.serve)}}
}

func (m *StaticModule) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.PathValue("path"), "/")
	if name == "" {
		name = staticIndex
	}

	f, err := http.Dir(m.root.Root()).Open("/" + name)
	if err != nil {
		m.fail(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		m.fail(w, r, err)
		return
	}
	if info.IsDir() {
		m.fail(w, r, fs.ErrNotExist)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (m *StaticModule) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		writeResponse(w, m.Transform(http.StatusNotFound, "Not found: "+r.URL.Path))
		return
	}
	m.logger.Error(r.Context(), "static file failed", logger.String("path", r.URL.Path), logger.Error(err))
	writeResponse(w, m.Transform(http.StatusInternalServerError, internalErrorMessage))
}
