// Package site holds the dashboard's own static assets.
//
// The assets are embedded and published into the static store at startup,
// the same way any app registers its resources.
package site

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

// Stylesheet is the asset path of the page stylesheet.
const Stylesheet = "css/dashboard.css"

// Error constants.
var (
	ErrPublish = errors.New("site publish failed")
)

//go:embed static
var staticFS embed.FS

// FS returns the embedded assets rooted at static/.
func FS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return staticFS
	}
	return sub
}

// Publisher stores a file for an app and returns its relative path.
type Publisher interface {
	Register(ctx context.Context, appURL, filename string, content []byte) (string, error)
}

// Publish registers every embedded asset under appURL and returns the
// relative path of each, keyed by asset path.
func Publish(ctx context.Context, p Publisher, appURL string) (map[string]string, error) {
	if p == nil {
		panic("publisher is nil")
	}
	assets := FS()
	out := make(map[string]string)
	err := fs.WalkDir(assets, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := fs.ReadFile(assets, name)
		if err != nil {
			return err
		}
		rel, err := p.Register(ctx, appURL, name, content)
		if err != nil {
			return err
		}
		out[name] = rel
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return out, nil
}
