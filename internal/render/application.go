package render

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/homeweave/dashboard/pkg/logger"
	"github.com/homeweave/dashboard/pkg/metrics"
)

// ErrorHandler receives every mount failure. It replaces a global
// framework error hook.
type ErrorHandler func(ctx context.Context, err error, card json.RawMessage)

// Application instantiates components into a Document.
type Application struct {
	registry *Registry
	doc      *Document
	onError  ErrorHandler
}

// AppOption configures an Application.
type AppOption func(*Application)

// WithErrorHandler sets the mount failure handler.
func WithErrorHandler(h ErrorHandler) AppOption {
	return func(a *Application) {
		if h != nil {
			a.onError = h
		}
	}
}

// LogErrors returns an ErrorHandler that logs failures with l.
func LogErrors(l logger.Logger) ErrorHandler {
	return func(ctx context.Context, err error, card json.RawMessage) {
		l.Warn(ctx, "card mount failed", logger.Error(err), logger.Int("card_bytes", len(card)))
	}
}

// NewApplication mounts into doc using the components of reg.
func NewApplication(reg *Registry, doc *Document, opts ...AppOption) *Application {
	a := &Application{
		registry: reg,
		doc:      doc,
		onError:  func(context.Context, error, json.RawMessage) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mount renders card and appends it to the container addressed by selector.
func (a *Application) Mount(ctx context.Context, selector string, card json.RawMessage) error {
	html, component, err := a.registry.Render(card)
	if err == nil {
		err = a.doc.Append(selector, html)
	}
	if err != nil {
		if component == "" || errors.Is(err, ErrUnknownComponent) {
			component = "unregistered"
		}
		metrics.RecordCardMountError(component)
		a.onError(ctx, err, card)
		return err
	}
	metrics.RecordCardMounted()
	return nil
}
