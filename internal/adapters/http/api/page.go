package api

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/homeweave/dashboard/internal/loader"
	"github.com/homeweave/dashboard/internal/render"
	"github.com/homeweave/dashboard/pkg/logger"
)

//go:embed templates/page.gohtml
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "templates/page.gohtml"))

const loadErrorNotice = "Status cards could not be loaded."

type pageData struct {
	Title       string
	Stylesheets []string
	Notice      string
	Cards       template.HTML
}

// PageModule serves the dashboard page. Every request runs the status card
// loader against the cards endpoint and renders the cards server-side.
type PageModule struct {
	Lifecycle
	PlainEnvelope

	components     *render.Registry
	fetcher        loader.Fetcher
	endpoint       string
	selector       string
	timeout        time.Duration
	showLoadErrors bool
	stylesheets    []string
	logger         logger.Logger
}

// PageOption configures a PageModule.
type PageOption func(*PageModule)

// WithFetcher sets the fetcher the loader uses. Without it the page fetches
// over HTTP, which needs an absolute cards endpoint; the request's Host is
// never consulted.
func WithFetcher(f loader.Fetcher) PageOption {
	return func(m *PageModule) { m.fetcher = f }
}

// WithCardsEndpoint sets the URL or path the loader fetches.
func WithCardsEndpoint(endpoint string) PageOption {
	return func(m *PageModule) {
		if endpoint != "" {
			m.endpoint = endpoint
		}
	}
}

// WithContainer sets the container selector cards are mounted into.
func WithContainer(selector string) PageOption {
	return func(m *PageModule) {
		if selector != "" {
			m.selector = selector
		}
	}
}

// WithFetchTimeout bounds the loader fetch.
func WithFetchTimeout(d time.Duration) PageOption {
	return func(m *PageModule) { m.timeout = d }
}

// WithLoadErrors toggles the visible notice on failed loads.
func WithLoadErrors(show bool) PageOption {
	return func(m *PageModule) { m.showLoadErrors = show }
}

// WithStylesheet links a stylesheet from the page.
func WithStylesheet(href string) PageOption {
	return func(m *PageModule) {
		if href != "" {
			m.stylesheets = append(m.stylesheets, href)
		}
	}
}

// WithPageLogger sets the page logger.
func WithPageLogger(l logger.Logger) PageOption {
	return func(m *PageModule) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewPageModule renders cards with the components of reg.
func NewPageModule(reg *render.Registry, opts ...PageOption) *PageModule {
	m := &PageModule{
		components:     reg,
		endpoint:       loader.DefaultEndpoint,
		selector:       loader.DefaultSelector,
		showLoadErrors: true,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fetcher == nil {
		m.fetcher = loader.NewHTTPFetcher()
	}
	return m
}

// Name implements Module.
func (m *PageModule) Name() string { return "page" }

// Routes implements Module.
func (m *PageModule) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/{$}", Raw: http.HandlerFunc(m.serve)}}
}

func (m *PageModule) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc := render.NewDocument(m.selector)
	app := render.NewApplication(m.components, doc, render.WithErrorHandler(render.LogErrors(m.logger)))
	l := loader.New(m.fetcher, app,
		loader.WithEndpoint(m.endpoint),
		loader.WithSelector(m.selector),
		loader.WithTimeout(m.timeout),
		loader.WithLogger(m.logger),
	)

	data := pageData{Title: "Dashboard", Stylesheets: m.stylesheets}
	if _, err := l.Load(ctx); err != nil && l.State() == loader.StatePending && m.showLoadErrors {
		data.Notice = loadErrorNotice
	}
	data.Cards = doc.HTML(m.selector)

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		m.logger.Error(ctx, "page render failed", logger.Error(err))
		writeResponse(w, m.Transform(http.StatusInternalServerError, internalErrorMessage))
		return
	}
	writeResponse(w, Response{Status: http.StatusOK, ContentType: contentTypeHTML, Body: buf.Bytes()})
}

// Start fails when no component is registered.
func (m *PageModule) Start(context.Context) error {
	if m.components == nil || m.components.Len() == 0 {
		return render.ErrUnknownComponent
	}
	return nil
}
