// Package service wires the dashboard's domain components and serves them
// over HTTP.
package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/homeweave/dashboard/internal/adapters/http/api"
	"github.com/homeweave/dashboard/internal/adapters/http/site"
	"github.com/homeweave/dashboard/internal/adapters/http/swagger"
	"github.com/homeweave/dashboard/internal/adapters/repository"
	"github.com/homeweave/dashboard/internal/domain/card"
	"github.com/homeweave/dashboard/internal/domain/fault"
	"github.com/homeweave/dashboard/internal/domain/rpc"
	"github.com/homeweave/dashboard/internal/loader"
	"github.com/homeweave/dashboard/internal/render"
	"github.com/homeweave/dashboard/pkg/logger"
)

// Built-in RPC server names.
const (
	StaticFilesRPC = "static_files"
	StatusCardsRPC = "status_cards"
)

// DefaultAppURL identifies the dashboard itself.
const DefaultAppURL = "https://github.com/HomeWeave/Dashboard.git"

// ErrNotStarted is returned by operations that need a started service.
var ErrNotStarted = errors.New("service not started")

// Service owns the card board, the static store and the RPC registry.
type Service struct {
	mu sync.RWMutex

	appURL     string
	staticRoot string
	redocURL   string
	logger     logger.Logger

	board    *card.Board
	registry *rpc.Registry
	store    repository.Store
	assets   map[string]string

	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAppURL sets the URL the built-in RPC servers register under.
func WithAppURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.appURL = url
		}
	}
}

// WithStaticRoot keeps static files in dir instead of a temporary directory.
func WithStaticRoot(dir string) Option {
	return func(s *Service) { s.staticRoot = dir }
}

// WithRedocURL sets where the API docs page loads ReDoc from.
func WithRedocURL(url string) Option {
	return func(s *Service) { s.redocURL = url }
}

// New constructs a Service. Start must be called before serving.
func New(opts ...Option) *Service {
	s := &Service{
		appURL:   DefaultAppURL,
		logger:   logger.Nop(),
		board:    card.NewBoard(),
		registry: rpc.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the static store, registers the built-in RPC servers and
// publishes the dashboard's own assets.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting dashboard service...")

	store, err := repository.NewFileStore(ctx,
		repository.WithRoot(s.staticRoot),
		repository.WithLogger(s.logger.Named("static")),
	)
	if err != nil {
		return fmt.Errorf("service start: %w", err)
	}

	for _, srv := range []*rpc.Server{s.staticFilesServer(store), s.statusCardsServer()} {
		if err := s.registry.Register(s.appURL, srv); err != nil {
			s.unregisterServers()
			_ = store.Close()
			return fmt.Errorf("service start: %w", err)
		}
	}

	assets, err := site.Publish(ctx, store, s.appURL)
	if err != nil {
		s.unregisterServers()
		_ = store.Close()
		return fmt.Errorf("service start: %w", err)
	}

	s.store = store
	s.assets = assets
	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.String("app_url", s.appURL),
		logger.String("static_root", store.Root()),
		logger.Int("assets", len(assets)),
	)
	return nil
}

// Stop unregisters the built-in RPC servers and closes the static store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping dashboard service...")

	s.unregisterServers()
	err := s.store.Close()
	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
	return err
}

func (s *Service) unregisterServers() {
	s.registry.Unregister(s.appURL, StaticFilesRPC)
	s.registry.Unregister(s.appURL, StatusCardsRPC)
}

// Board returns the published cards.
func (s *Service) Board() *card.Board { return s.board }

// Registry returns the RPC registry apps register their servers in.
func (s *Service) Registry() *rpc.Registry { return s.registry }

// AppURL returns the URL of the dashboard app.
func (s *Service) AppURL() string { return s.appURL }

// Root returns the static store directory, or "" before Start.
func (s *Service) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return ""
	}
	return s.store.Root()
}

// AssetURL returns the served URL of an embedded site asset.
func (s *Service) AssetURL(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, ok := s.assets[name]
	if !ok {
		return "", false
	}
	return "/static/" + rel, true
}

// HTTPServer assembles the dashboard's HTTP modules. The service must be
// started so the page can link its stylesheet.
func (s *Service) HTTPServer(ctx context.Context, serverOpts []api.Option, pageOpts ...api.PageOption) (*api.Server, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	components, err := render.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := components.RegisterDefaults(); err != nil {
		return nil, err
	}

	if href, ok := s.AssetURL(site.Stylesheet); ok {
		pageOpts = append([]api.PageOption{api.WithStylesheet(href)}, pageOpts...)
	}
	pageOpts = append([]api.PageOption{
		api.WithFetcher(s.cardsFetcher()),
		api.WithPageLogger(s.logger.Named("page")),
	}, pageOpts...)

	srv := api.NewServer(append([]api.Option{api.WithLogger(s.logger.Named("http"))}, serverOpts...)...)
	modules := []struct {
		prefix string
		module api.Module
	}{
		{"", api.NewPageModule(components, pageOpts...)},
		{"", api.NewHealthModule()},
		{"/api", api.NewCardsModule(s.board)},
		{"/rpc", api.NewRPCModule(s.registry)},
		{"/static", api.NewStaticModule(s, s.logger.Named("static"))},
	}
	for _, m := range modules {
		if err := srv.Mount(m.prefix, m.module); err != nil {
			return nil, err
		}
	}
	swagger.Register(ctx, srv.Mux(), swagger.WithRedocURL(s.redocURL))
	return srv, nil
}

// cardsFetcher reads the board in process for the default endpoint and
// fetches any other endpoint over HTTP.
func (s *Service) cardsFetcher() loader.Fetcher {
	remote := loader.NewHTTPFetcher()
	return loader.FetcherFunc(func(ctx context.Context, endpoint string) (card.StatusResponse, error) {
		if endpoint == loader.DefaultEndpoint {
			return s.board.Snapshot(ctx), nil
		}
		return remote.Fetch(ctx, endpoint)
	})
}

func (s *Service) staticFilesServer(store repository.Store) *rpc.Server {
	return &rpc.Server{
		Name:        StaticFilesRPC,
		Description: "HTTP Registry",
		APIs: []rpc.API{
			{
				Name:        "register",
				Description: "Register a resource.",
				Params: []rpc.Param{
					{Name: "filename", Description: "File name.", Kind: rpc.KindString},
					{Name: "content", Description: "Base64 content", Kind: rpc.KindString},
				},
				Handler: func(ctx context.Context, args []any) (any, error) {
					caller, err := rpc.CallerFrom(ctx)
					if err != nil {
						return nil, err
					}
					content, err := base64.StdEncoding.DecodeString(args[1].(string))
					if err != nil {
						return nil, fault.BadArguments("content")
					}
					return store.Register(ctx, caller.AppURL, args[0].(string), content)
				},
			},
			{
				Name:        "unregister",
				Description: "Unregister a resource",
				Params: []rpc.Param{
					{Name: "filename", Description: "File name", Kind: rpc.KindString},
				},
				Handler: func(ctx context.Context, args []any) (any, error) {
					caller, err := rpc.CallerFrom(ctx)
					if err != nil {
						return nil, err
					}
					return nil, store.Unregister(ctx, caller.AppURL, args[0].(string))
				},
			},
		},
	}
}

func (s *Service) statusCardsServer() *rpc.Server {
	return &rpc.Server{
		Name:        StatusCardsRPC,
		Description: "Dashboard status cards",
		APIs: []rpc.API{
			{
				Name:        "publish",
				Description: "Publish or replace a card.",
				Params: []rpc.Param{
					{Name: "card_id", Description: "Card id, unique per app.", Kind: rpc.KindString},
					{Name: "card", Description: "Component descriptor", Kind: rpc.KindAny},
				},
				Handler: func(ctx context.Context, args []any) (any, error) {
					caller, err := rpc.CallerFrom(ctx)
					if err != nil {
						return nil, err
					}
					raw, err := json.Marshal(args[1])
					if err != nil {
						return nil, fault.BadArguments("card")
					}
					return nil, s.board.Publish(ctx, caller.AppURL, args[0].(string), raw)
				},
			},
			{
				Name:        "withdraw",
				Description: "Remove a card.",
				Params: []rpc.Param{
					{Name: "card_id", Description: "Card id", Kind: rpc.KindString},
				},
				Handler: func(ctx context.Context, args []any) (any, error) {
					caller, err := rpc.CallerFrom(ctx)
					if err != nil {
						return nil, err
					}
					return nil, s.board.Withdraw(ctx, caller.AppURL, args[0].(string))
				},
			},
			{
				Name:        "list",
				Description: "List published cards.",
				Handler: func(ctx context.Context, _ []any) (any, error) {
					return s.board.Snapshot(ctx), nil
				},
			},
		},
	}
}
