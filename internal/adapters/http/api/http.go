// Package api assembles the dashboard HTTP server from modules.
//
// Each module contributes routes under a prefix. JSON handlers receive a
// decoded Request and return a result or an error; the server maps errors
// of the domain taxonomy to 400 and anything else to 500, then lets the
// module render the response.
//
// The server does not authenticate callers. The RPC module takes the calling
// app's identity from the X-Weave-App header as sent, so any client that can
// reach the server can act as any app. Expose it only on a trusted network.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/homeweave/dashboard/internal/domain/fault"
	"github.com/homeweave/dashboard/pkg/logger"
)

const defaultMaxBodyBytes = 5 << 20

type mounted struct {
	prefix string
	module Module
}

// Server routes requests to the mounted modules.
type Server struct {
	mu           sync.Mutex
	mux          *http.ServeMux
	modules      []mounted
	patterns     map[string]struct{}
	logger       logger.Logger
	maxBodyBytes int64
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates an empty server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		patterns:     make(map[string]struct{}),
		logger:       logger.Nop(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount registers every route of m under prefix.
func (s *Server) Mount(prefix string, m Module) error {
	prefix = strings.TrimSuffix(prefix, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	routes := m.Routes()
	for _, rt := range routes {
		if _, ok := s.patterns[pattern(prefix, rt)]; ok {
			return WrapKind("api.mount", ErrDuplicateRoute, fmt.Errorf("pattern %q", pattern(prefix, rt)))
		}
	}
	for _, rt := range routes {
		p := pattern(prefix, rt)
		h := rt.Raw
		if h == nil {
			h = s.handleAPI(m, rt)
		}
		s.mux.Handle(p, MetricsMiddleware(h.ServeHTTP, m.Name()))
		s.patterns[p] = struct{}{}
		s.logger.Debug(context.Background(), "route registered",
			logger.String("module", m.Name()),
			logger.String("pattern", p),
		)
	}
	s.modules = append(s.modules, mounted{prefix: prefix, module: m})
	return nil
}

func pattern(prefix string, rt Route) string {
	p := prefix + rt.Path
	if p == "" {
		p = "/"
	}
	if rt.Method == "" {
		return p
	}
	return rt.Method + " " + p
}

// Mux exposes the underlying mux for handlers outside any module.
func (s *Server) Mux() *http.ServeMux { return s.mux }

// Handler returns the HTTP handler serving every mounted module.
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts every module concurrently.
func (s *Server) Start(ctx context.Context) error {
	return s.each(ctx, "start", Module.Start)
}

// Stop stops every module concurrently and reports all failures.
func (s *Server) Stop(ctx context.Context) error {
	return s.each(ctx, "stop", Module.Stop)
}

func (s *Server) each(ctx context.Context, op string, fn func(Module, context.Context) error) error {
	s.mu.Lock()
	modules := append([]mounted(nil), s.modules...)
	s.mu.Unlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, mt := range modules {
		g.Go(func() error {
			if err := fn(mt.module, ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s %s: %w", op, mt.module.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if len(errs) > 0 {
		return WrapKind("api."+op, ErrModule, errors.Join(errs...))
	}
	return nil
}

func (s *Server) handleAPI(m Module, rt Route) http.Handler {
	op := "api." + m.Name()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK

		var result any
		req, err := s.decode(w, r)
		if err == nil {
			result, err = rt.Handler(ctx, req)
		}
		if err != nil {
			status, result = s.failure(ctx, op, err)
		}
		writeResponse(w, m.Transform(status, result))
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*Request, error) {
	req := &Request{Query: r.URL.Query(), Header: r.Header}
	if r.Method != http.MethodPost {
		req.Body = make(map[string]any, len(req.Query))
		for k := range req.Query {
			req.Body[k] = req.Query.Get(k)
		}
		return req, nil
	}

	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req.Body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fault.BadArgumentsf("body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, fault.BadArguments("body must be a JSON object")
	}
	if req.Body == nil {
		return nil, fault.BadArguments("body must be a JSON object")
	}
	return req, nil
}

func (s *Server) failure(ctx context.Context, op string, err error) (int, any) {
	if fe, ok := fault.As(err); ok {
		s.logger.Warn(ctx, "request rejected", logger.String("op", op), logger.Error(err))
		return http.StatusBadRequest, fe.Error()
	}
	s.logger.Error(ctx, "internal server error", logger.String("op", op), logger.Error(err))
	return http.StatusInternalServerError, internalErrorMessage
}
