// Package rpc is the in-process RPC registry the dashboard proxies calls to.
//
// Apps register named servers under their app URL. Each server exposes APIs
// with typed positional parameters; Invoke validates arguments before the
// handler runs.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/homeweave/dashboard/internal/domain/fault"
)

// Kind is the accepted type of a parameter.
type Kind int

// Parameter kinds.
const (
	KindAny Kind = iota
	KindString
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "str"
	case KindInt:
		return "int"
	default:
		return "any"
	}
}

// Param describes one positional argument.
type Param struct {
	Name        string
	Description string
	Kind        Kind
}

// HandlerFunc runs an API with validated arguments.
type HandlerFunc func(ctx context.Context, args []any) (any, error)

// API is one callable operation of a Server.
type API struct {
	Name        string
	Description string
	Params      []Param
	Handler     HandlerFunc
}

// Server groups APIs under a name.
type Server struct {
	Name        string
	Description string
	APIs        []API
}

// Invoke validates args against the named API and runs it.
func (s *Server) Invoke(ctx context.Context, apiName string, args []any) (any, error) {
	for i := range s.APIs {
		api := &s.APIs[i]
		if api.Name != apiName {
			continue
		}
		converted, err := convertArgs(api.Params, args)
		if err != nil {
			return nil, err
		}
		return api.Handler(ctx, converted)
	}
	return nil, fault.ObjectNotFound("api " + apiName)
}

func convertArgs(params []Param, args []any) ([]any, error) {
	if len(args) != len(params) {
		return nil, fault.BadArgumentsf("expected %d arguments, got %d", len(params), len(args))
	}
	out := make([]any, len(args))
	for i, p := range params {
		v, err := convert(p, args[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func convert(p Param, v any) (any, error) {
	switch p.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fault.BadArgumentsf("%s must be %s", p.Name, p.Kind)
		}
		return s, nil
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
			if n == math.Trunc(n) && n >= float64(math.MinInt) && n < float64(math.MaxInt) {
				return int(n), nil
			}
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), nil
			}
		}
		return nil, fault.BadArgumentsf("%s must be %s", p.Name, p.Kind)
	default:
		return v, nil
	}
}

type serverKey struct {
	appURL string
	name   string
}

// Registry maps (app URL, server name) to servers.
type Registry struct {
	mu      sync.RWMutex
	servers map[serverKey]*Server
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{servers: make(map[serverKey]*Server)}
}

// Register adds s under appURL. Registering the same name twice fails.
func (r *Registry) Register(appURL string, s *Server) error {
	if strings.TrimSpace(appURL) == "" || s == nil || strings.TrimSpace(s.Name) == "" {
		return fault.BadArguments("app_url and server name are required")
	}
	for _, api := range s.APIs {
		if api.Handler == nil {
			return fault.BadArgumentsf("api %s has no handler", api.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := serverKey{appURL: appURL, name: s.Name}
	if _, ok := r.servers[k]; ok {
		return fmt.Errorf("rpc %s already registered for %s", s.Name, appURL)
	}
	r.servers[k] = s
	return nil
}

// Unregister removes the server; unknown servers are ignored.
func (r *Registry) Unregister(appURL, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, serverKey{appURL: appURL, name: name})
}

// Find returns the server registered as appURL/name.
func (r *Registry) Find(_ context.Context, appURL, name string) (*Server, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.servers[serverKey{appURL: appURL, name: name}]
	if !ok {
		return nil, fault.ObjectNotFound(fmt.Sprintf("rpc %s of %s", name, appURL))
	}
	return s, nil
}

// Caller identifies the app issuing an RPC.
type Caller struct {
	AppURL string
}

type callerKey struct{}

// WithCaller attaches the calling app to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the calling app, or BadArguments when unknown.
func CallerFrom(ctx context.Context) (Caller, error) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || strings.TrimSpace(c.AppURL) == "" {
		return Caller{}, fault.BadArguments("caller app url")
	}
	return c, nil
}
