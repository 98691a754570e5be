package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/homeweave/dashboard/internal/domain/fault"
	"github.com/homeweave/dashboard/internal/domain/rpc"
	"github.com/homeweave/dashboard/pkg/metrics"
)

// CallerHeader carries the URL of the app issuing an RPC. Its value is
// trusted as is; there is no token or signature check.
const CallerHeader = "X-Weave-App"

// RPCFinder resolves a registered RPC server.
type RPCFinder interface {
	Find(ctx context.Context, appURL, name string) (*rpc.Server, error)
}

// RPCModule proxies POST <prefix>/ to registered RPC servers.
type RPCModule struct {
	Lifecycle
	JSONEnvelope
	finder RPCFinder
}

// NewRPCModule proxies calls to servers known to finder.
func NewRPCModule(finder RPCFinder) *RPCModule {
	return &RPCModule{finder: finder}
}

// Name implements Module.
func (m *RPCModule) Name() string { return "rpc" }

// Routes implements Module.
func (m *RPCModule) Routes() []Route {
	return []Route{{Method: http.MethodPost, Path: "/{$}", Handler: m.call}}
}

func (m *RPCModule) call(ctx context.Context, req *Request) (any, error) {
	appURL, err := req.RequiredString("app_url")
	if err != nil {
		return nil, err
	}
	rpcName, err := req.RequiredString("rpc_name")
	if err != nil {
		return nil, err
	}
	apiName, err := req.RequiredString("api_name")
	if err != nil {
		return nil, err
	}
	rawArgs, err := req.Required("args")
	if err != nil {
		return nil, err
	}
	args, ok := rawArgs.([]any)
	if !ok {
		return nil, fault.BadArguments("args")
	}

	if caller := strings.TrimSpace(req.Header.Get(CallerHeader)); caller != "" {
		ctx = rpc.WithCaller(ctx, rpc.Caller{AppURL: caller})
	}

	server, err := m.finder.Find(ctx, appURL, rpcName)
	if err != nil {
		metrics.RecordRPCCall(rpcName, apiName, outcome(err))
		return nil, err
	}
	result, err := server.Invoke(ctx, apiName, args)
	metrics.RecordRPCCall(rpcName, apiName, outcome(err))
	return result, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, fault.ErrBadArguments):
		return "bad_arguments"
	case errors.Is(err, fault.ErrObjectNotFound):
		return "not_found"
	default:
		return "error"
	}
}
