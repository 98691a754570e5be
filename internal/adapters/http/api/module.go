package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/homeweave/dashboard/internal/domain/fault"
)

const (
	contentTypeJSON  = "application/json; charset=utf-8"
	contentTypePlain = "text/plain; charset=utf-8"
	contentTypeHTML  = "text/html; charset=utf-8"

	internalErrorMessage = "Error has been logged."
)

// Module contributes routes under a prefix and owns its response envelope.
type Module interface {
	// Name labels the module in logs and metrics.
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Routes() []Route
	// Transform turns a handler result, or an error message for 4xx/5xx,
	// into the bytes written to the client.
	Transform(status int, result any) Response
}

// HandlerFunc serves a decoded request. A returned error is mapped to a
// status code by the server: domain faults become 400, the rest 500.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

// Route is one endpoint of a module. Path is appended to the module prefix.
// Raw handlers bypass decoding and Transform.
type Route struct {
	Method  string
	Path    string
	Handler HandlerFunc
	Raw     http.Handler
}

// Request is the decoded input of a HandlerFunc. POST bodies must be JSON
// objects; GET requests expose the first value of each query parameter.
type Request struct {
	Body   map[string]any
	Query  url.Values
	Header http.Header
}

// Required returns the named argument or BadArguments naming it.
func (r *Request) Required(key string) (any, error) {
	v, ok := r.Body[key]
	if !ok {
		return nil, fault.BadArguments(key)
	}
	return v, nil
}

// RequiredString is Required for string arguments.
func (r *Request) RequiredString(key string) (string, error) {
	v, err := r.Required(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fault.BadArguments(key)
	}
	return s, nil
}

// Response is what a module writes back.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func writeResponse(w http.ResponseWriter, resp Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// Lifecycle is embedded by modules with nothing to start or stop.
type Lifecycle struct{}

// Start implements Module.
func (Lifecycle) Start(context.Context) error { return nil }

// Stop implements Module.
func (Lifecycle) Stop(context.Context) error { return nil }

// PlainEnvelope writes 2xx results as is and errors as text.
type PlainEnvelope struct{}

// Transform implements Module.
func (PlainEnvelope) Transform(status int, result any) Response {
	var body string
	switch status / 100 {
	case 4:
		body = fmt.Sprintf("Client Error %d: %v", status, result)
	case 5:
		body = fmt.Sprintf("Internal Error %d: %v", status, result)
	default:
		if b, ok := result.([]byte); ok {
			return Response{Status: status, ContentType: contentTypePlain, Body: b}
		}
		body = fmt.Sprint(result)
	}
	return Response{Status: status, ContentType: contentTypePlain, Body: []byte(body)}
}

type okEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
}

// JSONEnvelope wraps results as {"status":"ok","data":...} and errors as
// {"status":"error","message":...}.
type JSONEnvelope struct{}

// Transform implements Module.
func (JSONEnvelope) Transform(status int, result any) Response {
	switch status / 100 {
	case 2:
		return jsonResponse(status, okEnvelope{Status: "ok", Data: result})
	case 4, 5:
		return jsonResponse(status, errorEnvelope{Status: "error", Message: result})
	default:
		return jsonResponse(status, result)
	}
}

func jsonResponse(status int, v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorEnvelope{Status: "error", Message: internalErrorMessage})
	}
	return Response{Status: status, ContentType: contentTypeJSON, Body: append(b, '\n')}
}
