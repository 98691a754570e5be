package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/homeweave/dashboard/internal/domain/card"
)

const maxResponseBytes = 5 << 20

// HTTPFetcher fetches the status response over HTTP GET.
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithBaseURL resolves relative endpoints against base.
func WithBaseURL(base string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.baseURL = strings.TrimSuffix(base, "/")
	}
}

// NewHTTPFetcher creates a fetcher. The default client has no timeout; the
// Loader bounds the call through its context.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{client: &http.Client{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint string) (card.StatusResponse, error) {
	target, err := f.resolve(endpoint)
	if err != nil {
		return card.StatusResponse{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return card.StatusResponse{}, fmt.Errorf("%w: create request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return card.StatusResponse{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return card.StatusResponse{}, fmt.Errorf("%w: %d from %s", ErrStatus, resp.StatusCode, target)
	}

	var out card.StatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return card.StatusResponse{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}

func (f *HTTPFetcher) resolve(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.baseURL == "" {
		return "", fmt.Errorf("relative endpoint %q without base url", endpoint)
	}
	return f.baseURL + "/" + strings.TrimPrefix(u.String(), "/"), nil
}
