package democards

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel kinds for client failures.
var (
	ErrUnhealthy = errors.New("dashboard unhealthy")
	ErrRPC       = errors.New("rpc failed")
)

const callerHeader = "X-Weave-App"

// Client talks to a dashboard over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	appURL  string
}

// NewClient calls baseURL as the app appURL.
func NewClient(baseURL, appURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		appURL:  appURL,
	}
}

type rpcRequest struct {
	AppURL  string `json:"app_url"`
	RPCName string `json:"rpc_name"`
	APIName string `json:"api_name"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Call invokes rpcName.apiName of the app target.
func (c *Client) Call(ctx context.Context, target, rpcName, apiName string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(rpcRequest{AppURL: target, RPCName: rpcName, APIName: apiName, Args: args})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(callerHeader, c.appURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRPC, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode %s.%s: %w", ErrRPC, rpcName, apiName, err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "ok" {
		return nil, fmt.Errorf("%w: %s.%s: %d %s", ErrRPC, rpcName, apiName, resp.StatusCode, out.Message)
	}
	return out.Data, nil
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// Cards fetches /api/status-cards.
func (c *Client) Cards(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status-cards", http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status cards: status %d", resp.StatusCode)
	}
	var out struct {
		Cards []json.RawMessage `json:"cards"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("status cards: %w", err)
	}
	return out.Cards, nil
}
