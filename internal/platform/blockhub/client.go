// Package blockhub is the REST client for the upstream game API: per-lobby
// occupancy listings and the token price quote.
package blockhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every upstream request. A request that has not
// completed by then is a transient fetch failure, never a hang.
const DefaultTimeout = 5 * time.Second

// Client is the REST client for the game API.
type Client struct {
	baseURL    string
	ratePath   string
	httpClient *http.Client
}

// NewClient creates a game API client rooted at baseURL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL, ratePath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		ratePath: ratePath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchPlayers retrieves the current occupancy of one lobby. endpoint is the
// lobby's relative players path from the catalog.
func (c *Client) FetchPlayers(ctx context.Context, endpoint string) (PlayersResponse, error) {
	body, err := c.doGet(ctx, endpoint)
	if err != nil {
		return PlayersResponse{}, fmt.Errorf("blockhub: fetch players %s: %w", endpoint, err)
	}

	var resp PlayersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return PlayersResponse{}, fmt.Errorf("blockhub: decode players %s: %w", endpoint, err)
	}
	return resp, nil
}

// FetchRate retrieves the current token price quote.
func (c *Client) FetchRate(ctx context.Context) (RateResponse, error) {
	body, err := c.doGet(ctx, c.ratePath)
	if err != nil {
		return RateResponse{}, fmt.Errorf("blockhub: fetch rate: %w", err)
	}

	var resp RateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return RateResponse{}, fmt.Errorf("blockhub: decode rate: %w", err)
	}
	return resp, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
