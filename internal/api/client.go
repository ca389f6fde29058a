package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/vision.safety/internal/alertlog"
	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/httputil"
)

// Client talks to a running safetyd.
type Client struct {
	base string
	http httputil.HTTPClient
}

// NewClient creates a client for the server at base, e.g.
// "http://localhost:8080". A nil c uses http.DefaultClient.
func NewClient(base string, c httputil.HTTPClient) *Client {
	if c == nil {
		c = httputil.NewStandardClient(nil)
	}
	return &Client{base: strings.TrimRight(base, "/"), http: c}
}

// State returns the current snapshot.
func (c *Client) State(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &snap)
	return snap, err
}

// Select switches the engine to screen.
func (c *Client) Select(ctx context.Context, screen engine.Screen) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, http.MethodPost, "/api/screen", selectRequest{Screen: string(screen)}, &snap)
	return snap, err
}

// Back returns the engine to the menu.
func (c *Client) Back(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, http.MethodPost, "/api/back", nil, &snap)
	return snap, err
}

// Alerts returns up to limit recent alerts.
func (c *Client) Alerts(ctx context.Context, limit int) ([]alertlog.Entry, error) {
	var entries []alertlog.Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/alerts?limit=%d", limit), nil, &entries)
	return entries, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxRequestBody))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
