package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/smell-of-curry/pokebedrock-gate/pokebedrock/whitelist"
)

// ErrUnauthorized is returned when the server rejects the API key.
var ErrUnauthorized = errors.New("unauthorized: check the API key")

// Client talks to a Server.
type Client struct {
	base string
	key  string
	http *http.Client
}

// NewClient ...
func NewClient(base, key string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

// Add ...
func (c *Client) Add(ctx context.Context, query string) (Response, error) {
	return c.player(ctx, http.MethodPost, query)
}

// Remove ...
func (c *Client) Remove(ctx context.Context, query string) (Response, error) {
	return c.player(ctx, http.MethodDelete, query)
}

// Status ...
func (c *Client) Status(ctx context.Context, query string) (Response, error) {
	return c.player(ctx, http.MethodGet, query)
}

// List ...
func (c *Client) List(ctx context.Context) ([]whitelist.Profile, error) {
	var body PlayerList
	if err := c.do(ctx, http.MethodGet, "/players", nil, &body, http.StatusOK); err != nil {
		return nil, err
	}
	return body.Players, nil
}

// Sweep runs a sweep on the server.
func (c *Client) Sweep(ctx context.Context) (whitelist.Report, error) {
	var report whitelist.Report
	err := c.do(ctx, http.MethodPost, "/sweep", nil, &report, http.StatusOK)
	return report, err
}

// LastSweep returns the report of the last sweep the server ran.
func (c *Client) LastSweep(ctx context.Context) (whitelist.Report, error) {
	var report whitelist.Report
	err := c.do(ctx, http.MethodGet, "/sweep", nil, &report, http.StatusOK)
	return report, err
}

// Enabled ...
func (c *Client) Enabled(ctx context.Context) (bool, error) {
	var body Enabled
	if err := c.do(ctx, http.MethodGet, "/enabled", nil, &body, http.StatusOK); err != nil {
		return false, err
	}
	return body.Enabled != nil && *body.Enabled, nil
}

// SetEnabled ...
func (c *Client) SetEnabled(ctx context.Context, enabled bool) error {
	return c.do(ctx, http.MethodPut, "/enabled", Enabled{Enabled: &enabled}, nil, http.StatusOK)
}

// player sends a single player request. Responses carrying an outcome are
// returned without error whatever their status.
func (c *Client) player(ctx context.Context, method, query string) (Response, error) {
	var res Response
	err := c.do(ctx, method, "/players/"+url.PathEscape(strings.TrimSpace(query)), nil, &res,
		http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable, http.StatusBadRequest)
	if err == nil && res.Outcome == "" {
		err = fmt.Errorf("%s %s: response has no outcome", method, query)
	}
	return res, err
}

// do sends a request and decodes the response into out when its status is
// one of ok.
func (c *Client) do(ctx context.Context, method, path string, in, out any, ok ...int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("authorization", c.key)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if !slices.Contains(ok, resp.StatusCode) {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
