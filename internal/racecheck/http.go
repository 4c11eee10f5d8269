package racecheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client wraps http.Client with the service base URL.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a JSON answer into out when out is non-nil.
// Any status other than want is an error carrying the response body.
func (c *client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

func (c *client) create(ctx context.Context, names []string) (View, error) {
	var v View
	err := c.do(ctx, http.MethodPost, "/races", map[string][]string{"names": names}, http.StatusCreated, &v)
	return v, err
}

func (c *client) view(ctx context.Context, id string) (View, error) {
	var v View
	err := c.do(ctx, http.MethodGet, "/races/"+id, nil, http.StatusOK, &v)
	return v, err
}

func (c *client) results(ctx context.Context, id string) (Result, error) {
	var r Result
	err := c.do(ctx, http.MethodGet, "/races/"+id+"/results", nil, http.StatusOK, &r)
	return r, err
}

func (c *client) remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/races/"+id, nil, http.StatusNoContent, nil)
}
