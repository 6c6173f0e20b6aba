package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Envelope is the {success, data} wrapper shape every content API endpoint
// returns. It is decoded explicitly per resource; a response that does not
// carry success=true is an error, never trusted silently.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// decodeEnvelope reads, closes, and validates an envelope response.
func decodeEnvelope[T any](resp *http.Response) (T, error) {
	var env Envelope[T]
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		var zero T
		return zero, fmt.Errorf("apiclient: malformed envelope: %w", err)
	}
	if !env.Success {
		var zero T
		if env.Message != "" {
			return zero, fmt.Errorf("apiclient: upstream rejected request: %s", env.Message)
		}
		return zero, fmt.Errorf("apiclient: envelope success=false")
	}
	return env.Data, nil
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeEnvelope[T](resp)
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeEnvelope[T](resp)
}

func put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	resp, err := c.Do(ctx, http.MethodPut, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeEnvelope[T](resp)
}

func del(ctx context.Context, c *Client, path string) error {
	resp, err := c.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
