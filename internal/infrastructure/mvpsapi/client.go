// Package mvpsapi is the REST client of the pharmacy backend.
package mvpsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/echohealthcare/mvps-pos/internal/metrics"
	"github.com/echohealthcare/mvps-pos/pkg/oauth"
	"golang.org/x/sync/singleflight"
)

// Error is a non-successful backend response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mvps-api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("mvps-api: status %d", e.Status)
}

// BackendMessage returns the message the backend sent, if any.
func (e *Error) BackendMessage() string {
	return e.Message
}

// Client calls the backend with a bearer token. A 401 triggers one token
// refresh and one retry; concurrent refreshes share a single call.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth.TokenProvider
	group   singleflight.Group
}

// NewClient creates a backend client. httpClient may be nil; no timeout is
// applied beyond what the caller's context carries.
func NewClient(baseURL string, tokens oauth.TokenProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}
}

// envelope is the backend's response wrapper. Endpoints that answer with a
// bare object are accepted as well.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// do sends the request and returns the unwrapped data. Absent or null data
// returns nil, nil.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("mvps-api: encode %s %s: %w", method, path, err)
		}
	}

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mvps-api: read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return unwrap(resp.StatusCode, raw)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("mvps-api: token: %w", err)
	}
	resp, err := c.attempt(ctx, method, path, body, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token, err = c.refresh(ctx)
	if err != nil {
		log.Printf("[mvps-api] token refresh failed: %v", err)
		return nil, &Error{Status: http.StatusUnauthorized}
	}
	return c.attempt(ctx, method, path, body, token)
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("mvps-api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mvps-api: %s %s: %w", method, path, err)
	}
	return resp, nil
}

// refresh coalesces concurrent refreshes into one provider call. The shared
// call is not tied to any single caller's context.
func (c *Client) refresh(ctx context.Context) (string, error) {
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		tok, err := c.tokens.Refresh(context.WithoutCancel(ctx))
		if err != nil {
			metrics.TokenRefreshes.WithLabelValues("failed").Inc()
			return "", err
		}
		metrics.TokenRefreshes.WithLabelValues("ok").Inc()
		return tok, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func unwrap(status int, raw []byte) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var env envelope
	if raw[0] != '{' || json.Unmarshal(raw, &env) != nil || (env.Success == nil && env.Data == nil) {
		return raw, nil
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, &Error{Status: status, Message: msg}
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, nil
	}
	return env.Data, nil
}

func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}
