// Package supabase is the gateway to the hosted backend: GoTrue for
// authentication, PostgREST for table reads and writes, and object storage
// for cover images. Every operation either succeeds or returns a typed
// error whose message is suitable for direct user display. No retries are
// attempted at this layer.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/metrics"
)

type Client struct {
	baseURL   string
	anonKey   string
	http      *http.Client
	collector *metrics.Collector
}

// New creates a gateway client for the backend at baseURL. The anon key is
// sent as the apikey header on every request and doubles as the bearer
// token for unauthenticated calls.
func New(baseURL, anonKey string, collector *metrics.Collector) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", baseURL)
	}

	return &Client{
		baseURL:   baseURL,
		anonKey:   anonKey,
		http:      &http.Client{Timeout: 30 * time.Second},
		collector: collector,
	}, nil
}

// APIError is a failure reported by the backend itself, as opposed to a
// transport failure. Message comes from the backend's error body and is
// meant for the user.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// newAPIError extracts whichever message field the backend used. GoTrue
// responds with error/error_description or code/msg pairs, PostgREST with
// code/message/details.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return apiErr
	}

	if code, ok := fields["code"]; ok {
		apiErr.Code = fmt.Sprintf("%v", code)
	} else if code, ok := fields["error_code"]; ok {
		apiErr.Code = fmt.Sprintf("%v", code)
	}

	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if v, ok := fields[key].(string); ok && v != "" {
			apiErr.Message = v
			break
		}
	}

	return apiErr
}

// do performs one backend round trip. token is the user's access token;
// when empty the anon key is used instead. The response headers are
// returned so callers can read Content-Range on count queries.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, prefer map[string]string, token string, body, out interface{}) (http.Header, error) {
	started := time.Now()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range prefer {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.collector.RecordRequest(op, 0, started, err)
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.collector.RecordRequest(op, resp.StatusCode, started, err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := newAPIError(resp.StatusCode, data)
		c.collector.RecordRequest(op, resp.StatusCode, started, apiErr)
		return resp.Header, apiErr
	}

	c.collector.RecordRequest(op, resp.StatusCode, started, nil)

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.Header, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.Header, nil
}
