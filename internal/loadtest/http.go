package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps http.Client with the internal key.
type HTTPClient struct {
	client *http.Client
	key    string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration, key string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		key:    key,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(APIKeyHeader, c.key)
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url, requestID string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, c.key)
	req.Header.Set(RequestIDHeader, requestID)
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// send submits one case and records the outcome.
func send(ctx context.Context, client *HTTPClient, url string, c Case) Outcome {
	out := Outcome{Case: c}
	start := time.Now()
	resp, err := client.Post(ctx, url, c.ID, c.Request)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	body, err := readResponseBody(resp)
	out.Latency = time.Since(start)
	out.Status = resp.StatusCode
	if err != nil {
		out.Err = err.Error()
		return out
	}
	if resp.StatusCode == StatusOK {
		if err := json.Unmarshal(body, &out.Response); err != nil {
			out.Err = fmt.Sprintf("decode response: %v", err)
		}
	}
	return out
}
