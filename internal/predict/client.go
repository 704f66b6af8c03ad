// Package predict is the HTTP client for the phishing classification
// service's POST /api/predict endpoint.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultBaseURL is where the classification service listens by default.
	DefaultBaseURL = "http://localhost:5000"
	predictPath    = "/api/predict"
	maxResponseLen = 1 << 20 // 1 MiB
)

// ErrEmptyURL is returned by Predict when asked to classify an empty URL.
var ErrEmptyURL = errors.New("predict: url is empty")

// Client talks to the classification service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the service at baseURL. A nil httpClient
// uses a client without a timeout; cancellation is left to the caller's
// context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Endpoint returns the absolute URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.baseURL + predictPath
}

// Predict sends a single classification request for rawURL. The response
// body is decoded regardless of status so that a server-supplied error
// message can be recovered.
func (c *Client) Predict(ctx context.Context, rawURL string) (*Result, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	body, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return nil, fmt.Errorf("predict: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	var result Result
	decodeErr := json.Unmarshal(data, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// An undecodable error body still counts as a server-reported failure.
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: result.Error}
	}
	if decodeErr != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	return &result, nil
}
