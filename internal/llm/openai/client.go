// Package openai implements the thin client for an OpenAI-compatible
// chat/completions endpoint. Only the streaming path is used by the
// assistant; everything above it treats the client as a fragment source.
package openai

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError represents an HTTP error from the upstream gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
type Client struct {
	// baseURL points to the gateway, with or without the endpoint suffix.
	baseURL string
	// apiKey is sent as a bearer token, if provided.
	apiKey string
	// httpClient executes requests with timeouts.
	httpClient *http.Client
}

// NewClient constructs a client with timeout settings.
func NewClient(baseURL string, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// completionsURL normalizes the base URL to a chat/completions endpoint.
func (c *Client) completionsURL() string {
	if strings.HasSuffix(c.baseURL, "/chat/completions") {
		return c.baseURL
	}
	return c.baseURL + "/chat/completions"
}
