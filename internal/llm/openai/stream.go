package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DeltaHandler receives each text fragment as it arrives. Returning an
// error stops the stream.
type DeltaHandler func(text string) error

// ChatCompletionsStream executes a streaming chat/completions request and
// feeds assistant text fragments to handler in arrival order. A payload
// line that fails to decode is skipped and the stream continues; context
// cancellation surfaces as ctx.Err so the caller can treat it as an
// interrupt rather than a failure.
func (c *Client) ChatCompletionsStream(ctx context.Context, req *ChatRequest, handler DeltaHandler) error {
	if handler == nil {
		return errors.New("delta handler is required")
	}
	if req == nil {
		return errors.New("chat request is required")
	}

	req.Stream = true
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.completionsURL(),
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("read stream error body: %w", readErr)
		}
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	reader := bufio.NewReader(resp.Body)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data, err := readSSEEvent(reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read stream event: %w", err)
		}
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		var event StreamResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Malformed payloads are dropped; the next event may be fine.
			continue
		}
		for _, choice := range event.Choices {
			if choice.Index != 0 || choice.Delta.Content == "" {
				continue
			}
			if err := handler(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}

// readSSEEvent reads one server-sent event and returns its data payload.
// Multi-line data fields are joined with newlines per the SSE format.
func readSSEEvent(reader *bufio.Reader) (string, error) {
	var fields []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			fields = append(fields, strings.TrimSpace(payload))
		}
		if line != "" && !errors.Is(err, io.EOF) {
			continue
		}
		// A blank line or EOF terminates the event.
		if len(fields) > 0 {
			return strings.Join(fields, "\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
	}
}
