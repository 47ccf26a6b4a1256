package openai

// ChatRequest matches the OpenAI-compatible chat/completions request.
type ChatRequest struct {
	// Model is the provider model identifier.
	Model string `json:"model"`
	// Messages is the ordered conversation history.
	Messages []Message `json:"messages"`
	// Stream toggles server-sent events in the response.
	Stream bool `json:"stream,omitempty"`
	// Temperature controls randomness, if supported by the backend.
	Temperature *float64 `json:"temperature,omitempty"`
	// MaxTokens limits the model output, if supported by the backend.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	// Role is one of system, user, or assistant.
	Role string `json:"role"`
	// Content carries the message text.
	Content string `json:"content"`
}

// StreamResponse is one SSE event payload from a streaming request.
type StreamResponse struct {
	// ID identifies the upstream request.
	ID string `json:"id"`
	// Model echoes the serving model.
	Model string `json:"model"`
	// Choices carries the delta content.
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice is one choice entry in a streaming event.
type StreamChoice struct {
	// Index is the choice index; only index zero is rendered.
	Index int `json:"index"`
	// Delta holds the incremental message fields.
	Delta StreamDelta `json:"delta"`
	// FinishReason is set on the final event for the choice.
	FinishReason string `json:"finish_reason"`
}

// StreamDelta is the incremental content of a streamed message.
type StreamDelta struct {
	// Role is present on the first event of a message.
	Role string `json:"role"`
	// Content is the text fragment to append.
	Content string `json:"content"`
}
