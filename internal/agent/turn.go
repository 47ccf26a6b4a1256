// Package agent runs one assistant turn: it assembles the conversation,
// drives the streaming client, and feeds every fragment through the
// incremental renderer. The finalized raw text goes to the edit engine;
// this package never interprets tags itself.
package agent

import (
	"context"
	"errors"
	"io"

	"github.com/nanocoder/nanocoder/internal/llm/openai"
	"github.com/nanocoder/nanocoder/internal/stream"
	"github.com/nanocoder/nanocoder/internal/workspace"
)

// Turn executes assistant turns against one client and model.
type Turn struct {
	// Client executes streaming chat requests.
	Client *openai.Client
	// Model is the provider model identifier.
	Model string
	// Out receives rendered streaming output.
	Out io.Writer
}

// BuildMessages composes the request for one turn: the system prompt with
// the current context-file block, the prior history, and the new user
// prompt. Context contents are re-read every turn so edits made by earlier
// batches are visible immediately.
func BuildMessages(root string, contextSet *workspace.ContextSet, history []openai.Message, userText string) []openai.Message {
	system := BuildSystemPrompt(root)
	if contextSet != nil {
		if block := contextSet.Render(); block != "" {
			system += "\n\nContext files:\n" + block
		}
	}

	messages := make([]openai.Message, 0, len(history)+2)
	messages = append(messages, openai.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, openai.Message{Role: "user", Content: userText})
	return messages
}

// Stream runs one streaming request, rendering fragments as they arrive.
// It returns the finalized raw reply and whether the stream was
// interrupted. Cancelling ctx is the interrupt path: the partial reply is
// returned with interrupted set and a nil error. Transport failures
// return whatever accumulated (possibly nothing) alongside the error;
// the caller reports "no content produced" and the session continues.
func (t *Turn) Stream(ctx context.Context, messages []openai.Message) (raw string, interrupted bool, err error) {
	processor := stream.New(t.Out)
	req := &openai.ChatRequest{
		Model:    t.Model,
		Messages: messages,
	}

	streamErr := t.Client.ChatCompletionsStream(ctx, req, func(text string) error {
		processor.Process(text)
		return nil
	})

	if streamErr != nil && (errors.Is(streamErr, context.Canceled) || ctx.Err() != nil) {
		processor.Interrupt()
		raw, _ = processor.Finalize()
		return raw, true, nil
	}

	raw, interrupted = processor.Finalize()
	return raw, interrupted, streamErr
}
