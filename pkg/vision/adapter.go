// Package vision turns an image plus trailing conversation context into
// a vision-model completion.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/TuanHung1810/ChatBox-AI/pkg/llm"
	"github.com/TuanHung1810/ChatBox-AI/pkg/session"
)

// DefaultPrompt is used when the caller asks nothing specific.
const DefaultPrompt = "Describe this image in detail and provide a comprehensive analysis of what you see and respond in the same language as the previous conversation"

// historyWindow caps how many prior turns accompany an image request.
const historyWindow = 3

// Adapter builds vision prompts and delegates generation to the
// gateway. It never writes history; the orchestrator records both
// sides of the exchange.
type Adapter struct {
	gateway llm.Completer
}

// New creates a vision adapter.
func New(gateway llm.Completer) *Adapter {
	return &Adapter{gateway: gateway}
}

// Analyze sends the image and question to the vision model together
// with the trailing turns of history.
func (a *Adapter) Analyze(ctx context.Context, history []session.Turn, imageBytes []byte, question string) (string, error) {
	reply, err := a.gateway.Complete(ctx, llm.Request{
		Mode:     llm.ModeVision,
		Messages: BuildMessages(history, imageBytes, question),
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	return reply, nil
}

// BuildMessages assembles the prompt: up to three prior turns as plain
// {role, content} pairs, then one user message carrying the question
// and the image as a data URL. Images from prior turns are not
// re-embedded; only their textual record travels with the request.
func BuildMessages(history []session.Turn, imageBytes []byte, question string) []llm.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	question = strings.TrimSpace(question)
	if question == "" {
		question = DefaultPrompt
	}

	return append(msgs, llm.Message{
		Role:     session.RoleUser,
		Content:  question,
		ImageURL: DataURL(imageBytes),
	})
}

// DataURL encodes image bytes as a JPEG data URL.
func DataURL(imageBytes []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)
}
