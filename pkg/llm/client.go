package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/TuanHung1810/ChatBox-AI/internal/metrics"
)

// SystemInstruction is prepended to every completion call.
const SystemInstruction = "You are a helpful assistant. Respond appropriately based on the conversation context."

// Sampling temperature for all calls.
const temperature = 0.5

// Config holds gateway settings.
type Config struct {
	APIKey          string
	BaseURL         string
	TextModel       string
	VisionModel     string
	MaxTokens       int
	VisionMaxTokens int
}

// Client is the gateway to the remote chat-completion provider.
type Client struct {
	client openai.Client
	cfg    Config
}

// NewClient creates a gateway client. BaseURL may point at any
// OpenAI-compatible endpoint.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// Complete sends the message list, with the fixed system instruction
// prepended, to the model selected by req.Mode and returns the first
// choice's text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	model := c.cfg.TextModel
	maxTokens := req.MaxTokens
	if req.Mode == ModeVision {
		model = c.cfg.VisionModel
		if maxTokens == 0 {
			maxTokens = c.cfg.VisionMaxTokens
		}
	}
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	start := time.Now()
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    buildMessages(req.Messages),
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	})
	metrics.RecordCompletion(string(req.Mode), time.Since(start), err != nil)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	log.Debug().
		Str("model", model).
		Int("messages", len(req.Messages)).
		Dur("elapsed", time.Since(start)).
		Msg("Completion received")

	return response.Choices[0].Message.Content, nil
}

// buildMessages converts gateway messages to provider params with the
// system instruction first.
func buildMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(SystemInstruction),
	}

	for _, msg := range msgs {
		switch {
		case msg.ImageURL != "":
			out = append(out, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(msg.Content),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: msg.ImageURL,
				}),
			}))
		case msg.Role == "assistant":
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}

	return out
}
