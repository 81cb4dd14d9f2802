package llm

import "context"

// Mode selects which configured model serves a completion.
type Mode string

const (
	ModeText   Mode = "text"
	ModeVision Mode = "vision"
)

// Message is one role-tagged entry in the prompt sent to the provider.
// When ImageURL is set the message is sent as a two-part user message:
// a text part carrying Content and an image part carrying the URL.
type Message struct {
	Role     string
	Content  string
	ImageURL string
}

// Request describes a single completion call. MaxTokens zero means the
// configured default for the selected mode.
type Request struct {
	Mode      Mode
	Messages  []Message
	MaxTokens int
}

// Completer is the generation capability consumed by the orchestrator
// and the modality adapters.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
