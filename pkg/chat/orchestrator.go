package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/TuanHung1810/ChatBox-AI/internal/metrics"
	"github.com/TuanHung1810/ChatBox-AI/pkg/llm"
	"github.com/TuanHung1810/ChatBox-AI/pkg/session"
	"github.com/TuanHung1810/ChatBox-AI/pkg/tabular"
	"github.com/TuanHung1810/ChatBox-AI/pkg/vision"
)

// historyWindow caps how many turns the text path sends to the model.
const historyWindow = 6

// Upload carries one uploaded file into the orchestrator.
type Upload struct {
	Data     []byte
	Caption  string
	Name     string // original filename, used for the conversation record
	StoredAs string // reference under the upload directory
}

// Orchestrator owns the session store and routes user input to the
// model gateway, recording both sides of every exchange.
type Orchestrator struct {
	store   *session.Store
	gateway llm.Completer
	vision  *vision.Adapter
	tables  *tabular.Adapter
}

// New creates an orchestrator around the given store and gateway.
func New(store *session.Store, gateway llm.Completer) *Orchestrator {
	return &Orchestrator{
		store:   store,
		gateway: gateway,
		vision:  vision.New(gateway),
		tables:  tabular.New(gateway),
	}
}

// Respond handles a plain text message: the user turn is appended, the
// last turns of the updated history go to the text model, and the reply
// is appended and returned. Gateway failures become part of the
// conversation: the error report is stored as an assistant turn and
// returned like any other reply. Respond never fails.
func (o *Orchestrator) Respond(ctx context.Context, userID, message string) string {
	o.store.Append(userID, session.Turn{Role: session.RoleUser, Content: message})
	metrics.SetActiveSessions(o.store.Count())

	window := o.store.Window(userID, historyWindow)
	msgs := make([]llm.Message, 0, len(window))
	for _, turn := range window {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	reply, err := o.gateway.Complete(ctx, llm.Request{Mode: llm.ModeText, Messages: msgs})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Text completion failed")
		reply = "Sorry, I encountered an error: " + err.Error()
	}

	o.store.Append(userID, session.Turn{Role: session.RoleAssistant, Content: reply})
	return reply
}

// AnalyzeImage records the upload as a user turn, runs the vision
// adapter over the updated history, records the result, and returns it.
// Adapter failures surface as an error string, recorded like any reply.
func (o *Orchestrator) AnalyzeImage(ctx context.Context, userID string, up Upload) string {
	o.store.Append(userID, session.Turn{
		Role:      session.RoleUser,
		Content:   displayText(up, "image"),
		Modality:  session.ModalityImage,
		SourceRef: up.StoredAs,
	})
	metrics.SetActiveSessions(o.store.Count())

	result, err := o.vision.Analyze(ctx, o.store.History(userID), up.Data, up.Caption)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Image analysis failed")
		result = "Error analyzing image: " + err.Error()
	}

	o.store.Append(userID, session.Turn{Role: session.RoleAssistant, Content: result})
	return result
}

// AnalyzeTable is the CSV counterpart of AnalyzeImage.
func (o *Orchestrator) AnalyzeTable(ctx context.Context, userID string, up Upload) string {
	o.store.Append(userID, session.Turn{
		Role:      session.RoleUser,
		Content:   displayText(up, "csv"),
		Modality:  session.ModalityCSV,
		SourceRef: up.StoredAs,
	})
	metrics.SetActiveSessions(o.store.Count())

	result, err := o.tables.Analyze(ctx, o.store.History(userID), up.Data, up.Caption)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("CSV analysis failed")
		result = "Error analyzing CSV: " + err.Error()
	}

	o.store.Append(userID, session.Turn{Role: session.RoleAssistant, Content: result})
	return result
}

// History returns the full recorded conversation for the user.
func (o *Orchestrator) History(userID string) []session.Turn {
	return o.store.History(userID)
}

// Clear deletes the user's conversation.
func (o *Orchestrator) Clear(userID string) {
	o.store.Clear(userID)
	metrics.SetActiveSessions(o.store.Count())
}

func displayText(up Upload, kind string) string {
	if caption := strings.TrimSpace(up.Caption); caption != "" {
		return caption
	}
	if up.Name != "" {
		return "[" + up.Name + "]"
	}
	if kind == "csv" {
		return "[CSV Data]"
	}
	return "[image]"
}
