package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TuanHung1810/ChatBox-AI/pkg/llm"
	"github.com/TuanHung1810/ChatBox-AI/pkg/session"
)

const sampleCSV = "name,age,city\nAlice,30,Hanoi\nBob,25,Saigon\n"

type fakeGateway struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeGateway) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeGateway) last() llm.Request {
	return f.requests[len(f.requests)-1]
}

func newOrchestrator(gw llm.Completer) (*Orchestrator, *session.Store) {
	store := session.NewStore()
	return New(store, gw), store
}

func TestRespond_RecordsBothTurns(t *testing.T) {
	gw := &fakeGateway{reply: "hi there"}
	orch, store := newOrchestrator(gw)

	reply := orch.Respond(context.Background(), "user-1", "hello")
	assert.Equal(t, "hi there", reply)

	hist := store.History("user-1")
	require.Len(t, hist, 2)
	assert.Equal(t, session.RoleUser, hist[0].Role)
	assert.Equal(t, "hello", hist[0].Content)
	assert.Equal(t, session.RoleAssistant, hist[1].Role)
	assert.Equal(t, "hi there", hist[1].Content)
}

func TestRespond_WindowIncludesNewMessage(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	orch, store := newOrchestrator(gw)

	// 20 prior turns, then the 21st request.
	for i := 1; i <= 20; i++ {
		store.Append("user-1", session.Turn{Role: session.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	orch.Respond(context.Background(), "user-1", "turn 21")

	msgs := gw.last().Messages
	require.Len(t, msgs, historyWindow)
	assert.Equal(t, "turn 16", msgs[0].Content)
	assert.Equal(t, "turn 21", msgs[5].Content)
	assert.Equal(t, llm.ModeText, gw.last().Mode)
}

func TestRespond_GatewayFailureBecomesHistory(t *testing.T) {
	gw := &fakeGateway{err: errors.New("provider down")}
	orch, store := newOrchestrator(gw)

	reply := orch.Respond(context.Background(), "user-1", "hello")
	assert.Contains(t, reply, "Sorry, I encountered an error:")
	assert.Contains(t, reply, "provider down")

	hist := store.History("user-1")
	require.Len(t, hist, 2)
	assert.Equal(t, session.RoleAssistant, hist[1].Role)
	assert.Equal(t, reply, hist[1].Content)
}

func TestRespond_ErrorTurnStaysVisibleToNextWindow(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	orch, _ := newOrchestrator(gw)

	errReply := orch.Respond(context.Background(), "user-1", "first")

	gw.err = nil
	gw.reply = "recovered"
	orch.Respond(context.Background(), "user-1", "second")

	msgs := gw.last().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, errReply, msgs[1].Content)
}

func TestAnalyzeImage_RecordsDisplayAndResult(t *testing.T) {
	gw := &fakeGateway{reply: "a sunset"}
	orch, store := newOrchestrator(gw)

	result := orch.AnalyzeImage(context.Background(), "user-1", Upload{
		Data:     []byte("img"),
		Name:     "photo.jpg",
		StoredAs: "abc123_photo.jpg",
	})
	assert.Equal(t, "a sunset", result)

	hist := store.History("user-1")
	require.Len(t, hist, 2)
	assert.Equal(t, "[photo.jpg]", hist[0].Content)
	assert.Equal(t, session.ModalityImage, hist[0].Modality)
	assert.Equal(t, "abc123_photo.jpg", hist[0].SourceRef)
	assert.Equal(t, "a sunset", hist[1].Content)
	assert.Equal(t, session.ModalityNone, hist[1].Modality)
}

func TestAnalyzeImage_CaptionWins(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	orch, store := newOrchestrator(gw)

	orch.AnalyzeImage(context.Background(), "user-1", Upload{
		Data:    []byte("img"),
		Caption: "what breed is this dog?",
		Name:    "dog.png",
	})

	assert.Equal(t, "what breed is this dog?", store.History("user-1")[0].Content)
}

func TestAnalyzeImage_WindowSeesUploadTurn(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	orch, store := newOrchestrator(gw)

	for i := 0; i < 5; i++ {
		store.Append("user-1", session.Turn{Role: session.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	orch.AnalyzeImage(context.Background(), "user-1", Upload{Data: []byte("img"), Name: "x.jpg"})

	// Last 3 turns of the updated history plus the image message.
	msgs := gw.last().Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "turn 3", msgs[0].Content)
	assert.Equal(t, "[x.jpg]", msgs[2].Content)
	assert.NotEmpty(t, msgs[3].ImageURL)
}

func TestAnalyzeImage_FailureRecorded(t *testing.T) {
	gw := &fakeGateway{err: errors.New("vision down")}
	orch, store := newOrchestrator(gw)

	result := orch.AnalyzeImage(context.Background(), "user-1", Upload{Data: []byte("img"), Name: "x.jpg"})
	assert.Contains(t, result, "Error analyzing image:")

	hist := store.History("user-1")
	require.Len(t, hist, 2)
	assert.Equal(t, result, hist[1].Content)
}

func TestAnalyzeTable_RecordsDisplayAndResult(t *testing.T) {
	gw := &fakeGateway{reply: "an overview"}
	orch, store := newOrchestrator(gw)

	result := orch.AnalyzeTable(context.Background(), "user-1", Upload{
		Data:     []byte(sampleCSV),
		Name:     "people.csv",
		StoredAs: "abc123_people.csv",
	})
	assert.Equal(t, "an overview", result)

	hist := store.History("user-1")
	require.Len(t, hist, 2)
	assert.Equal(t, "[people.csv]", hist[0].Content)
	assert.Equal(t, session.ModalityCSV, hist[0].Modality)
}

func TestAnalyzeTable_NoNameFallsBackToPlaceholder(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	orch, store := newOrchestrator(gw)

	orch.AnalyzeTable(context.Background(), "user-1", Upload{Data: []byte(sampleCSV)})
	assert.Equal(t, "[CSV Data]", store.History("user-1")[0].Content)
}

func TestAnalyzeTable_MalformedRecordedAsError(t *testing.T) {
	gw := &fakeGateway{reply: "never"}
	orch, store := newOrchestrator(gw)

	result := orch.AnalyzeTable(context.Background(), "user-1", Upload{
		Data: []byte("a,b\n\"broken"),
		Name: "bad.csv",
	})
	assert.Contains(t, result, "Error analyzing CSV:")

	hist := store.History("user-1")
	require.Len(t, hist, 2)
	assert.Equal(t, result, hist[1].Content)
	// The gateway was never reached.
	assert.Empty(t, gw.requests)
}

func TestUsersNeverObserveEachOther(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	orch, store := newOrchestrator(gw)

	orch.Respond(context.Background(), "alice", "alice secret")
	orch.Respond(context.Background(), "bob", "bob question")

	// Bob's window must contain only bob's turns.
	msgs := gw.last().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob question", msgs[0].Content)

	for _, turn := range store.History("bob") {
		assert.NotContains(t, turn.Content, "alice")
	}
}

func TestClear(t *testing.T) {
	gw := &fakeGateway{reply: "ok"}
	orch, store := newOrchestrator(gw)

	orch.Respond(context.Background(), "user-1", "hello")
	orch.Clear("user-1")

	assert.Empty(t, store.History("user-1"))
	assert.Empty(t, orch.History("user-1"))
}
