// Package chat orchestrates conversation flow between the session
// store, the modality adapters, and the model gateway.
//
// Invariants:
// - All history writes happen here; adapters are pure transforms.
// - Gateway failures are recorded into history as assistant turns and
//   returned as conversational text, never as errors.
// - The text path sees at most the last 6 turns, vision 3, tabular 4.
//
// Usage:
//
//	orch := chat.New(session.NewStore(), gateway)
//	reply := orch.Respond(ctx, "user-1", "hello")
//	_ = reply
package chat
