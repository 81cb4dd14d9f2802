// Package session keeps per-user conversation history in process memory.
//
// Invariants:
// - Turns are append-only; insertion order is the only ordering guarantee.
// - Operations for the same user ID are serialized.
// - Histories are unbounded and live until Clear or process exit.
//
// Usage:
//
//	store := session.NewStore()
//	store.Append("user-1", session.Turn{Role: session.RoleUser, Content: "hello"})
//	turns := store.History("user-1")
//	_ = turns
package session
