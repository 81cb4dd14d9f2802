package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Conversation roles recorded in history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Modality tags the kind of input that produced a turn.
type Modality string

const (
	ModalityNone  Modality = ""
	ModalityImage Modality = "image"
	ModalityCSV   Modality = "csv"
)

// Turn is a single recorded conversation message. Turns are immutable
// once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Modality  Modality  `json:"file_type,omitempty"`
	SourceRef string    `json:"filename,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store maps user IDs to their conversation history. Sessions are
// created lazily on first reference and are never shared across user
// IDs. There is no size cap and no eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
}

type state struct {
	mu    sync.Mutex
	turns []Turn
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

func (s *Store) getOrCreate(userID string) *state {
	s.mu.RLock()
	st, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[userID]; ok {
		return st
	}
	st = &state{}
	s.sessions[userID] = st
	log.Debug().Str("user_id", userID).Msg("Session created")
	return st
}

// GetOrCreate ensures a session exists for userID. Idempotent.
func (s *Store) GetOrCreate(userID string) {
	s.getOrCreate(userID)
}

// Append records a turn at the end of the user's history and returns
// it with the timestamp filled in. The session is created when absent.
// Empty content is allowed.
func (s *Store) Append(userID string, turn Turn) Turn {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	st := s.getOrCreate(userID)
	st.mu.Lock()
	st.turns = append(st.turns, turn)
	st.mu.Unlock()

	log.Debug().
		Str("user_id", userID).
		Str("role", turn.Role).
		Msg("Turn appended")

	return turn
}

// History returns a copy of the full history in insertion order, or an
// empty slice when the session does not exist.
func (s *Store) History(userID string) []Turn {
	s.mu.RLock()
	st, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Turn, len(st.turns))
	copy(out, st.turns)
	return out
}

// Window returns copies of the last n turns in chronological order.
// Turns outside the window stay stored; they are just not returned.
func (s *Store) Window(userID string, n int) []Turn {
	hist := s.History(userID)
	if n < len(hist) {
		hist = hist[len(hist)-n:]
	}
	return hist
}

// Clear deletes the user's session entirely. No-op when the session
// does not exist; a subsequent Append starts a fresh history.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		log.Debug().Str("user_id", userID).Msg("Session cleared")
	}
}

// Count reports the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
