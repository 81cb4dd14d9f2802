package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendPreservesOrder(t *testing.T) {
	store := NewStore()

	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		store.Append("user-1", Turn{Role: role, Content: fmt.Sprintf("message %d", i)})
	}

	hist := store.History("user-1")
	require.Len(t, hist, 10)
	for i, turn := range hist {
		assert.Equal(t, fmt.Sprintf("message %d", i), turn.Content)
	}
}

func TestStore_AppendFillsTimestamp(t *testing.T) {
	store := NewStore()

	turn := store.Append("user-1", Turn{Role: RoleUser, Content: "hello"})
	assert.False(t, turn.Timestamp.IsZero())
}

func TestStore_AppendAllowsEmptyContent(t *testing.T) {
	store := NewStore()

	store.Append("user-1", Turn{Role: RoleUser, Content: ""})
	assert.Len(t, store.History("user-1"), 1)
}

func TestStore_HistoryUnknownUser(t *testing.T) {
	store := NewStore()

	hist := store.History("nobody")
	assert.NotNil(t, hist)
	assert.Empty(t, hist)
}

func TestStore_HistoryReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Append("user-1", Turn{Role: RoleUser, Content: "original"})

	hist := store.History("user-1")
	hist[0].Content = "mutated"

	assert.Equal(t, "original", store.History("user-1")[0].Content)
}

func TestStore_Window(t *testing.T) {
	store := NewStore()
	for i := 0; i < 20; i++ {
		store.Append("user-1", Turn{Role: RoleUser, Content: fmt.Sprintf("message %d", i)})
	}

	tests := []struct {
		name  string
		n     int
		count int
		first string
	}{
		{"smaller than history", 6, 6, "message 14"},
		{"exact size", 20, 20, "message 0"},
		{"larger than history", 50, 20, "message 0"},
		{"single", 1, 1, "message 19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := store.Window("user-1", tt.n)
			require.Len(t, window, tt.count)
			assert.Equal(t, tt.first, window[0].Content)
			assert.Equal(t, "message 19", window[len(window)-1].Content)
		})
	}
}

func TestStore_ClearThenAppendStartsFresh(t *testing.T) {
	store := NewStore()
	store.Append("user-1", Turn{Role: RoleUser, Content: "old"})

	store.Clear("user-1")
	assert.Empty(t, store.History("user-1"))

	store.Append("user-1", Turn{Role: RoleUser, Content: "new"})
	hist := store.History("user-1")
	require.Len(t, hist, 1)
	assert.Equal(t, "new", hist[0].Content)
}

func TestStore_ClearUnknownUserIsNoop(t *testing.T) {
	store := NewStore()
	store.Clear("nobody")
	assert.Equal(t, 0, store.Count())
}

func TestStore_UserIsolation(t *testing.T) {
	store := NewStore()
	store.Append("alice", Turn{Role: RoleUser, Content: "from alice"})
	store.Append("bob", Turn{Role: RoleUser, Content: "from bob"})

	require.Len(t, store.History("alice"), 1)
	assert.Equal(t, "from alice", store.History("alice")[0].Content)
	require.Len(t, store.History("bob"), 1)
	assert.Equal(t, "from bob", store.History("bob")[0].Content)

	store.Clear("alice")
	assert.Empty(t, store.History("alice"))
	assert.Len(t, store.History("bob"), 1)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%2)
			for j := 0; j < 50; j++ {
				store.Append(userID, Turn{Role: RoleUser, Content: "c"})
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.History("user-0"), 250)
	assert.Len(t, store.History("user-1"), 250)
	assert.Equal(t, 2, store.Count())
}
