package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_HandlerExposesRegisteredMetrics(t *testing.T) {
	RecordRequest("text", "success", 25*time.Millisecond)
	RecordCompletion("vision", 120*time.Millisecond, true)
	RecordUpload("image")
	SetActiveSessions(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.Contains(out, "chat_requests_total"))
	assert.True(t, strings.Contains(out, "llm_completion_errors_total"))
	assert.True(t, strings.Contains(out, "uploads_total"))
	assert.True(t, strings.Contains(out, "active_sessions 3"))
}

func TestMetrics_EnsureRegisteredIsIdempotent(t *testing.T) {
	EnsureRegistered()
	EnsureRegistered()
	RecordRequest("csv", "error", time.Millisecond)
}
