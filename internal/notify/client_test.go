package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/config"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

func TestNotify_PostsMessage(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&config.NotifyConfig{WebhookURL: server.URL, Enabled: true, Username: "Kibo"}, logger.Nop())

	err := client.Notify(context.Background(), Notification{
		Title:     "Interview with Acme",
		Message:   "Starts in 30 minutes",
		EntityRef: "application:42",
	})
	require.NoError(t, err)

	assert.Equal(t, "Kibo", got.Username)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "Interview with Acme", got.Attachments[0].Fallback)
	assert.Equal(t, "Starts in 30 minutes", got.Attachments[0].Text)
	assert.Equal(t, "application:42", got.Attachments[0].Footer)
}

func TestNotify_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(&config.NotifyConfig{WebhookURL: server.URL, Enabled: true}, logger.Nop())

	err := client.Notify(context.Background(), Notification{Title: "x"})
	assert.Error(t, err)
}

func TestNotify_DisabledSkips(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(&config.NotifyConfig{WebhookURL: server.URL, Enabled: false}, logger.Nop())

	assert.NoError(t, client.Notify(context.Background(), Notification{Title: "x"}))
	assert.Equal(t, 0, calls)
	assert.False(t, client.Enabled())
}
