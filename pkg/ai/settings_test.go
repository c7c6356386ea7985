package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaSettings_Defaults(t *testing.T) {
	s := NewOllamaSettings("", "")
	assert.Equal(t, "http://localhost:11434", s.BaseURL())
	assert.Equal(t, "llama3", s.Model())
}

func TestOllamaSettings_Update(t *testing.T) {
	s := NewOllamaSettings("http://ollama:11434", "llama3")

	require.NoError(t, s.Update("https://gpu.internal:11434", ""))
	assert.Equal(t, "https://gpu.internal:11434", s.BaseURL())
	assert.Equal(t, "llama3", s.Model())

	require.NoError(t, s.Update("http://gpu.internal:11434", "mistral"))
	assert.Equal(t, "mistral", s.Model())

	for _, bad := range []string{"", "gpu.internal:11434", "file:///etc/passwd", "http://", "http://u:p@host", "http://host/?x=1"} {
		assert.Error(t, s.Update(bad, "phi3"), bad)
	}
	assert.Equal(t, "http://gpu.internal:11434", s.BaseURL())
	assert.Equal(t, "mistral", s.Model())
}

func TestDynamicConfig_OllamaFollowsSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "phi3", payload["model"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"response": `{"draft":"Noted."}`, "done": true})
	}))
	defer srv.Close()

	settings := NewOllamaSettings("http://127.0.0.1:1", "llama3")
	svc := DynamicConfig{Ollama: settings}.ollama()

	_, err := svc.ComposeReply(context.Background(), "s", "", "ack")
	require.Error(t, err)

	require.NoError(t, settings.Update(srv.URL, "phi3"))
	draft, err := svc.ComposeReply(context.Background(), "s", "", "ack")
	require.NoError(t, err)
	assert.Equal(t, "Noted.", draft)
}
