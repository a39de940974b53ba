package ai_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"circuitbot/internal/ai"
	"circuitbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOllamaClient(t *testing.T) {
	ctx := context.Background()
	png := []byte{0x89, 'P', 'N', 'G'}

	var chatBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/chat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&chatBody))
			_, _ = io.WriteString(w, `{"model":"llava","message":{"role":"assistant","content":"I see a chart"},"done":true,"prompt_eval_count":12,"eval_count":4}`+"\n")
		case "/api/tags":
			_, _ = io.WriteString(w, `{"models":[{"name":"llava:latest","model":"llava:latest"},{"name":"llama3:8b","model":"llama3:8b"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	// Суффикс /v1 отрезается
	client, err := ai.NewOllamaClient(srv.URL+"/v1", 5*time.Second, zap.NewNop())
	require.NoError(t, err)

	t.Run("Complete sends decoded image", func(t *testing.T) {
		text, err := client.Complete(ctx, ai.CompletionRequest{
			Model: "llava",
			Messages: []models.ChatMessage{
				{Role: models.RoleSystem, Text: "system"},
				{Role: models.RoleUser, Text: "describe", ImageURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)},
			},
			Temperature: 0.5,
			MaxTokens:   800,
		})
		require.NoError(t, err)
		assert.Equal(t, "I see a chart", text)

		assert.Equal(t, "llava", chatBody["model"])
		assert.Equal(t, false, chatBody["stream"])
		options := chatBody["options"].(map[string]interface{})
		assert.EqualValues(t, 800, options["num_predict"])
		assert.InDelta(t, 0.5, options["temperature"], 0.0001)

		messages := chatBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		images := messages[1].(map[string]interface{})["images"].([]interface{})
		require.Len(t, images, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(png), images[0])
	})

	t.Run("Remote image url is skipped", func(t *testing.T) {
		_, err := client.Complete(ctx, ai.CompletionRequest{
			Model: "llava",
			Messages: []models.ChatMessage{
				{Role: models.RoleUser, Text: "describe", ImageURL: "https://example.com/a.png"},
			},
		})
		require.NoError(t, err)
		messages := chatBody["messages"].([]interface{})
		assert.NotContains(t, messages[0].(map[string]interface{}), "images")
	})

	t.Run("ListModels", func(t *testing.T) {
		names, err := client.ListModels(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"llava:latest", "llama3:8b"}, names)
	})

	t.Run("Synthesize is unsupported", func(t *testing.T) {
		_, err := client.Synthesize(ctx, ai.SpeechRequest{Voice: "alloy", Input: "hi", Speed: 1})
		assert.True(t, errors.Is(err, ai.ErrSpeechUnsupported))
	})
}

func TestOllamaClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model 'missing' not found"}`)
	}))
	defer srv.Close()

	client, err := ai.NewOllamaClient(srv.URL, time.Second, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), ai.CompletionRequest{Model: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrCompletionFailed))
}
