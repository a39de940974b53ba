package ai_test

import (
	"context"
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

// fakeOpenAI поднимает httptest сервер с минимальным OpenAI API.
func fakeOpenAI(t *testing.T, handler http.HandlerFunc) *ai.OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func completionResponse(content string) string {
	resp := map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestOpenAIClient_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Text and image message", func(t *testing.T) {
		var body map[string]interface{}
		client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionResponse("Hi there"))
		})

		text, err := client.Complete(ctx, ai.CompletionRequest{
			Model: "gpt-4o-mini",
			Messages: []models.ChatMessage{
				{Role: models.RoleSystem, Text: "system prompt"},
				{Role: models.RoleUser, Text: "what is on screen?", ImageURL: "data:image/png;base64,AAAA"},
			},
			Temperature: 0.7,
			MaxTokens:   800,
		})
		require.NoError(t, err)
		assert.Equal(t, "Hi there", text)

		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 800, body["max_tokens"])
		assert.InDelta(t, 0.7, body["temperature"], 0.0001)

		messages := body["messages"].([]interface{})
		require.Len(t, messages, 2)
		system := messages[0].(map[string]interface{})
		assert.Equal(t, "system prompt", system["content"])

		user := messages[1].(map[string]interface{})
		parts := user["content"].([]interface{})
		require.Len(t, parts, 2)
		assert.Equal(t, "text", parts[0].(map[string]interface{})["type"])
		image := parts[1].(map[string]interface{})
		assert.Equal(t, "image_url", image["type"])
		imageURL := image["image_url"].(map[string]interface{})
		assert.Equal(t, "data:image/png;base64,AAAA", imageURL["url"])
		assert.Equal(t, "low", imageURL["detail"])
	})

	t.Run("Reasoning model gets max_completion_tokens", func(t *testing.T) {
		var body map[string]interface{}
		client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionResponse("ok"))
		})

		_, err := client.Complete(ctx, ai.CompletionRequest{Model: "o3-mini", Temperature: 0.5, MaxTokens: 2000})
		require.NoError(t, err)
		assert.EqualValues(t, 2000, body["max_completion_tokens"])
		assert.NotContains(t, body, "max_tokens")
		assert.NotContains(t, body, "temperature")
	})

	t.Run("Empty completion is not an error", func(t *testing.T) {
		client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, completionResponse(""))
		})

		text, err := client.Complete(ctx, ai.CompletionRequest{Model: "gpt-4o-mini"})
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("Upstream error", func(t *testing.T) {
		client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
		})

		_, err := client.Complete(ctx, ai.CompletionRequest{Model: "gpt-4o-mini"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ai.ErrCompletionFailed))
	})
}

func TestOpenAIClient_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns audio bytes", func(t *testing.T) {
		var body map[string]interface{}
		client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/audio/speech", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3-fake-mp3"))
		})

		audio, err := client.Synthesize(ctx, ai.SpeechRequest{Voice: "nova", Input: "Hello", Speed: 1.25})
		require.NoError(t, err)
		assert.Equal(t, []byte("ID3-fake-mp3"), audio)
		assert.Equal(t, "tts-1", body["model"])
		assert.Equal(t, "nova", body["voice"])
		assert.Equal(t, "Hello", body["input"])
		assert.InDelta(t, 1.25, body["speed"], 0.0001)
	})

	t.Run("Upstream error", func(t *testing.T) {
		client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"bad voice","type":"invalid_request_error"}}`)
		})

		_, err := client.Synthesize(ctx, ai.SpeechRequest{Voice: "nope", Input: "Hello", Speed: 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ai.ErrSpeechFailed))
	})
}

func TestOpenAIClient_ListModels(t *testing.T) {
	client := fakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"whisper-1","object":"model"}]}`)
	})

	ids, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "whisper-1"}, ids)
}

func TestAudioDataURL(t *testing.T) {
	assert.Equal(t, "data:audio/mpeg;base64,AQID", ai.AudioDataURL([]byte{1, 2, 3}))
}
