package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"circuitbot/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// OllamaClient реализует Client поверх нативного API Ollama.
// Синтез речи Ollama не поддерживает.
type OllamaClient struct {
	client  *api.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewOllamaClient создает клиента Ollama. baseURL допускается с суффиксом /v1.
func NewOllamaClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*OllamaClient, error) {
	// api.NewClient требует URL без суффикса /v1
	ollamaBaseURL := strings.TrimSuffix(baseURL, "/")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/v1")

	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url '%s': %w", ollamaBaseURL, err)
	}

	logger.Info("Ollama client created", zap.String("baseURL", ollamaBaseURL), zap.Duration("timeout", timeout))
	return &OllamaClient{
		client:  api.NewClient(parsedURL, &http.Client{}),
		timeout: timeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

// Complete выполняет чат без стриминга.
func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	log := c.logger.With(zap.String("model", req.Model), zap.String("userID", req.UserID))

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: c.toOllamaMessages(req.Messages),
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)
	aiRequestDuration.With(prometheus.Labels{"operation": opCompletion, "model": req.Model}).Observe(duration.Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			log.Error("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		aiRequestsTotal.With(prometheus.Labels{"operation": opCompletion, "model": req.Model, "status": statusError}).Inc()
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	if resp.PromptEvalCount > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": req.Model, "source": "usage"}).Observe(float64(resp.PromptEvalCount))
		aiCompletionTokens.With(prometheus.Labels{"model": req.Model}).Observe(float64(resp.EvalCount))
	}

	if resp.Message.Content == "" {
		log.Warn("Ollama returned empty completion", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"operation": opCompletion, "model": req.Model, "status": statusEmpty}).Inc()
		return "", nil
	}

	aiRequestsTotal.With(prometheus.Labels{"operation": opCompletion, "model": req.Model, "status": statusSuccess}).Inc()
	log.Info("Ollama completion received", zap.Duration("duration", duration), zap.Int("length", len(resp.Message.Content)))
	return resp.Message.Content, nil
}

// Synthesize всегда возвращает ErrSpeechUnsupported.
func (c *OllamaClient) Synthesize(_ context.Context, _ SpeechRequest) ([]byte, error) {
	return nil, ErrSpeechUnsupported
}

// ListModels возвращает имена локально установленных моделей.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.List(ctx)
	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"operation": opListModels, "model": "", "status": statusError}).Inc()
		return nil, fmt.Errorf("%w: %v", ErrModelListFailed, err)
	}
	aiRequestsTotal.With(prometheus.Labels{"operation": opListModels, "model": "", "status": statusSuccess}).Inc()

	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// toOllamaMessages переводит сообщения в формат Ollama.
// Ollama принимает только сырые байты изображения, поэтому берутся только data URL.
func (c *OllamaClient) toOllamaMessages(messages []models.ChatMessage) []api.Message {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msg := api.Message{Role: m.Role, Content: m.Text}
		if m.IsMultiPart() {
			img, err := decodeDataURL(m.ImageURL)
			if err != nil {
				c.logger.Warn("Skipping image that is not a base64 data url", zap.Error(err))
			} else {
				msg.Images = []api.ImageData{img}
			}
		}
		out = append(out, msg)
	}
	return out
}
