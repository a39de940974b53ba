package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"circuitbot/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIConfig - параметры OpenAI-совместимого провайдера.
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	OrgID    string
	Timeout  time.Duration
	TTSModel string
	// nil - локальная оценка токенов отключена
	Tokens TokenCounter
}

// OpenAIClient реализует Client поверх go-openai.
type OpenAIClient struct {
	client   *openaigo.Client
	ttsModel string
	tokens   TokenCounter
	logger   *zap.Logger
}

// NewOpenAIClient создает клиента OpenAI.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	openaiConfig.OrgID = cfg.OrgID
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	ttsModel := cfg.TTSModel
	if ttsModel == "" {
		ttsModel = string(openaigo.TTSModel1)
	}

	logger.Info("OpenAI client created",
		zap.String("baseURL", openaiConfig.BaseURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("ttsModel", ttsModel),
		zap.Bool("tokenEstimate", cfg.Tokens != nil),
	)

	return &OpenAIClient{
		client:   openaigo.NewClientWithConfig(openaiConfig),
		ttsModel: ttsModel,
		tokens:   cfg.Tokens,
		logger:   logger.Named("OpenAIClient"),
	}
}

// Complete выполняет один чат-комплишн. Пустой ответ модели не считается ошибкой:
// возвращается пустая строка, подстановку делает вызывающий код.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	log := c.logger.With(zap.String("model", req.Model), zap.String("userID", req.UserID))

	messages := toOpenAIMessages(req.Messages)
	if c.tokens != nil {
		if estimate := c.estimatePromptTokens(req.Model, req.Messages); estimate >= 0 {
			aiPromptTokens.With(prometheus.Labels{"model": req.Model, "source": "estimate"}).Observe(float64(estimate))
			log.Debug("Prompt token estimate", zap.Int("tokens", estimate))
		}
	}

	startTime := time.Now()
	log.Debug("Sending completion request",
		zap.Int("messages", len(messages)),
		zap.Float32("temperature", req.Temperature),
		zap.Int("maxTokens", req.MaxTokens),
	)

	resp, err := c.client.CreateChatCompletion(ctx, buildChatRequest(req.Model, messages, req.Temperature, req.MaxTokens))
	duration := time.Since(startTime)
	aiRequestDuration.With(prometheus.Labels{"operation": opCompletion, "model": req.Model}).Observe(duration.Seconds())

	if err != nil {
		log.Error("Completion request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"operation": opCompletion, "model": req.Model, "status": statusError}).Inc()
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	if resp.Usage.TotalTokens > 0 {
		aiPromptTokens.With(prometheus.Labels{"model": req.Model, "source": "usage"}).Observe(float64(resp.Usage.PromptTokens))
		aiCompletionTokens.With(prometheus.Labels{"model": req.Model}).Observe(float64(resp.Usage.CompletionTokens))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Warn("Provider returned empty completion", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"operation": opCompletion, "model": req.Model, "status": statusEmpty}).Inc()
		return "", nil
	}

	aiRequestsTotal.With(prometheus.Labels{"operation": opCompletion, "model": req.Model, "status": statusSuccess}).Inc()
	text := resp.Choices[0].Message.Content
	log.Info("Completion received",
		zap.Duration("duration", duration),
		zap.Int("length", len(text)),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}

// Synthesize озвучивает текст и возвращает mp3.
func (c *OpenAIClient) Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error) {
	startTime := time.Now()
	resp, err := c.client.CreateSpeech(ctx, openaigo.CreateSpeechRequest{
		Model:          openaigo.SpeechModel(c.ttsModel),
		Input:          req.Input,
		Voice:          openaigo.SpeechVoice(req.Voice),
		ResponseFormat: openaigo.SpeechResponseFormatMp3,
		Speed:          req.Speed,
	})
	if err != nil {
		c.logger.Warn("Speech synthesis failed", zap.String("voice", req.Voice), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"operation": opSpeech, "model": c.ttsModel, "status": statusError}).Inc()
		return nil, fmt.Errorf("%w: %v", ErrSpeechFailed, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"operation": opSpeech, "model": c.ttsModel, "status": statusError}).Inc()
		return nil, fmt.Errorf("%w: read audio: %v", ErrSpeechFailed, err)
	}

	duration := time.Since(startTime)
	aiRequestsTotal.With(prometheus.Labels{"operation": opSpeech, "model": c.ttsModel, "status": statusSuccess}).Inc()
	aiRequestDuration.With(prometheus.Labels{"operation": opSpeech, "model": c.ttsModel}).Observe(duration.Seconds())
	c.logger.Debug("Speech synthesized", zap.String("voice", req.Voice), zap.Int("bytes", len(audio)), zap.Duration("duration", duration))
	return audio, nil
}

// ListModels возвращает id всех моделей аккаунта.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"operation": opListModels, "model": "", "status": statusError}).Inc()
		return nil, fmt.Errorf("%w: %v", ErrModelListFailed, err)
	}
	aiRequestsTotal.With(prometheus.Labels{"operation": opListModels, "model": "", "status": statusSuccess}).Inc()

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// buildChatRequest собирает запрос. o-серия не принимает max_tokens и температуру != 1,
// для нее лимит уходит в max_completion_tokens, а температура не передается.
func buildChatRequest(model string, messages []openaigo.ChatCompletionMessage, temperature float32, maxTokens int) openaigo.ChatCompletionRequest {
	req := openaigo.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
		return req
	}
	req.Temperature = temperature
	req.MaxTokens = maxTokens
	return req
}

func isReasoningModel(model string) bool {
	return len(model) > 1 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9'
}

func (c *OpenAIClient) estimatePromptTokens(model string, messages []models.ChatMessage) int {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	return c.tokens(model, sb.String())
}

// toOpenAIMessages переводит сообщения в формат go-openai.
// Сообщение с картинкой уходит как multi-part: текст + изображение низкой детализации.
func toOpenAIMessages(messages []models.ChatMessage) []openaigo.ChatCompletionMessage {
	out := make([]openaigo.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if !m.IsMultiPart() {
			out = append(out, openaigo.ChatCompletionMessage{Role: m.Role, Content: m.Text})
			continue
		}
		parts := make([]openaigo.ChatMessagePart, 0, 2)
		if m.Text != "" {
			parts = append(parts, openaigo.ChatMessagePart{
				Type: openaigo.ChatMessagePartTypeText,
				Text: m.Text,
			})
		}
		parts = append(parts, openaigo.ChatMessagePart{
			Type: openaigo.ChatMessagePartTypeImageURL,
			ImageURL: &openaigo.ChatMessageImageURL{
				URL:    m.ImageURL,
				Detail: openaigo.ImageURLDetailLow,
			},
		})
		out = append(out, openaigo.ChatCompletionMessage{Role: m.Role, MultiContent: parts})
	}
	return out
}
