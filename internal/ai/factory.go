package ai

import (
	"fmt"
	"strings"

	"circuitbot/internal/config"

	"go.uber.org/zap"
)

// NewClient создает клиента провайдера по AI_CLIENT_TYPE.
func NewClient(cfg *config.Config, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientOpenAI:
		logger.Info("Using AI client implementation", zap.String("type", config.AIClientOpenAI))
		openaiCfg := OpenAIConfig{
			APIKey:   cfg.AIAPIKey,
			BaseURL:  cfg.AIBaseURL,
			OrgID:    cfg.AIOrgID,
			Timeout:  cfg.AITimeout,
			TTSModel: cfg.TTSModel,
		}
		if cfg.AITokenEstimate {
			openaiCfg.Tokens = TiktokenCounter
		}
		return NewOpenAIClient(openaiCfg, logger), nil
	case config.AIClientOllama:
		logger.Info("Using AI client implementation", zap.String("type", config.AIClientOllama))
		client, err := NewOllamaClient(cfg.AIBaseURL, cfg.AITimeout, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown AI client type: '%s'", cfg.AIClientType)
	}
}
