// Package ai описывает внешних провайдеров: чат-комплишн, синтез речи и список моделей.
package ai

import (
	"context"
	"errors"

	"circuitbot/internal/models"
)

var (
	// ErrCompletionFailed - ошибка вызова чат-комплишна у провайдера.
	ErrCompletionFailed = errors.New("ai completion failed")
	// ErrSpeechFailed - ошибка синтеза речи.
	ErrSpeechFailed = errors.New("ai speech synthesis failed")
	// ErrSpeechUnsupported - провайдер не умеет синтезировать речь.
	ErrSpeechUnsupported = errors.New("speech synthesis is not supported by provider")
	// ErrModelListFailed - ошибка получения списка моделей.
	ErrModelListFailed = errors.New("ai model listing failed")
)

// CompletionRequest - параметры одного вызова чат-комплишна.
type CompletionRequest struct {
	Model       string
	Messages    []models.ChatMessage // системный промт уже первым сообщением
	Temperature float32
	MaxTokens   int
	UserID      string // только для логов
}

// SpeechRequest - параметры синтеза речи.
type SpeechRequest struct {
	Voice string
	Input string
	Speed float64
}

// Completer выполняет чат-комплишн. Каждый вызов независим.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// SpeechSynthesizer превращает текст в аудио (mp3).
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// ModelLister возвращает идентификаторы доступных у провайдера моделей.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Client объединяет все возможности провайдера.
type Client interface {
	Completer
	SpeechSynthesizer
	ModelLister
}
