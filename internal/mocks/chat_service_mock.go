package mocks

import (
	"context"

	"circuitbot/internal/models"
	"circuitbot/internal/service"

	"github.com/stretchr/testify/mock"
)

// ChatService is a mock type for the service.ChatService type
type ChatService struct {
	mock.Mock
}

// CompleteSingle provides a mock function with given fields: ctx, conversation, opts
func (_m *ChatService) CompleteSingle(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) (models.SingleReply, error) {
	ret := _m.Called(ctx, conversation, opts)
	return ret.Get(0).(models.SingleReply), ret.Error(1)
}

// CompleteVariantPair provides a mock function with given fields: ctx, conversation, opts
func (_m *ChatService) CompleteVariantPair(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) (models.VariantPair, error) {
	ret := _m.Called(ctx, conversation, opts)
	return ret.Get(0).(models.VariantPair), ret.Error(1)
}

// CommitVariant provides a mock function with given fields: ctx, choice
func (_m *ChatService) CommitVariant(ctx context.Context, choice models.FeedbackChoice) (models.StyleCounter, error) {
	ret := _m.Called(ctx, choice)
	return ret.Get(0).(models.StyleCounter), ret.Error(1)
}

// PreviewSpeech provides a mock function with given fields: ctx, text, voice, speed
func (_m *ChatService) PreviewSpeech(ctx context.Context, text string, voice string, speed float64) ([]byte, error) {
	ret := _m.Called(ctx, text, voice, speed)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

var _ service.ChatService = (*ChatService)(nil)
