package mocks

import (
	"context"

	"circuitbot/internal/ai"

	"github.com/stretchr/testify/mock"
)

// Completer is a mock type for the ai.Completer type
type Completer struct {
	mock.Mock
}

// Complete provides a mock function with given fields: ctx, req
func (_m *Completer) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, ai.CompletionRequest) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ai.CompletionRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewCompleter creates a new instance of Completer and registers a cleanup to assert expectations.
func NewCompleter(t interface {
	mock.TestingT
	Cleanup(func())
}) *Completer {
	m := &Completer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SpeechSynthesizer is a mock type for the ai.SpeechSynthesizer type
type SpeechSynthesizer struct {
	mock.Mock
}

// Synthesize provides a mock function with given fields: ctx, req
func (_m *SpeechSynthesizer) Synthesize(ctx context.Context, req ai.SpeechRequest) ([]byte, error) {
	ret := _m.Called(ctx, req)

	var r0 []byte
	if rf, ok := ret.Get(0).(func(context.Context, ai.SpeechRequest) []byte); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// NewSpeechSynthesizer creates a new instance of SpeechSynthesizer and registers a cleanup to assert expectations.
func NewSpeechSynthesizer(t interface {
	mock.TestingT
	Cleanup(func())
}) *SpeechSynthesizer {
	m := &SpeechSynthesizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ModelLister is a mock type for the ai.ModelLister type
type ModelLister struct {
	mock.Mock
}

// ListModels provides a mock function with given fields: ctx
func (_m *ModelLister) ListModels(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	return r0, ret.Error(1)
}

var (
	_ ai.Completer         = (*Completer)(nil)
	_ ai.SpeechSynthesizer = (*SpeechSynthesizer)(nil)
	_ ai.ModelLister       = (*ModelLister)(nil)
)
