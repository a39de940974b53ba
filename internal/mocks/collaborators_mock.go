package mocks

import (
	"context"

	"circuitbot/internal/models"
	"circuitbot/internal/preferences"
	"circuitbot/internal/search"
	"circuitbot/internal/service"

	"github.com/stretchr/testify/mock"
)

// Searcher is a mock type for the search.Searcher type
type Searcher struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query, maxResults
func (_m *Searcher) Search(ctx context.Context, query string, maxResults int) []models.SearchResult {
	ret := _m.Called(ctx, query, maxResults)
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]models.SearchResult)
}

// PreferenceStore is a mock type for the preferences.Store type
type PreferenceStore struct {
	mock.Mock
}

// Leaning provides a mock function with given fields: ctx, userID
func (_m *PreferenceStore) Leaning(ctx context.Context, userID string) models.Leaning {
	ret := _m.Called(ctx, userID)
	return ret.Get(0).(models.Leaning)
}

// RecordChoice provides a mock function with given fields: ctx, userID, style
func (_m *PreferenceStore) RecordChoice(ctx context.Context, userID string, style models.Style) models.StyleCounter {
	ret := _m.Called(ctx, userID, style)
	return ret.Get(0).(models.StyleCounter)
}

// ModelResolver is a mock type for the service.ModelResolver type
type ModelResolver struct {
	mock.Mock
}

// Resolve provides a mock function with given fields: hint
func (_m *ModelResolver) Resolve(hint string) string {
	ret := _m.Called(hint)
	return ret.String(0)
}

var (
	_ search.Searcher       = (*Searcher)(nil)
	_ preferences.Store     = (*PreferenceStore)(nil)
	_ service.ModelResolver = (*ModelResolver)(nil)
)
