// Package preferences хранит счетчики выборов пользователей в A/B сравнениях.
//
// Все реализации поглощают ошибки хранилища: чтение с ошибкой трактуется как
// пустое хранилище, ошибка записи только логируется. Счетчики носят
// рекомендательный характер и не должны ронять запрос.
package preferences

import (
	"context"

	"circuitbot/internal/models"
)

// Store - хранилище счетчиков предпочтений.
type Store interface {
	// Leaning возвращает выведенную склонность пользователя. Неизвестный пользователь - neutral.
	Leaning(ctx context.Context, userID string) models.Leaning
	// RecordChoice увеличивает счетчик выбранного стиля и возвращает обновленные счетчики пользователя.
	RecordChoice(ctx context.Context, userID string, style models.Style) models.StyleCounter
}
