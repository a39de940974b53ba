package service

import (
	"circuitbot/internal/models"
)

// buildMessages ставит системный промт первым и переводит реплики в сообщения провайдера.
// Снимок экрана прикрепляется только к последней реплике и только если она от пользователя.
func buildMessages(system string, conversation []models.ConversationTurn, screenImage string) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(conversation)+1)
	out = append(out, models.ChatMessage{Role: models.RoleSystem, Text: system})
	last := len(conversation) - 1
	for i, turn := range conversation {
		msg := models.ChatMessage{Role: turn.Role, Text: string(turn.Content)}
		if msg.Role == "" {
			msg.Role = models.RoleUser
		}
		if i == last && msg.Role == models.RoleUser && screenImage != "" {
			msg.ImageURL = screenImage
		}
		out = append(out, msg)
	}
	return out
}

// lastUserText возвращает текст самой поздней реплики пользователя.
func lastUserText(conversation []models.ConversationTurn) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		role := conversation[i].Role
		if role == "" || role == models.RoleUser {
			return string(conversation[i].Content)
		}
	}
	return ""
}
