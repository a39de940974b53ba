package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Роли сообщений в диалоге.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationTurn - одна реплика диалога, как ее присылает клиент.
type ConversationTurn struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent принимает как строку, так и массив частей {type, text}.
// Нетекстовые части отбрасываются: изображение экрана приходит отдельным полем.
type MessageContent string

// UnmarshalJSON реализует json.Unmarshaler.
func (m *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = MessageContent(s)
		return nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p.Type == "text" || p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		*m = MessageContent(strings.Join(texts, "\n"))
		return nil
	}

	// null, числа и прочее приводим к строковому представлению
	if string(data) == "null" {
		*m = ""
		return nil
	}
	*m = MessageContent(strings.Trim(string(data), `"`))
	return nil
}

// ChatMessage - сообщение, уходящее к провайдеру.
// Непустой ImageURL делает сообщение составным: текст + одно изображение.
type ChatMessage struct {
	Role     string
	Text     string
	ImageURL string
}

// IsMultiPart сообщает, содержит ли сообщение изображение.
func (m ChatMessage) IsMultiPart() bool {
	return m.ImageURL != ""
}

// SearchResult - результат веб-поиска, подмешиваемый в системный промт.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// ChatOptions - контекст запроса чата, собранный из тела запроса.
type ChatOptions struct {
	UserID              string
	ModelHint           string
	ProfileGuide        string
	DeepResearch        bool
	CurrentTime         time.Time
	ScreenImage         string
	ScreenSharingActive bool
	VoiceEnabled        bool
	SelectedVoice       string
	VoiceSpeed          float64
}
