package handler

import (
	"strings"
	"time"

	"circuitbot/internal/models"
)

const anonymousUserID = "anon"

// chatRequest - тело /chat и /chat-ab.
type chatRequest struct {
	Messages            []models.ConversationTurn `json:"messages"`
	Model               string                    `json:"model"`
	UserID              string                    `json:"userId"`
	ProfileGuide        string                    `json:"profileGuide"`
	DeepResearch        bool                      `json:"deepResearch"`
	CurrentDateTime     string                    `json:"currentDateTime"`
	ScreenImages        []string                  `json:"screenImages"`
	ScreenSharingActive bool                      `json:"screenSharingActive"`
	VoiceEnabled        bool                      `json:"voiceEnabled"`
	SelectedVoice       string                    `json:"selectedVoice"`
	VoiceSpeed          float64                   `json:"voiceSpeed"`
}

func (r chatRequest) userID() string {
	if id := strings.TrimSpace(r.UserID); id != "" {
		return id
	}
	return anonymousUserID
}

// options переводит тело запроса в параметры диспетчера.
// Из снимков экрана берется только последний.
func (r chatRequest) options() models.ChatOptions {
	opts := models.ChatOptions{
		UserID:              r.userID(),
		ModelHint:           strings.TrimSpace(r.Model),
		ProfileGuide:        r.ProfileGuide,
		DeepResearch:        r.DeepResearch,
		CurrentTime:         parseClientTime(r.CurrentDateTime),
		ScreenSharingActive: r.ScreenSharingActive,
		VoiceEnabled:        r.VoiceEnabled,
		SelectedVoice:       r.SelectedVoice,
		VoiceSpeed:          r.VoiceSpeed,
	}
	if n := len(r.ScreenImages); n > 0 {
		opts.ScreenImage = r.ScreenImages[n-1]
	}
	return opts
}

// parseClientTime разбирает ISO время клиента. Пустое или битое значение - нулевое время,
// диспетчер тогда берет серверное.
func parseClientTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

// chatResponse - ответ /chat.
type chatResponse struct {
	Reply    string  `json:"reply"`
	Model    string  `json:"model"`
	AudioURL *string `json:"audioUrl"`
}

// chatABResponse - ответ /chat-ab. responseTime - строка с двумя знаками после запятой.
type chatABResponse struct {
	Model        string           `json:"model"`
	ResponseTime string           `json:"responseTime"`
	Variants     []models.Variant `json:"variants"`
	Leaning      models.Leaning   `json:"leaning"`
}

// choiceRequest - тело /ab/choice.
type choiceRequest struct {
	UserID string            `json:"userId"`
	Choice string            `json:"choice"`
	Styles map[string]string `json:"styles"`
}

type choiceResponse struct {
	OK    bool                `json:"ok"`
	Prefs models.StyleCounter `json:"prefs"`
}

// modelsResponse - ответ /models. error = null, если последнее обновление успешно.
type modelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
	Error   *string  `json:"error"`
}

type ttsPreviewRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

type screenUpdateRequest struct {
	ScreenImages        []string `json:"screenImages"`
	ScreenSharingActive bool     `json:"screenSharingActive"`
}

type screenUpdateResponse struct {
	OK            bool `json:"ok"`
	FrameReceived bool `json:"frameReceived"`
}
