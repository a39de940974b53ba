package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter оценивает число токенов текста для модели. -1 - оценка недоступна.
type TokenCounter func(model, text string) int

// TiktokenCounter считает токены локально через tiktoken.
// Неизвестные модели считаются в кодировке cl100k_base.
func TiktokenCounter(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return -1
		}
	}
	return len(enc.Encode(text, nil, nil))
}
