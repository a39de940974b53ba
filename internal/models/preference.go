package models

import "fmt"

// Style - метка стиля ответа, которую учитывают счетчики предпочтений.
type Style string

const (
	StyleConcise  Style = "concise"
	StyleDetailed Style = "detailed"
)

// ParseStyle проверяет, что метка стиля известна.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleConcise, StyleDetailed:
		return Style(s), nil
	default:
		return "", fmt.Errorf("%w: %w: %q", ErrInvalidInput, ErrUnknownStyle, s)
	}
}

// Leaning - выведенный (не хранимый) предпочитаемый стиль пользователя.
type Leaning string

const (
	LeaningConcise  Leaning = "concise"
	LeaningDetailed Leaning = "detailed"
	LeaningNeutral  Leaning = "neutral"
)

// StyleCounter - накопленные выборы пользователя в A/B сравнениях.
type StyleCounter struct {
	Concise  int `json:"concise" db:"concise"`
	Detailed int `json:"detailed" db:"detailed"`
}

// Increment увеличивает счетчик указанного стиля на единицу.
func (c *StyleCounter) Increment(style Style) {
	switch style {
	case StyleConcise:
		c.Concise++
	case StyleDetailed:
		c.Detailed++
	}
}

// Leaning возвращает склонность пользователя.
// При равенстве счетчиков побеждает "detailed".
func (c StyleCounter) Leaning() Leaning {
	if c.Concise == 0 && c.Detailed == 0 {
		return LeaningNeutral
	}
	if c.Detailed >= c.Concise {
		return LeaningDetailed
	}
	return LeaningConcise
}

// FeedbackChoice - выбор пользователя между вариантами A и B.
type FeedbackChoice struct {
	UserID string            `json:"userId"`
	Choice string            `json:"choice"`
	Styles map[string]string `json:"styles"`
}
