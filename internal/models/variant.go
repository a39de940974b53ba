package models

// Идентификаторы вариантов A/B.
const (
	VariantA = "A"
	VariantB = "B"
)

// SingleReply - результат режима одного ответа.
type SingleReply struct {
	Text     string
	Model    string
	AudioURL *string
}

// Variant - один из двух кандидатов ответа.
type Variant struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Style    Style   `json:"style"`
	AudioURL *string `json:"audioUrl"`
}

// VariantPair - пара кандидатов, живет только в рамках одного запроса.
type VariantPair struct {
	Model        string
	ResponseTime float64 // секунды, округлены до сотых
	Variants     [2]Variant
	Leaning      Leaning
}
