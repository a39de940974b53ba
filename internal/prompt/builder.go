// Package prompt собирает системный промт из упорядоченного списка необязательных блоков.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"circuitbot/internal/models"
)

// Params - состояние, из которого складывается системный промт.
type Params struct {
	ProfileGuide        string
	DeepResearch        bool
	ScreenSharingActive bool
	VoiceEnabled        bool
	Now                 time.Time
	SearchResults       []models.SearchResult
}

// segment - пара (флаг, блок). Выключенные и пустые блоки отбрасываются.
type segment struct {
	on   bool
	text string
}

func (p Params) head(lead string) []segment {
	return []segment{
		{true, lead},
		{true, strings.TrimSpace(p.ProfileGuide)},
		{p.DeepResearch, DeepResearchBlock},
	}
}

func (p Params) contexts() []segment {
	return []segment{
		{p.ScreenSharingActive, ScreenSharingBlock},
		{p.VoiceEnabled, VoiceModeBlock},
		{true, DateLine(p.Now)},
	}
}

func (p Params) search() segment {
	return segment{p.DeepResearch && len(p.SearchResults) > 0, FormatSearchResults(p.SearchResults)}
}

// Single строит промт режима одного ответа с учетом склонности пользователя.
func Single(leaning models.Leaning, p Params) string {
	tail := append(p.contexts(), segment{true, PersonaBlock}, p.search())
	return assemble(p.head(leaningBlock(leaning)), tail)
}

// Variant строит промт одного из A/B вариантов. Промты вариантов отличаются только строкой стиля.
func Variant(style models.Style, p Params) string {
	tail := append(p.contexts(), p.search())
	return assemble(p.head(styleBlock(style)), tail)
}

// assemble склеивает вводные блоки через пробел, а остальные - отдельными абзацами.
func assemble(head, tail []segment) string {
	var b strings.Builder
	b.WriteString(strings.Join(collect(head), " "))
	for _, text := range collect(tail) {
		b.WriteString("\n\n")
		b.WriteString(text)
	}
	return b.String()
}

func collect(segments []segment) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.on && s.text != "" {
			out = append(out, s.text)
		}
	}
	return out
}

// DateLine форматирует строку текущей даты и времени.
func DateLine(now time.Time) string {
	return dateLinePrefix + now.Format(dateLayout)
}

// FormatSearchResults нумерует результаты поиска: `1. "Title": snippet`.
func FormatSearchResults(results []models.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	lines := make([]string, 0, len(results)+1)
	lines = append(lines, SearchResultsHeader)
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. \"%s\": %s", i+1, r.Title, r.Snippet))
	}
	return strings.Join(lines, "\n")
}
