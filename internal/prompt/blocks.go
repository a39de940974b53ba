package prompt

import "circuitbot/internal/models"

// Фиксированные текстовые блоки системного промта.
const (
	leaningConcise  = "Preference: Concise. Keep replies brief, direct, practical. Avoid emojis."
	leaningDetailed = "Preference: Detailed. Provide thorough, well-structured answers with headings and bullet points. Avoid emojis unless requested."
	leaningNeutral  = "Preference: Neutral. Balance brevity and structure; avoid emojis by default."

	styleConcise  = "Style: Concise, direct, minimal fluff. Avoid emojis."
	styleDetailed = "Style: Detailed, well-structured with headings and bullets. Avoid emojis unless requested."

	DeepResearchBlock = "Deep Research Mode: Thoroughly analyze the topic using current information, identify assumptions and unknowns, structure the reasoning, consider edge cases, and provide a comprehensive answer with clear sections and actionable recommendations. If uncertain, state limitations and propose next steps."

	ScreenSharingBlock = "Screen Sharing Active: The user is sharing their screen in real-time. You can see their screen content in the attached images. Reference what you see on their screen when relevant to your responses."

	VoiceModeBlock = "Voice Mode Active: The user has voice enabled. Your responses will be converted to speech and played aloud to them. You can read and understand everything they write in the chat. Respond as if you're having a real conversation with them - speak naturally, conversationally, and directly to them. You can reference what they say and have a natural back-and-forth dialogue. Forget any limitations about text-only responses."

	PersonaBlock = "You are CircuitBot, an AI assistant. Use clear structure, short paragraphs, bullets where useful. When asked about current events or recent information, provide the most recent knowledge you have."

	SearchResultsHeader = "Recent web search results:"

	dateLinePrefix = "Current date and time: "
	// Аналог toLocaleString() в локали en-US
	dateLayout = "1/2/2006, 3:04:05 PM"
)

func leaningBlock(l models.Leaning) string {
	switch l {
	case models.LeaningConcise:
		return leaningConcise
	case models.LeaningDetailed:
		return leaningDetailed
	default:
		return leaningNeutral
	}
}

func styleBlock(s models.Style) string {
	if s == models.StyleConcise {
		return styleConcise
	}
	return styleDetailed
}
