package discord

import (
	"strings"
	"unicode/utf8"
)

// MessageLimit is Discord's hard cap on message length.
const MessageLimit = 2000

// Split cuts text into chunks of at most limit bytes, preferring to break at
// paragraph boundaries, then line breaks, then spaces, and only hard-cutting
// when a single word exceeds the limit. Chunks are always valid UTF-8.
func Split(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := breakPoint(text, limit)
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// breakPoint finds the best position to cut text so the head fits in limit.
// A hard cut backs off to a rune boundary so chunks stay valid UTF-8.
func breakPoint(text string, limit int) int {
	window := text[:limit]

	if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
		return idx
	}
	if idx := strings.LastIndex(window, "\n"); idx > 0 {
		return idx
	}
	if idx := strings.LastIndex(window, " "); idx > 0 {
		return idx
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}
