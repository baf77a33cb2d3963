package discord

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortTextUnsplit(t *testing.T) {
	chunks := Split("hello world", MessageLimit)
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("   ", MessageLimit); chunks != nil {
		t.Errorf("chunks = %v, want nil", chunks)
	}
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	first := strings.Repeat("a", 60)
	second := strings.Repeat("b", 60)
	chunks := Split(first+"\n\n"+second, 100)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != first || chunks[1] != second {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestSplit_FallsBackToLineThenSpace(t *testing.T) {
	text := strings.Repeat("a", 50) + "\n" + strings.Repeat("b", 80)
	chunks := Split(text, 100)
	if len(chunks) != 2 || !strings.HasPrefix(chunks[1], "b") {
		t.Errorf("chunks = %v, want break at newline", chunks)
	}

	words := strings.Repeat("word ", 30) // 150 chars, no newlines
	chunks = Split(strings.TrimSpace(words), 100)
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d chars", i, len(c))
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}
}

func TestSplit_HardCutsUnbreakableRun(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := Split(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d chars, want <= 100", i, len(c))
		}
	}
}

func TestSplit_HardCutKeepsValidUTF8(t *testing.T) {
	// An unbreakable run of multibyte runes; 100 is not a multiple of the
	// 3-byte rune width, so a byte-exact cut would land mid-rune.
	text := strings.Repeat("ありがとう", 20) // 300 bytes, no spaces or newlines
	chunks := Split(text, 100)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want a split", len(chunks))
	}
	var rejoined strings.Builder
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d bytes, want <= 100", i, len(c))
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
		rejoined.WriteString(c)
	}
	if rejoined.String() != text {
		t.Error("chunks do not rejoin to the original text")
	}
}

func TestSplit_EveryChunkWithinDiscordLimit(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	for i, c := range Split(text, MessageLimit) {
		if len(c) > MessageLimit {
			t.Errorf("chunk %d has %d chars", i, len(c))
		}
	}
}
