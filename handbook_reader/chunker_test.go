package handbook_reader

import (
	"strings"
	"testing"
)

func TestChunksDropsShortParagraphs(t *testing.T) {
	text := "Short line.\n\nThis paragraph is comfortably longer than fifty characters and therefore kept."
	chunks := Chunks(text, Config{})
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if !strings.Contains(chunks[0], "comfortably longer") {
		t.Errorf("wrong chunk kept: %q", chunks[0])
	}
}

func TestChunksRepacksLongParagraphs(t *testing.T) {
	sentence := "Students are expected to follow every regulation described in this section of the handbook without exception. "
	long := strings.Repeat(sentence, 15)

	chunks := Chunks(long, Config{})
	if len(chunks) < 2 {
		t.Fatalf("expected long paragraph repacked into multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		// One sentence of slack past the cap is allowed.
		if len(c) > 1000+len(sentence) {
			t.Errorf("chunk %d length %d exceeds cap with slack", i, len(c))
		}
	}
}

func TestChunksEmptyInput(t *testing.T) {
	if got := Chunks("", Config{}); len(got) != 0 {
		t.Errorf("chunks = %v, want none", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First full sentence here. Tiny. Second full sentence follows! Third one asks a question?")
	want := 3
	if len(got) != want {
		t.Fatalf("sentences = %d (%q), want %d", len(got), got, want)
	}
}
