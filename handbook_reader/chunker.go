package handbook_reader

import (
	"regexp"
	"strings"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// splitSentences breaks text at sentence punctuation, dropping fragments of
// ten characters or fewer.
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) > 10 {
			out = append(out, p)
		}
	}
	return out
}

// Chunks splits normalized handbook text into scoring units. Paragraphs are
// the natural unit; those under MinChunkLength are noise and dropped, those
// over MaxChunkSize are repacked at sentence boundaries so no chunk exceeds
// the cap by more than one sentence.
func Chunks(text string, cfg Config) []string {
	cfg = cfg.defaults()
	var chunks []string

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if len(paragraph) < cfg.MinChunkLength {
			continue
		}

		if len(paragraph) <= cfg.MaxChunkSize {
			chunks = append(chunks, paragraph)
			continue
		}

		current := ""
		for _, sentence := range splitSentences(paragraph) {
			if len(current)+len(sentence) > cfg.MaxChunkSize {
				if current != "" {
					chunks = append(chunks, strings.TrimSpace(current))
				}
				current = sentence
			} else {
				current += " " + sentence
			}
		}
		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
	}

	return chunks
}
