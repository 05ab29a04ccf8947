package handbook_reader

import (
	"fmt"
	"sort"
	"strings"
)

// aggregate folds per-chunk matches into one rollup per category. Every
// category appears in the result, zero-valued when nothing matched it.
func aggregate(chunks []string, perChunk [][]ChunkMatch, cfg Config) map[Category]CategorizedContent {
	cfg = cfg.defaults()

	acc := make(map[Category]*categoryData, len(Categories))
	for _, category := range Categories {
		acc[category] = &categoryData{Keywords: make(map[string]bool)}
	}

	for i, matches := range perChunk {
		for _, m := range matches {
			data := acc[m.Category]
			data.Content = append(data.Content, chunks[i])
			data.TotalWords += len(strings.Fields(chunks[i]))
			data.Confidences = append(data.Confidences, m.Confidence)
			for _, kw := range m.Keywords {
				data.Keywords[kw] = true
			}
			data.Sources = append(data.Sources, fmt.Sprintf("chunk_%d", i))
		}
	}

	out := make(map[Category]CategorizedContent, len(Categories))
	for _, category := range Categories {
		data := acc[category]
		if len(data.Content) == 0 {
			out[category] = CategorizedContent{}
			continue
		}

		combined := strings.Join(data.Content, "\n\n")
		avg := 0.0
		for _, c := range data.Confidences {
			avg += c
		}
		avg /= float64(len(data.Confidences))

		keywords := make([]string, 0, len(data.Keywords))
		for kw := range data.Keywords {
			keywords = append(keywords, kw)
		}
		sort.Strings(keywords)

		out[category] = CategorizedContent{
			Content:       combined,
			WordCount:     data.TotalWords,
			AvgConfidence: avg,
			Keywords:      keywords,
			ChunkCount:    len(data.Content),
			QualityScore:  qualityScore(combined, data.TotalWords, avg, cfg),
		}
	}
	return out
}

// qualityScore rates a category rollup on a 0..100 scale from confidence,
// volume and sentence structure.
func qualityScore(content string, wordCount int, confidence float64, cfg Config) float64 {
	if wordCount == 0 {
		return 0
	}

	score := confidence * 10

	switch {
	case wordCount >= cfg.MinWordsPerCategory:
		score += 20
	case wordCount >= cfg.MinWordsPerCategory/2:
		score += 10
	}

	sentences := len(splitSentences(content))
	switch {
	case sentences > 5:
		score += 10
	case sentences > 2:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
