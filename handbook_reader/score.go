package handbook_reader

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonWordRe      = regexp.MustCompile(`[^\w\s.!?]`)
	pageMarkerRe   = regexp.MustCompile(`\bpage\s+\d+\b`)
	lineEndDigitRe = regexp.MustCompile(`(?m)\b\d+\s*$`)
)

// preprocess lowercases and strips punctuation noise so keyword and pattern
// matching see a uniform surface.
func preprocess(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = nonWordRe.ReplaceAllString(text, " ")
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = lineEndDigitRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// keywordScore measures keyword density for one category against
// preprocessed text. The score is (total hits * distinct keywords matched)
// divided by the word count, so repeated hits across several keywords in a
// short chunk score highest.
func keywordScore(text string, keywords []string) (float64, []string) {
	var matched []string
	totalHits := 0

	for _, kw := range keywords {
		hits := len(keywordPatterns[kw].FindAllStringIndex(text, -1))
		if hits > 0 {
			matched = append(matched, kw)
			totalHits += hits
		}
	}

	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	return float64(totalHits*len(matched)) / float64(words), matched
}

// contextScore counts category phrase-pattern matches, two points each.
func contextScore(text string, category Category) float64 {
	score := 0.0
	for _, re := range categoryPatterns[category] {
		score += float64(len(re.FindAllStringIndex(text, -1))) * 2
	}
	return score
}
