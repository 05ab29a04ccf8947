package handbook_store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/siddu015/Camply/handbook_reader"
)

// ErrUnknownCategory is returned for section names outside the taxonomy.
var ErrUnknownCategory = errors.New("unknown category")

// GetSection loads one category section of a handbook. Returns nil, nil when
// the handbook does not exist. A completed handbook always has a section per
// category, placeholder or not.
func (s *Store) GetSection(handbookID string, category handbook_reader.Category) (*handbook_reader.Section, error) {
	if _, ok := handbook_reader.ParseCategory(string(category)); !ok {
		return nil, fmt.Errorf("%q: %w", category, ErrUnknownCategory)
	}

	// Category names are a fixed set validated above, safe to interpolate.
	var raw sql.NullString
	err := s.db.QueryRow(
		`SELECT `+string(category)+` FROM user_handbooks WHERE handbook_id = ?`, handbookID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var section handbook_reader.Section
	if err := json.Unmarshal([]byte(raw.String), &section); err != nil {
		return nil, fmt.Errorf("unmarshal section %s: %w", category, err)
	}
	return &section, nil
}

// AllSections loads every stored section of a handbook, keyed by category.
// Returns nil, nil when the handbook does not exist or has no sections yet.
func (s *Store) AllSections(handbookID string) (map[handbook_reader.Category]*handbook_reader.Section, error) {
	cols := make([]string, len(handbook_reader.Categories))
	for i, c := range handbook_reader.Categories {
		cols[i] = string(c)
	}

	raw := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}

	err := s.db.QueryRow(
		`SELECT `+strings.Join(cols, ", ")+` FROM user_handbooks WHERE handbook_id = ?`, handbookID,
	).Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make(map[handbook_reader.Category]*handbook_reader.Section)
	for i, category := range handbook_reader.Categories {
		if !raw[i].Valid || raw[i].String == "" {
			continue
		}
		var section handbook_reader.Section
		if err := json.Unmarshal([]byte(raw[i].String), &section); err != nil {
			return nil, fmt.Errorf("unmarshal section %s: %w", category, err)
		}
		out[category] = &section
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// HandbookStats builds a per-category statistics report from the stored
// sections. Returns nil, nil when the handbook has no stored sections yet.
func (s *Store) HandbookStats(handbookID string) (*HandbookStatistics, error) {
	sections, err := s.AllSections(handbookID)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		return nil, nil
	}

	st := &HandbookStatistics{
		TotalCategories:   len(handbook_reader.Categories),
		CategoryBreakdown: make(map[string]CategoryStats, len(handbook_reader.Categories)),
	}
	var totalQuality float64
	for _, category := range handbook_reader.Categories {
		cs := CategoryStats{}
		if section, ok := sections[category]; ok && section.Content != "" {
			cs.WordCount = section.Metadata.WordCount
			cs.QualityScore = section.Metadata.QualityScore
			cs.HasContent = true
			st.CategoriesWithContent++
			st.TotalWordCount += cs.WordCount
			totalQuality += cs.QualityScore
		}
		st.CategoryBreakdown[string(category)] = cs
	}
	if st.CategoriesWithContent > 0 {
		st.AverageQualityScore = round1(totalQuality / float64(st.CategoriesWithContent))
	}
	st.ContentCompleteness = round1(
		float64(st.CategoriesWithContent) / float64(st.TotalCategories) * 100)
	return st, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// Search ranks a handbook's sections against a free-text query. Whole-query
// hits weigh more than per-word hits, and the searchable text more than the
// summary or raw content. Sections that match nothing are omitted.
func (s *Store) Search(handbookID, query string, limit int) ([]SearchResult, error) {
	sections, err := s.AllSections(handbookID)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		return nil, nil
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	// Per-word credit requires whole words, so "fee" never matches "coffee".
	// Whole-query phrase credit stays a substring check.
	var wordPatterns []*regexp.Regexp
	for _, w := range strings.Fields(query) {
		wordPatterns = append(wordPatterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}

	var results []SearchResult
	for _, category := range handbook_reader.Categories {
		section, ok := sections[category]
		if !ok {
			continue
		}

		searchable := strings.ToLower(section.SearchableText)
		summary := strings.ToLower(section.Summary)
		content := strings.ToLower(section.Content)

		score := 0.0
		if strings.Contains(searchable, query) {
			score += 10
		}
		if strings.Contains(summary, query) {
			score += 5
		}
		if strings.Contains(content, query) {
			score += 3
		}
		for _, p := range wordPatterns {
			if p.MatchString(searchable) {
				score += 2
			}
			if p.MatchString(summary) {
				score += 1
			}
		}

		if score > 0 {
			results = append(results, SearchResult{
				Category: string(category),
				Title:    section.Title,
				Summary:  section.Summary,
				Score:    score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
