package handbook_reader

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	processingVersion = "1.0"
	extractorName     = "pdfcpu + keyword categorization"

	// emptySummary is stored for categories the handbook never covered.
	emptySummary = "No content found for this section in the handbook."
)

// importanceKeywords mark sentences worth surfacing as key points.
var importanceKeywords = []string{
	"must", "required", "mandatory", "shall", "will", "important",
	"note", "warning", "caution", "procedure", "process", "policy",
}

// Reader turns normalized handbook text into a structured Result.
type Reader struct {
	cfg Config
	cat *Categorizer
}

func New(cfg Config) *Reader {
	cfg = cfg.defaults()
	return &Reader{cfg: cfg, cat: NewCategorizer(cfg)}
}

// Process chunks, categorizes and aggregates the text, then builds the full
// section set with summaries, key points and quality signals.
func (r *Reader) Process(ctx context.Context, text string) (*Result, error) {
	r.cfg.Logger.Info("starting content categorization", "chars", len(text))

	chunks, perChunk, err := r.cat.Categorize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}
	r.cfg.Logger.Info("chunks categorized", "chunks", len(chunks))

	categorized := aggregate(chunks, perChunk, r.cfg)
	ts := now().Format(time.RFC3339)

	sections := make(map[Category]Section, len(Categories))
	withContent := 0
	for _, category := range Categories {
		data := categorized[category]
		sections[category] = buildSection(category, data, ts, r.cfg)
		if data.WordCount > 0 {
			withContent++
		}
	}

	result := &Result{
		ProcessingInfo: ProcessingInfo{
			ProcessedAt:           ts,
			ProcessingVersion:     processingVersion,
			Extractor:             extractorName,
			TotalCategories:       len(Categories),
			CategoriesWithContent: withContent,
		},
		ProcessingSummary: buildProcessingSummary(categorized, r.cfg),
		Sections:          sections,
	}
	return result, nil
}

// buildSection assembles the stored form of one category.
func buildSection(category Category, data CategorizedContent, ts string, cfg Config) Section {
	if data.Content == "" {
		return Section{
			Title:   category.Title(),
			Summary: emptySummary,
			Metadata: SectionMetadata{
				LastUpdated: ts,
			},
		}
	}

	s := Section{
		Title:     category.Title(),
		Content:   data.Content,
		Summary:   generateSummary(data.Content, cfg.MaxSummaryLength),
		KeyPoints: extractKeyPoints(data.Content, cfg.MaxKeyPoints),
		Metadata: SectionMetadata{
			WordCount:        data.WordCount,
			ConfidenceScore:  data.AvgConfidence,
			KeywordMatches:   data.Keywords,
			ChunkCount:       data.ChunkCount,
			QualityScore:     data.QualityScore,
			LastUpdated:      ts,
			ExtractionMethod: extractorName,
		},
		ContentHash: ContentHash(data.Content),
	}
	s.SearchableText = searchableText(s)
	return s
}

// generateSummary joins leading sentences until the length cap.
func generateSummary(content string, maxLength int) string {
	var parts []string
	length := 0

	for _, sentence := range strings.Split(content, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 10 {
			continue
		}
		if length+len(sentence) > maxLength {
			break
		}
		parts = append(parts, sentence)
		length += len(sentence)
	}

	summary := strings.Join(parts, ". ")
	if summary == "" {
		return "Content available but requires review for summarization."
	}
	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}

// extractKeyPoints picks sentences flagged by importance keywords, falling
// back to the first few substantial sentences when none match.
func extractKeyPoints(content string, maxPoints int) []string {
	sentences := strings.Split(content, ".")
	var points []string

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 20 || len(sentence) > 200 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, kw := range importanceKeywords {
			if strings.Contains(lower, kw) {
				points = append(points, sentence+".")
				break
			}
		}
		if len(points) >= maxPoints {
			break
		}
	}

	if len(points) == 0 {
		for _, sentence := range sentences {
			if len(points) >= maxPoints {
				break
			}
			sentence = strings.TrimSpace(sentence)
			if len(sentence) > 20 {
				points = append(points, sentence+".")
			}
		}
	}
	return points
}

// searchableText flattens the fields a search query should see.
func searchableText(s Section) string {
	parts := make([]string, 0, 3+len(s.KeyPoints))
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	if s.Summary != "" {
		parts = append(parts, s.Summary)
	}
	parts = append(parts, s.KeyPoints...)
	if s.Content != "" {
		content := s.Content
		if len(content) > 1000 {
			content = content[:1000]
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, " ")
}

// ContentHash fingerprints section content for change detection. Not a
// security boundary.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// buildProcessingSummary rolls up run-level coverage and quality.
func buildProcessingSummary(categorized map[Category]CategorizedContent, cfg Config) ProcessingSummary {
	totalWords := 0
	qualitySum := 0.0
	var sufficient []Category

	for _, category := range Categories {
		data := categorized[category]
		totalWords += data.WordCount
		qualitySum += data.QualityScore
		if data.WordCount >= cfg.MinWordsPerCategory {
			sufficient = append(sufficient, category)
		}
	}

	avgQuality := qualitySum / float64(len(Categories))
	completeness := float64(len(sufficient)) / float64(len(Categories)) * 100

	summary := ProcessingSummary{
		TotalWordsExtracted:      totalWords,
		AverageQualityScore:      round2(avgQuality),
		CategoriesMeetingMinimum: len(sufficient),
		OverallCompleteness:      round1(completeness),
		CategoriesWithSufficient: sufficient,
	}

	if summary.OverallCompleteness < 70 {
		summary.ProcessingRecommendations = append(summary.ProcessingRecommendations,
			"Consider reviewing handbook for missing sections or re-processing with different parameters")
	}
	if avgQuality < 50 {
		summary.ProcessingRecommendations = append(summary.ProcessingRecommendations,
			"Content quality scores are low. Manual review recommended")
	}
	return summary
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
func round2(f float64) float64 { return math.Round(f*100) / 100 }

// Validate checks a result for structural problems before storage. A missing
// category is fatal; empty or low-quality categories are warnings only.
func Validate(result *Result) ValidationReport {
	report := ValidationReport{
		IsValid:         true,
		TotalCategories: len(Categories),
	}

	for _, category := range Categories {
		section, ok := result.Sections[category]
		if !ok {
			report.IsValid = false
			report.Errors = append(report.Errors, fmt.Sprintf("missing category: %s", category))
			continue
		}

		report.TotalWords += section.Metadata.WordCount
		switch {
		case section.Metadata.WordCount == 0:
			report.EmptyCategories = append(report.EmptyCategories, category)
		case section.Metadata.QualityScore < 30:
			report.LowQualityCategories = append(report.LowQualityCategories, category)
			report.CategoriesWithContent++
		default:
			report.CategoriesWithContent++
		}
	}

	if len(report.EmptyCategories) > 0 {
		names := make([]string, len(report.EmptyCategories))
		for i, c := range report.EmptyCategories {
			names[i] = string(c)
		}
		report.Warnings = append(report.Warnings, "empty categories: "+strings.Join(names, ", "))
	}
	if len(report.LowQualityCategories) > 0 {
		names := make([]string, len(report.LowQualityCategories))
		for i, c := range report.LowQualityCategories {
			names[i] = string(c)
		}
		report.Warnings = append(report.Warnings, "low quality categories: "+strings.Join(names, ", "))
	}
	return report
}
