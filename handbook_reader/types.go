package handbook_reader

import "time"

// ChunkMatch is one category assignment for a text chunk.
type ChunkMatch struct {
	Category   Category
	Confidence float64
	Keywords   []string
}

// categoryData accumulates all chunks assigned to one category during a run.
type categoryData struct {
	Content     []string
	TotalWords  int
	Confidences []float64
	Keywords    map[string]bool
	Sources     []string
}

// CategorizedContent is the per-category rollup after aggregation.
type CategorizedContent struct {
	Content       string   `json:"content"`
	WordCount     int      `json:"word_count"`
	AvgConfidence float64  `json:"avg_confidence"`
	Keywords      []string `json:"keyword_matches"`
	ChunkCount    int      `json:"chunk_count"`
	QualityScore  float64  `json:"quality_score"`
}

// SectionMetadata describes how a section's content was derived.
type SectionMetadata struct {
	WordCount        int      `json:"word_count"`
	ConfidenceScore  float64  `json:"confidence_score"`
	KeywordMatches   []string `json:"keyword_matches,omitempty"`
	ChunkCount       int      `json:"chunk_count"`
	QualityScore     float64  `json:"quality_score"`
	LastUpdated      string   `json:"last_updated"`
	ExtractionMethod string   `json:"extraction_method,omitempty"`
}

// Section is the stored form of one handbook category.
type Section struct {
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Summary        string          `json:"summary"`
	KeyPoints      []string        `json:"key_points"`
	Metadata       SectionMetadata `json:"metadata"`
	SearchableText string          `json:"searchable_text"`
	ContentHash    string          `json:"content_hash"`
}

// ProcessingInfo records provenance for a completed run.
type ProcessingInfo struct {
	ProcessedAt           string `json:"processed_at"`
	ProcessingVersion     string `json:"processing_version"`
	Extractor             string `json:"extractor"`
	TotalCategories       int    `json:"total_categories"`
	CategoriesWithContent int    `json:"categories_with_content"`
}

// ProcessingSummary aggregates run-level quality signals.
type ProcessingSummary struct {
	TotalWordsExtracted       int        `json:"total_words_extracted"`
	AverageQualityScore       float64    `json:"average_quality_score"`
	CategoriesMeetingMinimum  int        `json:"categories_meeting_minimum"`
	OverallCompleteness       float64    `json:"overall_completeness"`
	CategoriesWithSufficient  []Category `json:"categories_with_sufficient_content"`
	ProcessingRecommendations []string   `json:"processing_recommendations"`
	PageCount                 int        `json:"page_count,omitempty"`
	SuccessRate               float64    `json:"success_rate,omitempty"`
}

// Result is the full structured output for one handbook.
type Result struct {
	ProcessingInfo    ProcessingInfo       `json:"processing_info"`
	ProcessingSummary ProcessingSummary    `json:"processing_summary"`
	Sections          map[Category]Section `json:"sections"`
}

// ValidationReport flags structural problems with a generated result.
type ValidationReport struct {
	IsValid               bool       `json:"is_valid"`
	Errors                []string   `json:"errors"`
	Warnings              []string   `json:"warnings"`
	TotalCategories       int        `json:"total_categories"`
	CategoriesWithContent int        `json:"categories_with_content"`
	TotalWords            int        `json:"total_words"`
	EmptyCategories       []Category `json:"empty_categories"`
	LowQualityCategories  []Category `json:"low_quality_categories"`
}

// now is swapped in tests for deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }
