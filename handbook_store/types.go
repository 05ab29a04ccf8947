package handbook_store

// Handbook represents a user_handbooks row. Timestamps are RFC3339 strings,
// empty until set.
type Handbook struct {
	HandbookID          string           `json:"handbook_id"`
	UserID              string           `json:"user_id"`
	AcademicID          string           `json:"academic_id,omitempty"`
	StoragePath         string           `json:"storage_path"`
	OriginalFilename    string           `json:"original_filename,omitempty"`
	FileSizeBytes       int64            `json:"file_size_bytes,omitempty"`
	ProcessingStatus    ProcessingStatus `json:"processing_status"`
	UploadDate          string           `json:"upload_date"`
	ProcessingStartedAt string           `json:"processing_started_at,omitempty"`
	ProcessedDate       string           `json:"processed_date,omitempty"`
	ErrorMessage        string           `json:"error_message,omitempty"`
}

// Statistics summarizes the handbook table for operators.
type Statistics struct {
	Total      int `json:"total"`
	Uploaded   int `json:"uploaded"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// CategoryStats is one category's slice of a handbook statistics report.
type CategoryStats struct {
	WordCount    int     `json:"word_count"`
	QualityScore float64 `json:"quality_score"`
	HasContent   bool    `json:"has_content"`
}

// HandbookStatistics summarizes the stored sections of one handbook.
type HandbookStatistics struct {
	TotalCategories       int                      `json:"total_categories"`
	CategoriesWithContent int                      `json:"categories_with_content"`
	TotalWordCount        int                      `json:"total_word_count"`
	AverageQualityScore   float64                  `json:"average_quality_score"`
	ContentCompleteness   float64                  `json:"content_completeness"`
	CategoryBreakdown     map[string]CategoryStats `json:"category_breakdown"`
}

// SearchResult is one ranked hit from a section search.
type SearchResult struct {
	Category string  `json:"category"`
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	Score    float64 `json:"relevance_score"`
}
