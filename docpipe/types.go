// Package docpipe extracts structured text from academic handbook PDFs.
package docpipe

// DocumentMetadata describes the source PDF.
type DocumentMetadata struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	PageCount int    `json:"page_count"`
	FileSize  int64  `json:"file_size"`
}

// Table is a best-effort extraction of a tabular region on a page.
type Table struct {
	Rows [][]string `json:"rows"`
}

// ImageRef records the presence of an image object on a page. Pixel data is
// never extracted; the reference is kept for completeness metrics only.
type ImageRef struct {
	ObjectNr int `json:"object_nr"`
}

// Page holds the extracted content of a single PDF page.
type Page struct {
	Number    int        `json:"number"` // 1-based
	Text      string     `json:"text"`
	Headers   []string   `json:"headers,omitempty"`
	Tables    []Table    `json:"tables,omitempty"`
	Images    []ImageRef `json:"images,omitempty"`
	WordCount int        `json:"word_count"`
}

// ExtractionStats summarises how much of the document survived extraction.
type ExtractionStats struct {
	ProcessedPages int     `json:"processed_pages"`
	TotalPages     int     `json:"total_pages"`
	SuccessRate    float64 `json:"success_rate"` // percent
}

// RawDocument is the result of loading and extracting a handbook PDF.
type RawDocument struct {
	Path     string             `json:"path"`
	Metadata DocumentMetadata   `json:"metadata"`
	Pages    []Page             `json:"pages"`
	Text     string             `json:"text"` // normalized full text
	Stats    ExtractionStats    `json:"stats"`
	Quality  *ExtractionQuality `json:"quality,omitempty"`
}
