package docpipe

import "log/slog"

// Config configures the document pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// HeaderFontSize is the minimum font size for a span to count as a
	// header candidate (default: 12).
	HeaderFontSize float64 `json:"header_font_size" yaml:"header_font_size"`

	// OCRRepairTables enables the scoped OCR artifact repair ('0'→'O',
	// '|'→'l') inside detected table cells only. Off by default: applied
	// globally it corrupts legitimate digits and pipes.
	OCRRepairTables bool `json:"ocr_repair_tables" yaml:"ocr_repair_tables"`

	// Logger for debug/warning messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.HeaderFontSize <= 0 {
		c.HeaderFontSize = 12
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
