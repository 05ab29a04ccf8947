package handbook_reader

import "log/slog"

// Config tunes chunking, scoring and section generation. The zero value is
// usable via defaults().
type Config struct {
	// MinChunkLength drops paragraphs shorter than this many characters.
	MinChunkLength int `yaml:"min_chunk_length"`

	// MaxChunkSize repacks longer paragraphs at sentence boundaries.
	MaxChunkSize int `yaml:"max_chunk_size"`

	// MinWordsPerCategory is the threshold for a category to count as
	// sufficiently covered in the processing summary.
	MinWordsPerCategory int `yaml:"min_words_per_category"`

	// MaxSummaryLength caps generated section summaries, in characters.
	MaxSummaryLength int `yaml:"max_summary_length"`

	// MaxKeyPoints caps the number of key points per section.
	MaxKeyPoints int `yaml:"max_key_points"`

	// Parallelism bounds concurrent chunk scoring. Zero means sequential.
	Parallelism int `yaml:"parallelism"`

	Logger *slog.Logger `yaml:"-"`
}

func (c Config) defaults() Config {
	if c.MinChunkLength <= 0 {
		c.MinChunkLength = 50
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = 1000
	}
	if c.MinWordsPerCategory <= 0 {
		c.MinWordsPerCategory = 200
	}
	if c.MaxSummaryLength <= 0 {
		c.MaxSummaryLength = 300
	}
	if c.MaxKeyPoints <= 0 {
		c.MaxKeyPoints = 5
	}
	if c.Parallelism < 0 {
		c.Parallelism = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
