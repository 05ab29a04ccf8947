package handbook_reader

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Categorizer assigns handbook text chunks to categories.
type Categorizer struct {
	cfg Config
}

func NewCategorizer(cfg Config) *Categorizer {
	return &Categorizer{cfg: cfg.defaults()}
}

// CategorizeChunk scores one chunk against every category and returns the
// top three matches, highest confidence first. Only categories with a
// positive score are returned. Equal scores keep taxonomy declaration order.
func (c *Categorizer) CategorizeChunk(chunk string) []ChunkMatch {
	pre := preprocess(chunk)
	var matches []ChunkMatch

	for _, category := range Categories {
		kwScore, matched := keywordScore(pre, categoryKeywords[category])
		ctxScore := contextScore(pre, category)

		total := kwScore + ctxScore*0.5
		if total > 0 {
			matches = append(matches, ChunkMatch{
				Category:   category,
				Confidence: total,
				Keywords:   matched,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if len(matches) > 3 {
		matches = matches[:3]
	}
	return matches
}

// Categorize chunks the text and scores every chunk. Chunk scoring is
// independent, so it fans out on an errgroup bounded by cfg.Parallelism;
// results are collected by chunk index to keep output deterministic.
func (c *Categorizer) Categorize(ctx context.Context, text string) ([]string, [][]ChunkMatch, error) {
	chunks := Chunks(text, c.cfg)
	perChunk := make([][]ChunkMatch, len(chunks))

	if c.cfg.Parallelism <= 1 {
		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			perChunk[i] = c.CategorizeChunk(chunk)
		}
		return chunks, perChunk, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.cfg.Parallelism)
	for i, chunk := range chunks {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perChunk[i] = c.CategorizeChunk(chunk)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return chunks, perChunk, nil
}
