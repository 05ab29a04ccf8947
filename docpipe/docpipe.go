// Package docpipe turns an academic handbook PDF into a RawDocument: per-page
// text, header candidates, best-effort tables and image references, document
// metadata, and a page-level success-rate metric.
//
// A single page's table or image extraction failure is non-fatal and logged;
// text extraction continues. Only input-level problems (missing file, wrong
// extension, oversized file, unreadable PDF) abort the load.
//
// Usage:
//
//	loader := docpipe.NewLoader(docpipe.Config{})
//	doc, err := loader.Load(ctx, "/path/to/handbook.pdf")
//	fmt.Println(doc.Metadata.Title, doc.Stats.SuccessRate)
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Loader is the document extraction engine.
type Loader struct {
	cfg    Config
	logger *slog.Logger
}

// NewLoader creates a Loader with the given configuration.
func NewLoader(cfg Config) *Loader {
	cfg.defaults()
	return &Loader{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Validate checks existence, extension and size without opening the document.
func (l *Loader) Validate(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return 0, fmt.Errorf("%w: %q (only .pdf accepted)", ErrUnsupportedFormat, ext)
	}
	if info.Size() > l.cfg.MaxFileSize {
		return 0, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), l.cfg.MaxFileSize)
	}
	return info.Size(), nil
}

// Load validates, opens and extracts a handbook PDF.
func (l *Loader) Load(ctx context.Context, path string) (*RawDocument, error) {
	size, err := l.Validate(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	meta := documentMetadata(pdfCtx, path, size)
	l.logger.Debug("opened handbook PDF", "path", path, "pages", meta.PageCount)

	var pages []Page
	var sb strings.Builder

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := l.extractPage(pdfCtx, pageNr)
		if err != nil {
			// Per-page failures are recoverable: skip the page, keep going.
			l.logger.Warn("page extraction failed", "page", pageNr, "error", err)
			continue
		}
		pages = append(pages, page)

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(page.Text)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no extractable text on any page", ErrCorruptDocument)
	}

	stats := ExtractionStats{
		ProcessedPages: len(pages),
		TotalPages:     pdfCtx.PageCount,
	}
	if pdfCtx.PageCount > 0 {
		stats.SuccessRate = float64(len(pages)) / float64(pdfCtx.PageCount) * 100
	}

	doc := &RawDocument{
		Path:     path,
		Metadata: meta,
		Pages:    pages,
		Text:     Normalize(sb.String()),
		Stats:    stats,
	}
	doc.Quality = computeQuality(doc)
	return doc, nil
}

// extractPage extracts text, headers, and best-effort tables/images from one
// page. Table and image failures are logged and leave the page intact.
func (l *Loader) extractPage(pdfCtx *model.Context, pageNr int) (Page, error) {
	text, headers, err := extractPageText(pdfCtx, pageNr, l.cfg.HeaderFontSize)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Number:    pageNr,
		Text:      text,
		Headers:   headers,
		WordCount: len(strings.Fields(text)),
	}

	tables, err := extractPageTables(text, l.cfg.OCRRepairTables)
	if err != nil {
		l.logger.Warn("table extraction failed", "page", pageNr, "error", err)
	} else {
		page.Tables = tables
	}

	images, err := extractPageImages(pdfCtx, pageNr)
	if err != nil {
		l.logger.Warn("image extraction failed", "page", pageNr, "error", err)
	} else {
		page.Images = images
	}

	return page, nil
}

func documentMetadata(pdfCtx *model.Context, path string, size int64) DocumentMetadata {
	title := strings.TrimSpace(pdfCtx.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return DocumentMetadata{
		Title:     title,
		Author:    strings.TrimSpace(pdfCtx.Author),
		PageCount: pdfCtx.PageCount,
		FileSize:  size,
	}
}
