package docpipe

import (
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo returns basic document metadata without running full extraction.
// Used by the upload pre-flight check.
func PDFInfo(path string) (*DocumentMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	meta := documentMetadata(pdfCtx, path, info.Size())
	return &meta, nil
}

// IsValidPDF reports whether the file opens as a PDF with at least one page.
func IsValidPDF(path string) bool {
	meta, err := PDFInfo(path)
	return err == nil && meta.PageCount > 0
}
