package docpipe

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractPageText extracts text and header candidates from a single PDF page
// via the pdfcpu content stream. Headers are spans rendered in a font at or
// above headerFontSize, or in a font whose resource name marks it bold.
func extractPageText(ctx *model.Context, pageNr int, headerFontSize float64) (string, []string, error) {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return "", nil, fmt.Errorf("page %d content: %w", pageNr, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("page %d read: %w", pageNr, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("page %d: empty content stream", pageNr)
	}

	text, headers := parseContentStream(data, headerFontSize)
	text = cleanPageText(text)
	if text == "" {
		return "", nil, fmt.Errorf("page %d: no text operators", pageNr)
	}
	return text, headers, nil
}

// parseContentStream walks PDF content stream operators, accumulating shown
// text and tracking the current font selection for the header heuristic.
func parseContentStream(data []byte, headerFontSize float64) (string, []string) {
	var sb strings.Builder
	var headers []string
	seen := make(map[string]bool)

	fontSize := 0.0
	fontBold := false

	collectHeader := func(span string) {
		span = strings.TrimSpace(span)
		if len(span) <= 3 || seen[span] {
			return
		}
		seen[span] = true
		headers = append(headers, span)
	}

	lines := bytes.Split(data, []byte{'\n'})
	for _, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// Tf operator, e.g. "/F1 18 Tf", selects font and size.
		if bytes.HasSuffix(line, []byte("Tf")) {
			if name, size, ok := parseTf(line); ok {
				fontSize = size
				fontBold = strings.Contains(strings.ToLower(name), "bold")
			}
			continue
		}

		showsText := bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ"))
		isQuote := bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("("))

		if showsText || isQuote {
			var span strings.Builder
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				span.WriteString(decodePDFString(m[1]))
			}
			if span.Len() > 0 {
				if isQuote {
					sb.WriteByte('\n')
				}
				sb.WriteString(span.String())
				if fontSize >= headerFontSize || fontBold {
					collectHeader(span.String())
				}
			}
			continue
		}

		// Td/TD text positioning, treated as a word break.
		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			continue
		}

		// T* operator (move to start of next line).
		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return sb.String(), headers
}

// parseTf extracts the font resource name and size from a Tf operator line.
func parseTf(line []byte) (string, float64, bool) {
	fields := bytes.Fields(line)
	for i, f := range fields {
		if bytes.Equal(f, []byte("Tf")) && i >= 2 {
			size, err := strconv.ParseFloat(string(fields[i-1]), 64)
			if err != nil {
				return "", 0, false
			}
			return string(bytes.TrimPrefix(fields[i-2], []byte{'/'})), size, true
		}
	}
	return "", 0, false
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanPageText collapses runs of spaces and tabs but preserves line breaks,
// so downstream paragraph detection still works.
func cleanPageText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// extractPageImages lists image XObjects referenced by a page.
func extractPageImages(ctx *model.Context, pageNr int) ([]ImageRef, error) {
	if ctx.Optimize == nil {
		return nil, fmt.Errorf("page %d: optimization data unavailable", pageNr)
	}
	var images []ImageRef
	for _, objNr := range pdfcpu.ImageObjNrs(ctx, pageNr) {
		images = append(images, ImageRef{ObjectNr: objNr})
	}
	return images, nil
}

// tableRowRe matches a line with at least two multi-space column gaps.
var tableRowRe = regexp.MustCompile(`\S(?:\s{3,})\S.*(?:\s{3,})\S`)

// cellGapRe splits a table row into cells on runs of 3+ spaces.
var cellGapRe = regexp.MustCompile(`\s{3,}`)

// extractPageTables scans page text for column-aligned regions. Consecutive
// matching lines form one table. Best effort only.
func extractPageTables(text string, ocrRepair bool) ([]Table, error) {
	var tables []Table
	var current [][]string

	flush := func() {
		// Single matching lines are more likely layout noise than a table.
		if len(current) > 1 {
			tables = append(tables, Table{Rows: current})
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if tableRowRe.MatchString(line) {
			cells := cellGapRe.Split(strings.TrimSpace(line), -1)
			if ocrRepair {
				for i, c := range cells {
					cells[i] = RepairOCRArtifacts(c)
				}
			}
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()

	return tables, nil
}
