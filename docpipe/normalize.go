package docpipe

import (
	"regexp"
	"strings"
)

var (
	// Standalone page-number lines: "12", "- 12 -", "Page 12", "page 12 of 90".
	pageNumberLineRe = regexp.MustCompile(`(?i)^\s*(?:-\s*)?(?:page\s+)?\d{1,4}(?:\s+of\s+\d{1,4})?(?:\s*-)?\s*$`)

	// Trailing page-number artifact glued to the end of a text line.
	trailingNumberRe = regexp.MustCompile(`\s+\d{1,4}\s*$`)

	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans extracted handbook text: collapses whitespace runs within
// lines, strips standalone page-number lines and trailing numeric footer
// artifacts, and collapses 3+ blank lines to 2. Paragraph boundaries (blank
// lines) are preserved for the chunker.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = spaceRunRe.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if pageNumberLineRe.MatchString(line) {
			// Running footer or page number: drop the whole line.
			out = append(out, "")
			continue
		}
		line = trailingNumberRe.ReplaceAllString(line, "")
		out = append(out, line)
	}

	normalized := strings.Join(out, "\n")
	normalized = blankRunsRe.ReplaceAllString(normalized, "\n\n")
	return strings.TrimSpace(normalized)
}

// ocrRepairer rewrites the two artifacts the upstream scanner is known to
// produce inside table cells. Deliberately NOT applied to body text: there
// the substitution corrupts legitimate digits ("2024" → "2O24") and pipes.
var ocrRepairer = strings.NewReplacer("0", "O", "|", "l")

// RepairOCRArtifacts applies the scoped OCR repair to a single table cell.
// Cells that contain any digit run longer than one character are left alone,
// since those are almost certainly real numbers.
func RepairOCRArtifacts(cell string) string {
	digits := 0
	for _, r := range cell {
		if r >= '0' && r <= '9' {
			digits++
			if digits > 1 {
				return cell
			}
		} else {
			digits = 0
		}
	}
	return ocrRepairer.Replace(cell)
}
