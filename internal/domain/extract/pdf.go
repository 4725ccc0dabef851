// Package extract converts decrypted PDF statement bytes into raw text.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Text is the extraction result for one statement.
type Text struct {
	Text      string
	PageCount int
}

// FailedError reports a malformed or unreadable document. Extraction is
// deterministic, so a failure here is non-transient and must surface
// immediately rather than consuming a retry budget meant for flaky calls.
type FailedError struct {
	Reason string
	Err    error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("text extraction failed: %s", e.Reason)
}

func (e *FailedError) Unwrap() error { return e.Err }

// Extractor pulls text out of decrypted PDF bytes.
type Extractor struct{}

// NewExtractor returns the PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the concatenated page text and page count, walking pages
// row-by-row for layout preservation and falling back to the reader's plain
// text path. The PDF library panics on some malformed inputs, so the walk is
// wrapped in a recover.
func (x *Extractor) Extract(plaintext []byte) (result *Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &FailedError{Reason: fmt.Sprintf("parser crashed: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(plaintext), int64(len(plaintext)))
	if err != nil {
		return nil, &FailedError{Reason: "unreadable document", Err: err}
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, &FailedError{Reason: "document has no pages"}
	}

	pages := extractByRow(reader, numPages)
	if !isReadableText(pages) {
		if plain := extractPlainText(reader); isReadableText([]string{plain}) {
			pages = []string{plain}
		}
	}
	if !isReadableText(pages) {
		return nil, &FailedError{Reason: "no readable text; document may be scanned or use undecodable font encodings"}
	}

	return &Text{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: numPages,
	}, nil
}

// extractByRow walks pages top to bottom joining words per visual row.
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}
	return pages
}

func extractPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	var b bytes.Buffer
	if _, err := b.ReadFrom(reader); err != nil {
		return ""
	}
	return b.String()
}

// statementWords appear in virtually every card statement. Extracted text
// containing none of them is almost certainly garbage from an identity-
// encoded font.
var statementWords = []string{
	"statement", "card", "payment", "date", "amount", "balance",
	"credit", "debit", "transaction", "due", "total", "limit",
}

// isReadableText gates extraction output: enough characters, a high enough
// ratio of plain ASCII, and at least one recognizable statement word.
func isReadableText(pages []string) bool {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"%&@#!?+=*`, r) ||
				r == '₹' || r == '$' || r == '€' {
				readable++
			}
		}
	}
	if total <= 50 {
		return false
	}
	if float64(readable)/float64(total) <= 0.6 {
		return false
	}

	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}
