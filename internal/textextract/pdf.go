package textextract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
)

// PDFExtractor reads the text layer of PDF documents
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Name returns the extractor name
func (e *PDFExtractor) Name() string {
	return "pdf"
}

// CanHandle accepts application/pdf or a .pdf filename
func (e *PDFExtractor) CanHandle(mime string, filename string) bool {
	return strings.HasPrefix(mime, "application/pdf") ||
		strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Extract returns the page texts separated by blank lines. Scanned PDFs
// without a text layer yield an empty string.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}
