package textextract

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PlainExtractor passes text documents through
type PlainExtractor struct{}

// NewPlainExtractor creates a plain-text extractor
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{}
}

// Name returns the extractor name
func (e *PlainExtractor) Name() string {
	return "plain"
}

// CanHandle accepts any text/* type or a .txt filename
func (e *PlainExtractor) CanHandle(mime string, filename string) bool {
	return strings.HasPrefix(mime, "text/") || strings.EqualFold(filepath.Ext(filename), ".txt")
}

// Extract returns the bytes as text
func (e *PlainExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), ""), nil
	}
	return string(data), nil
}
