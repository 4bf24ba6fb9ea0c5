package textextract

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrUnsupported is returned when no extractor accepts a document type
var ErrUnsupported = errors.New("unsupported document type")

// Extractor pulls text out of one document format
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// CanHandle checks if this extractor accepts the sniffed MIME type / filename
	CanHandle(mime string, filename string) bool

	// Extract returns the document text; an empty string is not an error
	Extract(ctx context.Context, data []byte) (string, error)
}

// Registry selects an extractor for a document
type Registry struct {
	extractors []Extractor
	fallback   Extractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewPDFExtractor())
	r.Register(NewHTMLExtractor())
	r.fallback = NewPlainExtractor()
	return r
}

// Register adds an extractor ahead of the fallback
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Find returns the first extractor that accepts the document
func (r *Registry) Find(mime, filename string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.CanHandle(mime, filename) {
			return e, nil
		}
	}
	if r.fallback != nil && r.fallback.CanHandle(mime, filename) {
		return r.fallback, nil
	}
	return nil, ErrUnsupported
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, drops control characters and collapses
// runs of blank lines. Spacing inside a line is kept because column gaps
// carry table structure.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, text)
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
