package textextract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor extracts visible text from HTML documents and email bodies
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Name returns the extractor name
func (e *HTMLExtractor) Name() string {
	return "html"
}

// CanHandle accepts text/html or an .htm(l) filename
func (e *HTMLExtractor) CanHandle(mime string, filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.HasPrefix(mime, "text/html") || ext == ".html" || ext == ".htm"
}

// Extract walks the node tree. Block elements end a line and table cells
// are separated by a wide gap so tabular regions stay detectable.
func (e *HTMLExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode {
			switch n.Data {
			case "td", "th":
				buf.WriteString("   ")
			case "br", "tr", "li", "div", "h1", "h2", "h3", "h4", "h5", "h6":
				buf.WriteString("\n")
			case "p", "table":
				buf.WriteString("\n\n")
			}
		}
	}
	walk(doc)

	return buf.String(), ctx.Err()
}
