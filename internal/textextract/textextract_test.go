package textextract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/claimtrust/internal/cache"
)

func TestNormalize(t *testing.T) {
	in := "Line one   \r\nPremium   USD 500\x00\n\n\n\nNext block\t\n"
	got := Normalize(in)
	want := "Line one\nPremium   USD 500\n\nNext block"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestRegistry_Find(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		mime     string
		filename string
		want     string
	}{
		{"application/pdf", "slip.bin", "pdf"},
		{"application/octet-stream", "Statement.PDF", "pdf"},
		{"text/html; charset=utf-8", "body", "html"},
		{"text/plain; charset=utf-8", "notes.txt", "plain"},
		{"application/octet-stream", "notes.txt", "plain"},
	}

	for _, tt := range tests {
		e, err := r.Find(tt.mime, tt.filename)
		if err != nil {
			t.Fatalf("Find(%q, %q) failed: %v", tt.mime, tt.filename, err)
		}
		if e.Name() != tt.want {
			t.Errorf("Find(%q, %q) = %s, want %s", tt.mime, tt.filename, e.Name(), tt.want)
		}
	}

	if _, err := r.Find("image/png", "scan.png"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported for images, got %v", err)
	}
}

func TestHTMLExtractor_KeepsTableGaps(t *testing.T) {
	doc := `<html><head><title>x</title><style>p{}</style></head><body>
<p>Statement of Account</p>
<table><tr><td>Premium</td><td>USD 1,000</td></tr><tr><td>Commission</td><td>USD 100</td></tr></table>
<script>var a = 1;</script></body></html>`

	text, err := NewHTMLExtractor().Extract(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	text = Normalize(text)

	if strings.Contains(text, "var a") {
		t.Error("Expected script content to be skipped")
	}
	if !strings.Contains(text, "Premium    USD 1,000") {
		t.Errorf("Expected cell gap to survive, got %q", text)
	}
	if !strings.Contains(text, "Statement of Account") {
		t.Errorf("Expected paragraph text, got %q", text)
	}
}

func TestService_ExtractPlainCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.txt")
	if err := os.WriteFile(path, []byte("Statement of Account\r\nPremium: USD 500\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService(cache.NewMemoryCache(time.Minute, time.Minute), nil)

	first, err := svc.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if first.Text != "Statement of Account\nPremium: USD 500" {
		t.Errorf("Unexpected text: %q", first.Text)
	}
	if first.Cached {
		t.Error("Expected first extraction to miss the cache")
	}

	second, err := svc.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !second.Cached || second.Text != first.Text {
		t.Errorf("Expected cached identical text, got %+v", second)
	}
}

func TestService_EmptyDocumentIsNotAnError(t *testing.T) {
	svc := NewService(nil, nil)
	res, err := svc.ExtractBytes(context.Background(), "empty.txt", []byte("   \n\n "))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Text != "" {
		t.Errorf("Expected empty text, got %q", res.Text)
	}
}

func TestPDFExtractor_Malformed(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), []byte("%PDF-1.4 not really a pdf"))
	if err == nil {
		t.Error("Expected error for malformed PDF")
	}
}
