package textextract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/cache"
	"github.com/ppiankov/claimtrust/internal/logger"
)

// Result is the outcome of extracting one document
type Result struct {
	Text      string
	MIME      string
	Extractor string
	Cached    bool
}

// Service reads documents from disk and extracts normalized text
type Service struct {
	registry *Registry
	cache    cache.Cache
	log      *zap.Logger
}

// NewService creates a text extraction service. A nil cache disables caching.
func NewService(c cache.Cache, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		registry: NewRegistry(),
		cache:    c,
		log:      logger.OrNop(log),
	}
}

// Extract reads path and returns its normalized text. Documents without a
// text layer return an empty Text and no error.
func (s *Service) Extract(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read document: %w", err)
	}
	return s.ExtractBytes(ctx, filepath.Base(path), data)
}

// ExtractBytes extracts text from in-memory document bytes
func (s *Service) ExtractBytes(ctx context.Context, filename string, data []byte) (Result, error) {
	mime := mimetype.Detect(data).String()

	extractor, err := s.registry.Find(mime, filename)
	if err != nil {
		return Result{MIME: mime}, fmt.Errorf("%s (%s): %w", filename, mime, err)
	}

	sum := sha256.Sum256(data)
	key := cache.Key(cache.NamespaceText, extractor.Name(), hex.EncodeToString(sum[:]))
	if cached, ok := s.cache.Get(key); ok {
		return Result{Text: string(cached), MIME: mime, Extractor: extractor.Name(), Cached: true}, nil
	}

	raw, err := extractor.Extract(ctx, data)
	if err != nil {
		return Result{MIME: mime, Extractor: extractor.Name()}, fmt.Errorf("extract %s: %w", filename, err)
	}
	text := Normalize(raw)

	if err := s.cache.Set(key, []byte(text), 0); err != nil {
		s.log.Debug("text cache write failed", zap.String("file", filename), zap.Error(err))
	}

	s.log.Debug("extracted text",
		zap.String("file", filename),
		zap.String("mime", mime),
		zap.String("extractor", extractor.Name()),
		zap.Int("chars", len(text)),
	)

	return Result{Text: text, MIME: mime, Extractor: extractor.Name()}, nil
}
