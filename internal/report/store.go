// Package report persists claim records: one JSON and one text report per
// claim plus an optional run summary workbook.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/logger"
	"github.com/ppiankov/claimtrust/internal/model"
)

const (
	timestampLayout = "20060102_150405"
	maxNameLen      = 100
	summaryFile     = "summary.xlsx"
	maxCollisions   = 1000
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Paths lists the files written for one record
type Paths struct {
	JSON string
	Text string
}

// Store writes claim records into one output directory
type Store struct {
	dir       string
	validator *Validator // nil when schema validation is off
	logger    *zap.Logger
}

// NewStore creates the output directory and, when enabled, compiles the
// record schema.
func NewStore(cfg model.OutputConfig, log *zap.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	s := &Store{dir: cfg.Dir, logger: logger.OrNop(log)}
	if cfg.ValidateSchema {
		v, err := NewValidator()
		if err != nil {
			return nil, err
		}
		s.validator = v
	}
	return s, nil
}

// Dir returns the output directory
func (s *Store) Dir() string {
	return s.dir
}

// Write validates rec and writes <timestamp>_<claim id>.json and .txt.
// An existing record with the same stem is kept and the new one gets a
// numeric suffix. Nothing is written when validation fails.
func (s *Store) Write(rec *model.ClaimRecord) (Paths, error) {
	normalize(rec)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("marshal record: %w", err)
	}
	if s.validator != nil {
		if err := s.validator.Validate(data); err != nil {
			return Paths{}, fmt.Errorf("claim %s: %w", rec.ClaimID, err)
		}
	}

	f, base, err := s.reserve(FileStem(rec))
	if err != nil {
		return Paths{}, err
	}
	paths := Paths{JSON: base + ".json", Text: base + ".txt"}

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(paths.JSON)
		return Paths{}, fmt.Errorf("write JSON: %w", err)
	}
	if err := os.WriteFile(paths.Text, []byte(RenderText(rec)), 0644); err != nil {
		return Paths{}, fmt.Errorf("write text report: %w", err)
	}

	s.logger.Debug("wrote claim record",
		zap.String("claim_id", rec.ClaimID),
		zap.String("json", paths.JSON),
		zap.String("status", string(rec.Status)),
	)
	return paths, nil
}

// reserve creates the JSON file for stem, adding _2, _3 ... until the name
// is free, and returns it with its path minus the extension.
func (s *Store) reserve(stem string) (*os.File, string, error) {
	for n := 1; n <= maxCollisions; n++ {
		base := filepath.Join(s.dir, stem)
		if n > 1 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		f, err := os.OpenFile(base+".json", os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, base, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create JSON: %w", err)
		}
	}
	return nil, "", fmt.Errorf("no free file name for %s", stem)
}

// WriteSummary writes the run summary workbook and returns its path
func (s *Store) WriteSummary(records []*model.ClaimRecord) (string, error) {
	path := filepath.Join(s.dir, summaryFile)
	if err := WriteSummary(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// FileStem returns "<timestamp>_<sanitized claim id>" for a record
func FileStem(rec *model.ClaimRecord) string {
	ts := rec.ProcessedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format(timestampLayout) + "_" + SanitizeName(rec.ClaimID)
}

// SanitizeName makes s safe to use as a file name
func SanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = unsafeChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "claim"
	}
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	return s
}

// normalize replaces nil collections so the JSON always carries arrays
func normalize(rec *model.ClaimRecord) {
	if rec.GroundTruthMatches == nil {
		rec.GroundTruthMatches = []model.Match{}
	}
	if rec.PipelineVersion == "" {
		rec.PipelineVersion = model.PipelineVersion
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
}
