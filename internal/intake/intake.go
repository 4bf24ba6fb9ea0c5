// Package intake turns claim directories into envelopes of attachments.
package intake

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/logger"
	"github.com/ppiankov/claimtrust/internal/model"
)

const sniffLen = 512

// ErrNotDirectory is returned when a claim source is not a directory
var ErrNotDirectory = errors.New("not a directory")

// Loader reads claim directories
type Loader struct {
	extensions map[string]bool // empty accepts every file
	logger     *zap.Logger
}

// NewLoader creates a loader accepting the given file extensions
func NewLoader(extensions []string, log *zap.Logger) *Loader {
	l := &Loader{extensions: make(map[string]bool), logger: logger.OrNop(log)}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.extensions[ext] = true
	}
	return l
}

// Load builds one envelope from a claim directory. Files are collected
// recursively in lexical order; hidden files and directories are skipped.
func (l *Loader) Load(dir string) (model.Envelope, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return model.Envelope{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return model.Envelope{}, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !l.accepts(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return model.Envelope{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	env := model.Envelope{
		ID:          uuid.NewString(),
		Source:      dir,
		Subject:     filepath.Base(filepath.Clean(dir)),
		Attachments: make([]model.Attachment, 0, len(paths)),
	}
	for _, path := range paths {
		mime, err := sniff(path)
		if err != nil {
			l.logger.Warn("skipping unreadable attachment", zap.String("path", path), zap.Error(err))
			continue
		}
		env.Attachments = append(env.Attachments, model.Attachment{
			ID:       uuid.NewString(),
			Filename: filepath.Base(path),
			Path:     path,
			MIME:     mime,
			VectorID: -1,
		})
	}

	if len(env.Attachments) == 0 {
		l.logger.Warn("claim directory has no attachments", zap.String("dir", dir))
	}
	return env, nil
}

// LoadAll loads every directory, continuing past failures. The returned
// error joins the per-directory failures.
func (l *Loader) LoadAll(dirs []string) ([]model.Envelope, error) {
	var (
		envelopes []model.Envelope
		errs      []error
	)
	for _, dir := range dirs {
		env, err := l.Load(dir)
		if err != nil {
			l.logger.Error("failed to load claim directory", zap.String("dir", dir), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, errors.Join(errs...)
}

func (l *Loader) accepts(name string) bool {
	if len(l.extensions) == 0 {
		return true
	}
	return l.extensions[strings.ToLower(filepath.Ext(name))]
}

// sniff detects the content type from the first bytes of the file
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read header: %w", err)
	}
	return mimetype.Detect(buf[:n]).String(), nil
}
