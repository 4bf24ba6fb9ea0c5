package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimtrust/internal/model"
)

// Analyzer turns a raw attachment into a classified one
type Analyzer interface {
	Analyze(ctx context.Context, att model.Attachment) (model.Attachment, error)
}

// AnalyzeJob analyzes one attachment
type AnalyzeJob struct {
	Attachment model.Attachment
	Analyzer   Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	analyzed, err := j.Analyzer.Analyze(ctx, j.Attachment)
	if err != nil {
		return &AnalyzeResult{Attachment: j.Attachment, Error: err}
	}
	return &AnalyzeResult{Attachment: analyzed}
}

// AnalyzeResult represents the result of an analysis job. On error the
// attachment is the unanalyzed input.
type AnalyzeResult struct {
	Attachment model.Attachment
	Error      error
}

// GetError returns the error from the analysis result
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes the attachments of an envelope concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessAttachments analyzes attachments concurrently. Results keep the
// input order.
func (b *BatchProcessor) ProcessAttachments(ctx context.Context, attachments []model.Attachment) []*AnalyzeResult {
	if len(attachments) == 0 {
		return []*AnalyzeResult{}
	}

	jobs := make([]Job, len(attachments))
	for i, att := range attachments {
		jobs[i] = &AnalyzeJob{Attachment: att, Analyzer: b.analyzer}
	}

	results := Run(ctx, b.concurrency, jobs)

	out := make([]*AnalyzeResult, len(attachments))
	for i, result := range results {
		if r, ok := result.(*AnalyzeResult); ok {
			out[i] = r
			continue
		}
		out[i] = &AnalyzeResult{Attachment: attachments[i], Error: result.GetError()}
	}
	return out
}

// ReadDirsFromFile reads claim directories from a file (one per line).
// Blank lines and # comments are skipped, duplicates dropped.
func ReadDirsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var dirs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			dirs = append(dirs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return dirs, nil
}
