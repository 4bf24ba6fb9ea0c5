package classify

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/claimtrust/internal/model"
)

// NoTextError is recorded when a document yields no text
const NoTextError = "No text could be extracted"

// Minimums a classification must reach to be relied on
const (
	MinQuality    = 0.5
	MinConfidence = 0.3
)

// FieldExtractor pulls financial data out of document text
type FieldExtractor interface {
	Extract(text string, docType model.DocType) model.FinancialData
}

// Classifier decides whether a document is a statement or a treaty slip
type Classifier struct {
	statementTokens    []string
	filenameConfidence float64
	treatyPatterns     []*regexp.Regexp
	statementPatterns  []*regexp.Regexp
	patternWeight      float64
	minScore           float64
	extractor          FieldExtractor
}

// New compiles the configured patterns. An invalid pattern is an error.
func New(cfg model.ClassifierConfig, extractor FieldExtractor) (*Classifier, error) {
	c := &Classifier{
		filenameConfidence: cfg.FilenameConfidence,
		patternWeight:      cfg.PatternWeight,
		minScore:           cfg.MinScore,
		extractor:          extractor,
	}
	for _, token := range cfg.StatementFilenameTokens {
		if token = strings.ToLower(strings.TrimSpace(token)); token != "" {
			c.statementTokens = append(c.statementTokens, token)
		}
	}

	var err error
	if c.treatyPatterns, err = compileAll(cfg.TreatyPatterns); err != nil {
		return nil, fmt.Errorf("treaty pattern: %w", err)
	}
	if c.statementPatterns, err = compileAll(cfg.StatementPatterns); err != nil {
		return nil, fmt.Errorf("statement pattern: %w", err)
	}
	return c, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Classify returns the document type and the classification confidence.
// A filename starting with a statement token wins without reading content.
func (c *Classifier) Classify(filename, text string) (model.DocType, float64) {
	base := strings.ToLower(filepath.Base(filename))
	for _, token := range c.statementTokens {
		if strings.HasPrefix(base, token) {
			return model.DocTypeStatement, c.filenameConfidence
		}
	}

	treaty := c.score(c.treatyPatterns, text)
	statement := c.score(c.statementPatterns, text)

	switch {
	case treaty > statement && treaty > c.minScore:
		return model.DocTypeTreatySlip, min(treaty, 1.0)
	case statement > treaty && statement > c.minScore:
		return model.DocTypeStatement, min(statement, 1.0)
	}
	return model.DocTypeUnknown, 0
}

// score adds the pattern weight once per match
func (c *Classifier) score(patterns []*regexp.Regexp, text string) float64 {
	total := 0.0
	for _, re := range patterns {
		total += float64(len(re.FindAllStringIndex(text, -1))) * c.patternWeight
	}
	return total
}

// Analyze classifies the document and extracts its financial data
func (c *Classifier) Analyze(filename, text string) model.DocumentClassification {
	if strings.TrimSpace(text) == "" {
		return model.DocumentClassification{
			DocType:          model.DocTypeUnknown,
			FinancialData:    model.NewFinancialData(),
			ExtractionErrors: []string{NoTextError},
		}
	}

	docType, confidence := c.Classify(filename, text)
	data := c.extractor.Extract(text, docType)

	return model.DocumentClassification{
		DocType:       docType,
		Confidence:    confidence,
		FinancialData: data,
		QualityScore:  QualityScore(text, data),
	}
}

// QualityScore rates a document by its length, line structure and how much
// financial data it produced.
func QualityScore(text string, data model.FinancialData) float64 {
	factors := []float64{
		min(float64(len(text))/1000, 1.0),
		0.5,
		presence(len(data.Amounts)),
		presence(len(data.Percentages)),
		presence(len(data.Dates)),
		presence(len(data.Parties)),
		data.ConfidenceScore,
	}
	if strings.Count(text, "\n") > 5 {
		factors[1] = 1.0
	}

	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}

func presence(n int) float64 {
	if n > 0 {
		return 1
	}
	return 0
}

// Acceptable reports whether a classification is good enough to rely on
func Acceptable(c model.DocumentClassification) bool {
	return c.QualityScore >= MinQuality && c.Confidence >= MinConfidence && len(c.ExtractionErrors) == 0
}
