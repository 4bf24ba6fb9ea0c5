package classify

import (
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/claimtrust/internal/extract"
	"github.com/ppiankov/claimtrust/internal/model"
)

type stubExtractor struct {
	calls   int
	docType model.DocType
	data    model.FinancialData
}

func (s *stubExtractor) Extract(text string, docType model.DocType) model.FinancialData {
	s.calls++
	s.docType = docType
	return s.data
}

func newTestClassifier(t *testing.T, extractor FieldExtractor) *Classifier {
	t.Helper()
	c, err := New(model.DefaultConfig().Classifier, extractor)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClassify_FilenameShortCircuit(t *testing.T) {
	c := newTestClassifier(t, &stubExtractor{})

	docType, conf := c.Classify("MARINE_Statement_Q3.pdf", "This treaty slip and cover note")
	if docType != model.DocTypeStatement {
		t.Errorf("Expected statement, got %s", docType)
	}
	if conf != 0.9 {
		t.Errorf("Expected confidence 0.9, got %f", conf)
	}

	docType, _ = c.Classify("/claims/in/marine_2023.pdf", "")
	if docType != model.DocTypeStatement {
		t.Errorf("Expected directory prefix to be ignored, got %s", docType)
	}
}

func TestClassify_ContentPatterns(t *testing.T) {
	c := newTestClassifier(t, &stubExtractor{})

	tests := []struct {
		name     string
		text     string
		expected model.DocType
		conf     float64
	}{
		{"treaty slip", "TREATY SLIP for the 2023 programme", model.DocTypeTreatySlip, 0.2},
		{"two treaty markers", "Cover Note attached. Risk Details follow.", model.DocTypeTreatySlip, 0.4},
		{"statement", "Statement of Account for Q3, see account statement", model.DocTypeStatement, 0.4},
		{"tie is unknown", "treaty slip and premium statement", model.DocTypeUnknown, 0},
		{"no markers", "Dear team, please find attached.", model.DocTypeUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docType, conf := c.Classify("scan_001.pdf", tt.text)
			if docType != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, docType)
			}
			if math.Abs(conf-tt.conf) > 1e-9 {
				t.Errorf("Expected confidence %f, got %f", tt.conf, conf)
			}
		})
	}
}

func TestClassify_ConfidenceCapped(t *testing.T) {
	c := newTestClassifier(t, &stubExtractor{})
	text := strings.Repeat("treaty slip ", 8)

	docType, conf := c.Classify("doc.pdf", text)
	if docType != model.DocTypeTreatySlip || conf != 1.0 {
		t.Errorf("Expected treaty slip capped at 1.0, got %s %f", docType, conf)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	cfg := model.DefaultConfig().Classifier
	cfg.TreatyPatterns = append(cfg.TreatyPatterns, `cover(`)

	if _, err := New(cfg, &stubExtractor{}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	stub := &stubExtractor{}
	c := newTestClassifier(t, stub)

	result := c.Analyze("MARINE_Statement.pdf", "  \n ")
	if result.DocType != model.DocTypeUnknown || result.Confidence != 0 {
		t.Errorf("Expected unknown/0, got %s/%f", result.DocType, result.Confidence)
	}
	if len(result.ExtractionErrors) != 1 || result.ExtractionErrors[0] != NoTextError {
		t.Errorf("Expected no-text error, got %v", result.ExtractionErrors)
	}
	if result.FinancialData.Amounts == nil || len(result.FinancialData.Amounts) != 0 {
		t.Error("Expected empty, non-nil amounts")
	}
	if stub.calls != 0 {
		t.Error("Expected extractor not to run on empty text")
	}
}

func TestAnalyze_PassesDocType(t *testing.T) {
	data := model.NewFinancialData()
	data.Amounts["premium"] = 1000
	data.ConfidenceScore = 0.25
	stub := &stubExtractor{data: data}
	c := newTestClassifier(t, stub)

	result := c.Analyze("slip.pdf", "Placing Slip\nRisk Details")
	if stub.docType != model.DocTypeTreatySlip {
		t.Errorf("Expected extractor to receive treaty_slip, got %s", stub.docType)
	}
	if result.FinancialData.Amounts["premium"] != 1000 {
		t.Error("Expected extractor data in the classification")
	}
	if result.QualityScore <= 0 {
		t.Errorf("Expected positive quality score, got %f", result.QualityScore)
	}
}

func TestAnalyze_WithFieldExtractor(t *testing.T) {
	c := newTestClassifier(t, extract.New(model.DefaultConfig().Extraction))
	text := "STATEMENT OF ACCOUNT\n\nThe total premium for this period is USD 1,250,000 payable to the reinsurer."

	result := c.Analyze("q3.pdf", text)
	if result.DocType != model.DocTypeStatement {
		t.Errorf("Expected statement, got %s", result.DocType)
	}
	if result.FinancialData.Amounts["premium"] != 1_250_000 {
		t.Errorf("Expected premium 1250000, got %v", result.FinancialData.Amounts)
	}
}

func TestQualityScore(t *testing.T) {
	data := model.NewFinancialData()
	if got := QualityScore("", data); got != 0.5/7 {
		t.Errorf("Expected %f for empty data, got %f", 0.5/7, got)
	}

	data.Amounts["premium"] = 1
	data.Percentages["commission"] = 10
	data.Dates["date_of_loss"] = "2023-01-01"
	data.Parties["insurer"] = "GA Insurance Limited"
	data.ConfidenceScore = 1
	text := strings.Repeat("line of text that is long enough\n", 40)
	if got := QualityScore(text, data); got != 1 {
		t.Errorf("Expected 1.0 for a complete document, got %f", got)
	}
}

func TestAcceptable(t *testing.T) {
	good := model.DocumentClassification{QualityScore: 0.6, Confidence: 0.9}
	if !Acceptable(good) {
		t.Error("Expected acceptable classification")
	}
	bad := good
	bad.ExtractionErrors = []string{NoTextError}
	if Acceptable(bad) {
		t.Error("Expected extraction errors to make it unacceptable")
	}
}
