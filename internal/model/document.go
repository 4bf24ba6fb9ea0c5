package model

import "sort"

// DocType classifies an attached document
type DocType string

const (
	DocTypeStatement  DocType = "statement"
	DocTypeTreatySlip DocType = "treaty_slip"
	DocTypeUnknown    DocType = "unknown"
)

// Category is the semantic tag of an extracted field
type Category string

const (
	CategoryCommission    Category = "commission"
	CategoryPremium       Category = "premium"
	CategoryCashLossLimit Category = "cash_loss_limit"
	CategorySurplusAmount Category = "surplus_amount"
	CategoryAmount        Category = "amount"
	CategoryDateOfLoss    Category = "date_of_loss"
	CategoryShares        Category = "shares"
)

// AllCategories lists every category in extraction order
func AllCategories() []Category {
	return []Category{
		CategoryCommission,
		CategoryPremium,
		CategoryCashLossLimit,
		CategorySurplusAmount,
		CategoryAmount,
		CategoryDateOfLoss,
		CategoryShares,
	}
}

// IsMonetary reports whether values of the category are currency amounts
func (c Category) IsMonetary() bool {
	switch c {
	case CategoryPremium, CategoryCashLossLimit, CategorySurplusAmount, CategoryAmount, CategoryCommission:
		return true
	}
	return false
}

// ExtractedField is one fact pulled from document text
type ExtractedField struct {
	Category   Category `json:"category"`
	Value      float64  `json:"value"`                // numeric value (0 for dates)
	Text       string   `json:"text,omitempty"`       // normalized date or raw match
	Context    string   `json:"context"`              // surrounding snippet
	Confidence float64  `json:"confidence"`           // 0..1
	Source     string   `json:"source"`               // rule that produced the field
	Percentage bool     `json:"percentage,omitempty"` // value is a percentage
	Position   int      `json:"position"`             // byte offset of the match in the document
}

// FinancialData aggregates extracted fields for one document
type FinancialData struct {
	Amounts            map[string]float64   `json:"amounts"`
	Percentages        map[string]float64   `json:"percentages"`
	Dates              map[string]string    `json:"dates"`
	Parties            map[string]string    `json:"parties"`
	Fields             []ExtractedField     `json:"fields,omitempty"`
	CategoryConfidence map[Category]float64 `json:"category_confidence,omitempty"`
	ClaimCount         int                  `json:"claim_count"`
	ConfidenceScore    float64              `json:"confidence_score"`
}

// NewFinancialData returns FinancialData with all mappings empty
func NewFinancialData() FinancialData {
	return FinancialData{
		Amounts:            map[string]float64{},
		Percentages:        map[string]float64{},
		Dates:              map[string]string{},
		Parties:            map[string]string{},
		CategoryConfidence: map[Category]float64{},
	}
}

// FieldsFor returns the fields of a category in extraction order
func (f FinancialData) FieldsFor(category Category) []ExtractedField {
	var out []ExtractedField
	for _, field := range f.Fields {
		if field.Category == category {
			out = append(out, field)
		}
	}
	return out
}

// Best returns the highest-confidence field of a category, first seen on ties
func (f FinancialData) Best(category Category) (ExtractedField, bool) {
	var best ExtractedField
	found := false
	for _, field := range f.FieldsFor(category) {
		if !found || field.Confidence > best.Confidence {
			best = field
			found = true
		}
	}
	return best, found
}

// Largest returns the largest non-percentage value across the given
// categories (all monetary categories when none are given).
func (f FinancialData) Largest(categories ...Category) (float64, bool) {
	allowed := make(map[Category]bool)
	for _, c := range categories {
		allowed[c] = true
	}

	max := 0.0
	found := false
	for _, field := range f.Fields {
		if field.Percentage || !field.Category.IsMonetary() {
			continue
		}
		if len(allowed) > 0 && !allowed[field.Category] {
			continue
		}
		if !found || field.Value > max {
			max = field.Value
			found = true
		}
	}
	return max, found
}

// MonetaryValues returns all non-percentage monetary values in extraction order
func (f FinancialData) MonetaryValues() []float64 {
	var out []float64
	for _, field := range f.Fields {
		if field.Percentage || !field.Category.IsMonetary() {
			continue
		}
		out = append(out, field.Value)
	}
	return out
}

// DateList returns the distinct normalized dates, sorted
func (f FinancialData) DateList() []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range f.Fields {
		if field.Category != CategoryDateOfLoss || field.Text == "" {
			continue
		}
		if !seen[field.Text] {
			seen[field.Text] = true
			out = append(out, field.Text)
		}
	}
	sort.Strings(out)
	return out
}

// DocumentClassification is the classifier verdict for one document
type DocumentClassification struct {
	DocType          DocType       `json:"doc_type"`
	Confidence       float64       `json:"confidence"`
	FinancialData    FinancialData `json:"financial_data"`
	QualityScore     float64       `json:"quality_score"`
	ExtractionErrors []string      `json:"extraction_errors,omitempty"`
}

// Attachment is a document inside an envelope
type Attachment struct {
	ID             string                 `json:"id"`
	Filename       string                 `json:"filename"`
	Path           string                 `json:"path"`
	MIME           string                 `json:"mime,omitempty"`
	Text           string                 `json:"-"`
	Classification DocumentClassification `json:"classification"`
	VectorID       int                    `json:"vector_id"` // -1 when not indexed
	Compliance     *ComplianceAnalysis    `json:"compliance,omitempty"`
}

// Envelope groups the documents that arrived together (one email or folder)
type Envelope struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Subject     string       `json:"subject,omitempty"`
	Attachments []Attachment `json:"attachments"`
}
