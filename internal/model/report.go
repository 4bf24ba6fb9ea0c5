package model

import "time"

// PipelineVersion is stamped on every persisted record
const PipelineVersion = "claimtrust-v1"

// ClaimRecord is the persisted per-claim output
type ClaimRecord struct {
	ID      string `json:"id"`       // Record UUID
	RunID   string `json:"run_id"`   // Pipeline run UUID
	ClaimID string `json:"claim_id"` // Derived from the statement filename

	Statement         AttachmentSummary  `json:"statement"`
	TreatySlip        *AttachmentSummary `json:"treaty_slip,omitempty"`
	PairingConfidence float64            `json:"pairing_confidence"`

	StatementCompliance  *ComplianceAnalysis `json:"statement_compliance,omitempty"`
	TreatySlipCompliance *ComplianceAnalysis `json:"treaty_slip_compliance,omitempty"`
	GroundTruthMatches   []Match             `json:"ground_truth_matches"`
	SimilarDocuments     []SimilarDocument   `json:"similar_documents,omitempty"`

	Metrics   ComparisonMetrics `json:"comparison_metrics"`
	Narrative Narrative         `json:"narrative"` // Never affects scoring

	ProcessedAt     time.Time    `json:"processing_timestamp"`
	PipelineVersion string       `json:"pipeline_version"`
	Status          RecordStatus `json:"status"`
	Errors          []string     `json:"errors,omitempty"`
}

// SimilarDocument is a previously processed document close to the statement
type SimilarDocument struct {
	ID              int     `json:"id"`
	Filename        string  `json:"filename"`
	DocType         DocType `json:"doc_type"`
	ClaimID         string  `json:"claim_id"`
	Distance        float64 `json:"distance"`
	SimilarityScore float64 `json:"similarity_score"`
}

// RecordStatus reports how completely a claim was processed
type RecordStatus string

const (
	StatusComplete RecordStatus = "complete"
	StatusDegraded RecordStatus = "degraded" // an external collaborator failed
	StatusFailed   RecordStatus = "failed"
)

// AttachmentSummary is the reporting view of an attachment
type AttachmentSummary struct {
	Filename         string        `json:"filename"`
	Path             string        `json:"path"`
	DocType          DocType       `json:"doc_type"`
	Confidence       float64       `json:"classification_confidence"`
	QualityScore     float64       `json:"quality_score"`
	FinancialData    FinancialData `json:"financial_data"`
	VectorID         int           `json:"vector_id"`
	ExtractionErrors []string      `json:"extraction_errors,omitempty"`
}

// Summarize builds the reporting view of an attachment
func Summarize(a Attachment) AttachmentSummary {
	return AttachmentSummary{
		Filename:         a.Filename,
		Path:             a.Path,
		DocType:          a.Classification.DocType,
		Confidence:       a.Classification.Confidence,
		QualityScore:     a.Classification.QualityScore,
		FinancialData:    a.Classification.FinancialData,
		VectorID:         a.VectorID,
		ExtractionErrors: a.Classification.ExtractionErrors,
	}
}

// RiskLevel of a compliance analysis
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ComplianceStatus reports whether cross-validation ran
type ComplianceStatus string

const (
	ComplianceOK      ComplianceStatus = "ok"
	ComplianceErrored ComplianceStatus = "errored"
)

// ComplianceAnalysis is the per-document cross-validation against ground truth
type ComplianceAnalysis struct {
	ComplianceScore    float64          `json:"compliance_score"`
	RiskLevel          RiskLevel        `json:"risk_level"`
	RiskIndicators     []string         `json:"risk_indicators"`
	Recommendations    []string         `json:"recommendations"`
	GroundTruthMatches []Match          `json:"ground_truth_matches"`
	MatchesFound       int              `json:"matches_found"`
	AvgSimilarity      float64          `json:"avg_similarity"`
	MaxSimilarity      float64          `json:"max_similarity"`
	HistoricalAverage  float64          `json:"historical_average_amount"`
	DocumentAmount     float64          `json:"document_amount"`
	Status             ComplianceStatus `json:"status"`
	Error              string           `json:"error,omitempty"`
}

// Narrative is the optional generated report text
type Narrative struct {
	Available bool   `json:"available"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`           // Signal classification
	Severity    SignalSeverity         `json:"severity"`       // info, warning, critical
	Description string                 `json:"description"`    // Human-readable description
	Data        map[string]interface{} `json:"data,omitempty"` // Transparent scoring data (formulas, inputs)
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalDateConsistency     SignalType = "date_consistency"      // Date agreement across sources
	SignalFinancialAlignment  SignalType = "financial_alignment"   // Cash loss, commission, claim amounts
	SignalClaimsVerification  SignalType = "claims_verification"   // Claim count agreement
	SignalDataIntegrity       SignalType = "data_integrity"        // Completeness against ground truth
	SignalCashLossRisk        SignalType = "cash_loss_risk"        // Cash loss limit exceeds surplus
	SignalCommissionMismatch  SignalType = "commission_mismatch"   // Commission outside tolerance
	SignalClaimAmountVariance SignalType = "claim_amount_variance" // Summed claims diverge
	SignalUnpaired            SignalType = "unpaired_statement"    // No treaty slip found
	SignalLowQuality          SignalType = "low_quality_document"  // Paired document below the classification minimums
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
