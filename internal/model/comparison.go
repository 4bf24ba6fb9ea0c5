package model

// DocumentPair links a statement with its most plausible treaty slip
type DocumentPair struct {
	Statement         Attachment  `json:"statement"`
	TreatySlip        *Attachment `json:"treaty_slip"` // nil when no candidate scored above 0
	PairingConfidence float64     `json:"pairing_confidence"`
}

// ComparisonMode selects the reference side of the claim-amount comparison
type ComparisonMode string

const (
	ModeGroundTruth ComparisonMode = "ground_truth"
	ModeTreaty      ComparisonMode = "treaty"
)

// DateMatches counts pairwise date intersections
type DateMatches struct {
	StatementGroundTruth int `json:"statement_gt_matches"`
	TreatyGroundTruth    int `json:"treaty_gt_matches"`
	StatementTreaty      int `json:"statement_treaty_matches"`
}

// DateComparison is the date agreement across the three sources
type DateComparison struct {
	StatementDates   []string    `json:"statement_dates"`
	TreatySlipDates  []string    `json:"treaty_slip_dates"`
	GroundTruthDates []string    `json:"ground_truth_dates"`
	Matches          DateMatches `json:"matches"`
	UniqueDates      int         `json:"unique_dates"`
	MatchPercentage  float64     `json:"match_percentage"`
	Discrepancies    []string    `json:"discrepancies"`
	Algorithm        string      `json:"algorithm"`
}

// CashLossComparison compares the treaty cash-loss limit with the statement surplus
type CashLossComparison struct {
	TreatySlipAmount       float64 `json:"treaty_slip_amount"`
	TreatySlipSource       string  `json:"treaty_slip_source"` // labeled | largest | none
	StatementSurplusAmount float64 `json:"statement_surplus_amount"`
	StatementSurplusSource string  `json:"statement_surplus_source"`
	WithinLimits           bool    `json:"within_limits"`
	VariancePercentage     float64 `json:"variance_percentage"`
	RiskFlag               bool    `json:"risk_flag"`
}

// CommissionComparison compares treaty and statement commissions
type CommissionComparison struct {
	TreatySlipCommission float64 `json:"treaty_slip_commission"`
	StatementCommission  float64 `json:"statement_commission"`
	Tolerance            float64 `json:"tolerance"`
	Match                bool    `json:"match"`
	VarianceAmount       float64 `json:"variance_amount"`
	VariancePercentage   float64 `json:"variance_percentage"`
}

// ClaimAmountComparison compares summed claim amounts
type ClaimAmountComparison struct {
	Mode               ComparisonMode `json:"mode"`
	TotalStatement     float64        `json:"total_claims_statement"`
	TotalReference     float64        `json:"total_claims_reference"`
	Variance           float64        `json:"variance"`
	VariancePercentage float64        `json:"variance_percentage"`
	Suspicious         bool           `json:"suspicious"`
	SuspiciousPatterns []string       `json:"suspicious_patterns"`
}

// FinancialComparison groups the financial sub-comparisons
type FinancialComparison struct {
	CashLossLimit CashLossComparison    `json:"cash_loss_limit"`
	Commissions   CommissionComparison  `json:"commissions"`
	ClaimAmounts  ClaimAmountComparison `json:"claim_amounts"`
}

// IntegrityScores are the derived ground-truth integrity sub-scores (0-100)
type IntegrityScores struct {
	Completeness float64 `json:"completeness_score"`
	Accuracy     float64 `json:"accuracy_score"`
	Consistency  float64 `json:"consistency_score"`
}

// Average returns the mean of the three sub-scores
func (s IntegrityScores) Average() float64 {
	return (s.Completeness + s.Accuracy + s.Consistency) / 3
}

// Reliability levels
const (
	ReliabilityHigh   = "HIGH"
	ReliabilityMedium = "MEDIUM"
	ReliabilityLow    = "LOW"
)

// GroundTruthComparison is the claim-count reconciliation
type GroundTruthComparison struct {
	StatementClaims    int             `json:"statement_claims"`
	GroundTruthClaims  int             `json:"ground_truth_claims"`
	Match              bool            `json:"match"`
	Variance           int             `json:"variance"`
	VariancePercentage float64         `json:"variance_percentage"`
	Discrepancies      []string        `json:"discrepancies"`
	Integrity          IntegrityScores `json:"data_integrity"`
	Reliability        string          `json:"reliability"`
}

// ReliabilityIndicators summarize sub-scores for reporting (0-100)
type ReliabilityIndicators struct {
	DataConsistency        float64 `json:"data_consistency"`
	CrossReferenceAccuracy float64 `json:"cross_reference_accuracy"`
	FinancialAlignment     float64 `json:"financial_alignment"`
	TemporalConsistency    float64 `json:"temporal_consistency"`
}

// ValidationMetrics holds the boolean verifications
type ValidationMetrics struct {
	DatesVerified       bool                  `json:"dates_verified"`
	AmountsVerified     bool                  `json:"amounts_verified"`
	CommissionsVerified bool                  `json:"commissions_verified"`
	ClaimsCountVerified bool                  `json:"claims_count_verified"`
	VerifiedCount       int                   `json:"verified_count"`
	TotalChecks         int                   `json:"total_checks"`
	Reliability         ReliabilityIndicators `json:"reliability_indicators"`
	Algorithm           string                `json:"algorithm"`
}

// ComparisonMetrics is the terminal per-claim artifact
type ComparisonMetrics struct {
	DateComparison        DateComparison        `json:"date_comparison"`
	FinancialComparison   FinancialComparison   `json:"financial_comparison"`
	GroundTruthComparison GroundTruthComparison `json:"ground_truth_comparison"`
	ValidationMetrics     ValidationMetrics     `json:"validation_metrics"`
	TrustScore            float64               `json:"trust_score"`
	Signals               []Signal              `json:"signals"`
}
