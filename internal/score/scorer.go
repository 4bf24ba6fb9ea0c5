package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/claimtrust/internal/model"
)

// Algorithm tags the trust score formula
const Algorithm = "weighted-v1"

// Factor weights of the trust score
const (
	WeightDate      = 0.25
	WeightFinancial = 0.35
	WeightClaims    = 0.25
	WeightIntegrity = 0.15
)

// Financial alignment penalties
const (
	penaltyCashLoss   = 30
	penaltyCommission = 20
	penaltyClaimSum   = 25
)

// Scorer derives the verifications and the trust score of a comparison
type Scorer struct {
	thresholds model.ThresholdConfig
}

// NewScorer creates a scorer with the given tolerances
func NewScorer(thresholds model.ThresholdConfig) *Scorer {
	return &Scorer{thresholds: thresholds}
}

// Calculate returns the validation metrics, the trust score in [0,100] and
// one signal per factor plus any risk signals.
func (s *Scorer) Calculate(dates model.DateComparison, fin model.FinancialComparison, gt model.GroundTruthComparison) (model.ValidationMetrics, float64, []model.Signal) {
	var signals []model.Signal

	// 1. Date consistency (weight 0.25)
	dateScore, dateSignal := s.calculateDateConsistency(dates)
	signals = append(signals, dateSignal)

	// 2. Financial alignment (weight 0.35)
	financialScore, financialSignal := s.calculateFinancialAlignment(fin)
	signals = append(signals, financialSignal)

	// 3. Claims verification (weight 0.25)
	claimsScore, claimsSignal := s.calculateClaimsVerification(gt)
	signals = append(signals, claimsSignal)

	// 4. Data integrity (weight 0.15)
	integrityScore, integritySignal := s.calculateDataIntegrity(gt)
	signals = append(signals, integritySignal)

	signals = append(signals, s.detectRisks(fin)...)

	trust := clamp(dateScore*WeightDate +
		financialScore*WeightFinancial +
		claimsScore*WeightClaims +
		integrityScore*WeightIntegrity)

	metrics := model.ValidationMetrics{
		DatesVerified:       dates.MatchPercentage >= s.thresholds.DateVerification,
		AmountsVerified:     !fin.CashLossLimit.RiskFlag,
		CommissionsVerified: fin.Commissions.Match,
		ClaimsCountVerified: gt.Match,
		TotalChecks:         4,
		Reliability: model.ReliabilityIndicators{
			DataConsistency:        dateScore,
			CrossReferenceAccuracy: clamp(gt.Integrity.Accuracy),
			FinancialAlignment:     financialScore,
			TemporalConsistency:    dateScore,
		},
		Algorithm: Algorithm,
	}
	for _, ok := range []bool{metrics.DatesVerified, metrics.AmountsVerified, metrics.CommissionsVerified, metrics.ClaimsCountVerified} {
		if ok {
			metrics.VerifiedCount++
		}
	}

	return metrics, trust, signals
}

// calculateDateConsistency uses the date match percentage directly
func (s *Scorer) calculateDateConsistency(dates model.DateComparison) (float64, model.Signal) {
	score := clamp(dates.MatchPercentage)

	severity := model.SeverityInfo
	if dates.UniqueDates == 0 {
		severity = model.SeverityWarning
	} else if score < s.thresholds.DateVerification {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalDateConsistency,
		Severity:    severity,
		Description: fmt.Sprintf("Date agreement: %.1f%% across %d unique dates", score, dates.UniqueDates),
		Data: map[string]interface{}{
			"match_percentage": dates.MatchPercentage,
			"unique_dates":     dates.UniqueDates,
			"algorithm":        dates.Algorithm,
			"score":            score,
			"weight":           WeightDate,
			"formula":          "100 * (|S∩G| + |T∩G| + |S∩T|) / (3 * |S∪T∪G|)",
		},
	}
}

// calculateFinancialAlignment starts at 100 and subtracts penalties
func (s *Scorer) calculateFinancialAlignment(fin model.FinancialComparison) (float64, model.Signal) {
	score := 100.0
	var penalties []string

	if fin.CashLossLimit.RiskFlag {
		score -= penaltyCashLoss
		penalties = append(penalties, "cash_loss_risk")
	}
	if !fin.Commissions.Match {
		score -= penaltyCommission
		penalties = append(penalties, "commission_mismatch")
	}
	if math.Abs(fin.ClaimAmounts.VariancePercentage) > s.thresholds.ClaimVariancePenalty {
		score -= penaltyClaimSum
		penalties = append(penalties, "claim_amount_variance")
	}
	score = clamp(score)

	severity := model.SeverityInfo
	if score < 50 {
		severity = model.SeverityCritical
	} else if score < 100 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalFinancialAlignment,
		Severity:    severity,
		Description: fmt.Sprintf("Financial alignment: %.0f (%d penalties)", score, len(penalties)),
		Data: map[string]interface{}{
			"penalties": penalties,
			"score":     score,
			"weight":    WeightFinancial,
			"formula":   fmt.Sprintf("100 - 30*cash_loss_risk - 20*commission_mismatch - 25*(|claim_variance| > %.0f%%)", s.thresholds.ClaimVariancePenalty),
		},
	}
}

// calculateClaimsVerification is 90 when claim counts match, 50 otherwise
func (s *Scorer) calculateClaimsVerification(gt model.GroundTruthComparison) (float64, model.Signal) {
	score := 50.0
	severity := model.SeverityWarning
	if gt.Match {
		score = 90
		severity = model.SeverityInfo
	}

	return score, model.Signal{
		Type:        model.SignalClaimsVerification,
		Severity:    severity,
		Description: fmt.Sprintf("Claim count: statement %d, ground truth %d", gt.StatementClaims, gt.GroundTruthClaims),
		Data: map[string]interface{}{
			"statement_claims":    gt.StatementClaims,
			"ground_truth_claims": gt.GroundTruthClaims,
			"variance":            gt.Variance,
			"score":               score,
			"weight":              WeightClaims,
			"formula":             "90 if counts match else 50",
		},
	}
}

// calculateDataIntegrity uses the completeness sub-score
func (s *Scorer) calculateDataIntegrity(gt model.GroundTruthComparison) (float64, model.Signal) {
	score := clamp(gt.Integrity.Completeness)

	severity := model.SeverityInfo
	switch gt.Reliability {
	case model.ReliabilityLow:
		severity = model.SeverityCritical
	case model.ReliabilityMedium:
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalDataIntegrity,
		Severity:    severity,
		Description: fmt.Sprintf("Data integrity: completeness %.0f, reliability %s", score, gt.Reliability),
		Data: map[string]interface{}{
			"completeness": gt.Integrity.Completeness,
			"accuracy":     gt.Integrity.Accuracy,
			"consistency":  gt.Integrity.Consistency,
			"reliability":  gt.Reliability,
			"score":        score,
			"weight":       WeightIntegrity,
			"formula":      "min(100, ground_truth_claims / max(statement_claims, 1) * 100)",
		},
	}
}

// detectRisks emits the financial risk signals that cost points
func (s *Scorer) detectRisks(fin model.FinancialComparison) []model.Signal {
	var signals []model.Signal

	if fin.CashLossLimit.RiskFlag {
		signals = append(signals, model.Signal{
			Type:        model.SignalCashLossRisk,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("Cash loss limit %.2f vs surplus %.2f (%.1f%%)", fin.CashLossLimit.TreatySlipAmount, fin.CashLossLimit.StatementSurplusAmount, fin.CashLossLimit.VariancePercentage),
			Data: map[string]interface{}{
				"treaty_slip_amount":       fin.CashLossLimit.TreatySlipAmount,
				"statement_surplus_amount": fin.CashLossLimit.StatementSurplusAmount,
				"variance_percentage":      fin.CashLossLimit.VariancePercentage,
				"threshold":                s.thresholds.CashLossVariance,
				"penalty":                  penaltyCashLoss,
			},
		})
	}

	if !fin.Commissions.Match {
		signals = append(signals, model.Signal{
			Type:        model.SignalCommissionMismatch,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Commission mismatch: treaty %.2f vs statement %.2f", fin.Commissions.TreatySlipCommission, fin.Commissions.StatementCommission),
			Data: map[string]interface{}{
				"treaty_slip_commission": fin.Commissions.TreatySlipCommission,
				"statement_commission":   fin.Commissions.StatementCommission,
				"tolerance":              fin.Commissions.Tolerance,
				"penalty":                penaltyCommission,
			},
		})
	}

	if math.Abs(fin.ClaimAmounts.VariancePercentage) > s.thresholds.ClaimVariancePenalty {
		signals = append(signals, model.Signal{
			Type:        model.SignalClaimAmountVariance,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Summed claim amounts differ by %.1f%% from %s", fin.ClaimAmounts.VariancePercentage, fin.ClaimAmounts.Mode),
			Data: map[string]interface{}{
				"total_statement":     fin.ClaimAmounts.TotalStatement,
				"total_reference":     fin.ClaimAmounts.TotalReference,
				"variance_percentage": fin.ClaimAmounts.VariancePercentage,
				"mode":                fin.ClaimAmounts.Mode,
				"penalty":             penaltyClaimSum,
			},
		})
	}

	return signals
}

func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
