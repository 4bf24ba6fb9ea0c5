package compare

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ppiankov/claimtrust/internal/model"
)

// Amount sources reported in the cash-loss block
const (
	SourceLabeled = "labeled"
	SourceLargest = "largest"
	SourceNone    = "none"
)

// CompareFinancial reconciles the cash-loss limit, commissions and summed
// claim amounts. The reference side of the claim-amount comparison is the
// ground truth or the treaty slip depending on th.ComparisonMode.
func CompareFinancial(stmt, treaty model.FinancialData, gt []model.Match, th model.ThresholdConfig) model.FinancialComparison {
	result := model.FinancialComparison{
		CashLossLimit: compareCashLoss(stmt, treaty, th),
		Commissions:   compareCommissions(stmt, treaty, th),
		ClaimAmounts:  compareClaimAmounts(stmt, treaty, gt, th),
	}

	var patterns []string
	if result.CashLossLimit.RiskFlag {
		patterns = append(patterns, fmt.Sprintf("Cash loss limit differs from surplus by more than %.0f%%", th.CashLossVariance))
	}
	if !result.Commissions.Match && (result.Commissions.TreatySlipCommission != 0 || result.Commissions.StatementCommission != 0) {
		patterns = append(patterns, fmt.Sprintf("Commission values differ by more than %.0f%%", th.CommissionTolerance*100))
	}
	if result.ClaimAmounts.Suspicious {
		patterns = append(patterns, fmt.Sprintf("Total claim amounts vary by more than %.0f%%", th.ClaimAmountVariance))
	}
	if patterns == nil {
		patterns = []string{}
	}
	result.ClaimAmounts.SuspiciousPatterns = patterns
	return result
}

// pick returns the best labeled field of the category, or the largest
// monetary amount of the document when nothing is labeled.
func pick(data model.FinancialData, category model.Category) (float64, string) {
	if f, ok := data.Best(category); ok && !f.Percentage {
		return f.Value, SourceLabeled
	}
	if v, ok := data.Largest(); ok {
		return v, SourceLargest
	}
	return 0, SourceNone
}

func compareCashLoss(stmt, treaty model.FinancialData, th model.ThresholdConfig) model.CashLossComparison {
	cashLoss, cashSource := pick(treaty, model.CategoryCashLossLimit)
	surplus, surplusSource := pick(stmt, model.CategorySurplusAmount)

	result := model.CashLossComparison{
		TreatySlipAmount:       cashLoss,
		TreatySlipSource:       cashSource,
		StatementSurplusAmount: surplus,
		StatementSurplusSource: surplusSource,
		WithinLimits:           surplus > 0 && cashLoss <= surplus,
	}
	// A missing side leaves the ratio at 0 and raises no risk.
	if cashSource == SourceNone || surplus <= 0 {
		return result
	}
	result.VariancePercentage = 100 * (cashLoss - surplus) / surplus
	result.RiskFlag = math.Abs(result.VariancePercentage) > th.CashLossVariance
	return result
}

// compareCommissions matches when |t-s| < tolerance * max(t,s). Two zero
// commissions do not match.
func compareCommissions(stmt, treaty model.FinancialData, th model.ThresholdConfig) model.CommissionComparison {
	t := bestValue(treaty, model.CategoryCommission)
	s := bestValue(stmt, model.CategoryCommission)

	result := model.CommissionComparison{
		TreatySlipCommission: t,
		StatementCommission:  s,
		Tolerance:            th.CommissionTolerance * math.Max(t, s),
		VarianceAmount:       t - s,
	}
	result.Match = math.Abs(t-s) < result.Tolerance
	if s > 0 {
		result.VariancePercentage = 100 * (t - s) / s
	}
	return result
}

func bestValue(data model.FinancialData, category model.Category) float64 {
	if f, ok := data.Best(category); ok {
		return f.Value
	}
	return 0
}

func compareClaimAmounts(stmt, treaty model.FinancialData, gt []model.Match, th model.ThresholdConfig) model.ClaimAmountComparison {
	mode := th.ComparisonMode
	if mode == "" {
		mode = model.ModeGroundTruth
	}

	total := SumAmounts(stmt)
	var reference decimal.Decimal
	switch mode {
	case model.ModeTreaty:
		reference = SumAmounts(treaty)
	default:
		for _, m := range gt {
			reference = reference.Add(decimal.NewFromFloat(m.Record.Amount))
		}
	}

	variance := total.Sub(reference)
	result := model.ClaimAmountComparison{
		Mode:           mode,
		TotalStatement: toFloat(total),
		TotalReference: toFloat(reference),
		Variance:       toFloat(variance),
	}
	if reference.IsPositive() {
		result.VariancePercentage = toFloat(variance.Mul(decimal.NewFromInt(100)).Div(reference))
	}
	result.Suspicious = math.Abs(result.VariancePercentage) > th.ClaimAmountVariance
	return result
}

// SumAmounts adds the distinct non-percentage monetary values of a document
func SumAmounts(data model.FinancialData) decimal.Decimal {
	values := data.MonetaryValues()
	sort.Float64s(values)

	sum := decimal.Zero
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
