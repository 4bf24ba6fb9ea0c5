package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimtrust/internal/model"
)

func financialData(fields ...model.ExtractedField) model.FinancialData {
	data := model.NewFinancialData()
	data.Fields = fields
	return data
}

func field(category model.Category, value float64) model.ExtractedField {
	return model.ExtractedField{Category: category, Value: value, Confidence: 0.9}
}

func gtMatch(amount float64, date string) model.Match {
	return model.Match{Record: model.GroundTruthRecord{Amount: amount, DateOfLoss: date}, SimilarityScore: 0.5, Rank: 1}
}

func TestCompareFinancial_CashLossBoundary(t *testing.T) {
	stmt := financialData(
		field(model.CategoryAmount, 1_000_000),
		field(model.CategorySurplusAmount, 1_000_000),
	)
	treaty := financialData(field(model.CategoryCashLossLimit, 1_200_000))

	result := CompareFinancial(stmt, treaty, nil, model.DefaultThresholds())
	cash := result.CashLossLimit

	assert.Equal(t, 20.0, cash.VariancePercentage)
	assert.False(t, cash.RiskFlag, "the boundary is strictly greater than 20")
	assert.False(t, cash.WithinLimits)
	assert.Equal(t, SourceLabeled, cash.TreatySlipSource)
	assert.Equal(t, SourceLabeled, cash.StatementSurplusSource)
}

func TestCompareFinancial_CashLossFallbacks(t *testing.T) {
	stmt := financialData(field(model.CategoryAmount, 800), field(model.CategoryPremium, 2_000))
	treaty := financialData(field(model.CategoryAmount, 1_000))

	cash := CompareFinancial(stmt, treaty, nil, model.DefaultThresholds()).CashLossLimit
	assert.Equal(t, 1_000.0, cash.TreatySlipAmount)
	assert.Equal(t, SourceLargest, cash.TreatySlipSource)
	assert.Equal(t, 2_000.0, cash.StatementSurplusAmount)
	assert.True(t, cash.WithinLimits)
	assert.Equal(t, -50.0, cash.VariancePercentage)
	assert.True(t, cash.RiskFlag)

	empty := CompareFinancial(model.NewFinancialData(), model.NewFinancialData(), nil, model.DefaultThresholds()).CashLossLimit
	assert.Equal(t, SourceNone, empty.TreatySlipSource)
	assert.False(t, empty.WithinLimits, "zero surplus is never within limits")
	assert.Zero(t, empty.VariancePercentage)
}

func TestCompareFinancial_CommissionTolerance(t *testing.T) {
	tests := []struct {
		name      string
		treaty    float64
		statement float64
		match     bool
	}{
		{"within five percent", 500, 520, true},
		{"outside five percent", 500, 560, false},
		{"identical", 10, 10, true},
		{"both zero", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := financialData(field(model.CategoryCommission, tt.statement))
			treaty := financialData(field(model.CategoryCommission, tt.treaty))

			c := CompareFinancial(stmt, treaty, nil, model.DefaultThresholds()).Commissions
			assert.Equal(t, tt.match, c.Match)
			assert.Equal(t, tt.treaty-tt.statement, c.VarianceAmount)
		})
	}
}

func TestCompareFinancial_ClaimAmountModes(t *testing.T) {
	stmt := financialData(
		field(model.CategoryAmount, 1_000),
		field(model.CategoryPremium, 1_000),
		field(model.CategoryAmount, 500),
	)
	treaty := financialData(field(model.CategoryAmount, 1_500))
	gt := []model.Match{gtMatch(1_000, ""), gtMatch(300, "")}

	th := model.DefaultThresholds()
	claims := CompareFinancial(stmt, treaty, gt, th).ClaimAmounts
	assert.Equal(t, model.ModeGroundTruth, claims.Mode)
	assert.Equal(t, 1_500.0, claims.TotalStatement, "duplicate values are counted once")
	assert.Equal(t, 1_300.0, claims.TotalReference)
	assert.InDelta(t, 15.38, claims.VariancePercentage, 0.01)
	assert.True(t, claims.Suspicious)
	require.NotEmpty(t, claims.SuspiciousPatterns)

	th.ComparisonMode = model.ModeTreaty
	claims = CompareFinancial(stmt, treaty, gt, th).ClaimAmounts
	assert.Equal(t, model.ModeTreaty, claims.Mode)
	assert.Equal(t, 1_500.0, claims.TotalReference)
	assert.Zero(t, claims.VariancePercentage)
	assert.False(t, claims.Suspicious)
}

func TestCompareGroundTruth_MissingClaims(t *testing.T) {
	result := CompareGroundTruth(3, 5)

	assert.False(t, result.Match)
	assert.Equal(t, -2, result.Variance)
	assert.Equal(t, -40.0, result.VariancePercentage)
	require.Len(t, result.Discrepancies, 2)
	for _, d := range result.Discrepancies {
		assert.True(t, strings.HasPrefix(d, "Missing claim"), d)
	}
	assert.Equal(t, 100.0, result.Integrity.Completeness)
	assert.Equal(t, 60.0, result.Integrity.Accuracy)
	assert.Equal(t, 60.0, result.Integrity.Consistency)
	assert.Equal(t, model.ReliabilityMedium, result.Reliability)
}

func TestCompareGroundTruth_ExtraAndMatch(t *testing.T) {
	extra := CompareGroundTruth(4, 2)
	assert.Equal(t, 2, extra.Variance)
	assert.Equal(t, 100.0, extra.VariancePercentage)
	assert.Equal(t, []string{"Extra claim 1 in statement", "Extra claim 2 in statement"}, extra.Discrepancies)
	assert.Equal(t, 50.0, extra.Integrity.Completeness)
	assert.Zero(t, extra.Integrity.Accuracy)
	assert.Equal(t, model.ReliabilityLow, extra.Reliability)

	match := CompareGroundTruth(2, 2)
	assert.True(t, match.Match)
	assert.Empty(t, match.Discrepancies)
	assert.Equal(t, model.ReliabilityHigh, match.Reliability)

	none := CompareGroundTruth(0, 0)
	assert.True(t, none.Match)
	assert.Zero(t, none.Integrity.Completeness)
}

func TestCompareGroundTruth_NoMatchesLeavesRatioAtZero(t *testing.T) {
	result := CompareGroundTruth(1, 0)

	assert.False(t, result.Match)
	assert.Equal(t, 1, result.Variance)
	assert.Zero(t, result.VariancePercentage)
	assert.Equal(t, []string{"Extra claim 1 in statement"}, result.Discrepancies)
	assert.Zero(t, result.Integrity.Completeness)
}

func TestCompareFinancial_MissingTreatySlipLeavesRatioAtZero(t *testing.T) {
	stmt := financialData(field(model.CategorySurplusAmount, 1_000_000))

	cash := CompareFinancial(stmt, model.NewFinancialData(), nil, model.DefaultThresholds()).CashLossLimit
	assert.Equal(t, SourceNone, cash.TreatySlipSource)
	assert.Equal(t, 1_000_000.0, cash.StatementSurplusAmount)
	assert.Zero(t, cash.VariancePercentage)
	assert.False(t, cash.RiskFlag)
}

func TestCompareDates(t *testing.T) {
	result := CompareDates(
		[]string{"2023-01-01", "2023-02-02"},
		[]string{"2023-01-01"},
		[]string{"2023-01-01", "2023-03-03"},
	)

	assert.Equal(t, 1, result.Matches.StatementGroundTruth)
	assert.Equal(t, 1, result.Matches.TreatyGroundTruth)
	assert.Equal(t, 1, result.Matches.StatementTreaty)
	assert.Equal(t, 3, result.UniqueDates)
	assert.InDelta(t, 33.333, result.MatchPercentage, 0.001)
	assert.Equal(t, DateAlgorithm, result.Algorithm)
	assert.Equal(t, []string{"Treaty Slip has 1 dates, Ground Truth has 2"}, result.Discrepancies)

	empty := CompareDates(nil, nil, nil)
	assert.Zero(t, empty.MatchPercentage)
	assert.Empty(t, empty.Discrepancies)
	assert.NotNil(t, empty.StatementDates)
}

func TestDeclaredClaims(t *testing.T) {
	assert.Zero(t, DeclaredClaims(model.NewFinancialData()))
	assert.Equal(t, 1, DeclaredClaims(financialData(field(model.CategoryAmount, 10))))

	data := financialData(field(model.CategoryAmount, 10))
	data.ClaimCount = 3
	assert.Equal(t, 3, DeclaredClaims(data))
}

func TestEngine_Compare(t *testing.T) {
	engine := NewEngine(model.DefaultThresholds())

	stmt := financialData(
		field(model.CategorySurplusAmount, 1_000_000),
		field(model.CategoryCommission, 520),
		model.ExtractedField{Category: model.CategoryDateOfLoss, Text: "2023-03-14", Confidence: 0.9},
	)
	treaty := financialData(
		field(model.CategoryCashLossLimit, 1_000_000),
		field(model.CategoryCommission, 500),
		model.ExtractedField{Category: model.CategoryDateOfLoss, Text: "2023-03-14", Confidence: 0.9},
	)
	gt := []model.Match{gtMatch(1_000_000, "2023-03-14")}

	metrics := engine.Compare(Input{Statement: stmt, TreatySlip: &treaty, GroundTruth: gt})

	assert.Equal(t, 100.0, metrics.DateComparison.MatchPercentage)
	assert.True(t, metrics.FinancialComparison.Commissions.Match)
	assert.True(t, metrics.GroundTruthComparison.Match)
	assert.Equal(t, 4, metrics.ValidationMetrics.VerifiedCount)
	assert.InDelta(t, 97.5, metrics.TrustScore, 1e-9)

	unpaired := engine.Compare(Input{Statement: stmt})
	assert.GreaterOrEqual(t, unpaired.TrustScore, 0.0)
	assert.LessOrEqual(t, unpaired.TrustScore, 100.0)
	assert.Zero(t, unpaired.FinancialComparison.CashLossLimit.VariancePercentage)
	assert.False(t, unpaired.FinancialComparison.CashLossLimit.RiskFlag)
	assert.True(t, unpaired.ValidationMetrics.AmountsVerified)
	assert.Equal(t, 1, unpaired.GroundTruthComparison.StatementClaims)
	assert.Zero(t, unpaired.GroundTruthComparison.GroundTruthClaims)
	assert.Zero(t, unpaired.GroundTruthComparison.VariancePercentage)
	var types []model.SignalType
	for _, s := range unpaired.Signals {
		types = append(types, s.Type)
	}
	assert.Contains(t, types, model.SignalUnpaired)
	assert.NotContains(t, types, model.SignalCashLossRisk)
}
