// Package compare reconciles a statement, its treaty slip and the nearest
// ground-truth claims. Everything here is pure: no I/O and no errors, a
// missing counterpart degrades to zero ratios.
package compare

import (
	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/score"
)

// Input is everything known about one claim
type Input struct {
	Statement   model.FinancialData
	TreatySlip  *model.FinancialData // nil when the statement is unpaired
	GroundTruth []model.Match
}

// Engine composes the comparisons and the trust scorer
type Engine struct {
	thresholds model.ThresholdConfig
	scorer     *score.Scorer
}

// NewEngine creates a comparison engine
func NewEngine(thresholds model.ThresholdConfig) *Engine {
	return &Engine{
		thresholds: thresholds,
		scorer:     score.NewScorer(thresholds),
	}
}

// Compare produces the comparison metrics of one claim
func (e *Engine) Compare(in Input) model.ComparisonMetrics {
	treaty := model.NewFinancialData()
	if in.TreatySlip != nil {
		treaty = *in.TreatySlip
	}

	dates := CompareDates(in.Statement.DateList(), treaty.DateList(), model.MatchDates(in.GroundTruth))
	financial := CompareFinancial(in.Statement, treaty, in.GroundTruth, e.thresholds)
	groundTruth := CompareGroundTruth(DeclaredClaims(in.Statement), len(in.GroundTruth))

	validation, trust, signals := e.scorer.Calculate(dates, financial, groundTruth)
	if in.TreatySlip == nil {
		signals = append(signals, model.Signal{
			Type:        model.SignalUnpaired,
			Severity:    model.SeverityWarning,
			Description: "No treaty slip paired with the statement",
		})
	}

	return model.ComparisonMetrics{
		DateComparison:        dates,
		FinancialComparison:   financial,
		GroundTruthComparison: groundTruth,
		ValidationMetrics:     validation,
		TrustScore:            trust,
		Signals:               signals,
	}
}
