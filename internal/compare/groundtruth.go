package compare

import (
	"fmt"
	"math"

	"github.com/ppiankov/claimtrust/internal/model"
)

// CompareGroundTruth reconciles the statement-declared claim count with the
// number of ground-truth matches. Discrepancies are count-level markers, one
// per unit of variance, not resolved claim identities.
func CompareGroundTruth(stmtClaims, gtClaims int) model.GroundTruthComparison {
	variance := stmtClaims - gtClaims
	result := model.GroundTruthComparison{
		StatementClaims:    stmtClaims,
		GroundTruthClaims:  gtClaims,
		Match:              variance == 0,
		Variance:           variance,
		Discrepancies:      []string{},
	}
	if gtClaims > 0 {
		result.VariancePercentage = float64(variance) * 100 / float64(gtClaims)
	}

	for i := 1; i <= -variance; i++ {
		result.Discrepancies = append(result.Discrepancies, fmt.Sprintf("Missing claim %d from statement", i))
	}
	for i := 1; i <= variance; i++ {
		result.Discrepancies = append(result.Discrepancies, fmt.Sprintf("Extra claim %d in statement", i))
	}

	accuracy := math.Max(0, 100-math.Abs(result.VariancePercentage))
	consistency := accuracy
	if result.Match {
		consistency = 100
	}
	result.Integrity = model.IntegrityScores{
		Completeness: math.Min(100, float64(gtClaims)/float64(max(stmtClaims, 1))*100),
		Accuracy:     accuracy,
		Consistency:  consistency,
	}
	result.Reliability = reliability(result.Integrity.Average())
	return result
}

func reliability(avg float64) string {
	switch {
	case avg >= 90:
		return model.ReliabilityHigh
	case avg >= 70:
		return model.ReliabilityMedium
	}
	return model.ReliabilityLow
}

// DeclaredClaims is the number of claims a statement declares: its distinct
// claim references, or 1 when it carries amounts but no reference.
func DeclaredClaims(data model.FinancialData) int {
	if data.ClaimCount > 0 {
		return data.ClaimCount
	}
	if len(data.MonetaryValues()) > 0 {
		return 1
	}
	return 0
}
