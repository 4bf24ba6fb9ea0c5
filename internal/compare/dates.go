package compare

import (
	"fmt"

	"github.com/ppiankov/claimtrust/internal/model"
)

// DateAlgorithm tags the date agreement formula
const DateAlgorithm = "weighted-3"

// CompareDates measures agreement between the statement, treaty slip and
// ground-truth date sets:
//
//	match_percentage = 100 * (|S∩G| + |T∩G| + |S∩T|) / (3 * |S∪T∪G|)
func CompareDates(stmt, treaty, gt []string) model.DateComparison {
	s, t, g := toSet(stmt), toSet(treaty), toSet(gt)

	result := model.DateComparison{
		StatementDates:   nonNil(stmt),
		TreatySlipDates:  nonNil(treaty),
		GroundTruthDates: nonNil(gt),
		Matches: model.DateMatches{
			StatementGroundTruth: intersect(s, g),
			TreatyGroundTruth:    intersect(t, g),
			StatementTreaty:      intersect(s, t),
		},
		Discrepancies: []string{},
		Algorithm:     DateAlgorithm,
	}

	union := make(map[string]bool)
	for _, set := range []map[string]bool{s, t, g} {
		for d := range set {
			union[d] = true
		}
	}
	result.UniqueDates = len(union)
	if len(union) > 0 {
		sum := result.Matches.StatementGroundTruth + result.Matches.TreatyGroundTruth + result.Matches.StatementTreaty
		result.MatchPercentage = 100 * float64(sum) / float64(3*len(union))
	}

	if len(s) != len(g) {
		result.Discrepancies = append(result.Discrepancies,
			fmt.Sprintf("Statement has %d dates, Ground Truth has %d", len(s), len(g)))
	}
	if len(t) != len(g) {
		result.Discrepancies = append(result.Discrepancies,
			fmt.Sprintf("Treaty Slip has %d dates, Ground Truth has %d", len(t), len(g)))
	}
	return result
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func intersect(a, b map[string]bool) int {
	n := 0
	for v := range a {
		if b[v] {
			n++
		}
	}
	return n
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
