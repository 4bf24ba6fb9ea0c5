package model

import (
	"fmt"
	"strings"
)

// GroundTruthRecord is one historical claim row from the ledger
type GroundTruthRecord struct {
	PartnerName   string  `json:"partner_name"`
	Amount        float64 `json:"amount"` // absolute value of "Amount (Original)"
	BusinessTitle string  `json:"business_title"`
	MainClass     string  `json:"main_class"`
	ClaimName     string  `json:"claim_name"`
	DateOfLoss    string  `json:"date_of_loss"` // YYYY-MM-DD when parseable
}

// Text renders the record the way it is embedded in the semantic index
func (r GroundTruthRecord) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Partner: %s ", r.PartnerName)
	fmt.Fprintf(&b, "Amount: %.2f ", r.Amount)
	fmt.Fprintf(&b, "Business: %s - %s ", r.BusinessTitle, r.MainClass)
	fmt.Fprintf(&b, "Claim: %s ", r.ClaimName)
	fmt.Fprintf(&b, "Loss Date: %s", r.DateOfLoss)
	return b.String()
}

// Match is one nearest-neighbour result
type Match struct {
	Record          GroundTruthRecord `json:"record"`
	SimilarityScore float64           `json:"similarity_score"` // 1/(1+distance), in (0,1]
	Distance        float64           `json:"distance"`
	Rank            int               `json:"rank"` // 1 = closest
}

// MatchDates returns the distinct loss dates of the matches in rank order
func MatchDates(matches []Match) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		d := m.Record.DateOfLoss
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
