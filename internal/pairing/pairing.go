// Package pairing links each statement with its most plausible treaty slip.
package pairing

import (
	"math"
	"strings"

	"github.com/ppiankov/claimtrust/internal/model"
)

const (
	filenameWeight  = 0.6
	financialWeight = 0.4
)

// Pairer scores statement/treaty-slip candidates
type Pairer struct {
	tolerance float64
}

// New creates a pairer. tolerance is the relative difference under which
// the largest amounts of two documents count as matching.
func New(tolerance float64) *Pairer {
	if tolerance <= 0 {
		tolerance = model.DefaultThresholds().PairingAmountTolerance
	}
	return &Pairer{tolerance: tolerance}
}

// Split separates attachments by classified type; unknown documents are dropped
func Split(attachments []model.Attachment) (statements, slips []model.Attachment) {
	for _, a := range attachments {
		switch a.Classification.DocType {
		case model.DocTypeStatement:
			statements = append(statements, a)
		case model.DocTypeTreatySlip:
			slips = append(slips, a)
		}
	}
	return statements, slips
}

// Pair returns one pair per statement. The slip with the strictly highest
// confidence wins, the first one seen on ties. A statement with no slip
// scoring above zero is returned with a nil TreatySlip.
func (p *Pairer) Pair(statements, slips []model.Attachment) []model.DocumentPair {
	pairs := make([]model.DocumentPair, 0, len(statements))
	for _, stmt := range statements {
		pair := model.DocumentPair{Statement: stmt}
		for i := range slips {
			conf := p.Confidence(stmt, slips[i])
			if conf > pair.PairingConfidence {
				pair.PairingConfidence = conf
				pair.TreatySlip = &slips[i]
			}
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

// Confidence is 0.6 for a filename match plus 0.4 for a financial match
func (p *Pairer) Confidence(stmt, slip model.Attachment) float64 {
	conf := 0.0
	if filenameMatch(stmt.Filename, slip.Filename) {
		conf += filenameWeight
	}
	if p.financialMatch(stmt.Classification.FinancialData, slip.Classification.FinancialData) {
		conf += financialWeight
	}
	return conf
}

// filenameMatch checks whether the token after the first underscore of the
// statement filename occurs in the slip filename.
func filenameMatch(stmt, slip string) bool {
	parts := strings.Split(stmt, "_")
	if len(parts) < 2 || parts[1] == "" {
		return false
	}
	return strings.Contains(slip, parts[1])
}

func (p *Pairer) financialMatch(stmt, slip model.FinancialData) bool {
	a, ok := stmt.Largest()
	if !ok {
		return false
	}
	b, ok := slip.Largest()
	if !ok {
		return false
	}
	larger := math.Max(a, b)
	if larger <= 0 {
		return false
	}
	return math.Abs(a-b)/larger < p.tolerance
}
