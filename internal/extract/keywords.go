package extract

import (
	"strings"

	"github.com/ppiankov/claimtrust/internal/model"
)

// Keywords maps each category to the phrases that mark a relevant paragraph
type Keywords map[model.Category][]string

// DefaultKeywords returns the built-in category keywords
func DefaultKeywords() Keywords {
	return Keywords{
		model.CategoryCommission:    {"commission", "brokerage", "broker fee", "commission rate", "comm"},
		model.CategoryPremium:       {"premium", "premium amount", "total premium", "net premium", "gross premium"},
		model.CategoryCashLossLimit: {"cash loss limit", "loss limit", "maximum loss", "limit of liability", "cash limit"},
		model.CategorySurplusAmount: {"surplus", "surplus amount", "surplus lines", "surplus share", "surplus premium"},
		model.CategoryAmount:        {"amount", "total amount", "claim amount", "loss amount", "payment amount"},
		model.CategoryDateOfLoss:    {"date of loss", "loss date", "incident date", "occurrence date", "claim date"},
		model.CategoryShares:        {"shares", "share percentage", "percentage share", "quota share", "proportional share"},
	}
}

// KeywordsFromConfig overlays configured keyword lists on the defaults
func KeywordsFromConfig(cfg map[string][]string) Keywords {
	kw := DefaultKeywords()
	for name, words := range cfg {
		if len(words) == 0 {
			continue
		}
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(w)))
		}
		kw[model.Category(name)] = lowered
	}
	return kw
}

// matchAny reports whether lower contains any of the keywords
func (k Keywords) matchAny(category model.Category, lower string) bool {
	for _, word := range k[category] {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// docTypeBonus scales category confidence by how typical the category is
// for the document type.
var docTypeBonus = map[model.DocType]map[model.Category]float64{
	model.DocTypeTreatySlip: {
		model.CategoryCashLossLimit: 0.2,
		model.CategorySurplusAmount: 0.2,
		model.CategoryPremium:       0.15,
		model.CategoryCommission:    0.1,
		model.CategoryAmount:        0.1,
		model.CategoryDateOfLoss:    0.1,
		model.CategoryShares:        0.15,
	},
	model.DocTypeStatement: {
		model.CategoryCommission:    0.2,
		model.CategoryPremium:       0.2,
		model.CategoryAmount:        0.15,
		model.CategorySurplusAmount: 0.15,
		model.CategoryDateOfLoss:    0.1,
		model.CategoryCashLossLimit: 0.05,
		model.CategoryShares:        0.1,
	},
}

// typicalFor reports the per-value relevance boost for a document type
func typicalFor(docType model.DocType, category model.Category) bool {
	switch docType {
	case model.DocTypeTreatySlip:
		return category == model.CategoryCashLossLimit || category == model.CategorySurplusAmount
	case model.DocTypeStatement:
		return category == model.CategoryCommission || category == model.CategoryPremium
	}
	return false
}
