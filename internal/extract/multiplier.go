package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

type multiplier struct {
	factor     int64
	confidence float64
	ambiguous  bool // a bare unit letter that needs currency context
}

var unitMultipliers = map[string]multiplier{
	"billion":  {1_000_000_000, 0.95, false},
	"bn":       {1_000_000_000, 0.95, false},
	"million":  {1_000_000, 0.95, false},
	"mn":       {1_000_000, 0.95, false},
	"thousand": {1_000, 0.9, false},
	"b":        {1_000_000_000, 0.85, true},
	"m":        {1_000_000, 0.75, true},
	"k":        {1_000, 0.8, true},
}

var currencyIndicators = []string{
	"usd", "gbp", "eur", "cad", "aud", "$", "£", "€", "¥",
	"amount", "premium", "limit", "loss", "commission", "surplus", "cash",
}

func hasCurrencyContext(lower string) bool {
	for _, ind := range currencyIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func hasPercentContext(lower string) bool {
	return strings.Contains(lower, "%") || strings.Contains(lower, "percent")
}

// scale applies the unit suffix captured with a number. Explicit words
// always apply. A bare b/m/k applies only when the surrounding window
// (already lowercased) carries a currency indicator, and never next to a
// percentage. The product is computed in decimal so base x factor is exact.
func scale(base decimal.Decimal, unit string, windowLower string) (float64, float64) {
	factor := int64(1)
	confidence := 1.0

	if unit != "" {
		m, ok := unitMultipliers[strings.ToLower(unit)]
		switch {
		case !ok:
		case !m.ambiguous:
			factor, confidence = m.factor, m.confidence
		case hasCurrencyContext(windowLower):
			factor, confidence = m.factor, m.confidence
			if factor > 1000 && hasPercentContext(windowLower) {
				factor, confidence = 1, 0.9
			}
		default:
			confidence = 0.6
		}
	}

	value, _ := base.Mul(decimal.NewFromInt(factor)).Float64()
	return value, adjustForReasonableness(value, confidence, windowLower)
}

func adjustForReasonableness(value, confidence float64, windowLower string) float64 {
	if reasonable(value, windowLower) {
		return min(1.0, confidence+0.05)
	}
	return max(0.3, confidence-0.2)
}

// reasonable checks a value against the range its context implies
func reasonable(value float64, lower string) bool {
	percent := strings.Contains(lower, "%")
	switch {
	case percent && (strings.Contains(lower, "commission") || strings.Contains(lower, "rate")):
		return value >= 0 && value <= 100
	case containsAny(lower, "premium", "amount", "limit", "loss"):
		return value >= 100 && value <= 1_000_000_000
	case percent && strings.Contains(lower, "share"):
		return value >= 0 && value <= 100
	}
	return value >= 0 && value <= 10_000_000_000
}

// parseNumber turns "1,234.50" into an exact decimal
func parseNumber(raw string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(",", "", " ", "").Replace(raw)
	return decimal.NewFromString(clean)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
