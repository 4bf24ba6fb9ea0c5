package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/claimtrust/internal/model"
)

// Rule finds candidate values for its categories inside one paragraph.
// Rules run in registration order and a span consumed by an earlier rule
// is not reported again by a later one.
type Rule interface {
	Name() string
	Categories() []model.Category
	Apply(p paragraph, ctx *ruleContext) []model.ExtractedField
}

// ruleContext carries what a rule needs to score a match
type ruleContext struct {
	category model.Category
	docType  model.DocType
	keywords Keywords
	window   int
	now      time.Time

	lower   string // lowercased paragraph text
	percent bool   // paragraph mentions % or "percent"
	claimed [][2]int
}

func newRuleContext(p paragraph, category model.Category, docType model.DocType, e *FieldExtractor) *ruleContext {
	lower := strings.ToLower(p.Text)
	return &ruleContext{
		category: category,
		docType:  docType,
		keywords: e.keywords,
		window:   e.window,
		now:      e.now(),
		lower:    lower,
		percent:  hasPercentContext(lower),
	}
}

// claim records the span [start,end) and reports false when it overlaps a
// span already consumed in this paragraph.
func (c *ruleContext) claim(start, end int) bool {
	for _, s := range c.claimed {
		if start < s[1] && s[0] < end {
			return false
		}
	}
	c.claimed = append(c.claimed, [2]int{start, end})
	return true
}

const (
	numberPattern = `(\d[\d,]*(?:\.\d+)?)`
	unitPattern   = `(?:\s*(billion|bn|million|mn|thousand|b|m|k)\b)?`
	currencyCodes = `(?:USD|GBP|EUR|CAD|AUD|CHF|JPY)`
	currencySyms  = `[$£€¥]`
)

// DefaultRules returns the built-in rules in priority order
func DefaultRules() []Rule {
	return []Rule{
		newMonetaryRule("currency_code_prefix", `(?i)\b`+currencyCodes+`\s*`+currencySyms+`?\s*`+numberPattern+unitPattern),
		newMonetaryRule("currency_symbol_prefix", `(?i)`+currencySyms+`\s*`+numberPattern+unitPattern),
		newMonetaryRule("currency_code_suffix", `(?i)\b`+numberPattern+unitPattern+`\s*`+currencyCodes+`\b`),
		newMonetaryRule("labeled_amount", `(?i)\b(?:amount|total|sum|value|premium|commission|limit|loss)[:\s]+`+numberPattern+unitPattern),
		newMonetaryRule("labeled_cash_surplus_claim", `(?i)\b(?:cash|surplus|claim)[:\s]+(?:amount|limit|value)?[:\s]*`+numberPattern+unitPattern),
		newMonetaryRule("decimal_amount", `(?i)`+currencySyms+`?\s*\b(\d[\d,]*\.\d{2})\b`),

		newPercentageRule("percent_sign", `(?i)\b(\d+(?:\.\d+)?)\s*%`),
		newPercentageRule("percent_word", `(?i)\b(\d+(?:\.\d+)?)\s*percent\b`),
		newPercentageRule("labeled_percentage", `(?i)\bpercentage[:\s]+(\d+(?:\.\d+)?)`),
		newPercentageRule("labeled_rate", `(?i)\brate[:\s]+(\d+(?:\.\d+)?)\s*%?`),
		newPercentageRule("labeled_commission", `(?i)\bcommission[:\s]+(\d+(?:\.\d+)?)\s*%`),

		newDateRule("date_day_month_year", `\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`),
		newDateRule("date_year_month_day", `\b(\d{4}[/-]\d{1,2}[/-]\d{1,2})\b`),
		newDateRule("date_day_month_name", `(?i)\b(\d{1,2}\s+`+monthNames+`\s+\d{2,4})\b`),
		newDateRule("date_month_name_day", `(?i)\b(`+monthNames+`\s+\d{1,2},?\s+\d{2,4})\b`),
		newDateRule("date_ordinal", `(?i)\b(\d{1,2}(?:st|nd|rd|th)\s+`+monthNames+`\s+\d{2,4})\b`),
		newDateRule("date_iso", `\b(\d{4}-\d{2}-\d{2})\b`),
	}
}

// monetaryRule matches a number with an optional unit suffix
type monetaryRule struct {
	name string
	re   *regexp.Regexp
}

func newMonetaryRule(name, pattern string) *monetaryRule {
	return &monetaryRule{name: name, re: regexp.MustCompile(pattern)}
}

func (r *monetaryRule) Name() string { return r.name }

func (r *monetaryRule) Categories() []model.Category {
	return []model.Category{
		model.CategoryCommission,
		model.CategoryPremium,
		model.CategoryCashLossLimit,
		model.CategorySurplusAmount,
		model.CategoryAmount,
		model.CategoryShares,
	}
}

func (r *monetaryRule) Apply(p paragraph, ctx *ruleContext) []model.ExtractedField {
	if ctx.percent && percentCategory(ctx.category) {
		return nil
	}

	var out []model.ExtractedField
	for _, loc := range r.re.FindAllStringSubmatchIndex(p.Text, -1) {
		numStart, numEnd := loc[2], loc[3]
		if followsDate(p.Text, numEnd) || followsPercent(p.Text, numEnd) {
			continue
		}
		if !ctx.claim(loc[0], loc[1]) {
			continue
		}

		base, err := parseNumber(p.Text[numStart:numEnd])
		if err != nil {
			continue
		}
		unit := ""
		if len(loc) > 5 && loc[4] >= 0 {
			unit = p.Text[loc[4]:loc[5]]
		}

		around := strings.ToLower(window(p.Text, loc[0], loc[1], ctx.window, ctx.window))
		value, multConf := scale(base, unit, around)
		conf := valueConfidence(value, ctx.category, ctx.docType, ctx.keywords, p.Text, loc[0], loc[1]) * multConf

		out = append(out, model.ExtractedField{
			Category:   ctx.category,
			Value:      value,
			Text:       strings.TrimSpace(p.Text[loc[0]:loc[1]]),
			Context:    sentenceAt(p.Text, loc[0]),
			Confidence: conf,
			Source:     r.name,
			Position:   p.Offset + numStart,
		})
	}
	return out
}

// percentageRule matches a percentage in a paragraph that mentions one
type percentageRule struct {
	name string
	re   *regexp.Regexp
}

func newPercentageRule(name, pattern string) *percentageRule {
	return &percentageRule{name: name, re: regexp.MustCompile(pattern)}
}

func (r *percentageRule) Name() string { return r.name }

func (r *percentageRule) Categories() []model.Category {
	return []model.Category{model.CategoryCommission, model.CategoryShares}
}

func (r *percentageRule) Apply(p paragraph, ctx *ruleContext) []model.ExtractedField {
	if !ctx.percent {
		return nil
	}

	var out []model.ExtractedField
	for _, loc := range r.re.FindAllStringSubmatchIndex(p.Text, -1) {
		numStart, numEnd := loc[2], loc[3]
		if !ctx.claim(numStart, numEnd) {
			continue
		}
		base, err := parseNumber(p.Text[numStart:numEnd])
		if err != nil {
			continue
		}
		value, _ := base.Float64()

		around := strings.ToLower(window(p.Text, loc[0], loc[1], ctx.window, ctx.window))
		multConf := adjustForReasonableness(value, 1.0, around)
		conf := valueConfidence(value, ctx.category, ctx.docType, ctx.keywords, p.Text, loc[0], loc[1]) * multConf

		out = append(out, model.ExtractedField{
			Category:   ctx.category,
			Value:      value,
			Text:       strings.TrimSpace(p.Text[loc[0]:loc[1]]),
			Context:    sentenceAt(p.Text, loc[0]),
			Confidence: conf,
			Source:     r.name,
			Percentage: true,
			Position:   p.Offset + numStart,
		})
	}
	return out
}

// dateRule matches one textual date layout
type dateRule struct {
	name string
	re   *regexp.Regexp
}

func newDateRule(name, pattern string) *dateRule {
	return &dateRule{name: name, re: regexp.MustCompile(pattern)}
}

func (r *dateRule) Name() string { return r.name }

func (r *dateRule) Categories() []model.Category {
	return []model.Category{model.CategoryDateOfLoss}
}

func (r *dateRule) Apply(p paragraph, ctx *ruleContext) []model.ExtractedField {
	var out []model.ExtractedField
	for _, loc := range r.re.FindAllStringSubmatchIndex(p.Text, -1) {
		start, end := loc[2], loc[3]
		if !ctx.claim(start, end) {
			continue
		}
		raw := p.Text[start:end]
		text, conf, ok := normalizeDate(raw, dateConfidence(raw, p.Text, start, end), ctx.now)
		if !ok {
			continue
		}
		out = append(out, model.ExtractedField{
			Category:   ctx.category,
			Text:       text,
			Context:    sentenceAt(p.Text, start),
			Confidence: conf,
			Source:     r.name,
			Position:   p.Offset + start,
		})
	}
	return out
}

func percentCategory(c model.Category) bool {
	return c == model.CategoryCommission || c == model.CategoryShares
}

// followsDate reports whether the number ending at end continues as a
// date (14/03/2023, 2023-03-14).
func followsDate(text string, end int) bool {
	if end >= len(text) {
		return false
	}
	switch text[end] {
	case '/':
		return true
	case '-':
		return end+1 < len(text) && text[end+1] >= '0' && text[end+1] <= '9'
	}
	return false
}

// followsPercent reports whether the number ending at end is a percentage
func followsPercent(text string, end int) bool {
	rest := strings.ToLower(strings.TrimLeft(text[end:], " \t"))
	return strings.HasPrefix(rest, "%") || strings.HasPrefix(rest, "percent")
}

var valueCurrencyIndicators = []string{"$", "£", "€", "usd", "gbp", "eur"}

// valueConfidence scores a value from its surroundings in the paragraph
func valueConfidence(value float64, category model.Category, docType model.DocType, kw Keywords, text string, start, end int) float64 {
	conf := 0.5
	near := strings.ToLower(window(text, start, end, 50, 50))

	if kw.matchAny(category, near) {
		conf += 0.2
	}
	if typicalFor(docType, category) {
		conf += 0.15
	}
	if reasonableFor(category, value) {
		conf += 0.1
	}
	if category != model.CategoryShares && containsAny(near, valueCurrencyIndicators...) {
		conf += 0.1
	}
	if percentCategory(category) && strings.Contains(near, "%") {
		conf += 0.15
	}
	return min(1.0, conf)
}

// reasonableFor is the per-category plausible range
func reasonableFor(category model.Category, value float64) bool {
	switch category {
	case model.CategoryCommission:
		return value >= 0 && value <= 50
	case model.CategoryPremium, model.CategoryAmount, model.CategoryCashLossLimit:
		return value >= 1000 && value <= 100_000_000
	case model.CategoryShares:
		return value >= 0 && value <= 100
	}
	return false
}
