package extract

import (
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/claimtrust/internal/model"
)

// FieldExtractor pulls categorized financial facts out of document text
type FieldExtractor struct {
	keywords      Keywords
	rules         []Rule
	topKeyphrases int
	window        int
	now           func() time.Time
}

// New creates a field extractor from configuration
func New(cfg model.ExtractionConfig) *FieldExtractor {
	e := &FieldExtractor{
		keywords:      KeywordsFromConfig(cfg.Keywords),
		rules:         DefaultRules(),
		topKeyphrases: cfg.TopKeyphrases,
		window:        cfg.MultiplierWindow,
		now:           time.Now,
	}
	if e.topKeyphrases <= 0 {
		e.topKeyphrases = 20
	}
	if e.window <= 0 {
		e.window = 80
	}
	return e
}

// Extract returns the financial data found in text. Empty text yields
// empty mappings and zero confidence.
func (e *FieldExtractor) Extract(text string, docType model.DocType) model.FinancialData {
	data := model.NewFinancialData()
	if strings.TrimSpace(text) == "" {
		return data
	}

	paragraphs := splitParagraphs(text)
	phrases := topKeyphrases(text, e.topKeyphrases)
	rows := findTableRows(text)

	for _, category := range model.AllCategories() {
		var raw []model.ExtractedField
		for _, p := range paragraphs {
			if !e.keywords.matchAny(category, strings.ToLower(p.Text)) {
				continue
			}
			ctx := newRuleContext(p, category, docType, e)
			for _, r := range e.rules {
				if serves(r, category) {
					raw = append(raw, r.Apply(p, ctx)...)
				}
			}
		}
		if category != model.CategoryDateOfLoss {
			raw = append(raw, e.tableFields(rows, category, docType)...)
		}
		if len(raw) == 0 {
			continue
		}

		relevance := keywordRelevance(e.keywords[category], phrases)
		data.CategoryConfidence[category] = categoryConfidence(raw, docType, category, relevance)
		data.Fields = append(data.Fields, dedupe(raw)...)
	}

	e.populate(&data, text)
	return data
}

func serves(r Rule, category model.Category) bool {
	for _, c := range r.Categories() {
		if c == category {
			return true
		}
	}
	return false
}

// categoryConfidence is the mean raw confidence scaled by the document-type
// bonus and keyphrase relevance, capped at 1.
func categoryConfidence(raw []model.ExtractedField, docType model.DocType, category model.Category, relevance float64) float64 {
	sum := 0.0
	for _, f := range raw {
		sum += f.Confidence
	}
	mean := sum / float64(len(raw))
	return min(1.0, mean*(1+docTypeBonus[docType][category])*relevance)
}

// dedupe keeps one field per distinct value (dates: per normalized text),
// the one with the highest confidence, ordered by position.
func dedupe(raw []model.ExtractedField) []model.ExtractedField {
	type key struct {
		value float64
		text  string
		pct   bool
	}
	index := make(map[key]int)
	var out []model.ExtractedField
	for _, f := range raw {
		k := key{value: f.Value, pct: f.Percentage}
		if f.Category == model.CategoryDateOfLoss {
			k = key{text: f.Text}
		}
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, f)
			continue
		}
		if f.Confidence > out[i].Confidence {
			out[i] = f
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// populate fills the summary mappings from the extracted fields
func (e *FieldExtractor) populate(data *model.FinancialData, text string) {
	for _, category := range model.AllCategories() {
		best, ok := data.Best(category)
		if !ok {
			continue
		}
		switch {
		case category == model.CategoryDateOfLoss:
			data.Dates[string(category)] = best.Text
		case best.Percentage:
			data.Percentages[string(category)] = best.Value
		default:
			data.Amounts[string(category)] = best.Value
		}
	}

	data.Parties = extractParties(text)
	data.ClaimCount = countClaimReferences(text)

	filled := 0
	for _, n := range []int{len(data.Amounts), len(data.Percentages), len(data.Dates), len(data.Parties)} {
		if n > 0 {
			filled++
		}
	}
	data.ConfidenceScore = float64(filled) / 4
}
