package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/claimtrust/internal/model"
)

var (
	cellSeparator = regexp.MustCompile(`\s{3,}|\t+|\|`)
	cellNumber    = regexp.MustCompile(`(?i)` + numberPattern + unitPattern)
	cellPercent   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

type cell struct {
	Text   string
	Offset int // byte offset in the document
}

type tableRow struct {
	Line  string
	Cells []cell
}

// findTableRows returns the rows of every run of at least two consecutive
// lines that each look tabular: longer than 10 characters with at least two
// column separators.
func findTableRows(text string) []tableRow {
	var rows, run []tableRow
	flush := func() {
		if len(run) >= 2 {
			rows = append(rows, run...)
		}
		run = nil
	}

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		content := strings.TrimRight(line, "\r\n")
		if len(strings.TrimSpace(content)) > 10 && len(cellSeparator.FindAllStringIndex(content, -1)) >= 2 {
			run = append(run, tableRow{Line: content, Cells: splitCells(content, offset)})
		} else {
			flush()
		}
		offset += len(line)
	}
	flush()
	return rows
}

func splitCells(line string, offset int) []cell {
	var cells []cell
	start := 0
	add := func(end int) {
		raw := line[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			cells = append(cells, cell{Text: trimmed, Offset: offset + start + strings.Index(raw, trimmed)})
		}
	}
	for _, loc := range cellSeparator.FindAllStringIndex(line, -1) {
		add(loc[0])
		start = loc[1]
	}
	add(len(line))
	return cells
}

// tableFields reads values for a category from cells next to a keyword cell
func (e *FieldExtractor) tableFields(rows []tableRow, category model.Category, docType model.DocType) []model.ExtractedField {
	var out []model.ExtractedField
	for _, row := range rows {
		rowLower := strings.ToLower(row.Line)
		for i, c := range row.Cells {
			if !e.keywords.matchAny(category, strings.ToLower(c.Text)) {
				continue
			}
			for _, j := range []int{i - 1, i + 1} {
				if j < 0 || j >= len(row.Cells) {
					continue
				}
				f, ok := e.cellValue(row.Cells[j], category, docType, rowLower)
				if !ok {
					continue
				}
				f.Context = c.Text + " -> " + row.Cells[j].Text
				out = append(out, f)
			}
		}
	}
	return out
}

func (e *FieldExtractor) cellValue(c cell, category model.Category, docType model.DocType, rowLower string) (model.ExtractedField, bool) {
	if _, isDate := parseDate(c.Text); isDate {
		return model.ExtractedField{}, false
	}

	f := model.ExtractedField{
		Category: category,
		Text:     c.Text,
		Source:   "table",
		Position: c.Offset,
	}

	if percentCategory(category) {
		if m := cellPercent.FindStringSubmatch(c.Text); m != nil {
			base, err := parseNumber(m[1])
			if err != nil {
				return f, false
			}
			f.Value, _ = base.Float64()
			f.Percentage = true
			multConf := adjustForReasonableness(f.Value, 1.0, rowLower)
			f.Confidence = min(0.9, valueConfidence(f.Value, category, docType, e.keywords, rowLower, 0, len(rowLower))*multConf+0.1)
			return f, true
		}
	}

	loc := cellNumber.FindStringSubmatchIndex(c.Text)
	if loc == nil || followsDate(c.Text, loc[3]) || followsPercent(c.Text, loc[3]) {
		return f, false
	}
	base, err := parseNumber(c.Text[loc[2]:loc[3]])
	if err != nil {
		return f, false
	}
	unit := ""
	if loc[4] >= 0 {
		unit = c.Text[loc[4]:loc[5]]
	}
	value, multConf := scale(base, unit, rowLower)
	f.Value = value
	f.Position = c.Offset + loc[2]
	f.Confidence = min(0.9, valueConfidence(value, category, docType, e.keywords, rowLower, 0, len(rowLower))*multConf+0.1)
	return f, true
}
