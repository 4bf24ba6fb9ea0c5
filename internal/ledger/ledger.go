// Package ledger loads the historical claims ledger used as ground truth.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/model"
)

// ErrMissingColumn is returned when a mapped header is absent from the header row
var ErrMissingColumn = errors.New("ledger column not found")

// Loader reads ledger rows into ground-truth records
type Loader struct {
	cfg    model.LedgerConfig
	logger *zap.Logger
}

// NewLoader creates a loader; a zero HeaderRow means row 4
func NewLoader(cfg model.LedgerConfig, logger *zap.Logger) *Loader {
	if cfg.HeaderRow <= 0 {
		cfg.HeaderRow = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Load reads path (xlsx or csv) and returns the filtered records
func (l *Loader) Load(path string) ([]model.GroundTruthRecord, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = l.readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported ledger format: %s", path)
	}
	if err != nil {
		return nil, err
	}

	records, err := l.Parse(rows)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}

	l.logger.Info("ledger loaded",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("records", len(records)),
		zap.String("segment", l.cfg.SegmentFilter),
		zap.String("partner", l.cfg.PartnerFilter),
	)
	return records, nil
}

func (l *Loader) readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := l.cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// columnIndex maps each record field to its position in the header row
type columnIndex struct {
	partner, amount, business, class, claim, date int
}

func (l *Loader) mapColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	find := func(name string) (int, error) {
		i, ok := positions[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	c := l.cfg.Columns
	var idx columnIndex
	var err error
	if idx.partner, err = find(c.PartnerName); err != nil {
		return idx, err
	}
	if idx.amount, err = find(c.Amount); err != nil {
		return idx, err
	}
	if idx.business, err = find(c.BusinessTitle); err != nil {
		return idx, err
	}
	if idx.class, err = find(c.MainClass); err != nil {
		return idx, err
	}
	if idx.claim, err = find(c.ClaimName); err != nil {
		return idx, err
	}
	if idx.date, err = find(c.DateOfLoss); err != nil {
		return idx, err
	}
	return idx, nil
}

// Parse turns raw rows into records. Rows above the header are ignored, as
// are blank rows and rows outside the segment and partner filters.
func (l *Loader) Parse(rows [][]string) ([]model.GroundTruthRecord, error) {
	if len(rows) < l.cfg.HeaderRow {
		return nil, fmt.Errorf("header row %d not present (%d rows)", l.cfg.HeaderRow, len(rows))
	}

	idx, err := l.mapColumns(rows[l.cfg.HeaderRow-1])
	if err != nil {
		return nil, err
	}

	segment := strings.ToLower(strings.TrimSpace(l.cfg.SegmentFilter))
	partner := strings.ToLower(strings.TrimSpace(l.cfg.PartnerFilter))

	records := make([]model.GroundTruthRecord, 0)
	for n, row := range rows[l.cfg.HeaderRow:] {
		if blank(row) {
			continue
		}

		rec := model.GroundTruthRecord{
			PartnerName:   cell(row, idx.partner),
			BusinessTitle: cell(row, idx.business),
			MainClass:     cell(row, idx.class),
			ClaimName:     cell(row, idx.claim),
			DateOfLoss:    NormalizeDate(cell(row, idx.date)),
		}

		if segment != "" && strings.ToLower(rec.MainClass) != segment {
			continue
		}
		if partner != "" && strings.ToLower(rec.PartnerName) != partner {
			continue
		}

		amount, err := ParseAmount(cell(row, idx.amount))
		if err != nil {
			l.logger.Debug("ledger amount not numeric",
				zap.Int("row", l.cfg.HeaderRow+n+1),
				zap.String("value", cell(row, idx.amount)),
			)
		}
		rec.Amount = amount

		records = append(records, rec)
	}
	return records, nil
}

// ParseAmount reads an amount cell as an absolute value. Accounting negatives
// such as "(1,250.00)" and currency prefixes are accepted.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	s = strings.Trim(s, "()")
	s = strings.NewReplacer(",", "", " ", "", "$", "", "£", "", "€", "").Replace(s)
	for _, code := range []string{"USD", "GBP", "EUR"} {
		s = strings.TrimPrefix(strings.TrimSuffix(s, code), code)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	f, _ := d.Abs().Float64()
	return f, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
	"02/01/2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2, 2006",
}

// NormalizeDate renders a ledger date as YYYY-MM-DD. Excel serial numbers are
// converted; text it cannot read is returned trimmed and unchanged.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format("2006-01-02")
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
