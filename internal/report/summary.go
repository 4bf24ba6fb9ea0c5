package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/claimtrust/internal/model"
)

// SummarySheet is the sheet name of the run summary workbook
const SummarySheet = "Claims"

// SummaryHeader lists the summary workbook columns
var SummaryHeader = []string{
	"Claim ID",
	"Status",
	"Trust Score",
	"Statement",
	"Treaty Slip",
	"Pairing Confidence",
	"Date Match %",
	"Cash Loss Risk",
	"Commission Match",
	"Claim Amount Variance %",
	"Statement Claims",
	"Ground Truth Claims",
	"Reliability",
	"Statement Risk",
	"Verified",
	"Errors",
}

// WriteSummary writes one row per record to an xlsx workbook at path
func WriteSummary(path string, records []*model.ClaimRecord) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(SummaryHeader))
	for i, h := range SummaryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SummarySheet, 1, 1, bold)
	}
	_ = f.SetPanes(SummarySheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := summaryRow(rec)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SummarySheet, "A", "A", 32)
	_ = f.SetColWidth(SummarySheet, "D", "E", 36)
	_ = f.SetColWidth(SummarySheet, "P", "P", 60)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func summaryRow(rec *model.ClaimRecord) []interface{} {
	m := rec.Metrics
	slip := ""
	if rec.TreatySlip != nil {
		slip = rec.TreatySlip.Filename
	}
	risk := ""
	if rec.StatementCompliance != nil {
		risk = string(rec.StatementCompliance.RiskLevel)
	}
	return []interface{}{
		rec.ClaimID,
		string(rec.Status),
		m.TrustScore,
		rec.Statement.Filename,
		slip,
		rec.PairingConfidence,
		m.DateComparison.MatchPercentage,
		m.FinancialComparison.CashLossLimit.RiskFlag,
		m.FinancialComparison.Commissions.Match,
		m.FinancialComparison.ClaimAmounts.VariancePercentage,
		m.GroundTruthComparison.StatementClaims,
		m.GroundTruthComparison.GroundTruthClaims,
		m.GroundTruthComparison.Reliability,
		risk,
		fmt.Sprintf("%d/%d", m.ValidationMetrics.VerifiedCount, m.ValidationMetrics.TotalChecks),
		strings.Join(rec.Errors, "; "),
	}
}
