package report

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrust/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// RenderText renders the human-readable report of one claim
func RenderText(rec *model.ClaimRecord) string {
	var b strings.Builder
	m := rec.Metrics

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "  Claim %s\n", rec.ClaimID)
	fmt.Fprintf(&b, "%s\n\n", rule)

	fmt.Fprintf(&b, "Trust score:   %.1f/100\n", m.TrustScore)
	fmt.Fprintf(&b, "Status:        %s\n", rec.Status)
	fmt.Fprintf(&b, "Processed:     %s\n", rec.ProcessedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Run:           %s\n", rec.RunID)
	fmt.Fprintf(&b, "Version:       %s\n\n", rec.PipelineVersion)

	b.WriteString("Documents\n")
	writeAttachment(&b, "Statement", &rec.Statement)
	if rec.TreatySlip != nil {
		writeAttachment(&b, "Treaty slip", rec.TreatySlip)
		fmt.Fprintf(&b, "  Pairing confidence: %.1f\n", rec.PairingConfidence)
	} else {
		b.WriteString("  Treaty slip: none paired\n")
	}
	b.WriteString("\n")

	dates := m.DateComparison
	fmt.Fprintf(&b, "Dates (%s)\n", dates.Algorithm)
	fmt.Fprintf(&b, "  Match: %.1f%% over %d unique dates\n", dates.MatchPercentage, dates.UniqueDates)
	writeList(&b, dates.Discrepancies)
	b.WriteString("\n")

	fin := m.FinancialComparison
	b.WriteString("Financials\n")
	fmt.Fprintf(&b, "  Cash loss limit %.2f (%s) vs surplus %.2f (%s): variance %.1f%%%s\n",
		fin.CashLossLimit.TreatySlipAmount, fin.CashLossLimit.TreatySlipSource,
		fin.CashLossLimit.StatementSurplusAmount, fin.CashLossLimit.StatementSurplusSource,
		fin.CashLossLimit.VariancePercentage, flag(fin.CashLossLimit.RiskFlag, " [RISK]"))
	fmt.Fprintf(&b, "  Commission %.2f vs %.2f: %s\n",
		fin.Commissions.TreatySlipCommission, fin.Commissions.StatementCommission,
		matchWord(fin.Commissions.Match))
	fmt.Fprintf(&b, "  Claim amounts (%s) %.2f vs %.2f: variance %.1f%%%s\n",
		fin.ClaimAmounts.Mode, fin.ClaimAmounts.TotalStatement, fin.ClaimAmounts.TotalReference,
		fin.ClaimAmounts.VariancePercentage, flag(fin.ClaimAmounts.Suspicious, " [SUSPICIOUS]"))
	writeList(&b, fin.ClaimAmounts.SuspiciousPatterns)
	b.WriteString("\n")

	gt := m.GroundTruthComparison
	b.WriteString("Ground truth\n")
	fmt.Fprintf(&b, "  Claims: statement %d, ledger %d (variance %d, %.1f%%)\n",
		gt.StatementClaims, gt.GroundTruthClaims, gt.Variance, gt.VariancePercentage)
	fmt.Fprintf(&b, "  Integrity: completeness %.1f, accuracy %.1f, consistency %.1f (%s)\n",
		gt.Integrity.Completeness, gt.Integrity.Accuracy, gt.Integrity.Consistency, gt.Reliability)
	writeList(&b, gt.Discrepancies)
	for _, match := range rec.GroundTruthMatches {
		fmt.Fprintf(&b, "  #%d %.3f  %s\n", match.Rank, match.SimilarityScore, match.Record.Text())
	}
	b.WriteString("\n")

	v := m.ValidationMetrics
	fmt.Fprintf(&b, "Verification %d/%d (%s)\n", v.VerifiedCount, v.TotalChecks, v.Algorithm)
	fmt.Fprintf(&b, "  Dates %s  Amounts %s  Commissions %s  Claim count %s\n",
		check(v.DatesVerified), check(v.AmountsVerified), check(v.CommissionsVerified), check(v.ClaimsCountVerified))
	b.WriteString("\n")

	if len(m.Signals) > 0 {
		b.WriteString("Signals\n")
		for _, s := range m.Signals {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", s.Severity, s.Type, s.Description)
		}
		b.WriteString("\n")
	}

	writeCompliance(&b, "Statement compliance", rec.StatementCompliance)
	writeCompliance(&b, "Treaty slip compliance", rec.TreatySlipCompliance)

	if rec.Narrative.Available {
		fmt.Fprintf(&b, "Narrative (%s/%s)\n", rec.Narrative.Provider, rec.Narrative.Model)
		b.WriteString(rec.Narrative.Text)
		b.WriteString("\n\n")
	} else if rec.Narrative.Error != "" {
		fmt.Fprintf(&b, "Narrative unavailable: %s\n\n", rec.Narrative.Error)
	}

	if len(rec.Errors) > 0 {
		b.WriteString("Errors\n")
		writeList(&b, rec.Errors)
	}

	return b.String()
}

func writeAttachment(b *strings.Builder, label string, a *model.AttachmentSummary) {
	fmt.Fprintf(b, "  %s: %s (%s, confidence %.2f, quality %.2f)\n",
		label, a.Filename, a.DocType, a.Confidence, a.QualityScore)
	for _, e := range a.ExtractionErrors {
		fmt.Fprintf(b, "    ! %s\n", e)
	}
}

func writeCompliance(b *strings.Builder, label string, c *model.ComplianceAnalysis) {
	if c == nil {
		return
	}
	fmt.Fprintf(b, "%s\n", label)
	if c.Status == model.ComplianceErrored {
		fmt.Fprintf(b, "  Errored: %s\n", c.Error)
	}
	fmt.Fprintf(b, "  Score %.3f, risk %s, %d matches (avg %.3f, max %.3f)\n",
		c.ComplianceScore, c.RiskLevel, c.MatchesFound, c.AvgSimilarity, c.MaxSimilarity)
	writeList(b, c.RiskIndicators)
	if len(c.Recommendations) > 0 {
		fmt.Fprintf(b, "  Recommendations: %s\n", strings.Join(c.Recommendations, ", "))
	}
	b.WriteString("\n")
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func flag(on bool, label string) string {
	if on {
		return label
	}
	return ""
}

func matchWord(ok bool) string {
	if ok {
		return "match"
	}
	return "mismatch"
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
