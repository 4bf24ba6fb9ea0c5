package llm

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/ppiankov/claimtrust/internal/model"
)

// DefaultInstructions open every fraud-detection prompt unless a prompt file replaces them
const DefaultInstructions = `Review the insurance claim below for signs of fraud or misreporting.
Compare the statement of account with the treaty slip and with the historical ground-truth claims.
Report, in order:
1. Overall assessment and the trust score you were given.
2. Each discrepancy (dates, cash loss limit, commissions, claim amounts, claim counts) with the figures involved.
3. Compliance risk indicators and what they imply.
4. Recommended next steps for the claims handler.
Use only the data provided. If a figure is missing, say so.`

const maxDocumentChars = 6000

// PromptData is everything a narrative prompt may reference
type PromptData struct {
	Instructions   string
	Record         *model.ClaimRecord
	StatementText  string
	TreatySlipText string
}

var promptFuncs = template.FuncMap{
	"pct":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"f3":   func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"amt":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"join": strings.Join,
	"yesno": func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	},
	"add": func(a, b int) int { return a + b },
}

const promptTemplate = `{{.Instructions}}

CLAIM: {{.Record.ClaimID}}
TRUST SCORE: {{printf "%.2f" .Record.Metrics.TrustScore}}/100
{{- with .Record.StatementCompliance}}

STATEMENT COMPLIANCE:
- Compliance Score: {{f3 .ComplianceScore}}
- Risk Level: {{.RiskLevel}}
- Risk Indicators: {{if .RiskIndicators}}{{join .RiskIndicators ", "}}{{else}}None{{end}}
- Ground Truth Matches: {{.MatchesFound}}
- Average Similarity: {{f3 .AvgSimilarity}}
{{- end}}
{{- with .Record.TreatySlipCompliance}}

TREATY SLIP COMPLIANCE:
- Compliance Score: {{f3 .ComplianceScore}}
- Risk Level: {{.RiskLevel}}
- Risk Indicators: {{if .RiskIndicators}}{{join .RiskIndicators ", "}}{{else}}None{{end}}
- Ground Truth Matches: {{.MatchesFound}}
- Average Similarity: {{f3 .AvgSimilarity}}
{{- end}}

DOCUMENT PAIRING:
- Pairing Confidence: {{f3 .Record.PairingConfidence}}
- Documents Matched: {{if .Record.TreatySlip}}Yes{{else}}No{{end}}
{{with .Record.Metrics}}
RECONCILIATION:
- Date match: {{pct .DateComparison.MatchPercentage}}{{range .DateComparison.Discrepancies}}
  - {{.}}{{end}}
- Cash loss limit {{amt .FinancialComparison.CashLossLimit.TreatySlipAmount}} vs surplus {{amt .FinancialComparison.CashLossLimit.StatementSurplusAmount}} (variance {{pct .FinancialComparison.CashLossLimit.VariancePercentage}}, within limits: {{yesno .FinancialComparison.CashLossLimit.WithinLimits}})
- Commission treaty {{amt .FinancialComparison.Commissions.TreatySlipCommission}} vs statement {{amt .FinancialComparison.Commissions.StatementCommission}} (match: {{yesno .FinancialComparison.Commissions.Match}})
- Claim amounts statement {{amt .FinancialComparison.ClaimAmounts.TotalStatement}} vs {{.FinancialComparison.ClaimAmounts.Mode}} {{amt .FinancialComparison.ClaimAmounts.TotalReference}} (variance {{pct .FinancialComparison.ClaimAmounts.VariancePercentage}}){{range .FinancialComparison.ClaimAmounts.SuspiciousPatterns}}
  - {{.}}{{end}}
- Claims declared {{.GroundTruthComparison.StatementClaims}} vs ground truth {{.GroundTruthComparison.GroundTruthClaims}} (reliability {{.GroundTruthComparison.Reliability}}){{range .GroundTruthComparison.Discrepancies}}
  - {{.}}{{end}}
{{- end}}

CLAIM DATA:
STATEMENT ({{.Record.Statement.Filename}}):
{{.StatementText}}
{{- if .Record.TreatySlip}}

TREATY SLIP ({{.Record.TreatySlip.Filename}}):
{{.TreatySlipText}}
{{- end}}

GROUND TRUTH MATCHES WITH SIMILARITY SCORES:
{{- range $i, $m := .Record.GroundTruthMatches}}
Match {{add $i 1}} (Similarity: {{f3 $m.SimilarityScore}}, Distance: {{f3 $m.Distance}}):
{{$m.Record.Text}}
{{- else}}
None
{{- end}}
`

var defaultTemplate = template.Must(template.New("narrative").Funcs(promptFuncs).Parse(promptTemplate))

// LoadInstructions reads replacement instructions from path; empty path keeps the default
func LoadInstructions(path string) (string, error) {
	if path == "" {
		return DefaultInstructions, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return text, nil
}

// BuildPrompt renders the fraud-detection prompt for one claim
func BuildPrompt(data PromptData) (string, error) {
	if data.Record == nil {
		return "", fmt.Errorf("no claim record to describe")
	}
	if data.Instructions == "" {
		data.Instructions = DefaultInstructions
	}
	data.StatementText = truncate(strings.TrimSpace(data.StatementText), maxDocumentChars)
	data.TreatySlipText = truncate(strings.TrimSpace(data.TreatySlipText), maxDocumentChars)

	var buf bytes.Buffer
	if err := defaultTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n[truncated]"
}
