package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimtrust/internal/classify"
	"github.com/ppiankov/claimtrust/internal/model"
)

// ClaimID derives the claim identifier from a statement filename
func ClaimID(filename string) string {
	base := filepath.Base(filename)
	id := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if id == "" || id == "." {
		return "claim"
	}
	return id
}

// ClaimQueryText combines the paired documents into the text queried
// against the ground truth index.
func ClaimQueryText(pair model.DocumentPair) string {
	var b strings.Builder
	writeSection(&b, "STATEMENT DOCUMENT", pair.Statement)
	if pair.TreatySlip != nil {
		b.WriteString("\n\n")
		writeSection(&b, "TREATY SLIP DOCUMENT", *pair.TreatySlip)
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, att model.Attachment) {
	b.WriteString(title)
	b.WriteString(":\nFilename: ")
	b.WriteString(att.Filename)
	b.WriteString("\nType: ")
	b.WriteString(string(att.Classification.DocType))
	b.WriteString("\nText: ")
	b.WriteString(att.Text)
}

// qualitySignals warns about paired documents whose classification is too
// weak to rely on.
func qualitySignals(pair model.DocumentPair) []model.Signal {
	docs := []model.Attachment{pair.Statement}
	if pair.TreatySlip != nil {
		docs = append(docs, *pair.TreatySlip)
	}

	var signals []model.Signal
	for _, att := range docs {
		c := att.Classification
		if classify.Acceptable(c) {
			continue
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalLowQuality,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%s classified with quality %.2f and confidence %.2f", att.Filename, c.QualityScore, c.Confidence),
			Data: map[string]interface{}{
				"filename":          att.Filename,
				"doc_type":          string(c.DocType),
				"quality_score":     c.QualityScore,
				"confidence":        c.Confidence,
				"extraction_errors": len(c.ExtractionErrors),
				"min_quality":       classify.MinQuality,
				"min_confidence":    classify.MinConfidence,
			},
		})
	}
	return signals
}
