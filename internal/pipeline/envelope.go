package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/compare"
	"github.com/ppiankov/claimtrust/internal/index"
	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/pairing"
)

const similarDocuments = 3

// Analyze extracts and classifies one attachment. Extraction failures are
// recorded on the attachment; only cancellation is returned as an error.
func (p *Pipeline) Analyze(ctx context.Context, att model.Attachment) (model.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return att, err
	}

	res, err := p.text.Extract(ctx, att.Path)
	if err != nil {
		p.logger.Warn("text extraction failed", zap.String("file", att.Filename), zap.Error(err))
		att.Classification = p.classifier.Analyze(att.Filename, "")
		att.Classification.ExtractionErrors = append(att.Classification.ExtractionErrors, err.Error())
		p.metrics.Document(string(att.Classification.DocType))
		return att, nil
	}

	if att.MIME == "" {
		att.MIME = res.MIME
	}
	att.Text = res.Text
	att.Classification = p.classifier.Analyze(att.Filename, res.Text)
	p.metrics.Document(string(att.Classification.DocType))

	p.logger.Debug("classified document",
		zap.String("file", att.Filename),
		zap.String("doc_type", string(att.Classification.DocType)),
		zap.Float64("confidence", att.Classification.Confidence),
		zap.Float64("quality", att.Classification.QualityScore),
	)
	return att, nil
}

// ProcessEnvelope analyzes the attachments of one envelope, pairs them and
// reconciles every statement into a claim record.
func (p *Pipeline) ProcessEnvelope(ctx context.Context, runID string, env model.Envelope) []*model.ClaimRecord {
	log := p.logger.With(zap.String("envelope", env.Subject))

	attachments := make([]model.Attachment, 0, len(env.Attachments))
	for _, res := range p.batch.ProcessAttachments(ctx, env.Attachments) {
		if res.Error != nil {
			log.Warn("attachment analysis aborted", zap.String("file", res.Attachment.Filename), zap.Error(res.Error))
			continue
		}
		attachments = append(attachments, res.Attachment)
	}

	similar := make(map[string][]model.SimilarDocument)
	for i := range attachments {
		att := &attachments[i]
		if att.Classification.DocType == model.DocTypeUnknown {
			continue
		}
		att.Compliance = p.compliance.CrossValidate(ctx, *att)
		if att.Classification.DocType == model.DocTypeStatement {
			similar[att.ID] = p.similar(ctx, *att)
		}
	}
	p.indexDocuments(ctx, env, attachments)

	var records []*model.ClaimRecord
	for _, att := range attachments {
		if p.unreadableStatement(att) {
			log.Warn("statement has no text", zap.String("file", att.Filename))
			records = append(records, p.failedRecord(runID, att))
		}
	}

	statements, slips := pairing.Split(attachments)
	if len(statements) == 0 && len(records) == 0 {
		log.Warn("no statements found", zap.Int("attachments", len(attachments)))
		return nil
	}

	for _, pair := range p.pairer.Pair(statements, slips) {
		if ctx.Err() != nil {
			break
		}
		rec := p.processClaim(ctx, runID, pair)
		rec.SimilarDocuments = similar[pair.Statement.ID]
		log.Info("claim reconciled",
			zap.String("claim_id", rec.ClaimID),
			zap.Float64("trust_score", rec.Metrics.TrustScore),
			zap.Float64("pairing_confidence", rec.PairingConfidence),
			zap.String("status", string(rec.Status)),
		)
		records = append(records, rec)
	}
	return records
}

// unreadableStatement reports a document named like a statement that
// yielded no text, so it never reached classification.
func (p *Pipeline) unreadableStatement(att model.Attachment) bool {
	if att.Classification.DocType != model.DocTypeUnknown || strings.TrimSpace(att.Text) != "" {
		return false
	}
	docType, _ := p.classifier.Classify(att.Filename, "")
	return docType == model.DocTypeStatement
}

// failedRecord reports a statement that could not be read
func (p *Pipeline) failedRecord(runID string, att model.Attachment) *model.ClaimRecord {
	rec := &model.ClaimRecord{
		ID:                 uuid.NewString(),
		RunID:              runID,
		ClaimID:            ClaimID(att.Filename),
		Statement:          model.Summarize(att),
		GroundTruthMatches: []model.Match{},
		Metrics:            p.engine.Compare(compare.Input{Statement: att.Classification.FinancialData}),
		PipelineVersion:    model.PipelineVersion,
		Status:             model.StatusFailed,
		ProcessedAt:        time.Now().UTC(),
	}
	for _, e := range att.Classification.ExtractionErrors {
		rec.Errors = append(rec.Errors, "statement: "+e)
	}
	return rec
}

// similar finds previously processed documents close to att
func (p *Pipeline) similar(ctx context.Context, att model.Attachment) []model.SimilarDocument {
	if strings.TrimSpace(att.Text) == "" {
		return nil
	}
	hits, err := p.index.Search(ctx, att.Text, similarDocuments, att.VectorID)
	if err != nil {
		if !errors.Is(err, index.ErrEmptyIndex) {
			p.logger.Debug("similar document search failed", zap.String("file", att.Filename), zap.Error(err))
		}
		return nil
	}
	return hits
}

// indexDocuments adds the classified documents of an envelope to the index
func (p *Pipeline) indexDocuments(ctx context.Context, env model.Envelope, attachments []model.Attachment) {
	for i := range attachments {
		att := &attachments[i]
		if att.Classification.DocType == model.DocTypeUnknown || strings.TrimSpace(att.Text) == "" {
			continue
		}
		id, err := p.index.Add(ctx, att.Text, index.Meta{
			Kind:     index.KindDocument,
			Filename: att.Filename,
			DocType:  att.Classification.DocType,
			ClaimID:  env.Subject,
		})
		if err != nil {
			p.logger.Warn("failed to index document", zap.String("file", att.Filename), zap.Error(err))
			continue
		}
		att.VectorID = id
	}
}

// processClaim reconciles one statement with its treaty slip and the
// nearest historical claims. It never fails: collaborator errors degrade
// the record instead.
func (p *Pipeline) processClaim(ctx context.Context, runID string, pair model.DocumentPair) *model.ClaimRecord {
	rec := &model.ClaimRecord{
		ID:                  uuid.NewString(),
		RunID:               runID,
		ClaimID:             ClaimID(pair.Statement.Filename),
		Statement:           model.Summarize(pair.Statement),
		PairingConfidence:   pair.PairingConfidence,
		StatementCompliance: pair.Statement.Compliance,
		PipelineVersion:     model.PipelineVersion,
		Status:              model.StatusComplete,
	}

	in := compare.Input{Statement: pair.Statement.Classification.FinancialData}
	slipText := ""
	if slip := pair.TreatySlip; slip != nil {
		summary := model.Summarize(*slip)
		rec.TreatySlip = &summary
		rec.TreatySlipCompliance = slip.Compliance
		data := slip.Classification.FinancialData
		in.TreatySlip = &data
		slipText = slip.Text
	}

	matches, err := p.compliance.Matches(ctx, ClaimQueryText(pair), p.config.Index.TopK)
	if err != nil {
		addError(rec, "ground truth query", groundTruthError(err))
		matches = []model.Match{}
	}
	rec.GroundTruthMatches = matches
	in.GroundTruth = matches

	rec.Metrics = p.engine.Compare(in)
	rec.Metrics.Signals = append(rec.Metrics.Signals, qualitySignals(pair)...)

	if c := rec.StatementCompliance; c != nil && c.Status == model.ComplianceErrored {
		addError(rec, "statement compliance", c.Error)
	}
	if c := rec.TreatySlipCompliance; c != nil && c.Status == model.ComplianceErrored {
		addError(rec, "treaty slip compliance", c.Error)
	}

	rec.Narrative = p.narrator.Narrate(ctx, rec, pair.Statement.Text, slipText)
	if rec.Narrative.Error != "" {
		addError(rec, "narrative", rec.Narrative.Error)
	}

	rec.ProcessedAt = time.Now().UTC()
	return rec
}

func groundTruthError(err error) string {
	if errors.Is(err, index.ErrEmptyIndex) {
		return "ground truth data not available"
	}
	return err.Error()
}

// addError records a collaborator failure and degrades a complete record
func addError(rec *model.ClaimRecord, source, msg string) {
	rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %s", source, msg))
	if rec.Status == model.StatusComplete {
		rec.Status = model.StatusDegraded
	}
}
