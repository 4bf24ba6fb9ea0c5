// Package compliance cross-validates a single document against the
// historical claims held in the semantic index.
package compliance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/index"
	"github.com/ppiankov/claimtrust/internal/metrics"
	"github.com/ppiankov/claimtrust/internal/model"
)

// Risk indicators
const (
	IndicatorLowSimilarity = "LOW_SIMILARITY_TO_HISTORICAL_CLAIMS"
	IndicatorUnusual       = "UNUSUAL_CLAIM_PATTERN"
	IndicatorAmountAbove   = "AMOUNT_SIGNIFICANTLY_ABOVE_HISTORICAL"
	IndicatorAmountBelow   = "AMOUNT_SIGNIFICANTLY_BELOW_HISTORICAL"
)

// Recommendations
const (
	RecommendManualReview = "REQUIRES_MANUAL_REVIEW"
	RecommendInvestigate  = "INVESTIGATE_UNUSUAL_PATTERNS"
	RecommendVerification = "ADDITIONAL_VERIFICATION_RECOMMENDED"
	RecommendStandard     = "STANDARD_PROCESSING_APPROVED"
)

const (
	lowMaxSimilarity = 0.3
	lowAvgSimilarity = 0.2
	amountAboveRatio = 3.0
	amountBelowRatio = 0.1

	highRiskScore   = 0.3
	mediumRiskScore = 0.6
	highRiskCount   = 3

	queryMaxRetries = 3
	maxQueryChars   = 8000
)

// querySleepFunc waits between retries and returns early with the context
// error on cancellation (injectable for tests)
var querySleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Querier is the part of the semantic index compliance needs
type Querier interface {
	Query(ctx context.Context, text string, k int) ([]model.Match, error)
}

// Analyzer runs per-document compliance checks
type Analyzer struct {
	index   Querier
	k       int
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAnalyzer creates an analyzer; k <= 0 means 5 matches per document
func NewAnalyzer(ix Querier, k int, logger *zap.Logger, m *metrics.Metrics) *Analyzer {
	if k <= 0 {
		k = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{index: ix, k: k, logger: logger, metrics: m}
}

// CrossValidate compares one attachment with its nearest historical claims.
// Index failures never escape: they produce an errored analysis.
func (a *Analyzer) CrossValidate(ctx context.Context, att model.Attachment) *model.ComplianceAnalysis {
	matches, err := a.Matches(ctx, att.Text, a.k)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, index.ErrEmptyIndex) {
			msg = "ground truth data not available"
		}
		a.logger.Warn("compliance query failed",
			zap.String("file", att.Filename),
			zap.Error(err),
		)
		return &model.ComplianceAnalysis{
			RiskLevel:          model.RiskHigh,
			RiskIndicators:     []string{},
			Recommendations:    []string{RecommendManualReview},
			GroundTruthMatches: []model.Match{},
			Status:             model.ComplianceErrored,
			Error:              msg,
		}
	}

	documentAmount, _ := att.Classification.FinancialData.Largest()
	return Evaluate(matches, documentAmount)
}

// Evaluate scores a set of ground-truth matches against a document amount.
// A zero amount skips the amount indicators.
func Evaluate(matches []model.Match, documentAmount float64) *model.ComplianceAnalysis {
	out := &model.ComplianceAnalysis{
		RiskIndicators:     []string{},
		GroundTruthMatches: matches,
		MatchesFound:       len(matches),
		DocumentAmount:     documentAmount,
		Status:             model.ComplianceOK,
	}
	if out.GroundTruthMatches == nil {
		out.GroundTruthMatches = []model.Match{}
	}

	if len(matches) > 0 {
		var sum, historical float64
		for _, m := range matches {
			sum += m.SimilarityScore
			out.MaxSimilarity = max(out.MaxSimilarity, m.SimilarityScore)
			historical += m.Record.Amount
		}
		out.AvgSimilarity = sum / float64(len(matches))
		out.ComplianceScore = out.AvgSimilarity
		out.HistoricalAverage = historical / float64(len(matches))

		if out.MaxSimilarity < lowMaxSimilarity {
			out.RiskIndicators = append(out.RiskIndicators, IndicatorLowSimilarity)
		}
		if out.AvgSimilarity < lowAvgSimilarity {
			out.RiskIndicators = append(out.RiskIndicators, IndicatorUnusual)
		}

		if documentAmount > 0 {
			switch {
			case documentAmount > out.HistoricalAverage*amountAboveRatio:
				out.RiskIndicators = append(out.RiskIndicators, IndicatorAmountAbove)
			case documentAmount < out.HistoricalAverage*amountBelowRatio:
				out.RiskIndicators = append(out.RiskIndicators, IndicatorAmountBelow)
			}
		}
	}

	out.RiskLevel, out.Recommendations = assess(out.ComplianceScore, len(out.RiskIndicators))
	return out
}

func assess(score float64, indicators int) (model.RiskLevel, []string) {
	switch {
	case score < highRiskScore || indicators >= highRiskCount:
		return model.RiskHigh, []string{RecommendManualReview, RecommendInvestigate}
	case score < mediumRiskScore || indicators >= 1:
		return model.RiskMedium, []string{RecommendVerification}
	default:
		return model.RiskLow, []string{RecommendStandard}
	}
}

func truncateQuery(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxQueryChars {
		return text
	}
	n := maxQueryChars
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// Matches returns up to k ground-truth matches for text, retrying
// transient index failures.
func (a *Analyzer) Matches(ctx context.Context, text string, k int) ([]model.Match, error) {
	start := time.Now()
	matches, err := a.queryWithRetry(ctx, truncateQuery(text), k)
	a.metrics.ObserveCall("index", start, err)
	return matches, err
}

// queryWithRetry retries transient index failures with exponential backoff
func (a *Analyzer) queryWithRetry(ctx context.Context, text string, k int) ([]model.Match, error) {
	var (
		matches []model.Match
		err     error
	)
	for attempt := 0; attempt < queryMaxRetries; attempt++ {
		matches, err = a.index.Query(ctx, text, k)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return matches, err
		}
		if attempt < queryMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if sleepErr := querySleepFunc(ctx, backoff); sleepErr != nil {
				return matches, errors.Join(err, sleepErr)
			}
		}
	}
	return matches, err
}

// isRetryable returns true for rate limits, server errors and transient network failures
func isRetryable(err error) bool {
	if errors.Is(err, index.ErrEmptyIndex) || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code < 600)
}
