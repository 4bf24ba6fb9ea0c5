package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/claimtrust/internal/index"
	"github.com/ppiankov/claimtrust/internal/model"
)

type fakeQuerier struct {
	matches []model.Match
	errs    []error
	calls   int
	lastK   int
}

func (f *fakeQuerier) Query(_ context.Context, _ string, k int) ([]model.Match, error) {
	f.calls++
	f.lastK = k
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.matches, nil
}

func match(similarity, amount float64) model.Match {
	return model.Match{
		Record:          model.GroundTruthRecord{Amount: amount},
		SimilarityScore: similarity,
	}
}

func attachmentWithAmount(amount float64) model.Attachment {
	data := model.NewFinancialData()
	if amount > 0 {
		data.Fields = []model.ExtractedField{{Category: model.CategoryAmount, Value: amount}}
	}
	return model.Attachment{
		Filename:       "doc.pdf",
		Text:           "statement of account",
		Classification: model.DocumentClassification{FinancialData: data},
	}
}

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := querySleepFunc
	querySleepFunc = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	t.Cleanup(func() { querySleepFunc = orig })
	return &slept
}

func TestEvaluate_RiskLevels(t *testing.T) {
	tests := []struct {
		name           string
		matches        []model.Match
		amount         float64
		wantLevel      model.RiskLevel
		wantIndicators []string
	}{
		{
			name:           "close matches in range",
			matches:        []model.Match{match(0.9, 1000), match(0.7, 1000)},
			amount:         1500,
			wantLevel:      model.RiskLow,
			wantIndicators: []string{},
		},
		{
			name:           "moderate similarity",
			matches:        []model.Match{match(0.5, 1000), match(0.4, 1000)},
			amount:         1000,
			wantLevel:      model.RiskMedium,
			wantIndicators: []string{},
		},
		{
			name:           "amount far above history",
			matches:        []model.Match{match(0.9, 1000), match(0.8, 1000)},
			amount:         3500,
			wantLevel:      model.RiskMedium,
			wantIndicators: []string{IndicatorAmountAbove},
		},
		{
			name:           "amount far below history",
			matches:        []model.Match{match(0.9, 1000)},
			amount:         50,
			wantLevel:      model.RiskMedium,
			wantIndicators: []string{IndicatorAmountBelow},
		},
		{
			name:           "dissimilar and oversized",
			matches:        []model.Match{match(0.15, 100), match(0.1, 100)},
			amount:         10000,
			wantLevel:      model.RiskHigh,
			wantIndicators: []string{IndicatorLowSimilarity, IndicatorUnusual, IndicatorAmountAbove},
		},
		{
			name:           "no matches",
			matches:        nil,
			amount:         1000,
			wantLevel:      model.RiskHigh,
			wantIndicators: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.matches, tt.amount)

			if got.RiskLevel != tt.wantLevel {
				t.Errorf("Expected risk %s, got %s", tt.wantLevel, got.RiskLevel)
			}
			if fmt.Sprint(got.RiskIndicators) != fmt.Sprint(tt.wantIndicators) {
				t.Errorf("Expected indicators %v, got %v", tt.wantIndicators, got.RiskIndicators)
			}
			if got.Status != model.ComplianceOK {
				t.Errorf("Expected status ok, got %s", got.Status)
			}
			if got.GroundTruthMatches == nil {
				t.Error("Expected non-nil match list")
			}
		})
	}
}

func TestEvaluate_Scores(t *testing.T) {
	got := Evaluate([]model.Match{match(1.0, 1000), match(0.5, 3000)}, 0)

	if got.ComplianceScore != 0.75 || got.AvgSimilarity != 0.75 {
		t.Errorf("Expected compliance 0.75, got %v", got.ComplianceScore)
	}
	if got.MaxSimilarity != 1.0 {
		t.Errorf("Expected max similarity 1.0, got %v", got.MaxSimilarity)
	}
	if got.HistoricalAverage != 2000 {
		t.Errorf("Expected historical average 2000, got %v", got.HistoricalAverage)
	}
	if got.MatchesFound != 2 {
		t.Errorf("Expected 2 matches, got %d", got.MatchesFound)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0] != RecommendStandard {
		t.Errorf("Expected standard processing, got %v", got.Recommendations)
	}
}

func TestCrossValidate_UsesLargestAmount(t *testing.T) {
	q := &fakeQuerier{matches: []model.Match{match(0.9, 100)}}
	a := NewAnalyzer(q, 0, zaptest.NewLogger(t), nil)

	got := a.CrossValidate(context.Background(), attachmentWithAmount(1000))

	if q.lastK != 5 {
		t.Errorf("Expected default k=5, got %d", q.lastK)
	}
	if got.DocumentAmount != 1000 {
		t.Errorf("Expected document amount 1000, got %v", got.DocumentAmount)
	}
	if len(got.RiskIndicators) != 1 || got.RiskIndicators[0] != IndicatorAmountAbove {
		t.Errorf("Expected amount-above indicator, got %v", got.RiskIndicators)
	}
}

func TestCrossValidate_EmptyIndexIsErrored(t *testing.T) {
	slept := noSleep(t)
	q := &fakeQuerier{errs: []error{fmt.Errorf("query: %w", index.ErrEmptyIndex)}}
	a := NewAnalyzer(q, 5, zaptest.NewLogger(t), nil)

	got := a.CrossValidate(context.Background(), attachmentWithAmount(0))

	if got.Status != model.ComplianceErrored {
		t.Errorf("Expected errored status, got %s", got.Status)
	}
	if got.Error != "ground truth data not available" {
		t.Errorf("Unexpected error text: %q", got.Error)
	}
	if q.calls != 1 || len(*slept) != 0 {
		t.Errorf("Expected no retry, got %d calls and %d sleeps", q.calls, len(*slept))
	}
}

func TestCrossValidate_RetriesTransientFailures(t *testing.T) {
	slept := noSleep(t)
	q := &fakeQuerier{
		matches: []model.Match{match(0.9, 100)},
		errs: []error{
			&openai.APIError{HTTPStatusCode: 429, Message: "rate limited"},
			errors.New("dial tcp: connection refused"),
			nil,
		},
	}
	a := NewAnalyzer(q, 5, zaptest.NewLogger(t), nil)

	got := a.CrossValidate(context.Background(), attachmentWithAmount(100))

	if got.Status != model.ComplianceOK {
		t.Fatalf("Expected ok after retries, got %s (%s)", got.Status, got.Error)
	}
	if q.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", q.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if fmt.Sprint(*slept) != fmt.Sprint(want) {
		t.Errorf("Expected backoff %v, got %v", want, *slept)
	}
}

func TestCrossValidate_GivesUpAfterMaxRetries(t *testing.T) {
	noSleep(t)
	boom := &openai.APIError{HTTPStatusCode: 503, Message: "unavailable"}
	q := &fakeQuerier{errs: []error{boom, boom, boom, boom}}
	a := NewAnalyzer(q, 5, nil, nil)

	got := a.CrossValidate(context.Background(), attachmentWithAmount(100))

	if got.Status != model.ComplianceErrored || got.RiskLevel != model.RiskHigh {
		t.Errorf("Expected errored high-risk analysis, got %+v", got)
	}
	if q.calls != queryMaxRetries {
		t.Errorf("Expected %d calls, got %d", queryMaxRetries, q.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&openai.APIError{HTTPStatusCode: 500}, true},
		{&openai.APIError{HTTPStatusCode: 401}, false},
		{fmt.Errorf("embed: %w", &openai.RequestError{HTTPStatusCode: 429}), true},
		{errors.New("i/o timeout"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("invalid input"), false},
		{index.ErrEmptyIndex, false},
		{context.Canceled, false},
	}

	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestTruncateQuery(t *testing.T) {
	long := make([]byte, maxQueryChars+100)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateQuery("  " + string(long))
	if len(got) != maxQueryChars {
		t.Errorf("Expected %d chars, got %d", maxQueryChars, len(got))
	}
}

func TestTruncateQuery_KeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("a", maxQueryChars-1) + "€uro"
	got := truncateQuery(text)

	if !utf8.ValidString(got) {
		t.Fatal("Expected valid UTF-8 after truncation")
	}
	if len(got) != maxQueryChars-1 {
		t.Errorf("Expected the split rune to be dropped, got %d bytes", len(got))
	}
}

func TestSleepContext_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Expected sleep to stop on cancellation")
	}

	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Expected nil after a full sleep, got %v", err)
	}
}

func TestMatches_StopsBackoffWhenContextEnds(t *testing.T) {
	q := &fakeQuerier{errs: []error{&openai.APIError{HTTPStatusCode: 503, Message: "unavailable"}}}
	a := NewAnalyzer(q, 5, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := a.Matches(ctx, "statement of account", 5)
	if elapsed := time.Since(start); elapsed >= time.Second {
		t.Errorf("Expected backoff to end with the context, took %v", elapsed)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("Expected the query error to be kept, got %v", err)
	}
	if q.calls != 1 {
		t.Errorf("Expected 1 call, got %d", q.calls)
	}
}

func TestMatches_UsesRequestedK(t *testing.T) {
	fake := &fakeQuerier{matches: []model.Match{{Rank: 1, SimilarityScore: 1}}}
	a := NewAnalyzer(fake, 5, nil, nil)

	got, err := a.Matches(context.Background(), "claim text", 3)
	if err != nil {
		t.Fatalf("Matches failed: %v", err)
	}
	if len(got) != 1 || fake.lastK != 3 {
		t.Errorf("Expected k=3 passed through, got k=%d", fake.lastK)
	}
}
