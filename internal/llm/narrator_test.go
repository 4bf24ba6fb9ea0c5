package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/worker"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name       string
	available  bool
	text       string
	err        error
	prompts    []string
	availCalls int
}

func (m *MockProvider) Name() string  { return m.name }
func (m *MockProvider) Model() string { return "mock-model" }

func (m *MockProvider) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *MockProvider) Check(context.Context) error {
	m.availCalls++
	if !m.available {
		return errors.New("connection refused")
	}
	return nil
}

func testRecord() *model.ClaimRecord {
	slip := model.AttachmentSummary{Filename: "slip_Q3.pdf"}
	return &model.ClaimRecord{
		ClaimID:           "MARINE_Statement_Q3",
		Statement:         model.AttachmentSummary{Filename: "MARINE_Statement_Q3.pdf"},
		TreatySlip:        &slip,
		PairingConfidence: 1,
		StatementCompliance: &model.ComplianceAnalysis{
			ComplianceScore: 0.42,
			RiskLevel:       model.RiskMedium,
			RiskIndicators:  []string{"AMOUNT_SIGNIFICANTLY_ABOVE_HISTORICAL"},
			MatchesFound:    5,
			AvgSimilarity:   0.42,
		},
		GroundTruthMatches: []model.Match{
			{
				Record:          model.GroundTruthRecord{PartnerName: "GA Insurance Limited", ClaimName: "Hull damage", DateOfLoss: "2023-03-14"},
				SimilarityScore: 0.5,
				Distance:        1,
				Rank:            1,
			},
		},
		Metrics: model.ComparisonMetrics{
			TrustScore: 62.5,
			GroundTruthComparison: model.GroundTruthComparison{
				StatementClaims:   3,
				GroundTruthClaims: 5,
				Discrepancies:     []string{"Missing claim 1 from statement"},
				Reliability:       model.ReliabilityMedium,
			},
		},
	}
}

func TestNewNarrator_DisabledProvider(t *testing.T) {
	narrator, err := NewNarrator(Config{Provider: ""}, nil, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if narrator.IsEnabled() {
		t.Error("Expected narrator to be disabled")
	}
	if narrator.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	got := narrator.Narrate(context.Background(), testRecord(), "", "")
	if got.Available || got.Error != "" || got.Provider != "" {
		t.Errorf("Expected empty unavailable narrative, got %+v", got)
	}
}

func TestNewNarrator_UnknownProvider(t *testing.T) {
	if _, err := NewNarrator(Config{Provider: "gemini"}, nil, nil, nil); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestNarrator_ProviderUnavailable(t *testing.T) {
	mock := &MockProvider{name: "test-provider", available: false}
	narrator := newNarrator(mock, DefaultInstructions, nil, nil, nil)

	got := narrator.Narrate(context.Background(), testRecord(), "", "")
	if got.Available {
		t.Error("Expected narrative to be unavailable")
	}
	if !strings.Contains(got.Error, "not available") {
		t.Errorf("Expected unavailability error, got %q", got.Error)
	}
	if len(mock.prompts) != 0 {
		t.Error("Expected no generation when provider is unavailable")
	}
}

func TestNarrator_Success(t *testing.T) {
	mock := &MockProvider{name: "test-provider", available: true, text: "Claim needs review."}
	narrator := newNarrator(mock, DefaultInstructions, worker.NewLimiter(0, 1), nil, nil)

	for i := 0; i < 2; i++ {
		got := narrator.Narrate(context.Background(), testRecord(), "statement body", "slip body")

		if !got.Available {
			t.Fatalf("Expected narrative, got error %q", got.Error)
		}
		if got.Text != "Claim needs review." {
			t.Errorf("Unexpected text %q", got.Text)
		}
		if got.Provider != "test-provider" || got.Model != "mock-model" {
			t.Errorf("Unexpected provider/model %s/%s", got.Provider, got.Model)
		}
	}

	if mock.availCalls != 1 {
		t.Errorf("Expected availability checked once, got %d", mock.availCalls)
	}
	if !strings.Contains(mock.prompts[0], "statement body") || !strings.Contains(mock.prompts[0], "slip body") {
		t.Error("Expected document texts in prompt")
	}
}

func TestNarrator_ProviderError(t *testing.T) {
	mock := &MockProvider{name: "test-provider", available: true, err: errors.New("API rate limit exceeded")}
	narrator := newNarrator(mock, DefaultInstructions, nil, nil, nil)

	got := narrator.Narrate(context.Background(), testRecord(), "", "")

	if got.Available {
		t.Error("Expected narrative to be unavailable after failure")
	}
	if !strings.Contains(got.Error, "failed") || !strings.Contains(got.Error, "rate limit") {
		t.Errorf("Expected error to mention failure, got %q", got.Error)
	}
	if got.Provider != "test-provider" {
		t.Errorf("Expected provider recorded on failure, got %q", got.Provider)
	}
}

func TestNarrator_CancelledContext(t *testing.T) {
	mock := &MockProvider{name: "test-provider", available: true, text: "x"}
	limiter := worker.NewLimiter(0.001, 1)
	limiter.Allow(worker.ServiceNarrative) // drain the only token
	narrator := newNarrator(mock, DefaultInstructions, limiter, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := narrator.Narrate(ctx, testRecord(), "", "")
	if got.Available || !strings.Contains(got.Error, "rate limiter") {
		t.Errorf("Expected rate limiter error, got %+v", got)
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	prompt, err := BuildPrompt(PromptData{Record: testRecord(), StatementText: "Premium USD 1,000"})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	expected := []string{
		DefaultInstructions,
		"CLAIM: MARINE_Statement_Q3",
		"TRUST SCORE: 62.50/100",
		"STATEMENT COMPLIANCE:",
		"- Compliance Score: 0.420",
		"- Risk Indicators: AMOUNT_SIGNIFICANTLY_ABOVE_HISTORICAL",
		"- Documents Matched: Yes",
		"Missing claim 1 from statement",
		"STATEMENT (MARINE_Statement_Q3.pdf):\nPremium USD 1,000",
		"TREATY SLIP (slip_Q3.pdf):",
		"Match 1 (Similarity: 0.500, Distance: 1.000):",
		"Partner: GA Insurance Limited",
	}
	for _, want := range expected {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "TREATY SLIP COMPLIANCE:") {
		t.Error("Expected no treaty compliance block when absent")
	}
}

func TestBuildPrompt_Unpaired(t *testing.T) {
	rec := testRecord()
	rec.TreatySlip = nil
	rec.GroundTruthMatches = nil

	prompt, err := BuildPrompt(PromptData{Record: rec})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "- Documents Matched: No") {
		t.Error("Expected unpaired marker")
	}
	if strings.Contains(prompt, "TREATY SLIP (") {
		t.Error("Expected no treaty text block")
	}
	if !strings.Contains(prompt, "GROUND TRUTH MATCHES WITH SIMILARITY SCORES:\nNone") {
		t.Errorf("Expected None for empty matches\n%s", prompt)
	}
}

func TestBuildPrompt_TruncatesDocuments(t *testing.T) {
	long := strings.Repeat("x", maxDocumentChars+50)
	prompt, err := BuildPrompt(PromptData{Record: testRecord(), StatementText: long})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "[truncated]") {
		t.Error("Expected truncation marker")
	}
}

func TestBuildPrompt_NoRecord(t *testing.T) {
	if _, err := BuildPrompt(PromptData{}); err == nil {
		t.Error("Expected error without record")
	}
}

func TestLoadInstructions(t *testing.T) {
	got, err := LoadInstructions("")
	if err != nil || got != DefaultInstructions {
		t.Errorf("Expected default instructions, got %q (%v)", got, err)
	}

	path := filepath.Join(t.TempDir(), "prompt.txt")
	_ = os.WriteFile(path, []byte("  Flag every claim above 1m.\n"), 0o644)
	got, err = LoadInstructions(path)
	if err != nil || got != "Flag every claim above 1m." {
		t.Errorf("Expected file instructions, got %q (%v)", got, err)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	_ = os.WriteFile(empty, nil, 0o644)
	if _, err := LoadInstructions(empty); err == nil {
		t.Error("Expected error for empty prompt file")
	}
	if _, err := LoadInstructions(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing prompt file")
	}
}

func TestConfigFromModel_EnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai", Model: "gpt-4o", Timeout: 30})
	if cfg.APIKey != "env-key" {
		t.Errorf("Expected API key from env, got %q", cfg.APIKey)
	}
	if cfg.Model != "gpt-4o" || cfg.Timeout != 30 {
		t.Errorf("Expected fields copied, got %+v", cfg)
	}

	explicit := ConfigFromModel(model.LLMConfig{Provider: "openai", APIKey: "cfg-key"})
	if explicit.APIKey != "cfg-key" {
		t.Errorf("Expected configured key to win, got %q", explicit.APIKey)
	}

	ollama := ConfigFromModel(model.LLMConfig{Provider: "ollama"})
	if ollama.BaseURL != "http://gpu-box:11434" {
		t.Errorf("Expected Ollama URL from env, got %q", ollama.BaseURL)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Provider != "" {
		t.Errorf("Expected disabled provider, got %q", config.Provider)
	}
	if config.MaxTokens != 1500 || config.Timeout != 60 {
		t.Errorf("Unexpected defaults: %+v", config)
	}
}
