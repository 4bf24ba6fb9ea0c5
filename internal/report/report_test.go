package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/claimtrust/internal/model"
)

func sampleRecord() *model.ClaimRecord {
	slip := model.AttachmentSummary{Filename: "slip_Q3.pdf", DocType: model.DocTypeTreatySlip, Confidence: 0.4, QualityScore: 0.8}
	return &model.ClaimRecord{
		ID:      "rec-1",
		RunID:   "run-1",
		ClaimID: "MARINE_Statement_Q3",
		Statement: model.AttachmentSummary{
			Filename:     "MARINE_Statement_Q3.pdf",
			DocType:      model.DocTypeStatement,
			Confidence:   0.9,
			QualityScore: 0.75,
		},
		TreatySlip:        &slip,
		PairingConfidence: 1,
		StatementCompliance: &model.ComplianceAnalysis{
			ComplianceScore: 0.5,
			RiskLevel:       model.RiskMedium,
			RiskIndicators:  []string{"UNUSUAL_CLAIM_PATTERN"},
			Recommendations: []string{"ADDITIONAL_VERIFICATION_RECOMMENDED"},
			Status:          model.ComplianceOK,
		},
		GroundTruthMatches: []model.Match{
			{Record: model.GroundTruthRecord{PartnerName: "GA Insurance Limited", Amount: 500}, SimilarityScore: 0.5, Distance: 1, Rank: 1},
		},
		Metrics: model.ComparisonMetrics{
			TrustScore: 71.25,
			DateComparison: model.DateComparison{
				MatchPercentage: 66.7,
				Algorithm:       "weighted-3",
			},
			GroundTruthComparison: model.GroundTruthComparison{
				StatementClaims:   3,
				GroundTruthClaims: 5,
				Variance:          -2,
				Discrepancies:     []string{"Missing claim 1 from statement", "Missing claim 2 from statement"},
				Reliability:       model.ReliabilityLow,
			},
			ValidationMetrics: model.ValidationMetrics{VerifiedCount: 2, TotalChecks: 4, Algorithm: "weighted-v1"},
		},
		Narrative:   model.Narrative{Available: false, Error: "LLM provider openai is not available"},
		ProcessedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Status:      model.StatusComplete,
	}
}

func newTestStore(t *testing.T, validate bool) *Store {
	t.Helper()
	store, err := NewStore(model.OutputConfig{Dir: filepath.Join(t.TempDir(), "out"), ValidateSchema: validate}, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_Write(t *testing.T) {
	store := newTestStore(t, true)
	rec := sampleRecord()

	paths, err := store.Write(rec)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if filepath.Base(paths.JSON) != "20240506_070809_MARINE_Statement_Q3.json" {
		t.Errorf("Unexpected JSON name %s", filepath.Base(paths.JSON))
	}
	if filepath.Base(paths.Text) != "20240506_070809_MARINE_Statement_Q3.txt" {
		t.Errorf("Unexpected text name %s", filepath.Base(paths.Text))
	}

	data, err := os.ReadFile(paths.JSON)
	if err != nil {
		t.Fatalf("read JSON: %v", err)
	}
	var decoded model.ClaimRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if decoded.ClaimID != rec.ClaimID || decoded.Metrics.TrustScore != 71.25 {
		t.Errorf("Unexpected decoded record %+v", decoded)
	}
	if decoded.PipelineVersion != model.PipelineVersion {
		t.Errorf("Expected pipeline version stamped, got %q", decoded.PipelineVersion)
	}

	text, err := os.ReadFile(paths.Text)
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	for _, want := range []string{"Claim MARINE_Statement_Q3", "Trust score:   71.", "Missing claim 2 from statement", "Narrative unavailable"} {
		if !strings.Contains(string(text), want) {
			t.Errorf("Expected text report to contain %q", want)
		}
	}
}

func TestStore_WriteKeepsRecordsWithSameClaimID(t *testing.T) {
	store := newTestStore(t, true)

	first := sampleRecord()
	second := sampleRecord()
	second.ID = "rec-2"

	firstPaths, err := store.Write(first)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	secondPaths, err := store.Write(second)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if firstPaths.JSON == secondPaths.JSON || firstPaths.Text == secondPaths.Text {
		t.Fatalf("Expected distinct paths, got %s twice", firstPaths.JSON)
	}
	if filepath.Base(secondPaths.JSON) != "20240506_070809_MARINE_Statement_Q3_2.json" {
		t.Errorf("Unexpected JSON name %s", filepath.Base(secondPaths.JSON))
	}
	if filepath.Base(secondPaths.Text) != "20240506_070809_MARINE_Statement_Q3_2.txt" {
		t.Errorf("Unexpected text name %s", filepath.Base(secondPaths.Text))
	}

	for want, path := range map[string]string{"rec-1": firstPaths.JSON, "rec-2": secondPaths.JSON} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read JSON: %v", err)
		}
		var decoded model.ClaimRecord
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("decode JSON: %v", err)
		}
		if decoded.ID != want {
			t.Errorf("Expected record %s in %s, got %s", want, filepath.Base(path), decoded.ID)
		}
	}
}

func TestStore_WriteNormalizesNilMatches(t *testing.T) {
	store := newTestStore(t, true)
	rec := sampleRecord()
	rec.GroundTruthMatches = nil
	rec.TreatySlip = nil
	rec.PairingConfidence = 0

	paths, err := store.Write(rec)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, _ := os.ReadFile(paths.JSON)
	if !strings.Contains(string(data), `"ground_truth_matches": []`) {
		t.Error("Expected empty match array in JSON")
	}
}

func TestStore_RejectsInvalidRecord(t *testing.T) {
	store := newTestStore(t, true)
	rec := sampleRecord()
	rec.Metrics.TrustScore = 140

	if _, err := store.Write(rec); err == nil {
		t.Fatal("Expected schema error for out-of-range trust score")
	}

	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Errorf("Expected nothing written, got %d files", len(entries))
	}

	unvalidated := newTestStore(t, false)
	if _, err := unvalidated.Write(rec); err != nil {
		t.Errorf("Expected write without validation, got %v", err)
	}
}

func TestValidator_RejectsBadSimilarity(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}

	rec := sampleRecord()
	rec.GroundTruthMatches[0].SimilarityScore = 0
	data, _ := json.Marshal(rec)
	if err := v.Validate(data); err == nil {
		t.Error("Expected error for zero similarity")
	}

	rec = sampleRecord()
	rec.GroundTruthMatches[0].Rank = 0
	data, _ = json.Marshal(rec)
	if err := v.Validate(data); err == nil {
		t.Error("Expected error for rank 0")
	}

	rec = sampleRecord()
	rec.Status = "unknown"
	data, _ = json.Marshal(rec)
	if err := v.Validate(data); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MARINE_Statement_Q3", "MARINE_Statement_Q3"},
		{"claim 12/2024: hull", "claim_12_2024_hull"},
		{"../../etc/passwd", "etc_passwd"},
		{"   ", "claim"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStore_WriteSummary(t *testing.T) {
	store := newTestStore(t, false)
	second := sampleRecord()
	second.ClaimID = "MARINE_Statement_Q4"
	second.TreatySlip = nil
	second.Status = model.StatusDegraded
	second.Errors = []string{"index: timeout"}

	path, err := store.WriteSummary([]*model.ClaimRecord{sampleRecord(), second})
	if err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Claim ID" || rows[0][len(SummaryHeader)-1] != "Errors" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	if rows[1][0] != "MARINE_Statement_Q3" || rows[1][4] != "slip_Q3.pdf" {
		t.Errorf("Unexpected first row %v", rows[1])
	}
	if rows[2][1] != "degraded" || rows[2][len(rows[2])-1] != "index: timeout" {
		t.Errorf("Unexpected second row %v", rows[2])
	}
}
