package model

import (
	"runtime"
	"time"
)

// Config is the complete claimtrust configuration
type Config struct {
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Ledger      LedgerConfig      `yaml:"ledger" mapstructure:"ledger"`
	Index       IndexConfig       `yaml:"index" mapstructure:"index"`
	Classifier  ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Thresholds  ThresholdConfig   `yaml:"thresholds" mapstructure:"thresholds"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// InputConfig controls which files are picked up as attachments
type InputConfig struct {
	Dirs       []string `yaml:"dirs" mapstructure:"dirs"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// LedgerConfig describes the ground-truth ledger source
type LedgerConfig struct {
	Path          string        `yaml:"path" mapstructure:"path"`
	Sheet         string        `yaml:"sheet" mapstructure:"sheet"`           // empty = first sheet
	HeaderRow     int           `yaml:"header_row" mapstructure:"header_row"` // 1-based
	SegmentFilter string        `yaml:"segment_filter" mapstructure:"segment_filter"`
	PartnerFilter string        `yaml:"partner_filter" mapstructure:"partner_filter"`
	Columns       LedgerColumns `yaml:"columns" mapstructure:"columns"`
}

// LedgerColumns maps record fields to ledger header names
type LedgerColumns struct {
	PartnerName   string `yaml:"partner_name" mapstructure:"partner_name"`
	Amount        string `yaml:"amount" mapstructure:"amount"`
	BusinessTitle string `yaml:"business_title" mapstructure:"business_title"`
	MainClass     string `yaml:"main_class" mapstructure:"main_class"`
	ClaimName     string `yaml:"claim_name" mapstructure:"claim_name"`
	DateOfLoss    string `yaml:"date_of_loss" mapstructure:"date_of_loss"`
}

// IndexConfig controls the semantic index and its embedder
type IndexConfig struct {
	Embedder          string        `yaml:"embedder" mapstructure:"embedder"` // hash, openai
	Model             string        `yaml:"model" mapstructure:"model"`
	Dimensions        int           `yaml:"dimensions" mapstructure:"dimensions"`
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	TopK              int           `yaml:"top_k" mapstructure:"top_k"`
	ComplianceK       int           `yaml:"compliance_k" mapstructure:"compliance_k"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// ClassifierConfig holds the document classification patterns
type ClassifierConfig struct {
	StatementFilenameTokens []string `yaml:"statement_filename_tokens" mapstructure:"statement_filename_tokens"`
	FilenameConfidence      float64  `yaml:"filename_confidence" mapstructure:"filename_confidence"`
	TreatyPatterns          []string `yaml:"treaty_patterns" mapstructure:"treaty_patterns"`
	StatementPatterns       []string `yaml:"statement_patterns" mapstructure:"statement_patterns"`
	PatternWeight           float64  `yaml:"pattern_weight" mapstructure:"pattern_weight"`
	MinScore                float64  `yaml:"min_score" mapstructure:"min_score"`
}

// ExtractionConfig tunes the field extractor
type ExtractionConfig struct {
	Keywords         map[string][]string `yaml:"keywords" mapstructure:"keywords"`
	TopKeyphrases    int                 `yaml:"top_keyphrases" mapstructure:"top_keyphrases"`
	MultiplierWindow int                 `yaml:"multiplier_window" mapstructure:"multiplier_window"`
}

// ThresholdConfig carries the reconciliation tolerances
type ThresholdConfig struct {
	PairingAmountTolerance float64        `yaml:"pairing_amount_tolerance" mapstructure:"pairing_amount_tolerance"` // ratio
	CashLossVariance       float64        `yaml:"cash_loss_variance" mapstructure:"cash_loss_variance"`             // percent
	CommissionTolerance    float64        `yaml:"commission_tolerance" mapstructure:"commission_tolerance"`         // ratio
	ClaimAmountVariance    float64        `yaml:"claim_amount_variance" mapstructure:"claim_amount_variance"`       // percent
	ClaimVariancePenalty   float64        `yaml:"claim_variance_penalty" mapstructure:"claim_variance_penalty"`     // percent
	DateVerification       float64        `yaml:"date_verification" mapstructure:"date_verification"`               // percent
	ComparisonMode         ComparisonMode `yaml:"comparison_mode" mapstructure:"comparison_mode"`
}

// ConcurrencyConfig controls parallel document analysis
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls the text and embedding caches
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig configures the narrative generator
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	PromptFile        string  `yaml:"prompt_file,omitempty" mapstructure:"prompt_file"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// OutputConfig controls where claim records are written
type OutputConfig struct {
	Dir             string `yaml:"dir" mapstructure:"dir"`
	SummaryWorkbook bool   `yaml:"summary_workbook" mapstructure:"summary_workbook"`
	ValidateSchema  bool   `yaml:"validate_schema" mapstructure:"validate_schema"`
	Verbose         bool   `yaml:"verbose" mapstructure:"verbose"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // empty = no endpoint
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Extensions: []string{".pdf", ".txt", ".html", ".htm"},
		},
		Ledger: LedgerConfig{
			HeaderRow:     4,
			SegmentFilter: "marine",
			PartnerFilter: "ga insurance limited",
			Columns: LedgerColumns{
				PartnerName:   "Responsible Partner Name",
				Amount:        "Amount (Original)",
				BusinessTitle: "Business Title",
				MainClass:     "Main Class of Business",
				ClaimName:     "Claim Name",
				DateOfLoss:    "Date of Loss",
			},
		},
		Index: IndexConfig{
			Embedder:          "hash",
			Model:             "text-embedding-3-small",
			Dimensions:        384,
			TopK:              5,
			ComplianceK:       5,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Classifier: ClassifierConfig{
			StatementFilenameTokens: []string{"marine"},
			FilenameConfidence:      0.9,
			TreatyPatterns: []string{
				`cover\s+note`,
				`treaty\s+slip`,
				`placing\s+slip`,
				`risk\s+details`,
				`underwriting\s+slip`,
			},
			StatementPatterns: []string{
				`statement\s+of\s+account`,
				`premium\s+statement`,
				`settlement\s+statement`,
				`account\s+statement`,
			},
			PatternWeight: 0.2,
			MinScore:      0.1,
		},
		Extraction: ExtractionConfig{
			TopKeyphrases:    20,
			MultiplierWindow: 80,
		},
		Thresholds: DefaultThresholds(),
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".claimtrust-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:          "", // Disabled by default
			Timeout:           60,
			MaxTokens:         1500,
			RequestsPerSecond: 1,
		},
		Output: OutputConfig{
			Dir:             "./claimtrust-reports",
			SummaryWorkbook: true,
			ValidateSchema:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultThresholds returns the reconciliation tolerances
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		PairingAmountTolerance: 0.10,
		CashLossVariance:       20,
		CommissionTolerance:    0.05,
		ClaimAmountVariance:    15,
		ClaimVariancePenalty:   10,
		DateVerification:       80,
		ComparisonMode:         ModeGroundTruth,
	}
}
