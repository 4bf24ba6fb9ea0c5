package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/pipeline"
)

var (
	ledgerPath  string
	outputDir   string
	workers     int
	runTimeout  time.Duration
	noCache     bool
	noSummary   bool
	embedder    string
	llmProvider string
	llmModel    string
	promptFile  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <claim-dir>...",
	Short: "Reconcile the documents of one or more claim directories",
	Long: `Analyze treats every directory as one envelope of claim correspondence:
- Extract text from each PDF, HTML or text attachment
- Classify statements of account and treaty slips
- Extract amounts, percentages, dates and parties
- Pair each statement with its most plausible treaty slip
- Cross-reference the pair with the historical claims ledger
- Write one JSON and one text record per claim, plus a summary workbook

Example:
  claimtrust analyze claims/2024-001 --ledger ledger.xlsx
  claimtrust analyze claims/* --ledger ledger.xlsx --output-dir ./reports
  claimtrust analyze claims/2024-001 --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClaims(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addRunFlags(analyzeCmd)
}

// addRunFlags registers the flags shared by analyze and batch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "ground-truth ledger (.xlsx or .csv)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for claim records")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent document workers")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "total timeout for the run")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable text and embedding caches")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "skip the summary workbook")
	cmd.Flags().StringVar(&embedder, "embedder", "", "embedder for the semantic index (hash, openai)")

	// LLM flags
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "narrative provider (openai, anthropic, ollama); empty disables narratives")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "narrative model name")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "file replacing the narrative instructions")
}

// applyRunFlags overrides the configuration with the flags set on cmd
func applyRunFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("ledger") {
		cfg.Ledger.Path = ledgerPath
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("workers") && workers > 0 {
		cfg.Concurrency.Workers = workers
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noSummary {
		cfg.Output.SummaryWorkbook = false
	}
	if flags.Changed("embedder") {
		cfg.Index.Embedder = embedder
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("prompt-file") {
		cfg.LLM.PromptFile = promptFile
	}
}

// runClaims processes dirs as one run and prints a summary to stderr
func runClaims(cmd *cobra.Command, dirs []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.log.Sync() }()
	applyRunFlags(cmd, s.cfg)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  claimtrust\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Claim dirs:   %d\n", len(dirs))
	fmt.Fprintf(os.Stderr, "  Ledger:       %s\n", orNone(s.cfg.Ledger.Path))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", s.cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Embedder:     %s\n", s.cfg.Index.Embedder)
	fmt.Fprintf(os.Stderr, "  Narratives:   %s\n", orNone(s.cfg.LLM.Provider))
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", s.cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(s.cfg, s.log, s.metrics)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx, dirs)
	if result == nil {
		return fmt.Errorf("run failed: %w", err)
	}

	for i, rec := range result.Records {
		mark := "✓"
		if rec.Status != model.StatusComplete {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "%s %s (trust: %.1f/100, %s)\n", mark, rec.ClaimID, rec.Metrics.TrustScore, rec.Status)
		if verbose {
			fmt.Fprintf(os.Stderr, "    %s\n", result.Paths[i].JSON)
			for _, e := range rec.Errors {
				fmt.Fprintf(os.Stderr, "    - %s\n", e)
			}
		}
	}

	complete := 0
	for _, rec := range result.Records {
		if rec.Status == model.StatusComplete {
			complete++
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Run Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Envelopes:  %d\n", result.Envelopes)
	fmt.Fprintf(os.Stderr, "  Claims:     %d\n", len(result.Records))
	fmt.Fprintf(os.Stderr, "  Complete:   %d\n", complete)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", result.Failures)
	fmt.Fprintf(os.Stderr, "  Elapsed:    %v\n", result.Duration.Round(time.Millisecond))
	if result.SummaryPath != "" {
		fmt.Fprintf(os.Stderr, "  Summary:    %s\n", result.SummaryPath)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
