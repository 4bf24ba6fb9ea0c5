package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimtrust/internal/cache"
	"github.com/ppiankov/claimtrust/internal/classify"
	"github.com/ppiankov/claimtrust/internal/extract"
	"github.com/ppiankov/claimtrust/internal/model"
	"github.com/ppiankov/claimtrust/internal/textextract"
)

var showText bool

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Classify one document and print its extracted fields",
	Long: `Classify extracts the text of a single document, decides whether it is a
statement of account or a treaty slip and prints the classification with
every extracted financial field as JSON. Nothing is written to disk.

Example:
  claimtrust classify claims/2024-001/MARINE_Statement_Q3.pdf
  claimtrust classify slip.pdf --text`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&showText, "text", false, "include the extracted text")
}

// classifyOutput is the printed result of the classify command
type classifyOutput struct {
	File           string                       `json:"file"`
	MIME           string                       `json:"mime"`
	Extractor      string                       `json:"extractor"`
	Classification model.DocumentClassification `json:"classification"`
	Text           string                       `json:"text,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.log.Sync() }()

	classifier, err := classify.New(s.cfg.Classifier, extract.New(s.cfg.Extraction))
	if err != nil {
		return fmt.Errorf("create classifier: %w", err)
	}

	res, err := textextract.NewService(cache.Nop{}, s.log).Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	out := classifyOutput{
		File:           filepath.Base(path),
		MIME:           res.MIME,
		Extractor:      res.Extractor,
		Classification: classifier.Analyze(path, res.Text),
	}
	if showText {
		out.Text = res.Text
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
