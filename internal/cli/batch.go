package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimtrust/internal/worker"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze the claim directories listed in a file",
	Long: `Batch reads claim directories from a file (one per line, # starts a
comment) and processes them as a single run with one summary workbook.

Example:
  claimtrust batch claims.txt --ledger ledger.xlsx
  claimtrust batch claims.txt --workers 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	dirs, err := worker.ReadDirsFromFile(file)
	if err != nil {
		return fmt.Errorf("read claim directories: %w", err)
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no claim directories listed in %s", file)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d claim directories from %s\n", len(dirs), file)
	return runClaims(cmd, dirs)
}
