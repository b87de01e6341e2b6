package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/topic-modeler/internal/compare"
	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/parser"
	"github.com/topic-modeler/internal/table"
)

var (
	convertOutput   string
	sentencesOutput string
)

var convertCmd = &cobra.Command{
	Use:   "convert <report>",
	Short: "Extract the comments of a report into a comment table",
	Long: `Extracts every comment after the "Comments: (N)" marker of a report
(.docx, .pdf, .html, .eml, .xlsx, .txt or .md) and saves them as a table with
a single "comment" column. The output defaults to the configured raw comments
file in the data directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var sentencesCmd = &cobra.Command{
	Use:   "sentences <comments.csv>",
	Short: "Split every comment into one row per sentence",
	Args:  cobra.ExactArgs(1),
	RunE:  runSentences,
}

var compareCmd = &cobra.Command{
	Use:   "compare <a.csv> <b.csv>",
	Short: "Report the percentage of comments two tables share",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output table (.csv or .xlsx)")
	sentencesCmd.Flags().StringVarP(&sentencesOutput, "output", "o", "", "output table (default <input>_sentences.csv)")
	rootCmd.AddCommand(convertCmd, sentencesCmd, compareCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output := convertOutput
	if output == "" {
		output = cfg.RawCommentsFile
	}
	in, out := cfg.ResolvePath(args[0]), cfg.ResolvePath(output)

	comments, err := parser.ConvertFile(in, out)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	cmd.Printf("Conversion to CSV completed. %d comments written to %s\n", comments.Len(), out)
	return nil
}

func runSentences(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := cfg.ResolvePath(args[0])
	out := sentencesOutput
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + "_sentences.csv"
	} else {
		out = cfg.ResolvePath(out)
	}

	comments, err := table.Load(in)
	if err != nil {
		return err
	}
	sentences, err := parser.SplitSentences(comments)
	if err != nil {
		return err
	}
	if err := table.Save(out, sentences); err != nil {
		return err
	}
	cmd.Printf("Split %d comments into %d sentences: %s\n", comments.Len(), sentences.Len(), out)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pct, err := compare.Files(cfg.ResolvePath(args[0]), cfg.ResolvePath(args[1]))
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	cmd.Println(compare.Message(pct))

	recordComparison(cmd, cfg.DBPath, args[0], args[1], pct)
	return nil
}

// recordComparison logs a comparison to the history database. Failing to do
// so does not fail the comparison.
func recordComparison(cmd *cobra.Command, dbPath, a, b string, pct float64) {
	stores, err := database.OpenStores(dbPath)
	if err != nil {
		logger.Warnf("compare: history unavailable: %v", err)
		return
	}
	defer stores.Close()

	if _, err := stores.Comparisons.Record(cmd.Context(), a, b, pct); err != nil {
		logger.Warnf("compare: failed to record comparison: %v", err)
	}
}
