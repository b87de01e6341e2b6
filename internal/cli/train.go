package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/topic-modeler/internal/table"
	"github.com/topic-modeler/internal/topicmodel"
)

var (
	trainTopics    int
	trainDetails   bool
	trainHierarchy string
	trainBarChart  string
	trainSelection string
	trainOutput    string
)

var trainCmd = &cobra.Command{
	Use:   "train [comments.csv]",
	Short: "Train a topic model and inspect or export its topics",
	Long: `Trains a topic model on a comment table (the configured raw comments file
by default) and waits for it to finish. The trained model can then be
inspected and the comments of selected topics exported:

  topic-modeler train raw_comments.csv -n 8 --details
  topic-modeler train -n 8 --barchart topics.html --hierarchy tree.html
  topic-modeler train -n 8 --topics "1,3" -o selected.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().IntVarP(&trainTopics, "nr-topics", "n", 10, "number of topics to request")
	trainCmd.Flags().BoolVar(&trainDetails, "details", false, "print the topic details table")
	trainCmd.Flags().StringVar(&trainHierarchy, "hierarchy", "", "write the topic hierarchy figure to this HTML file")
	trainCmd.Flags().StringVar(&trainBarChart, "barchart", "", "write the topic word bar chart to this HTML file")
	trainCmd.Flags().StringVar(&trainSelection, "topics", "", "comma-separated topic ids to export, e.g. \"1,3\"")
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "", "subset output table for --topics")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	if trainSelection != "" && trainOutput == "" {
		return fmt.Errorf("--topics requires --output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := cfg.RawCommentsFile
	if len(args) > 0 {
		source = args[0]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.startWorkers(ctx)

	cmd.Println(rt.session.Status().Message)
	task, err := rt.session.Train(ctx, cfg.ResolvePath(source), trainTopics)
	if err != nil {
		return err
	}
	cmd.Println(rt.session.Status().Message)

	if err := task.Wait(ctx); err != nil {
		cmd.Println(rt.session.Status().Message)
		return fmt.Errorf("training failed: %w", err)
	}
	status := rt.session.Status()
	cmd.Printf("%s %d comments, run %s\n", status.Message, status.Rows, status.RunID)

	if trainDetails {
		details, err := rt.session.Details()
		if err != nil {
			return err
		}
		cmd.Println(renderTable(details.Columns, details.Rows))
	}
	if trainHierarchy != "" {
		if err := buildAndWriteFigure(cfg.ResolvePath(trainHierarchy), rt.session.Hierarchy); err != nil {
			return err
		}
		cmd.Printf("Hierarchy written to %s\n", cfg.ResolvePath(trainHierarchy))
	}
	if trainBarChart != "" {
		if err := buildAndWriteFigure(cfg.ResolvePath(trainBarChart), rt.session.BarChart); err != nil {
			return err
		}
		cmd.Printf("Bar chart written to %s\n", cfg.ResolvePath(trainBarChart))
	}
	if trainSelection != "" {
		out := cfg.ResolvePath(trainOutput)
		if err := rt.session.ExportSelection(out, trainSelection); err != nil {
			return err
		}
		cmd.Printf("Subset CSV file saved: %s\n", out)
	}
	return nil
}

// htmlRenderer is a figure that renders itself as an HTML page.
type htmlRenderer interface {
	WriteHTML(w io.Writer) error
}

// writeFigure renders fig into path through a temp file, so a failed render
// leaves no partial page behind.
func writeFigure(path string, fig htmlRenderer) error {
	if err := table.WriteAtomic(path, fig.WriteHTML); err != nil {
		return fmt.Errorf("failed to write figure %s: %w", path, err)
	}
	return nil
}

func buildAndWriteFigure(path string, build func() (*topicmodel.Figure, error)) error {
	fig, err := build()
	if err != nil {
		return err
	}
	return writeFigure(path, fig)
}
