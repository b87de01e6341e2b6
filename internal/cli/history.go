package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/topic-modeler/internal/database"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past training runs and comparisons",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries of each kind")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stores, err := database.OpenStores(cfg.DBPath)
	if err != nil {
		return err
	}
	defer stores.Close()

	runs, err := stores.Runs.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	comparisons, err := stores.Comparisons.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		cmd.Println("No training runs.")
	} else {
		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				r.StartedAt.Local().Format(time.DateTime),
				r.ID,
				r.Status,
				strconv.Itoa(r.NrTopics),
				strconv.Itoa(r.RowCount),
				r.Source,
			})
		}
		cmd.Println(renderTable([]string{"Started", "Run", "Status", "Topics", "Rows", "Source"}, rows))
	}

	if len(comparisons) == 0 {
		cmd.Println("No comparisons.")
	} else {
		rows := make([][]string, 0, len(comparisons))
		for _, c := range comparisons {
			rows = append(rows, []string{
				c.CreatedAt.Local().Format(time.DateTime),
				c.FileA,
				c.FileB,
				fmt.Sprintf("%.2f%%", c.Percentage),
			})
		}
		cmd.Println(renderTable([]string{"Compared", "File A", "File B", "Duplicates"}, rows))
	}
	return nil
}
