package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/topic-modeler/internal/config"
	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert reports as they appear in the data directory",
	Long: `Watches the data directory and converts every new or changed report into
a comment table next to it (report.docx becomes report.csv). Reports whose
contents were already converted are skipped.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stores, err := database.OpenStores(cfg.DBPath)
	if err != nil {
		return err
	}
	defer stores.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := startWatcher(ctx, cfg, stores, nil)
	if err != nil {
		return err
	}
	defer w.Stop()

	events, unsubscribe := w.Events().Subscribe()
	defer unsubscribe()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", cfg.DataDir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			printEvent(cmd, ev)
		}
	}
}

func startWatcher(ctx context.Context, cfg *config.Config, stores *database.Stores, events *watcher.Broadcaster) (*watcher.Watcher, error) {
	w, err := watcher.New(watcher.Options{
		Dir:      cfg.DataDir,
		Debounce: cfg.Watch.Debounce,
		Tracker:  stores.Tracked,
		Events:   events,
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func printEvent(cmd *cobra.Command, ev watcher.Event) {
	switch ev.Type {
	case watcher.EventConverted:
		cmd.Printf("converted %s -> %s (%d comments)\n", ev.Path, ev.Output, ev.Comments)
	case watcher.EventSkipped:
		cmd.Printf("skipped %s: %s\n", ev.Path, ev.Message)
	case watcher.EventError:
		cmd.Printf("failed %s: %s\n", ev.Path, ev.Error)
	}
}
