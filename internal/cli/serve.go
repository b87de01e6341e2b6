package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/server"
	"github.com/topic-modeler/internal/watcher"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive HTTP surface",
	Long: `Starts the HTTP server: a JSON API over the analysis session, HTML figures
and a websocket at /ws/status streaming training progress and conversions.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "convert reports dropped into the data directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.startWorkers(ctx)

	events := watcher.NewBroadcaster()
	if serveWatch {
		w, err := startWatcher(ctx, cfg, rt.stores, events)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	srv, err := server.New(server.Options{
		DataDir:         cfg.DataDir,
		RawCommentsFile: cfg.RawCommentsFile,
		Session:         rt.session,
		Stores:          rt.stores,
		Events:          events,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	cmd.Printf("Serving on http://localhost%s\n", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		logger.Errorf("serve: %v", err)
		return err
	}
	return nil
}
