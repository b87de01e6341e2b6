package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/topic-modeler/internal/config"
	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/embeddings"
	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/notify"
	"github.com/topic-modeler/internal/queue"
	"github.com/topic-modeler/internal/session"
	"github.com/topic-modeler/internal/topicmodel"
)

// loadConfig reads the configuration, makes sure the data directory exists
// and points the default logger at the configured log file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := logger.Init(cfg.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtime is everything a command that trains models needs.
type runtime struct {
	cfg     *config.Config
	stores  *database.Stores
	session *session.Session

	closers []func()
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	stores, err := database.OpenStores(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	rt.stores = stores
	rt.closers = append(rt.closers, func() { stores.Close() })

	if n, err := stores.Runs.MarkInterrupted(ctx); err != nil {
		logger.Warnf("newRuntime: failed to mark interrupted runs: %v", err)
	} else if n > 0 {
		logger.Printf("newRuntime: marked %d interrupted training runs as failed", n)
	}

	embedder, err := embeddings.NewEmbedder(cfg.Embedder)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	logger.Printf("Initialized embedder: %s (dimension: %d)", cfg.Embedder.Type, embedder.Dimension())

	q, err := rt.newQueue(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	sess, err := session.New(session.Options{
		Factory:  topicmodel.NewFactory(embedder),
		Queue:    q,
		Notifier: notify.NewDesktop(cfg.Notify.Enabled),
		Runs:     stores.Runs,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.session = sess
	return rt, nil
}

func (rt *runtime) newQueue(ctx context.Context) (queue.Queue, error) {
	switch rt.cfg.Queue.Backend {
	case "redis":
		client, err := config.NewRedisClient(ctx, rt.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { closeRedis(client) })
		return queue.NewRedisQueue(ctx, client, rt.cfg.Queue.Key)
	default:
		q := queue.NewMemoryQueue(16)
		rt.closers = append(rt.closers, q.Close)
		return q, nil
	}
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		logger.Warnf("failed to close Redis client: %v", err)
	}
}

// startWorkers runs the session's training workers until ctx is cancelled.
func (rt *runtime) startWorkers(ctx context.Context) {
	go func() {
		if err := rt.session.Run(ctx, rt.cfg.WorkerCount); err != nil {
			logger.Errorf("training workers stopped: %v", err)
		}
	}()
}

// Close releases the runtime in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
