package cmd

import (
	"context"
	"fmt"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zstadler/mapproxy/internal/api"
	"github.com/zstadler/mapproxy/internal/cache"
	"github.com/zstadler/mapproxy/internal/clock/system"
	"github.com/zstadler/mapproxy/internal/config"
	"github.com/zstadler/mapproxy/internal/coverage"
	"github.com/zstadler/mapproxy/internal/grid"
	"github.com/zstadler/mapproxy/internal/logging"
	"github.com/zstadler/mapproxy/internal/metrics"
	"github.com/zstadler/mapproxy/internal/notify/pubsub"
	"github.com/zstadler/mapproxy/internal/seeder"
	"github.com/zstadler/mapproxy/internal/source"
)

func newSeedCmd() *cobra.Command {
	var (
		manifestPath string
		dryRun       bool
		concurrency  int
		skipGeoms    int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run the seed tasks from a manifest",
		Long: `Reads a seed manifest, builds one task per entry, and seeds them
strictly in sequence. Each task gets its own worker pool; --dry-run walks the
grid and reports tile counts and ETAs without touching the cache.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), manifestPath, dryRun, concurrency, skipGeoms)
		},
	}
	cmd.Flags().StringVar(&manifestPath, "seeds", "seeds.yaml", "path to the seed manifest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "walk the grid without fetching tiles")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "override seed.concurrency")
	cmd.Flags().IntVar(&skipGeoms, "skip-geoms-for-last-levels", -1,
		"override seed.skip_geoms_for_last_levels")
	return cmd
}

func runSeed(ctx context.Context, manifestPath string, dryRun bool, concurrency, skipGeoms int) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Seed.Concurrency = concurrency
	}
	if skipGeoms >= 0 {
		cfg.Seed.SkipGeomsForLastLevels = skipGeoms
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	metrics.Init()

	mg, err := buildGrid(cfg)
	if err != nil {
		return err
	}
	tiles, cleanup, err := buildTileManager(ctx, cfg, mg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	tasks, err := buildTasks(manifestPath, mg, tiles)
	if err != nil {
		return err
	}

	clk := system.New()
	reporter := seeder.NewReporter(nil, clk)

	if cfg.API.Enabled {
		srv := api.NewServer(reporter, logger)
		go func() {
			if serveErr := srv.Start(cfg.API.Port); serveErr != nil {
				logger.Warn("status api stopped", zap.Error(serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := seeder.RunOptions{
		Concurrency:            cfg.Seed.Concurrency,
		QueueSize:              cfg.Seed.QueueDepth,
		DryRun:                 dryRun,
		SkipGeomsForLastLevels: cfg.Seed.SkipGeomsForLastLevels,
		Retry:                  buildRetry(cfg),
		Reporter:               reporter,
		Clock:                  clk,
		Logger:                 logger,
	}
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		client, psErr := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if psErr != nil {
			return fmt.Errorf("init pubsub client: %w", psErr)
		}
		defer func() {
			_ = client.Close()
		}()
		opts.Notifier = pubsub.New(client)
		opts.Topic = cfg.PubSub.TopicName
	}

	return seeder.RunTasks(ctx, tasks, opts)
}

func buildGrid(cfg config.Config) (*grid.MetaGrid, error) {
	extent := grid.BBox{
		MinX: cfg.Grid.Extent[0], MinY: cfg.Grid.Extent[1],
		MaxX: cfg.Grid.Extent[2], MaxY: cfg.Grid.Extent[3],
	}
	tg, err := grid.NewTileGrid(extent, cfg.Grid.Levels)
	if err != nil {
		return nil, err
	}
	meta := grid.Size{Cols: cfg.Grid.MetaTile[0], Rows: cfg.Grid.MetaTile[1]}
	return grid.NewMetaGrid(tg, meta), nil
}

func buildTileManager(ctx context.Context, cfg config.Config, mg *grid.MetaGrid, logger *zap.Logger) (seeder.TileManager, func(), error) {
	src, err := source.New(source.Config{
		URLTemplate: cfg.Source.URLTemplate,
		UserAgent:   cfg.Source.UserAgent,
		Timeout:     cfg.SourceTimeout(),
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var store cache.Store
	switch cfg.Cache.Backend {
	case "local":
		store, err = cache.NewLocalStore(cache.LocalConfig{BaseDir: cfg.Cache.Local.BaseDir})
	case "gcs":
		var client *gcstorage.Client
		client, err = gcstorage.NewClient(ctx)
		if err == nil {
			store, err = cache.NewGCSStore(client, cache.GCSConfig{
				Bucket: cfg.Cache.GCS.Bucket,
				Prefix: cfg.Cache.GCS.Prefix,
			})
			cleanup = func() {
				_ = client.Close()
			}
		}
	case "postgres":
		var pgStore *cache.PostgresStore
		pgStore, err = cache.NewPostgresStore(ctx, cache.PostgresConfig{
			DSN:   cfg.Cache.Postgres.DSN,
			Table: cfg.Cache.Postgres.Table,
		})
		if err == nil {
			store = pgStore
			cleanup = pgStore.Close
		}
	default:
		err = fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init %s cache: %w", cfg.Cache.Backend, err)
	}
	return cache.NewManager(mg, src, store, logger), cleanup, nil
}

func buildTasks(manifestPath string, mg *grid.MetaGrid, tiles seeder.TileManager) ([]*seeder.SeedTask, error) {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	tasks := make([]*seeder.SeedTask, 0, len(manifest.Seeds))
	for _, spec := range manifest.Seeds {
		tasks = append(tasks, &seeder.SeedTask{
			ID:   uuid.NewString(),
			Name: spec.Name,
			Grid: mg,
			Coverage: coverage.NewBBox(grid.BBox{
				MinX: spec.BBox[0], MinY: spec.BBox[1],
				MaxX: spec.BBox[2], MaxY: spec.BBox[3],
			}),
			Levels:        spec.Levels.List(),
			Tiles:         tiles,
			RefreshBefore: spec.RefreshBefore,
		})
	}
	return tasks, nil
}

func buildRetry(cfg config.Config) *seeder.RetryPolicy {
	policy := seeder.NewRetryPolicy()
	policy.MaxAttempts = cfg.Retry.MaxAttempts
	policy.BaseDelay = cfg.RetryBaseDelay()
	policy.MaxDelay = cfg.RetryMaxDelay()
	policy.Factor = cfg.Retry.Factor
	return policy
}
