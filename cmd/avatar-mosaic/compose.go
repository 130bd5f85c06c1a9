package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/avatar-mosaic/internal/config"
	"github.com/ironsheep/avatar-mosaic/internal/imaging"
	"github.com/ironsheep/avatar-mosaic/internal/pipeline"
	"github.com/ironsheep/avatar-mosaic/internal/shuffle"
	"github.com/ironsheep/avatar-mosaic/internal/stackexchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Download avatars and build the mosaic",
	Long: `Reads user ids, resolves them through the Stack Exchange API, downloads
every avatar, skips generated placeholders, shuffles the rest and writes the
mosaic as a PNG. Use --output - to write the PNG to stdout.`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)
	addGridFlags(composeCmd)
	composeCmd.Flags().String("ids", "", "File with one user id per line")
	composeCmd.Flags().StringP("output", "o", "", "Output PNG path ({cols}/{rows} expand, - for stdout)")
	composeCmd.Flags().Int("workers", 0, "Concurrent avatar downloads")
	composeCmd.Flags().String("site", "", "Stack Exchange site")
	composeCmd.Flags().String("redis-addr", "", "Redis address for the avatar cache")
	composeCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyGridFlags(cmd, &cfg)
	applyComposeFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids, err := stackexchange.ReadIDsFile(cfg.IDsFile)
	if err != nil {
		return err
	}
	logger.Debug("loaded user ids", "count", len(ids), "file", cfg.IDsFile)

	settings, auto, err := cfg.Grid.Resolve()
	if err != nil {
		return err
	}

	cache, closeCache, err := openAvatarCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	reg := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		shutdown := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer shutdown()
	}

	client := stackexchange.New(
		stackexchange.WithBaseURL(cfg.API.BaseURL),
		stackexchange.WithSite(cfg.API.Site),
		stackexchange.WithKey(cfg.API.Key),
		stackexchange.WithTimeout(cfg.API.Timeout),
	)

	res, err := pipeline.Run(ctx, pipeline.Options{
		IDs:            ids,
		BatchSize:      cfg.API.BatchSize,
		Workers:        cfg.Workers,
		Settings:       settings,
		AutoBackground: auto,
		OutputPath:     cfg.OutputPath(),
		Stdout:         cmd.OutOrStdout(),
	}, pipeline.Deps{
		Source:  client,
		Cache:   cache,
		Logger:  logger,
		Metrics: metrics,
		Rand:    shuffle.New(cfg.Seed),
	})
	if err != nil {
		return err
	}

	if res.OutputPath != pipeline.StdoutPath {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d placed, %d automatic, %d failed of %d users\n",
			res.OutputPath, res.Placed, res.Skipped, res.Failed, res.Fetched)
	}
	return nil
}

func applyComposeFlags(cmd *cobra.Command, cfg *config.Config) {
	strs := []struct {
		name  string
		field *string
	}{
		{"ids", &cfg.IDsFile},
		{"output", &cfg.Output},
		{"site", &cfg.API.Site},
		{"redis-addr", &cfg.Cache.RedisAddr},
		{"metrics-addr", &cfg.Metrics.Addr},
	}
	for _, f := range strs {
		if cmd.Flags().Changed(f.name) {
			*f.field, _ = cmd.Flags().GetString(f.name)
		}
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
}

// openAvatarCache returns a Redis cache when an address is configured and an
// in-memory one otherwise. An unreachable Redis is reported and replaced by
// memory so a run never depends on it.
func openAvatarCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (imaging.AvatarCache, func(), error) {
	if cfg.RedisAddr == "" {
		return imaging.NewMemoryAvatarCache(), func() {}, nil
	}

	rc := imaging.NewRedisAvatarCache(cfg.RedisAddr, imaging.WithTTL(cfg.TTL), imaging.WithPrefix(cfg.Prefix))
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, caching avatars in memory", "addr", cfg.RedisAddr, "error", err)
		_ = rc.Close()
		return imaging.NewMemoryAvatarCache(), func() {}, nil
	}
	logger.Debug("caching avatars in redis", "addr", cfg.RedisAddr)
	return rc, func() { _ = rc.Close() }, nil
}

// serveMetrics starts the metrics endpoint and returns a function that stops it.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           pipeline.MetricsHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}
}
