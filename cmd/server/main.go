package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crwatch/backend/config"
	httpDelivery "github.com/crwatch/backend/internal/delivery/http"
	"github.com/crwatch/backend/internal/domain"
	"github.com/crwatch/backend/internal/infrastructure/cache"
	"github.com/crwatch/backend/internal/infrastructure/dataset"
	"github.com/crwatch/backend/internal/logging"
	"github.com/crwatch/backend/internal/usecase"
)

const (
	Version = "1.0.0"
	appName = "crw-server"

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Page match API for the browser extension",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath, logLevel)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func run(ctx context.Context, configPath, logLevel string) error {
	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	logger := logging.New(logLevel, cfg.Log.Format, os.Stdout)

	logger.Info().
		Str("version", Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting crw backend")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := httpDelivery.NewMetrics(registry)

	// Initialize infrastructure dependencies
	matchCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer matchCache.Close()

	loader := dataset.NewLoader(cfg.Dataset.Path, logger)
	store := dataset.NewStore(loader, metrics, logger)
	if _, err := store.Reload(ctx); err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	// Initialize usecase layer
	lookup := usecase.NewLookupService(
		store,
		matchCache,
		usecase.LookupServiceConfig{
			CacheTTL: cfg.Cache.TTL,
			Match:    cfg.MatchConfig(),
			Observer: metrics,
		},
		logger,
	)

	matching := cfg.Matching
	logger.Info().
		Bool("subdomains", matching.EnableSubdomainMatching).
		Bool("ecommerce_alias", matching.EnableEcommerceFamilyAliasMatching).
		Int("url_seed_limit", matching.URLSeedLimit).
		Int("meta_seed_limit", matching.MetaSeedLimit).
		Msg("matching configured")

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(lookup, Version)
	router := httpDelivery.SetupRouter(cfg, handler, metrics, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Dataset.Watch {
		watcher := dataset.NewWatcher(cfg.Dataset.Path, cfg.Dataset.Debounce, store, logger)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}

// resultCache is a cache repository that owns resources
type resultCache interface {
	domain.CacheRepository
	Close() error
}

func newCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (resultCache, error) {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cache.DefaultRedisConfig())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info().Msg("redis cache connected")
		return redisCache, nil
	default:
		return cache.NewMemoryCache(), nil
	}
}
