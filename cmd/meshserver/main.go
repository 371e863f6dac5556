package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/katsuo-dev/jpmesh-cache/internal/cache"
	"github.com/katsuo-dev/jpmesh-cache/internal/cache/memstore"
	"github.com/katsuo-dev/jpmesh-cache/internal/cache/redisstore"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/config"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/observability"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/router"
	"github.com/katsuo-dev/jpmesh-cache/internal/core/server"
	"github.com/katsuo-dev/jpmesh-cache/internal/health"
	"github.com/katsuo-dev/jpmesh-cache/internal/invalidation"
	"github.com/katsuo-dev/jpmesh-cache/internal/logger"
	"github.com/katsuo-dev/jpmesh-cache/internal/mapper/h3map"
	"github.com/katsuo-dev/jpmesh-cache/internal/mesh"
	"github.com/katsuo-dev/jpmesh-cache/internal/query"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

// prefixStore is what the invalidation consumer needs beyond the plain
// cache interface.
type prefixStore interface {
	cache.Interface
	invalidation.PrefixDeleter
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "meshserver",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting meshserver",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.CacheBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bounds := mesh.Bounds{
		MinLat: cfg.LatMin, MaxLat: cfg.LatMax,
		MinLon: cfg.LonMin, MaxLon: cfg.LonMax,
	}

	var store prefixStore
	ready := health.ReadyFunc(func() bool { return true })
	switch cfg.CacheBackend {
	case "redis":
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		store = rc
		ready = health.ReadyFunc(func() bool { return rc.Ready(context.Background()) })
	case "memory":
		store = memstore.New(cfg.MemoryCacheSize, cfg.CacheTTLDefault)
	default:
		appLog.Error("unknown cache backend", "backend", cfg.CacheBackend)
		return 1
	}

	engine := query.New(appLog, store, cfg.CacheTTLDefault, cfg.CacheOpTimeout, cfg.CoverMaxCells)
	handlers := router.New(appLog, bounds, engine, h3map.New(), cfg.H3Res)

	if cfg.Invalidation.Enabled {
		consumer := invalidation.New(invalidation.ConfigFrom(cfg.Invalidation), appLog, store, bounds)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer stopped", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, handlers, ready); err != nil {
		appLog.Error("server failed", "err", err)
		return 1
	}
	appLog.Info("meshserver stopped")
	return 0
}
