// as2aas-mock levanta la API fake de AS2aaS sobre el store en memoria. Sirve
// para desarrollo local de integraciones y para apuntar la CLI sin tocar
// producción.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/as2aas/internal/cache"
	"github.com/dropDatabas3/as2aas/internal/config"
	"github.com/dropDatabas3/as2aas/internal/fakeapi"
	"github.com/dropDatabas3/as2aas/internal/observability/logger"
	"github.com/dropDatabas3/as2aas/internal/rate"
	"github.com/dropDatabas3/as2aas/mock"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("AS2AAS_CONFIG"), "ruta al config.yaml (opcional)")
	flag.Parse()

	// .env opcional; sin archivo seguimos con el entorno del sistema.
	envErr := godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "as2aas-mock"})
	defer func() { _ = logger.Sync() }()
	log := logger.With(logger.Component("fakeapi-server"))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn("could not load .env", logger.Err(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cache: replay de idempotencia y, si es redis, contadores del limiter.
	cc, err := cache.New(ctx, cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix + ":idem",
	})
	if err != nil {
		log.Fatal("cache init failed", zap.String("kind", cfg.Cache.Kind), logger.Err(err))
	}
	defer func() { _ = cc.Close() }()

	var limiter rate.Limiter
	if cfg.Mock.Rate.Enabled {
		var rdb *redis.Client
		if r, ok := cc.(*cache.Redis); ok {
			rdb = r.Raw()
		}
		limiter = rate.NewLimiter(rdb, cfg.Cache.Redis.Prefix+":rl:", cfg.Mock.Rate.Max, cfg.RateWindow())
	}

	store := mock.NewStore()
	if cfg.Mock.Empty {
		store.Reset()
	}

	srv, err := fakeapi.New(fakeapi.Options{
		Store:          store,
		APIKeys:        cfg.Mock.APIKeys,
		Limiter:        limiter,
		Idempotency:    cc,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Logger:         log,
	})
	if err != nil {
		log.Fatal("fakeapi wiring failed", logger.Err(err))
	}

	hs := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info("as2aas-mock listening",
			zap.String("addr", cfg.Mock.Addr),
			zap.String("cache", cfg.Cache.Kind),
			zap.Bool("rate_limit", limiter != nil),
			zap.String("base_url", "http://localhost"+cfg.Mock.Addr+"/v1/"),
		)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		log.Warn("graceful shutdown failed", logger.Err(err))
	}
}
