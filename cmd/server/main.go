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

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/alerts"
	"github.com/shoaibghazii/Ghazi-Medi/internal/cache"
	"github.com/shoaibghazii/Ghazi-Medi/internal/config"
	"github.com/shoaibghazii/Ghazi-Medi/internal/httpapi"
	"github.com/shoaibghazii/Ghazi-Medi/internal/logger"
	"github.com/shoaibghazii/Ghazi-Medi/internal/service"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store/memory"
	pgstore "github.com/shoaibghazii/Ghazi-Medi/internal/store/postgres"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store/snapshot"
)

func main() {
	cfg := config.Load()
	log := logger.Default().WithComponent("server")

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalw("invalid security configuration", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("postgres unavailable and DATABASE_URL is set; refusing to start with a local fallback", "error", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Infow("repository selected", "kind", "postgres")
	case cfg.DataDir != "":
		snap, err := snapshot.New(cfg.DataDir, logger.Default())
		if err != nil {
			log.Fatalw("snapshot store init failed", "dir", cfg.DataDir, "error", err)
		}
		repo = snap
		log.Infow("repository selected", "kind", "snapshot", "dir", cfg.DataDir)
	default:
		repo = memory.New()
		log.Infow("repository selected", "kind", "in-memory")
	}

	summaryCache := cache.SummaryCache(cache.NoopSummaryCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSummaryCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warnw("redis unavailable, using noop cache", "error", err)
		} else {
			summaryCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Infow("cache selected", "kind", "redis")
		}
	}

	lowStock, err := decimal.NewFromString(cfg.LowStockThreshold)
	if err != nil {
		log.Warnw("invalid LOW_STOCK_THRESHOLD, using 10", "value", cfg.LowStockThreshold)
		lowStock = decimal.NewFromInt(10)
	}
	alertEngine := alerts.NewEngine(cfg.NearExpiryDays, lowStock)

	svc := service.New(repo, summaryCache, alertEngine, cfg.StoreName, time.Duration(cfg.SummaryTTLSeconds)*time.Second, logger.Default())

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	if cfg.AdminPassword != "" {
		if err := auth.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalw("admin seed failed", "error", err)
		}
	}

	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger.Default())

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infow("listening", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown error", "error", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warnw("close error", "error", err)
		}
	}

	log.Infow("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
