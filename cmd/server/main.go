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
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/config"
	"github.com/gurnoorsh/wealthwise/internal/db"
	"github.com/gurnoorsh/wealthwise/internal/encryption"
	"github.com/gurnoorsh/wealthwise/internal/handlers"
	"github.com/gurnoorsh/wealthwise/internal/logger"
	"github.com/gurnoorsh/wealthwise/internal/repositories"
	"github.com/gurnoorsh/wealthwise/internal/retry"
	"github.com/gurnoorsh/wealthwise/internal/scheduler"
	"github.com/gurnoorsh/wealthwise/internal/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	database, err := db.Connect(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info("database connection established", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	cipher, err := encryption.NewCipherFromBase64(cfg.Encryption.Key)
	if err != nil {
		return err
	}

	// Repositories
	priceRepo := repositories.NewPriceRepository(database)
	portfolioRepo := repositories.NewPortfolioRepository(database)
	userRepo := repositories.NewUserRepository(database)
	snapshotRepo := repositories.NewSnapshotRepository(database)

	// Price feed and services
	feed := services.NewPriceFeedAdapter(
		services.NewAlphaVantageProvider(cfg.Feeds.AlphaVantageBaseURL, cfg.Feeds.AlphaVantageAPIKey, cfg.Feeds.Timeout),
		services.NewCoinGeckoProvider(cfg.Feeds.CoinGeckoBaseURL, cfg.Feeds.CoinGeckoAPIKey, cfg.Feeds.Timeout),
		log,
	)
	if cfg.Feeds.AlphaVantageAPIKey == "" {
		log.Warn("ALPHA_VANTAGE_API_KEY is not set; equity prices will not refresh")
	}

	priceOpts := []services.PriceServiceOption{
		services.WithRetry(retry.Config{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   2.0,
		}),
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, price cache will fall back to the database", zap.Error(err))
		}
		priceOpts = append(priceOpts, services.WithPriceCache(services.NewRedisPriceCache(client, cfg.Redis.PriceTTL)))
		log.Info("price cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	priceService := services.NewPriceService(feed, priceRepo, log, priceOpts...)
	portfolioService := services.NewPortfolioService(portfolioRepo, priceService, cipher, log)
	// Snapshots value against the store directly, never the cache.
	snapshotValuator := services.NewPortfolioService(portfolioRepo, priceService.Uncached(), cipher, log)
	netWorthService := services.NewNetWorthService(snapshotValuator, snapshotRepo, cfg.Snapshot.DedupeDaily, cfg.Scheduler.Location(), log)

	// Scheduler
	sched := scheduler.New(scheduler.Deps{
		Instruments: portfolioRepo,
		Users:       userRepo,
		Prices:      priceService,
		Snapshots:   netWorthService,
	}, scheduler.Config{
		Hour:        cfg.Scheduler.Hour,
		Minute:      cfg.Scheduler.Minute,
		Location:    cfg.Scheduler.Location(),
		PacingDelay: cfg.Scheduler.PacingDelay,
		Jitter:      cfg.Scheduler.Jitter,
	}, log)
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
	}

	// HTTP API
	router := &handlers.Router{
		Portfolios: handlers.NewPortfolioHandler(portfolioService),
		NetWorth:   handlers.NewNetWorthHandler(netWorthService),
		Prices:     handlers.NewPriceHandler(priceService),
		Admin:      handlers.NewAdminHandler(sched),
		Health:     database.Health,
		Logger:     log,
	}
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}
	if err := sched.Shutdown(shutdownCtx); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}
