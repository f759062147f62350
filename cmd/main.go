package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vpnshop/internal/bot"
	"vpnshop/internal/catalog"
	"vpnshop/internal/config"
	cronpkg "vpnshop/internal/cron"
	"vpnshop/internal/middleware"
	"vpnshop/internal/provision"
	"vpnshop/internal/repository"
	"vpnshop/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// --- Catalog (flat-file plans, settings, admins) ---
	cat, err := catalog.Open(cfg.Catalog.DataDir, cfg.Bot.RootAdminID)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	panelRepo := repository.NewPanelRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// --- Provisioner ---
	prov := provision.New(panelRepo, accountRepo, nil, logger)

	// --- Webhook Deduper (Redis with in-memory fallback) ---
	deduper, dedupeErr := middleware.NewDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Bot ---
	botRepos := &bot.BotRepos{
		User:    userRepo,
		Panel:   panelRepo,
		Account: accountRepo,
		Order:   orderRepo,
	}
	teleBot, err := bot.New(cfg, cat, botRepos, prov, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// --- Echo + Routes ---
	e := echo.New()
	e.HideBanner = true
	router.Setup(e, logger, deduper, teleBot.WebhookHandler())

	// --- Cron Scheduler ---
	cronRepos := &cronpkg.CronRepos{
		User:    userRepo,
		Account: accountRepo,
		Order:   orderRepo,
	}
	scheduler := cronpkg.New(cfg, cronRepos, teleBot, logger)
	scheduler.Start()

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting vpnshop server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	go teleBot.Start()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	teleBot.Stop()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
