package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/config"
	"github.com/nicosare/minibars/internal/consumer"
	"github.com/nicosare/minibars/internal/database"
	httpapi "github.com/nicosare/minibars/internal/http"
	"github.com/nicosare/minibars/internal/logger"
	"github.com/nicosare/minibars/internal/notifier"
	"github.com/nicosare/minibars/internal/repository"
	"github.com/nicosare/minibars/internal/service"
	"github.com/nicosare/minibars/internal/store"
	"github.com/nicosare/minibars/internal/vk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "minibars")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("Starting minibars service",
		zap.Int64("group_id", cfg.VK.GroupID),
		zap.Int64("peer_id", cfg.VK.PeerID),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	state := repository.NewRoomStateRepository(store.NewRedisKV(redisClient), zlog)

	var inventory service.InventoryGateway = service.NewNoopInventory(zlog)
	if cfg.Database.Enabled {
		if db, err := database.NewPostgresDB(cfg.DSN()); err == nil {
			defer db.Close()
			inventory = repository.NewInventoryRepository(db, zlog)
			zlog.Info("Inventory database connected")
		} else {
			zlog.Warn("Inventory database unavailable, status mirroring disabled", zap.Error(err))
		}
	}

	reconciler := service.NewReconciler(state, inventory, zlog)
	vkClient := vk.NewClient(cfg.VK.Token, cfg.VK.GroupID, cfg.VK.Wait, zlog)

	var notify consumer.Notifier
	if cfg.VK.Notify {
		notify = notifier.New(vkClient, cfg.VK.PeerID, cfg.VK.NotifyCacheSize, zlog)
	}

	// Rewrite pre-timestamp emptied records before anything reads them.
	if migrated, err := state.MigrateLegacyEmptied(context.Background(), time.Now()); err != nil {
		zlog.Error("Legacy emptied migration failed", zap.Error(err))
	} else if migrated > 0 {
		zlog.Info("Legacy emptied records migrated", zap.Int("count", migrated))
	}

	router := httpapi.NewRouter(zlog)
	router.RegisterReportRoutes(httpapi.NewReportHandler(state, zlog))
	server := service.NewServer(cfg.HTTP.Addr, router, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ingest := consumer.NewConsumer(
		vkClient, reconciler, notify,
		cfg.VK.PeerID, cfg.VK.Wait, cfg.VK.Backoff,
		zlog,
	)
	go func() {
		if err := ingest.Run(ctx); err != nil {
			zlog.Fatal("Long poll consumer stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			zlog.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zlog.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		zlog.Error("Error during shutdown", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		zlog.Error("Error closing Redis client", zap.Error(err))
	}

	zlog.Info("Service stopped")
}
