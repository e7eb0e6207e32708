package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	router "github.com/marusyk/Converse/internal/adapters/http"
	wsignal "github.com/marusyk/Converse/internal/adapters/signal"
	"github.com/marusyk/Converse/internal/app"
	"github.com/marusyk/Converse/internal/auth"
	"github.com/marusyk/Converse/internal/blob"
	"github.com/marusyk/Converse/internal/config"
	"github.com/marusyk/Converse/internal/domain"
	"github.com/marusyk/Converse/internal/storage"
)

func setupStorage(ctx context.Context, cfg *config.Config) (*storage.Service, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return storage.NewService(db, rdb), nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	store, err := setupStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up storage")
	}

	blobStore, err := blob.NewStore(cfg.UploadDir, "/static/uploads")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up blob store")
	}

	authsvc := auth.NewService(cfg.Secret)

	registry := app.NewRegistry()
	presence := app.NewPresence(registry, store)
	calls := app.NewCallManager(registry, presence)
	rooms := app.NewRooms()
	relay := app.NewRelay(registry)
	go calls.Run(ctx)

	ctl := wsignal.NewController(registry, presence, calls, rooms, relay)
	if cfg.ReadLimit > 0 {
		ctl.ReadLimit = cfg.ReadLimit
	}
	if cfg.PingPeriod > 0 {
		ctl.PingPeriod = cfg.PingPeriod
	}
	h := router.NewHandler(store, authsvc, blobStore)

	r := router.SetupRouter(ctx, cfg, h, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Converse server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
