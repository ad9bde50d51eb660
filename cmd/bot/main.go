// Package main is the entry point for the marry-fun Telegram bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marry-fun-bot/internal/ai"
	"marry-fun-bot/internal/bot"
	"marry-fun-bot/internal/cache"
	"marry-fun-bot/internal/config"
	"marry-fun-bot/internal/persona"
	"marry-fun-bot/internal/pkg/db"
	"marry-fun-bot/internal/repository"
	"marry-fun-bot/internal/service"
	"marry-fun-bot/internal/telemetry"
)

const healthCheckInterval = time.Minute

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.Log)

	log.Info().Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up tracing")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	go watchDatabase(ctx, dbPool)

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	ngWordCache := cache.NewNgWordCache(redisClient, cfg.Redis.Prefix, cfg.Redis.NgWordTTL)

	personas := persona.NewDefaultRegistry()
	aiClient := ai.NewClient(cfg.AI, personas)

	log.Info().
		Int("persona_count", personas.Count()).
		Str("model", cfg.AI.Model).
		Msg("Personas registered")

	userRepo := repository.NewUserRepository(dbPool.Pool)
	sessionRepo := repository.NewSessionRepository(dbPool.Pool)
	pointRepo := repository.NewPointRepository(dbPool.Pool)
	messageRepo := repository.NewMessageRepository(dbPool.Pool)

	deps := &bot.Dependencies{
		Config:         cfg,
		AccountService: service.NewAccountService(userRepo),
		GameService:    service.NewGameSessionService(sessionRepo, ngWordCache, aiClient, personas, cfg.Game.LockTimeout),
		PointService:   service.NewPointService(pointRepo, cfg.Points.HistoryLimit),
		MessageService: service.NewMessageService(messageRepo),
		Personas:       personas,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go telegramBot.Start()

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// watchDatabase logs when the pool stops answering pings.
func watchDatabase(ctx context.Context, pool *db.Pool) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := pool.HealthCheck(checkCtx); err != nil {
				log.Warn().Err(err).Msg("PostgreSQL health check failed")
			}
			cancel()
		}
	}
}
